// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("tx-validator"),
	}
}

// RequiredSigners возвращает плательщика и все ключи с IsSigner из инструкций,
// без повторов и в порядке первого появления.
func RequiredSigners(payer solana.PublicKey, instructions []solana.Instruction) []solana.PublicKey {
	seen := map[solana.PublicKey]struct{}{payer: {}}
	required := []solana.PublicKey{payer}
	for _, inst := range instructions {
		for _, meta := range inst.Accounts() {
			if meta == nil || !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			required = append(required, meta.PublicKey)
		}
	}
	return required
}

// ValidateRequest проверяет запрос до любого сетевого вызова.
func (v *Validator) ValidateRequest(req Request) error {
	if len(req.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrInvalidInstruction)
	}
	for i, inst := range req.Instructions {
		if inst == nil {
			return fmt.Errorf("%w: instruction %d is nil", ErrInvalidInstruction, i)
		}
	}
	if req.Payer.IsZero() {
		return ErrInvalidPayer
	}
	return v.ValidateSigners(req.Payer, req.Instructions, req.Signers)
}

// ValidateSigners returns a *SigningError listing every required signer
// that has no private key in signers.
func (v *Validator) ValidateSigners(payer solana.PublicKey, instructions []solana.Instruction, signers []solana.PrivateKey) error {
	available := make(map[solana.PublicKey]struct{}, len(signers))
	for _, key := range signers {
		available[key.PublicKey()] = struct{}{}
	}

	var missing []solana.PublicKey
	for _, key := range RequiredSigners(payer, instructions) {
		if _, ok := available[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		v.logger.Debug("Missing signers", zap.Int("count", len(missing)))
		return &SigningError{Missing: missing}
	}
	return nil
}

func (v *Validator) ValidateTransaction(tx *solana.Transaction) error {
	if tx == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidInstruction)
	}

	if err := v.ValidateSignatures(tx); err != nil {
		return err
	}

	if err := v.ValidateBlockhash(tx); err != nil {
		return err
	}

	if err := v.ValidateInstructions(tx.Message.Instructions); err != nil {
		return err
	}

	return nil
}

func (v *Validator) ValidateSignatures(tx *solana.Transaction) error {
	if len(tx.Signatures) == 0 || len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return ErrInvalidSignature
	}
	for _, sig := range tx.Signatures {
		if sig.IsZero() {
			return ErrInvalidSignature
		}
	}
	return nil
}

func (v *Validator) ValidateBlockhash(tx *solana.Transaction) error {
	if tx.Message.RecentBlockhash.IsZero() {
		return ErrInvalidBlockhash
	}
	return nil
}

func (v *Validator) ValidateInstructions(instructions []solana.CompiledInstruction) error {
	if len(instructions) == 0 {
		return ErrInvalidInstruction
	}
	return nil
}
