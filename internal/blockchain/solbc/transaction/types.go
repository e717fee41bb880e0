// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrInvalidInstruction  = errors.New("invalid instruction")
	ErrInvalidPayer        = errors.New("invalid payer")
)

const (
	DefaultCommitment   = rpc.CommitmentConfirmed
	DefaultFinality     = rpc.CommitmentFinalized
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 15 * time.Second

	// ExplorerTxURL - префикс ссылки на транзакцию в обозревателе.
	ExplorerTxURL = "https://solscan.io/tx/"
)

// Config задаёт уровни commitment по умолчанию и политику опроса подтверждений.
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	Commitment   rpc.CommitmentType
	Finality     rpc.CommitmentType
}

// DefaultConfig возвращает конфигурацию по умолчанию: опрос раз в 5s, не дольше 15s.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		PollTimeout:  DefaultPollTimeout,
		Commitment:   DefaultCommitment,
		Finality:     DefaultFinality,
	}
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.PollTimeout < c.PollInterval {
		c.PollTimeout = c.PollInterval
	}
	if c.Commitment == "" {
		c.Commitment = DefaultCommitment
	}
	if c.Finality == "" {
		c.Finality = DefaultFinality
	}
	return c
}

// PriorityFee - лимит compute units и цена за unit в микролампортах.
type PriorityFee struct {
	UnitLimit uint32
	UnitPrice uint64
}

// Request describes one submission. Instructions is never modified.
type Request struct {
	Instructions []solana.Instruction
	Payer        solana.PublicKey
	Signers      []solana.PrivateKey
	PriorityFee  *PriorityFee
	Commitment   rpc.CommitmentType
	Finality     rpc.CommitmentType
	Simulate     bool
}

// SubmitOptions настраивает отправку уже подписанной транзакции.
type SubmitOptions struct {
	Commitment rpc.CommitmentType
	Finality   rpc.CommitmentType
	Simulate   bool
}

// Result is one of Submitted, Failed or Simulated.
type Result interface {
	Success() bool
	isResult()
}

// Submitted - транзакция подтверждена и её запись получена.
type Submitted struct {
	Signature solana.Signature
	Details   *rpc.GetTransactionResult
}

// Failed - транзакция отправлена, но не завершилась успешно.
type Failed struct {
	Signature solana.Signature
	Err       error
}

// Simulated - сырой отчёт симуляции; Err != nil означает неуспешный прогон.
type Simulated struct {
	Logs          []string
	UnitsConsumed uint64
	Err           interface{}
}

func (Submitted) Success() bool { return true }
func (Failed) Success() bool    { return false }
func (s Simulated) Success() bool {
	return s.Err == nil
}

func (Submitted) isResult() {}
func (Failed) isResult()    {}
func (Simulated) isResult() {}

// SigningError reports required signers without a matching private key.
type SigningError struct {
	Missing []solana.PublicKey
	Err     error
}

func (e *SigningError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("signing failed: %v", e.Err)
	}
	keys := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		keys[i] = k.String()
	}
	return fmt.Sprintf("missing signers: %s", strings.Join(keys, ", "))
}

func (e *SigningError) Unwrap() error { return e.Err }

// BroadcastError wraps a rejected sendTransaction together with the
// program logs the node attached to it.
type BroadcastError struct {
	Err  error
	Logs []string
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("send transaction: %v", e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError carries the signature so the caller can look it up later.
type ConfirmationTimeoutError struct {
	Signature solana.Signature
	Timeout   time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s confirmation timed out after %s", e.Signature, e.Timeout)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return ErrConfirmationTimeout }

// OnChainError - транзакция попала в блок, но программа вернула ошибку.
type OnChainError struct {
	Signature solana.Signature
	Err       interface{}
	Logs      []string
}

func (e *OnChainError) Error() string {
	return fmt.Sprintf("transaction %s failed on chain: %v", e.Signature, e.Err)
}

func (e *OnChainError) Unwrap() error { return ErrTransactionFailed }
