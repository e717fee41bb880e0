// internal/blockchain/solbc/transaction/manager.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/utils/logger"
)

// Manager собирает, подписывает, отправляет и подтверждает транзакции.
type Manager struct {
	client    blockchain.Client
	logger    *zap.Logger
	config    Config
	validator *Validator
	analyzer  *solbc.ErrorAnalyzer
	confirm   ConfirmFunc
	metrics   *Metrics
}

type ManagerOption func(*Manager)

// WithConfirmFunc заменяет поллер подтверждений.
func WithConfirmFunc(fn ConfirmFunc) ManagerOption {
	return func(tm *Manager) {
		tm.confirm = fn
	}
}

// WithRegisterer регистрирует метрики менеджера в reg.
func WithRegisterer(reg prometheus.Registerer) ManagerOption {
	return func(tm *Manager) {
		tm.metrics = NewMetrics(reg)
	}
}

func NewManager(client blockchain.Client, log *zap.Logger, config Config, opts ...ManagerOption) *Manager {
	config = config.withDefaults()
	tm := &Manager{
		client:    client,
		logger:    log.Named("tx-manager"),
		config:    config,
		validator: NewValidator(log),
		analyzer:  solbc.NewErrorAnalyzer(log),
		metrics:   NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(tm)
	}
	if tm.confirm == nil {
		tm.confirm = NewMonitor(client, log, config).AwaitConfirmation
	}
	return tm
}

// logFor предпочитает логгер операции из ctx, чтобы записи менеджера несли её correlation_id.
func (tm *Manager) logFor(ctx context.Context) *zap.Logger {
	if opLogger, ok := logger.FromContext(ctx); ok {
		return opLogger.Named("tx-manager")
	}
	return tm.logger
}

// Submit builds a v0 transaction from req, signs it and either simulates it
// or broadcasts it and waits for its record.
func (tm *Manager) Submit(ctx context.Context, req Request) (result Result, err error) {
	start := time.Now()
	defer func() {
		tm.metrics.TrackSubmission(start)
		tm.metrics.Observe(result, err)
	}()

	log := tm.logFor(ctx)

	if err := tm.validator.ValidateRequest(req); err != nil {
		log.Error("Transaction validation failed", zap.Error(err))
		return nil, err
	}

	commitment, finality := tm.levels(req.Commitment, req.Finality)

	instructions := BuildInstructions(req.PriorityFee, req.Instructions)
	tx, err := BuildVersionedTx(ctx, tm.client, req.Payer, instructions, commitment)
	if err != nil {
		return nil, err
	}

	if err := SignTransaction(tx, req.Signers); err != nil {
		return nil, err
	}

	if req.Simulate {
		return tm.simulate(ctx, log, tx, commitment)
	}

	// Свежий blockhash задаёт окно подтверждения. В подписанное сообщение он не
	// записывается, иначе подписи станут недействительными.
	anchor, err := tm.client.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation blockhash: %w", err)
	}

	return tm.broadcastAndConfirm(ctx, log, tx, anchor, commitment, finality)
}

// SubmitSigned отправляет уже подписанную транзакцию тем же путём, что и Submit.
func (tm *Manager) SubmitSigned(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (result Result, err error) {
	start := time.Now()
	defer func() {
		tm.metrics.TrackSubmission(start)
		tm.metrics.Observe(result, err)
	}()

	log := tm.logFor(ctx)

	if err := tm.validator.ValidateTransaction(tx); err != nil {
		log.Error("Transaction validation failed", zap.Error(err))
		return nil, err
	}

	commitment, finality := tm.levels(opts.Commitment, opts.Finality)

	if opts.Simulate {
		return tm.simulate(ctx, log, tx, commitment)
	}

	anchor, err := tm.client.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation blockhash: %w", err)
	}

	return tm.broadcastAndConfirm(ctx, log, tx, anchor, commitment, finality)
}

func (tm *Manager) levels(commitment, finality rpc.CommitmentType) (rpc.CommitmentType, rpc.CommitmentType) {
	if commitment == "" {
		commitment = tm.config.Commitment
	}
	if finality == "" {
		finality = tm.config.Finality
	}
	return commitment, finality
}

func (tm *Manager) simulate(ctx context.Context, log *zap.Logger, tx *solana.Transaction, commitment rpc.CommitmentType) (Result, error) {
	sim, err := tm.client.SimulateTransaction(ctx, tx, commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate transaction: %w", err)
	}

	log.Info("Simulation result",
		zap.Any("err", sim.Err),
		zap.Uint64("units_consumed", sim.UnitsConsumed),
		zap.Strings("logs", sim.Logs))

	return Simulated{
		Logs:          sim.Logs,
		UnitsConsumed: sim.UnitsConsumed,
		Err:           sim.Err,
	}, nil
}

func (tm *Manager) broadcastAndConfirm(
	ctx context.Context,
	log *zap.Logger,
	tx *solana.Transaction,
	anchor *blockchain.Blockhash,
	commitment, finality rpc.CommitmentType,
) (Result, error) {
	// Отправка не повторяется: повтор может привести к двойному исполнению.
	signature, err := tm.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
		SkipPreflight:       false,
		PreflightCommitment: commitment,
	})
	if err != nil {
		logs := solbc.ExtractLogs(err)
		analysis := tm.analyzer.Analyze(err)
		log.Error("Transaction broadcast failed",
			zap.Error(err),
			zap.Strings("logs", logs),
			zap.String("analysis", tm.analyzer.FormatErrorAnalysis(analysis)))
		return nil, &BroadcastError{Err: err, Logs: logs}
	}

	log = logger.WithSignature(log, signature)
	log.Info("Transaction sent", zap.String("explorer", ExplorerTxURL+signature.String()))

	if _, err := tm.confirm(ctx, signature); err != nil {
		log.Error("Transaction confirmation failed", zap.Error(err))
		return nil, err
	}

	details, err := GetTxDetails(ctx, tm.client, signature, anchor, commitment, finality)
	if err != nil {
		log.Error("Failed to fetch transaction details", zap.Error(err))
		return nil, err
	}

	if details == nil {
		log.Warn("Transaction record not found")
		return Failed{Signature: signature, Err: ErrTransactionFailed}, nil
	}

	if details.Meta != nil && details.Meta.Err != nil {
		log.Warn("Transaction failed on chain", zap.Any("err", details.Meta.Err))
		return Failed{Signature: signature, Err: &OnChainError{
			Signature: signature,
			Err:       details.Meta.Err,
			Logs:      details.Meta.LogMessages,
		}}, nil
	}

	log.Info("Transaction confirmed", zap.Uint64("slot", details.Slot))
	return Submitted{Signature: signature, Details: details}, nil
}

// BuildInstructions возвращает новый список: при заданной комиссии первыми идут
// SetComputeUnitLimit и SetComputeUnitPrice, затем исходные инструкции.
func BuildInstructions(fee *PriorityFee, instructions []solana.Instruction) []solana.Instruction {
	if fee == nil {
		out := make([]solana.Instruction, len(instructions))
		copy(out, instructions)
		return out
	}

	out := make([]solana.Instruction, 0, len(instructions)+2)
	out = append(out,
		computebudget.NewSetComputeUnitLimitInstruction(fee.UnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(fee.UnitPrice).Build(),
	)
	return append(out, instructions...)
}

// BuildVersionedTx compiles instructions into an unsigned v0 transaction
// over a freshly fetched blockhash.
func BuildVersionedTx(
	ctx context.Context,
	client blockchain.Client,
	payer solana.PublicKey,
	instructions []solana.Instruction,
	commitment rpc.CommitmentType,
) (*solana.Transaction, error) {
	blockhash, err := client.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash.Hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}

// SignTransaction подписывает tx ключами из signers.
func SignTransaction(tx *solana.Transaction, signers []solana.PrivateKey) error {
	keys := make(map[solana.PublicKey]*solana.PrivateKey, len(signers))
	for i := range signers {
		keys[signers[i].PublicKey()] = &signers[i]
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	})
	if err != nil {
		return &SigningError{Err: err}
	}
	return nil
}

// GetTxDetails ждёт commitment в пределах окна anchor и возвращает запись
// транзакции на уровне finality. Отсутствующая запись даёт (nil, nil).
func GetTxDetails(
	ctx context.Context,
	client blockchain.Client,
	signature solana.Signature,
	anchor *blockchain.Blockhash,
	commitment, finality rpc.CommitmentType,
) (*rpc.GetTransactionResult, error) {
	if err := client.ConfirmTransaction(ctx, anchor, signature, commitment); err != nil {
		return nil, fmt.Errorf("failed to confirm transaction: %w", err)
	}

	details, err := client.GetTransaction(ctx, signature, finality)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return details, nil
}
