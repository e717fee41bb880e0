// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain"
)

const (
	defaultRetryMaxElapsed = 10 * time.Second
	defaultConfirmInterval = 500 * time.Millisecond
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger

	retryMaxElapsed time.Duration
	confirmInterval time.Duration
}

// Option настраивает Client.
type Option func(*Client)

// WithRetryMaxElapsed ограничивает суммарное время ретраев чтения.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) { c.retryMaxElapsed = d }
}

// WithConfirmInterval задаёт интервал опроса в ConfirmTransaction.
func WithConfirmInterval(d time.Duration) Option {
	return func(c *Client) { c.confirmInterval = d }
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger, opts ...Option) *Client {
	return NewClientWithRPC(rpc.New(rpcURL), logger, opts...)
}

// NewClientWithRPC оборачивает уже созданный rpc.Client.
func NewClientWithRPC(rpcClient *rpc.Client, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:             rpcClient,
		logger:          logger.Named("solbc-client"),
		retryMaxElapsed: defaultRetryMaxElapsed,
		confirmInterval: defaultConfirmInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLatestBlockhash получает последний blockhash. Сетевые сбои повторяются с
// экспоненциальной задержкой, остальные ошибки возвращаются сразу.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*blockchain.Blockhash, error) {
	op := func() (*blockchain.Blockhash, error) {
		result, err := c.rpc.GetLatestBlockhash(ctx, commitment)
		if err != nil {
			if IsRetryableError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if result == nil || result.Value == nil {
			return nil, backoff.Permanent(ErrEmptyResponse)
		}
		return &blockchain.Blockhash{
			Hash:                 result.Value.Blockhash,
			LastValidBlockHeight: result.Value.LastValidBlockHeight,
		}, nil
	}

	notify := func(err error, d time.Duration) {
		c.logger.Debug("Retrying GetLatestBlockhash", zap.Error(err), zap.Duration("backoff", d))
	}

	blockhash, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.retryMaxElapsed),
		backoff.WithNotify(notify))
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return nil, err
	}
	return blockhash, nil
}

// SimulateTransaction симулирует транзакцию и возвращает результат симуляции.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*blockchain.SimulationResult, error) {
	result, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		Commitment: commitment,
	})
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, ErrEmptyResponse
	}
	units := uint64(0)
	if result.Value.UnitsConsumed != nil {
		units = *result.Value.UnitsConsumed
	}
	return &blockchain.SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: units,
	}, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
// Отправка никогда не повторяется: повтор с тем же blockhash может задвоить сделку.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signatures...)
	if err != nil {
		c.logger.Error("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetTransaction получает запись транзакции (включая v0) на заданном уровне commitment.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		c.logger.Error("GetTransaction error",
			zap.String("signature", signature.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// ConfirmTransaction ждёт, пока подпись достигнет commitment, либо пока высота
// блока не превысит LastValidBlockHeight из anchor.
func (c *Client) ConfirmTransaction(ctx context.Context, anchor *blockchain.Blockhash, signature solana.Signature, commitment rpc.CommitmentType) error {
	if anchor == nil {
		return fmt.Errorf("confirm %s: nil blockhash anchor", signature)
	}

	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()

	for {
		statuses, err := c.GetSignatureStatuses(ctx, signature)
		if err != nil {
			c.logger.Warn("Error getting signature statuses", zap.Error(err))
		} else if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			// Ошибка исполнения - тоже финальный статус, детали покажет запись транзакции.
			if status.Err != nil || CommitmentReached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}

		height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err != nil {
			c.logger.Warn("Error getting block height", zap.Error(err))
		} else if height > anchor.LastValidBlockHeight {
			return fmt.Errorf("confirm %s: %w", signature, ErrBlockhashExpired)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetBalance получает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// CommitmentReached сообщает, достиг ли статус подписи требуемого уровня.
func CommitmentReached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	return statusRank(status) >= commitmentRank(want)
}

func statusRank(status rpc.ConfirmationStatusType) int {
	switch status {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	default:
		return 0
	}
}

func commitmentRank(commitment rpc.CommitmentType) int {
	switch commitment {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentFinalized:
		return 3
	default:
		return 2
	}
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
