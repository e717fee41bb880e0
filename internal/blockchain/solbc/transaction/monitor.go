// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc"
)

// StatusGetter - часть транспорта, нужная монитору.
type StatusGetter interface {
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// ConfirmFunc waits until sig is confirmed and returns it.
type ConfirmFunc func(ctx context.Context, sig solana.Signature) (solana.Signature, error)

// Monitor опрашивает статус подписи с фиксированным интервалом.
type Monitor struct {
	client   StatusGetter
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewMonitor(client StatusGetter, logger *zap.Logger, config Config) *Monitor {
	config = config.withDefaults()
	return &Monitor{
		client:   client,
		logger:   logger.Named("tx-monitor"),
		interval: config.PollInterval,
		timeout:  config.PollTimeout,
	}
}

// checkConfirmation проверяет, подтверждена ли транзакция хотя бы на уровне confirmed.
// Каждая проверка ограничена одним интервалом.
func (m *Monitor) checkConfirmation(ctx context.Context, signature solana.Signature) (bool, error) {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	response, err := m.client.GetSignatureStatuses(checkCtx, signature)
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}

	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return false, nil
	}

	status := response.Value[0]
	if !solbc.CommitmentReached(status.ConfirmationStatus, rpc.CommitmentConfirmed) {
		return false, nil
	}
	if status.Err != nil {
		// Упавшая транзакция тоже подтверждена: ошибку разберёт запись транзакции.
		m.logger.Warn("Transaction landed with error",
			zap.String("signature", signature.String()),
			zap.Any("err", status.Err))
	}
	return true, nil
}

// AwaitConfirmation проверяет статус раз в interval и сдаётся после timeout.
// На каждом тике сначала выполняется проверка статуса, затем проверка таймаута,
// поэтому последний тик либо подтверждает, либо завершается таймаутом, но не то и другое.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (solana.Signature, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var elapsed time.Duration
	for {
		select {
		case <-ctx.Done():
			return solana.Signature{}, ctx.Err()
		case <-ticker.C:
		}
		elapsed += m.interval

		confirmed, err := m.checkConfirmation(ctx, signature)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return solana.Signature{}, ctx.Err()
			}
			m.logger.Warn("Confirmation check failed",
				zap.String("signature", signature.String()),
				zap.Error(err))
		case confirmed:
			m.logger.Debug("Transaction confirmed",
				zap.String("signature", signature.String()),
				zap.Duration("elapsed", elapsed))
			return signature, nil
		}

		if elapsed >= m.timeout {
			return solana.Signature{}, &ConfirmationTimeoutError{Signature: signature, Timeout: m.timeout}
		}
	}
}
