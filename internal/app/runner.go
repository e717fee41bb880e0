// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/config"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/dex/pumpfun"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/utils/logger"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/wallet"
)

const metadataTimeout = 5 * time.Second

type Runner struct {
	logger   *zap.Logger
	config   *config.Config
	client   *solbc.Client
	manager  *transaction.Manager
	metadata *pumpfun.MetadataFetcher

	mu      sync.Mutex // out
	out     io.Writer
	fetches sync.WaitGroup
}

// NewRunner собирает транспорт и менеджер транзакций из конфигурации.
// reg может быть nil.
func NewRunner(cfg *config.Config, log *zap.Logger, out io.Writer, reg prometheus.Registerer) *Runner {
	client := solbc.NewClient(cfg.RPCURL, log)
	return &Runner{
		logger:   log.Named("runner"),
		config:   cfg,
		client:   client,
		manager:  transaction.NewManager(client, log, cfg.TransactionConfig(), transaction.WithRegisterer(reg)),
		metadata: pumpfun.NewMetadataFetcher(log, nil),
		out:      out,
	}
}

func (r *Runner) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// WithSignals возвращает контекст, отменяемый по SIGINT/SIGTERM.
func WithSignals(ctx context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Transfer отправляет lamports на адрес to через Manager.Submit.
func (r *Runner) Transfer(ctx context.Context, to string, lamports uint64, simulate bool) (transaction.Result, error) {
	if r.config.PrivateKey == "" {
		return nil, errors.New("private_key is not configured")
	}
	w, err := wallet.Load(r.config.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if lamports == 0 {
		return nil, errors.New("amount must be positive")
	}

	opLogger, done := logger.StartOperation(r.logger, "transfer")
	defer done()
	ctx = logger.NewContext(ctx, opLogger)

	walletLogger := logger.WithWallet(opLogger, w.PublicKey)
	commitment := r.config.TransactionConfig().Commitment
	if balance, err := r.client.GetBalance(ctx, w.PublicKey, commitment); err != nil {
		walletLogger.Warn("Failed to fetch balance", zap.Error(err))
	} else {
		walletLogger.Info("Wallet balance", zap.Uint64("lamports", balance))
		r.printf("Wallet %s balance: %s SOL\n", w, FormatSOL(balance))
	}

	r.printf("Transferring %s SOL to %s\n", FormatSOL(lamports), recipient)

	result, err := r.manager.Submit(ctx, transaction.Request{
		Instructions: []solana.Instruction{
			system.NewTransferInstruction(lamports, w.PublicKey, recipient).Build(),
		},
		Payer:       w.PublicKey,
		Signers:     w.Signers(),
		PriorityFee: r.config.PriorityFeeOrNil(),
		Simulate:    simulate || r.config.Simulate,
	})
	if err != nil {
		return nil, err
	}

	r.printResult(result)
	return result, nil
}

func (r *Runner) printResult(result transaction.Result) {
	switch res := result.(type) {
	case transaction.Submitted:
		fee := uint64(0)
		if res.Details != nil && res.Details.Meta != nil {
			fee = res.Details.Meta.Fee
		}
		r.printf("Confirmed: %s%s (fee %s SOL)\n", transaction.ExplorerTxURL, res.Signature, FormatSOL(fee))
	case transaction.Failed:
		r.printf("Failed: %s: %v\n", res.Signature, res.Err)
	case transaction.Simulated:
		status := "ok"
		if res.Err != nil {
			status = fmt.Sprintf("error %v", res.Err)
		}
		r.printf("Simulation %s, %d compute units\n", status, res.UnitsConsumed)
		for _, line := range res.Logs {
			r.printf("  %s\n", line)
		}
	}
}

// Listen печатает события pump.fun до отмены ctx.
func (r *Runner) Listen(ctx context.Context) error {
	if r.config.WebSocketURL == "" {
		return errors.New("ws_url is not configured")
	}

	cfg := pumpfun.GetDefaultConfig()
	cfg.Commitment = r.config.TransactionConfig().Commitment
	if err := cfg.Setup(r.logger); err != nil {
		return err
	}

	listener := pumpfun.NewListener(r.config.WebSocketURL, cfg, r.Handlers(ctx), r.logger)
	err := listener.Run(ctx)
	r.fetches.Wait()
	return err
}

func (r *Runner) printMetadata(ctx context.Context, ev pumpfun.CreateEvent) {
	fetchCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	meta, err := r.metadata.Fetch(fetchCtx, ev.URI)
	if err != nil {
		r.logger.Debug("Failed to fetch token metadata", zap.String("uri", ev.URI), zap.Error(err))
		return
	}
	r.printf("METADATA mint=%s %s\n", ev.Mint, meta.Description)
}

// Handlers форматирует события для вывода в out.
func (r *Runner) Handlers(ctx context.Context) pumpfun.Handlers {
	return pumpfun.Handlers{
		OnCreate: func(ev pumpfun.CreateEvent, sig solana.Signature) {
			r.printf("CREATE %s (%s) mint=%s tx=%s\n", ev.Name, ev.Symbol, ev.Mint, sig)

			// Метаданные грузятся отдельно, чтобы не задерживать цикл чтения логов.
			r.fetches.Add(1)
			go func() {
				defer r.fetches.Done()
				r.printMetadata(ctx, ev)
			}()
		},
		OnTrade: func(ev pumpfun.TradeEvent, sig solana.Signature) {
			side := "SELL"
			if ev.IsBuy {
				side = "BUY"
			}
			r.printf("%s %s SOL for %d tokens mint=%s user=%s tx=%s\n",
				side, FormatSOL(ev.SolAmount), ev.TokenAmount, ev.Mint, ev.User, sig)
		},
		OnComplete: func(ev pumpfun.CompleteEvent, sig solana.Signature) {
			r.printf("COMPLETE mint=%s curve=%s tx=%s\n", ev.Mint, ev.BondingCurve, sig)
		},
		OnSetParams: func(ev pumpfun.SetParamsEvent, sig solana.Signature) {
			r.printf("SET_PARAMS fee_recipient=%s fee_bps=%d tx=%s\n", ev.FeeRecipient, ev.FeeBasisPoints, sig)
		},
	}
}
