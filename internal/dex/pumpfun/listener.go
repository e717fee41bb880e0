// =============================
// File: internal/dex/pumpfun/listener.go
// =============================
package pumpfun

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"
)

// Handlers - обработчики событий по типу. Пустой обработчик пропускает событие.
type Handlers struct {
	OnCreate    func(ev CreateEvent, sig solana.Signature)
	OnTrade     func(ev TradeEvent, sig solana.Signature)
	OnComplete  func(ev CompleteEvent, sig solana.Signature)
	OnSetParams func(ev SetParamsEvent, sig solana.Signature)
}

// Listener subscribes to logs mentioning the program and dispatches decoded events.
type Listener struct {
	wsURL    string
	config   *Config
	handlers Handlers
	logger   *zap.Logger
}

func NewListener(wsURL string, config *Config, handlers Handlers, logger *zap.Logger) *Listener {
	if config == nil {
		config = GetDefaultConfig()
	}
	return &Listener{
		wsURL:    wsURL,
		config:   config,
		handlers: handlers,
		logger:   logger.Named("pumpfun-listener"),
	}
}

// Run слушает события до отмены ctx, переподключаясь с экспоненциальной задержкой.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second

	l.logger.Info("Pumpfun event listener started",
		zap.String("program_id", l.config.ProgramID.String()),
		zap.String("commitment", string(l.config.Commitment)))

	for {
		err := l.listenOnce(ctx, b.Reset)
		if ctx.Err() != nil {
			l.logger.Info("Pumpfun event listener stopped")
			return nil
		}

		delay := b.NextBackOff()
		l.logger.Warn("Log subscription dropped, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			l.logger.Info("Pumpfun event listener stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, onSubscribed func()) error {
	client, err := ws.Connect(ctx, l.wsURL)
	if err != nil {
		return fmt.Errorf("failed to connect websocket: %w", err)
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(l.config.ProgramID, l.config.Commitment)
	if err != nil {
		return fmt.Errorf("failed to subscribe to logs: %w", err)
	}
	defer sub.Unsubscribe()
	onSubscribed()

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return fmt.Errorf("log subscription: %w", err)
		}
		if got == nil || got.Value.Err != nil {
			continue
		}
		l.HandleLogs(got.Value.Signature, got.Value.Logs)
	}
}

// HandleLogs decodes the events in one transaction's logs and calls the
// matching handlers in log order. It returns the number of events dispatched.
func (l *Listener) HandleLogs(sig solana.Signature, logs []string) int {
	events, err := DecodeEvents(logs)
	if err != nil {
		l.logger.Warn("Failed to decode event",
			zap.String("signature", sig.String()),
			zap.Error(err))
	}

	for _, ev := range events {
		switch payload := ev.Payload.(type) {
		case CreateEvent:
			if l.handlers.OnCreate != nil {
				l.handlers.OnCreate(payload, sig)
			}
		case TradeEvent:
			if l.handlers.OnTrade != nil {
				l.handlers.OnTrade(payload, sig)
			}
		case CompleteEvent:
			if l.handlers.OnComplete != nil {
				l.handlers.OnComplete(payload, sig)
			}
		case SetParamsEvent:
			if l.handlers.OnSetParams != nil {
				l.handlers.OnSetParams(payload, sig)
			}
		}
	}
	return len(events)
}
