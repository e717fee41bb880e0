// internal/utils/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger - процессный логгер: консоль плюс JSON-файл с ротацией.
type Logger struct {
	*zap.Logger
}

type ctxKey struct{}

// New собирает логгер по cfg; nil означает DefaultConfig.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := zapcore.InfoLevel
	consoleConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		level = zapcore.DebugLevel
		consoleConfig = zap.NewDevelopmentEncoderConfig()
	}
	tuneEncoder(&consoleConfig)

	// Файл всегда пишется с ключами production-конфига (msg, level), чтобы
	// формат не зависел от режима.
	fileConfig := zap.NewProductionEncoderConfig()
	tuneEncoder(&fileConfig)

	console := cfg.Console
	if console == nil {
		console = zapcore.AddSync(os.Stdout)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), console, level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(rotator), level),
	)

	return &Logger{
		Logger: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
	}, nil
}

func tuneEncoder(ec *zapcore.EncoderConfig) {
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
}

// LogError логирует ошибку с дополнительным контекстом
func (l *Logger) LogError(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Error(msg, fields...)
}

// Sync игнорирует ошибки синхронизации терминала.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (err.Error() == "sync /dev/stdout: invalid argument" ||
		err.Error() == "sync /dev/stderr: inappropriate ioctl for device") {
		return nil
	}
	return err
}

// WithSignature помечает записи подписью транзакции.
func WithSignature(l *zap.Logger, sig solana.Signature) *zap.Logger {
	return l.With(zap.String("signature", sig.String()))
}

// WithWallet помечает записи адресом кошелька.
func WithWallet(l *zap.Logger, address solana.PublicKey) *zap.Logger {
	return l.With(zap.String("wallet", address.String()))
}

// StartOperation возвращает логгер с operation и новым correlation_id и
// функцию, которая пишет длительность операции.
func StartOperation(l *zap.Logger, operation string) (*zap.Logger, func()) {
	start := time.Now()
	opLogger := l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.NewString()),
	)
	opLogger.Debug("Starting operation")

	return opLogger, func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}

// NewContext кладёт l в ctx.
func NewContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext возвращает логгер из ctx, если он там есть.
func FromContext(ctx context.Context) (*zap.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return l, ok && l != nil
}
