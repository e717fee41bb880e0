// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc/transaction"
)

type PriorityFeeConfig struct {
	UnitLimit uint32 `mapstructure:"unit_limit"`
	UnitPrice uint64 `mapstructure:"unit_price"`
}

type Config struct {
	RPCURL         string            `mapstructure:"rpc_url"`
	WebSocketURL   string            `mapstructure:"ws_url"`
	PrivateKey     string            `mapstructure:"private_key"`
	Commitment     string            `mapstructure:"commitment"`
	Finality       string            `mapstructure:"finality"`
	PriorityFee    PriorityFeeConfig `mapstructure:"priority_fee"`
	Simulate       bool              `mapstructure:"simulate"`
	PollIntervalMs int               `mapstructure:"poll_interval_ms"`
	PollTimeoutMs  int               `mapstructure:"poll_timeout_ms"`
	DebugLogging   bool              `mapstructure:"debug_logging"`
	LogFile        string            `mapstructure:"log_file"`
}

const (
	EnvPrefix             = "PUMPFUN_TXKIT"
	DefaultRPCURL         = "https://api.mainnet-beta.solana.com"
	DefaultPollIntervalMs = 5000
	DefaultPollTimeoutMs  = 15000
	DefaultLogFile        = "logs/txkit.log"
	defaultEnvFile        = ".env"
)

var configKeys = []string{
	"rpc_url",
	"ws_url",
	"private_key",
	"commitment",
	"finality",
	"priority_fee.unit_limit",
	"priority_fee.unit_price",
	"simulate",
	"poll_interval_ms",
	"poll_timeout_ms",
	"debug_logging",
	"log_file",
}

// LoadConfig reads path (JSON or YAML, optional) and applies PUMPFUN_TXKIT_*
// environment overrides. Variables from envFiles, or from ./.env when none are
// given, are loaded first without replacing variables already set.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":          DefaultRPCURL,
		"commitment":       string(transaction.DefaultCommitment),
		"finality":         string(transaction.DefaultFinality),
		"poll_interval_ms": DefaultPollIntervalMs,
		"poll_timeout_ms":  DefaultPollTimeoutMs,
		"log_file":         DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := loadEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		files = []string{defaultEnvFile}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if cfg.WebSocketURL != "" {
		if err := validateURL(cfg.WebSocketURL, "ws"); err != nil {
			return fmt.Errorf("invalid ws_url: %w", err)
		}
	}
	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	switch rpc.CommitmentType(cfg.Finality) {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid finality %q", cfg.Finality)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollIntervalMs <= 0 {
		return errors.New("invalid poll_interval_ms")
	}
	if cfg.PollTimeoutMs < cfg.PollIntervalMs || cfg.PollTimeoutMs%cfg.PollIntervalMs != 0 {
		return errors.New("poll_timeout_ms must be a positive multiple of poll_interval_ms")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// TransactionConfig переводит настройки в конфигурацию менеджера транзакций.
func (c *Config) TransactionConfig() transaction.Config {
	return transaction.Config{
		PollInterval: time.Duration(c.PollIntervalMs) * time.Millisecond,
		PollTimeout:  time.Duration(c.PollTimeoutMs) * time.Millisecond,
		Commitment:   rpc.CommitmentType(c.Commitment),
		Finality:     rpc.CommitmentType(c.Finality),
	}
}

// PriorityFeeOrNil возвращает nil, если комиссия не задана.
func (c *Config) PriorityFeeOrNil() *transaction.PriorityFee {
	if c.PriorityFee.UnitLimit == 0 && c.PriorityFee.UnitPrice == 0 {
		return nil
	}
	return &transaction.PriorityFee{
		UnitLimit: c.PriorityFee.UnitLimit,
		UnitPrice: c.PriorityFee.UnitPrice,
	}
}
