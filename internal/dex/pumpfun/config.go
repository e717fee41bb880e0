// =============================
// File: internal/dex/pumpfun/config.go
// =============================
package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Known PumpFun protocol addresses
var (
	// Program ID for Pump.fun protocol
	PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Event authority for the Pump.fun protocol
	PumpFunEventAuth = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// Config holds the addresses the listener subscribes to
type Config struct {
	ProgramID      solana.PublicKey
	EventAuthority solana.PublicKey
	Global         solana.PublicKey
	Commitment     rpc.CommitmentType
}

// GetDefaultConfig creates a default configuration for the Pump.fun program
func GetDefaultConfig() *Config {
	return &Config{
		ProgramID:      PumpFunProgramID,
		EventAuthority: PumpFunEventAuth,
		Commitment:     rpc.CommitmentConfirmed,
	}
}

// Setup fills in missing addresses and derives the Global account PDA.
func (cfg *Config) Setup(logger *zap.Logger) error {
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = PumpFunProgramID
	}
	if cfg.EventAuthority.IsZero() {
		cfg.EventAuthority = PumpFunEventAuth
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}

	var err error
	cfg.Global, _, err = solana.FindProgramAddress(
		[][]byte{[]byte("global")},
		cfg.ProgramID,
	)
	if err != nil {
		return fmt.Errorf("failed to derive global account: %w", err)
	}

	logger.Debug("PumpFun configuration prepared",
		zap.String("program_id", cfg.ProgramID.String()),
		zap.String("global_account", cfg.Global.String()),
		zap.String("event_authority", cfg.EventAuthority.String()),
		zap.String("commitment", string(cfg.Commitment)))

	return nil
}
