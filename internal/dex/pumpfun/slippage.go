// =============================
// File: internal/dex/pumpfun/slippage.go
// =============================
package pumpfun

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

const basisPointsDenominator = 10_000

// mulDivBps returns floor(amount*bps/10000) over a 128-bit product,
// saturating at MaxUint64 when the quotient does not fit.
func mulDivBps(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	if hi >= basisPointsDenominator {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, basisPointsDenominator)
	return q
}

// CalculateWithSlippageBuy возвращает максимум, который покупатель готов заплатить.
func CalculateWithSlippageBuy(amount, basisPoints uint64) uint64 {
	delta := mulDivBps(amount, basisPoints)
	if amount > math.MaxUint64-delta {
		return math.MaxUint64
	}
	return amount + delta
}

// CalculateWithSlippageSell возвращает минимум, который продавец согласен получить.
func CalculateWithSlippageSell(amount, basisPoints uint64) uint64 {
	delta := mulDivBps(amount, basisPoints)
	if delta >= amount {
		return 0
	}
	return amount - delta
}

// SlippageBasisPoints переводит проценты в базисные пункты: 1.5 -> 150.
func SlippageBasisPoints(percent float64) uint64 {
	if percent <= 0 || math.IsNaN(percent) {
		return 0
	}
	return uint64(math.Round(percent * 100))
}

// MaxSolCost - AmountSol с учётом проскальзывания.
func (r BuyRequest) MaxSolCost() uint64 {
	return CalculateWithSlippageBuy(r.AmountSol, SlippageBasisPoints(r.SlippagePercent))
}

func (r BuyRequest) Validate() error {
	if r.AmountSol == 0 {
		return errors.New("buy amount must be positive")
	}
	return validateTrade(r.Mint.IsZero(), r.SlippagePercent, r.Pool)
}

func (r SellRequest) Validate() error {
	if r.TokenAmount == 0 {
		return errors.New("sell amount must be positive")
	}
	return validateTrade(r.Mint.IsZero(), r.SlippagePercent, r.Pool)
}

func validateTrade(zeroMint bool, slippage float64, pool Pool) error {
	if zeroMint {
		return errors.New("mint address is required")
	}
	if slippage < 0 || slippage > 100 || math.IsNaN(slippage) {
		return fmt.Errorf("slippage must be between 0 and 100, got %v", slippage)
	}
	switch pool {
	case PoolPump, PoolRaydium:
		return nil
	default:
		return fmt.Errorf("unknown pool %q", pool)
	}
}
