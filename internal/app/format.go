// internal/app/format.go
package app

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const lamportsDecimals = 9

// FormatSOL переводит лампорты в SOL без потери точности.
func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -lamportsDecimals).String()
}
