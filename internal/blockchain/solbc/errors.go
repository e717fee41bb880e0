// internal/blockchain/solbc/errors.go
package solbc

import (
	"context"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

var (
	// ErrEmptyResponse возникает, когда узел вернул пустой result
	ErrEmptyResponse = errors.New("empty RPC response")

	// ErrBlockhashExpired возникает, когда высота блока прошла LastValidBlockHeight
	ErrBlockhashExpired = errors.New("blockhash expired before confirmation")
)

// JSON-RPC коды, которые узлы отдают при перегрузке.
const (
	rpcCodeNodeUnhealthy = -32005
	rpcCodeNodeBehind    = -32004
)

// IsRetryableError определяет, можно ли повторить чтение при данной ошибке
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case rpcCodeNodeUnhealthy, rpcCodeNodeBehind:
			return true
		}
		return false
	}

	// Проверяем текст ошибки для общих сетевых проблем
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "eof")
}
