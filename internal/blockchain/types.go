// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// SimulationResult представляет результат симуляции транзакции.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// Blockhash is a recent finality anchor: the hash a message is compiled
// against and the last block height at which it is still valid.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// Client определяет транспорт, через который хелпер общается с сетью.
// Пулинг соединений, ретраи и rate limiting - ответственность реализации.
type Client interface {
	// Получить последний blockhash на заданном уровне commitment.
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*Blockhash, error)
	// Симулировать транзакцию.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*SimulationResult, error)
	// Отправить транзакцию с опциями.
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	// Получить статусы подписей транзакций.
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// Получить полную запись транзакции. Возвращает (nil, nil), если запись не найдена.
	GetTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (*rpc.GetTransactionResult, error)
	// Дождаться commitment для подписи относительно anchor.
	ConfirmTransaction(ctx context.Context, anchor *Blockhash, signature solana.Signature, commitment rpc.CommitmentType) error
}
