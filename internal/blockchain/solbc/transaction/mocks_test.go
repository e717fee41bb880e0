// internal/blockchain/solbc/transaction/mocks_test.go
package transaction

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain"
)

// MockClient реализует интерфейс blockchain.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*blockchain.Blockhash, error) {
	args := m.Called(ctx, commitment)
	if v := args.Get(0); v != nil {
		return v.(*blockchain.Blockhash), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*blockchain.SimulationResult, error) {
	args := m.Called(ctx, tx, commitment)
	if v := args.Get(0); v != nil {
		return v.(*blockchain.SimulationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	if v := args.Get(0); v != nil {
		return v.(*rpc.GetSignatureStatusesResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) GetTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (*rpc.GetTransactionResult, error) {
	args := m.Called(ctx, signature, commitment)
	if v := args.Get(0); v != nil {
		return v.(*rpc.GetTransactionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) ConfirmTransaction(ctx context.Context, anchor *blockchain.Blockhash, signature solana.Signature, commitment rpc.CommitmentType) error {
	args := m.Called(ctx, anchor, signature, commitment)
	return args.Error(0)
}

var _ blockchain.Client = (*MockClient)(nil)

var testBlockhash = &blockchain.Blockhash{Hash: solana.Hash{1, 2, 3}, LastValidBlockHeight: 300}

func newObservedManager(t *testing.T, client blockchain.Client, opts ...ManagerOption) (*Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewManager(client, zap.New(core), DefaultConfig(), opts...), logs
}

func transferRequest(payer solana.PrivateKey) Request {
	to := solana.NewWallet().PublicKey()
	return Request{
		Instructions: []solana.Instruction{system.NewTransferInstruction(5_000, payer.PublicKey(), to).Build()},
		Payer:        payer.PublicKey(),
		Signers:      []solana.PrivateKey{payer},
	}
}

func signedTx(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet().PrivateKey
	req := transferRequest(payer)

	tx, err := solana.NewTransaction(req.Instructions, testBlockhash.Hash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	require.NoError(t, SignTransaction(tx, req.Signers))
	return tx
}

func confirmedStatus() *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{{Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusConfirmed}},
	}
}

func processedStatus() *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{{Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusProcessed}},
	}
}
