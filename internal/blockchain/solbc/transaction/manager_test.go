// internal/blockchain/solbc/transaction/manager_test.go
package transaction

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/utils/logger"
)

func immediateConfirm(calls *int32) ConfirmFunc {
	return func(_ context.Context, sig solana.Signature) (solana.Signature, error) {
		atomic.AddInt32(calls, 1)
		return sig, nil
	}
}

func TestBuildInstructions_PrependsPriorityFee(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	base := transferRequest(payer).Instructions

	out := BuildInstructions(&PriorityFee{UnitLimit: 200_000, UnitPrice: 1_000}, base)

	require.Len(t, out, 3)
	assert.Len(t, base, 1)
	assert.Equal(t, computebudget.ProgramID, out[0].ProgramID())
	assert.Equal(t, computebudget.ProgramID, out[1].ProgramID())
	assert.Equal(t, base[0], out[2])
}

func TestBuildInstructions_NoFeeKeepsInstructions(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	base := transferRequest(payer).Instructions

	out := BuildInstructions(nil, base)
	assert.Equal(t, base, out)
}

func TestSubmit_PriorityFeeCompiledFirst(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	req := transferRequest(payer)
	req.PriorityFee = &PriorityFee{UnitLimit: 150_000, UnitPrice: 25}
	req.Simulate = true

	var captured *solana.Transaction
	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SimulateTransaction", mock.Anything, mock.AnythingOfType("*solana.Transaction"), rpc.CommitmentConfirmed).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*solana.Transaction) }).
		Return(&blockchain.SimulationResult{UnitsConsumed: 450}, nil)

	tm, _ := newObservedManager(t, client)
	_, err := tm.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, captured)

	msg := captured.Message
	assert.Equal(t, solana.MessageVersionV0, msg.GetVersion())
	assert.Equal(t, testBlockhash.Hash, msg.RecentBlockhash)
	require.Len(t, msg.Instructions, 3)

	assert.Equal(t, computebudget.ProgramID, msg.AccountKeys[msg.Instructions[0].ProgramIDIndex])
	assert.Equal(t, byte(2), msg.Instructions[0].Data[0])
	assert.Equal(t, computebudget.ProgramID, msg.AccountKeys[msg.Instructions[1].ProgramIDIndex])
	assert.Equal(t, byte(3), msg.Instructions[1].Data[0])
	assert.Equal(t, solana.SystemProgramID, msg.AccountKeys[msg.Instructions[2].ProgramIDIndex])

	assert.Len(t, req.Instructions, 1)
	assert.Len(t, captured.Signatures, 1)
}

func TestSubmit_SimulateNeverBroadcasts(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	req := transferRequest(payer)
	req.Simulate = true

	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SimulateTransaction", mock.Anything, mock.Anything, rpc.CommitmentConfirmed).
		Return(&blockchain.SimulationResult{
			Err:           "insufficient funds",
			Logs:          []string{"Transfer: insufficient lamports 0, need 5000"},
			UnitsConsumed: 150,
		}, nil)

	tm, logs := newObservedManager(t, client)
	result, err := tm.Submit(context.Background(), req)
	require.NoError(t, err)

	sim, ok := result.(Simulated)
	require.True(t, ok)
	assert.False(t, sim.Success())
	assert.Equal(t, "insufficient funds", sim.Err)
	assert.Equal(t, uint64(150), sim.UnitsConsumed)
	assert.Len(t, sim.Logs, 1)

	client.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNumberOfCalls(t, "GetLatestBlockhash", 1)
	assert.Equal(t, 1, logs.FilterMessage("Simulation result").Len())
}

func TestSubmit_MissingSignerFailsBeforeNetwork(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	coSigner := solana.NewWallet().PublicKey()

	inst := solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer.PublicKey()).SIGNER().WRITE(),
			solana.Meta(coSigner).SIGNER(),
		},
		[]byte{1},
	)

	tm, _ := newObservedManager(t, client)
	_, err := tm.Submit(context.Background(), Request{
		Instructions: []solana.Instruction{inst},
		Payer:        payer.PublicKey(),
		Signers:      []solana.PrivateKey{payer},
	})

	var signErr *SigningError
	require.True(t, errors.As(err, &signErr))
	assert.Equal(t, []solana.PublicKey{coSigner}, signErr.Missing)
	client.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything, mock.Anything)
}

func TestSubmit_Success(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{4, 2}
	record := &rpc.GetTransactionResult{
		Slot: 77,
		Meta: &rpc.TransactionMeta{LogMessages: []string{"Program 11111111111111111111111111111111 success"}},
	}

	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, blockchain.TransactionOptions{
		PreflightCommitment: rpc.CommitmentConfirmed,
	}).Return(sig, nil)
	client.On("ConfirmTransaction", mock.Anything, testBlockhash, sig, rpc.CommitmentConfirmed).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, rpc.CommitmentFinalized).Return(record, nil)

	var confirms int32
	tm, logs := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))
	result, err := tm.Submit(context.Background(), transferRequest(payer))
	require.NoError(t, err)

	submitted, ok := result.(Submitted)
	require.True(t, ok)
	assert.True(t, submitted.Success())
	assert.Equal(t, sig, submitted.Signature)
	assert.Nil(t, submitted.Details.Meta.Err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&confirms))
	client.AssertNumberOfCalls(t, "GetLatestBlockhash", 2)

	sent := logs.FilterMessage("Transaction sent").All()
	require.Len(t, sent, 1)
	assert.Equal(t, ExplorerTxURL+sig.String(), sent[0].ContextMap()["explorer"])
}

func TestSubmit_UsesOperationLoggerFromContext(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{4, 3}

	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	client.On("ConfirmTransaction", mock.Anything, testBlockhash, sig, rpc.CommitmentConfirmed).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, rpc.CommitmentFinalized).
		Return(&rpc.GetTransactionResult{Slot: 5, Meta: &rpc.TransactionMeta{}}, nil)

	var confirms int32
	tm, managerLogs := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))

	core, opLogs := observer.New(zap.DebugLevel)
	opLogger, done := logger.StartOperation(zap.New(core), "transfer")
	ctx := logger.NewContext(context.Background(), opLogger)

	_, err := tm.Submit(ctx, transferRequest(payer))
	require.NoError(t, err)
	done()

	assert.Zero(t, managerLogs.FilterMessage("Transaction sent").Len())

	sent := opLogs.FilterMessage("Transaction sent").All()
	require.Len(t, sent, 1)
	fields := sent[0].ContextMap()
	assert.Equal(t, "transfer", fields["operation"])
	assert.NotEmpty(t, fields["correlation_id"])
	assert.Equal(t, sig.String(), fields["signature"])
	assert.Equal(t, "tx-manager", sent[0].LoggerName)

	confirmed := opLogs.FilterMessage("Transaction confirmed").All()
	require.Len(t, confirmed, 1)
	assert.Equal(t, fields["correlation_id"], confirmed[0].ContextMap()["correlation_id"])
}

func TestSubmit_DefaultMonitorConfirms(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{9}

	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	client.On("GetSignatureStatuses", mock.Anything, []solana.Signature{sig}).Return(confirmedStatus(), nil)
	client.On("ConfirmTransaction", mock.Anything, mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, rpc.CommitmentFinalized).
		Return(&rpc.GetTransactionResult{Slot: 1, Meta: &rpc.TransactionMeta{}}, nil)

	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.PollTimeout = 30 * time.Millisecond
	tm := NewManager(client, zap.NewNop(), cfg)

	result, err := tm.Submit(context.Background(), transferRequest(payer))
	require.NoError(t, err)
	assert.True(t, result.Success())
	client.AssertNumberOfCalls(t, "GetSignatureStatuses", 1)
}

func TestSubmit_MissingRecordIsFailed(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{5}

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	client.On("ConfirmTransaction", mock.Anything, mock.Anything, sig, mock.Anything).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, mock.Anything).Return(nil, nil)

	var confirms int32
	tm, _ := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))
	result, err := tm.Submit(context.Background(), transferRequest(payer))
	require.NoError(t, err)

	failed, ok := result.(Failed)
	require.True(t, ok)
	assert.False(t, failed.Success())
	assert.Equal(t, sig, failed.Signature)
	assert.True(t, errors.Is(failed.Err, ErrTransactionFailed))
}

func TestSubmit_OnChainErrorIsFailed(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{6}
	instrErr := map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6002}}}

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	client.On("ConfirmTransaction", mock.Anything, mock.Anything, sig, mock.Anything).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, mock.Anything).Return(&rpc.GetTransactionResult{
		Meta: &rpc.TransactionMeta{Err: instrErr, LogMessages: []string{"Program log: AnchorError occurred."}},
	}, nil)

	var confirms int32
	tm, _ := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))
	result, err := tm.Submit(context.Background(), transferRequest(payer))
	require.NoError(t, err)

	failed, ok := result.(Failed)
	require.True(t, ok)

	var onChain *OnChainError
	require.True(t, errors.As(failed.Err, &onChain))
	assert.Equal(t, instrErr, onChain.Err)
	assert.Len(t, onChain.Logs, 1)
	assert.True(t, errors.Is(failed.Err, ErrTransactionFailed))
}

func TestSubmit_BroadcastErrorCarriesLogs(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.",
		Data: map[string]interface{}{
			"err":  "AccountNotFound",
			"logs": []interface{}{"Program log: Instruction: Buy"},
		},
	}

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{}, rpcErr)

	var confirms int32
	tm, logs := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))
	_, err := tm.Submit(context.Background(), transferRequest(payer))

	var broadcastErr *BroadcastError
	require.True(t, errors.As(err, &broadcastErr))
	assert.Equal(t, []string{"Program log: Instruction: Buy"}, broadcastErr.Logs)

	var unwrapped *jsonrpc.RPCError
	require.True(t, errors.As(err, &unwrapped))
	assert.Equal(t, -32002, unwrapped.Code)

	assert.Equal(t, int32(0), atomic.LoadInt32(&confirms))
	client.AssertNumberOfCalls(t, "SendTransactionWithOpts", 1)
	assert.Equal(t, 1, logs.FilterMessage("Transaction broadcast failed").Len())
}

func TestSubmit_ConfirmationTimeoutPropagates(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	sig := solana.Signature{8}

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)

	timeout := func(_ context.Context, s solana.Signature) (solana.Signature, error) {
		return solana.Signature{}, &ConfirmationTimeoutError{Signature: s, Timeout: DefaultPollTimeout}
	}
	tm, _ := newObservedManager(t, client, WithConfirmFunc(timeout))
	_, err := tm.Submit(context.Background(), transferRequest(payer))

	require.True(t, errors.Is(err, ErrConfirmationTimeout))
	var timeoutErr *ConfirmationTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, sig, timeoutErr.Signature)
	client.AssertNotCalled(t, "ConfirmTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSigned_UsesConfirmFunc(t *testing.T) {
	client := new(MockClient)
	tx := signedTx(t)
	sig := tx.Signatures[0]

	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentConfirmed).Return(testBlockhash, nil)
	client.On("SendTransactionWithOpts", mock.Anything, tx, mock.Anything).Return(sig, nil)
	client.On("ConfirmTransaction", mock.Anything, testBlockhash, sig, rpc.CommitmentConfirmed).Return(nil)
	client.On("GetTransaction", mock.Anything, sig, rpc.CommitmentFinalized).
		Return(&rpc.GetTransactionResult{Meta: &rpc.TransactionMeta{}}, nil)

	var confirms int32
	tm, _ := newObservedManager(t, client, WithConfirmFunc(immediateConfirm(&confirms)))
	result, err := tm.SubmitSigned(context.Background(), tx, SubmitOptions{})
	require.NoError(t, err)

	submitted, ok := result.(Submitted)
	require.True(t, ok)
	assert.Equal(t, sig, submitted.Signature)
	assert.Equal(t, int32(1), atomic.LoadInt32(&confirms))
}

func TestSubmitSigned_RejectsUnsigned(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	req := transferRequest(payer)
	tx, err := solana.NewTransaction(req.Instructions, testBlockhash.Hash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)

	tm, _ := newObservedManager(t, client)
	_, err = tm.SubmitSigned(context.Background(), tx, SubmitOptions{})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	client.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_Metrics(t *testing.T) {
	client := new(MockClient)
	payer := solana.NewWallet().PrivateKey
	req := transferRequest(payer)
	req.Simulate = true

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(testBlockhash, nil)
	client.On("SimulateTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{}, nil)

	reg := prometheus.NewRegistry()
	tm, _ := newObservedManager(t, client, WithRegisterer(reg))

	_, err := tm.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = tm.Submit(context.Background(), Request{Payer: payer.PublicKey()})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.simulatedCounter))
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.failedCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(tm.metrics.submittedCounter))

	count, err := testutil.GatherAndCount(reg, "pumpfun_txkit_submit_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
