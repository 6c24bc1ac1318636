// Package clients implements the per-chain payment verifiers. Each verifier
// talks to its ledger through a narrow reader interface so the verification
// logic never assumes a particular transport.
package clients

import (
	"context"
	"encoding/hex"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vitwit/x402-gate/types"
	"github.com/vitwit/x402-gate/utils"
	"github.com/vitwit/x402-gate/verification"
)

// evmLookbackBlocks bounds every scan to the most recent span of blocks.
const evmLookbackBlocks = 100

var transferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// EVMTransaction is the transport-neutral view of a transaction, with the
// sender already recovered.
type EVMTransaction struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address
	Value *big.Int
}

// EVMChainReader is the ledger surface the EVM verifier needs: chain id,
// block height, log filtering, and per-transaction detail.
type EVMChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*EVMTransaction, error)
}

// ethChainReader adapts ethclient.Client to EVMChainReader.
type ethChainReader struct {
	ec *ethclient.Client
}

func (r *ethChainReader) ChainID(ctx context.Context) (*big.Int, error) {
	return r.ec.ChainID(ctx)
}

func (r *ethChainReader) BlockNumber(ctx context.Context) (uint64, error) {
	return r.ec.BlockNumber(ctx)
}

func (r *ethChainReader) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error) {
	return r.ec.FilterLogs(ctx, query)
}

func (r *ethChainReader) TransactionByHash(ctx context.Context, hash common.Hash) (*EVMTransaction, error) {
	tx, _, err := r.ec.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, err
	}
	return &EVMTransaction{
		Hash:  tx.Hash(),
		From:  from,
		To:    tx.To(),
		Value: tx.Value(),
	}, nil
}

// EVMVerifier verifies payments on account-based EVM chains by scanning a
// bounded window of recent ledger history.
type EVMVerifier struct {
	reader EVMChainReader
	chain  types.ChainType
}

var _ verification.Verifier = (*EVMVerifier)(nil)

// NewEVMVerifier dials the RPC endpoint and validates its reported chain id
// against the canonical id for the requested chain. A mismatched or
// unreachable endpoint fails construction; a misconfigured verifier is never
// silently registered.
func NewEVMVerifier(ctx context.Context, rpcURL string, chain types.ChainType) (*EVMVerifier, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, verification.NewNetworkError("failed to connect to EVM RPC %s: %v", rpcURL, err)
	}
	return NewEVMVerifierWithReader(ctx, &ethChainReader{ec: client}, chain)
}

// NewEVMVerifierWithReader builds a verifier on an existing reader. The
// chain-id handshake still runs against the reader.
func NewEVMVerifierWithReader(ctx context.Context, reader EVMChainReader, chain types.ChainType) (*EVMVerifier, error) {
	if chain.Family != types.FamilyEvm {
		return nil, verification.ErrChainNotSupported
	}
	expected, err := chain.EvmNumericChainID()
	if err != nil {
		return nil, verification.NewParseError("invalid custom chain ID: %v", err)
	}
	actual, err := reader.ChainID(ctx)
	if err != nil {
		return nil, verification.NewNetworkError("failed to get chain ID: %v", err)
	}
	if actual.Uint64() != expected {
		return nil, verification.NewNetworkError("chain ID mismatch: expected %d, got %s", expected, actual)
	}
	return &EVMVerifier{reader: reader, chain: chain}, nil
}

// SupportsChain reports whether this verifier can serve the chain family.
func (v *EVMVerifier) SupportsChain(chain types.ChainType) bool {
	return chain.Family == types.FamilyEvm
}

// VerifyPayment scans recent ledger history for a payment satisfying the
// request. An empty result is not an error: it yields is_paid=false with
// whatever audit trail the scan collected.
func (v *EVMVerifier) VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error) {
	payer, err := parseEvmAddress(payerAddress)
	if err != nil {
		return nil, err
	}
	recipient, err := parseEvmAddress(request.Recipient)
	if err != nil {
		return nil, err
	}
	required, err := utils.ParseBigInt(request.Amount)
	if err != nil {
		return nil, verification.NewParseError("invalid payment amount %q: %v", request.Amount, err)
	}

	var (
		isPaid bool
		logs   []types.TransactionLog
	)
	switch request.Currency.Kind {
	case types.CurrencyNative:
		isPaid, logs, err = v.verifyNativePayment(ctx, payer, recipient, required)
	case types.CurrencyToken:
		var token common.Address
		token, err = parseEvmAddress(request.Currency.Address)
		if err == nil {
			isPaid, logs, err = v.verifyTokenPayment(ctx, payer, recipient, token, required, request.Currency.Decimals)
		}
	default:
		err = &verification.VerificationError{Code: verification.CodeInvalidCurrency, Message: "unsupported currency kind " + string(request.Currency.Kind)}
	}
	if err != nil {
		return nil, err
	}

	paidAmount := "0"
	if isPaid {
		paidAmount = request.Amount
	}
	var txHash string
	if len(logs) > 0 {
		txHash = logs[0].TransactionHash
	}
	return &types.PaymentVerification{
		IsPaid:          isPaid,
		PaidAmount:      paidAmount,
		TransactionHash: txHash,
		VerifiedAt:      time.Now().Unix(),
		Chain:           request.Chain,
		TransactionLogs: logs,
	}, nil
}

// verifyNativePayment scans the lookback window for log entries addressed to
// the recipient, resolves each owning transaction, and accepts if any was
// sent by the payer with at least the required value. Every resolved
// transaction enters the audit trail, qualifying or not.
func (v *EVMVerifier) verifyNativePayment(ctx context.Context, payer, recipient common.Address, required *big.Int) (bool, []types.TransactionLog, error) {
	fromBlock, toBlock, err := v.lookbackWindow(ctx)
	if err != nil {
		return false, nil, err
	}
	query := ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{recipient},
	}
	entries, err := v.reader.FilterLogs(ctx, query)
	if err != nil {
		return false, nil, verification.NewRPCError(err, "failed to get logs: %v", err)
	}

	found := false
	logs := make([]types.TransactionLog, 0, len(entries))
	for _, entry := range entries {
		tx, err := v.reader.TransactionByHash(ctx, entry.TxHash)
		if err != nil || tx == nil {
			continue
		}
		to := ""
		if tx.To != nil {
			to = tx.To.Hex()
		}
		logs = append(logs, types.TransactionLog{
			TransactionHash: tx.Hash.Hex(),
			From:            tx.From.Hex(),
			To:              to,
			Value:           tx.Value.String(),
			BlockNumber:     entry.BlockNumber,
			LogIndex:        uint64(entry.Index),
		})
		if tx.From == payer && tx.Value.Cmp(required) >= 0 {
			found = true
		}
	}
	return found, logs, nil
}

// verifyTokenPayment scales the required amount by the token's decimals and
// scans Transfer events from payer to recipient on the token contract over
// the same lookback window.
func (v *EVMVerifier) verifyTokenPayment(ctx context.Context, payer, recipient, token common.Address, required *big.Int, decimals uint8) (bool, []types.TransactionLog, error) {
	scaled := utils.ScaleByDecimals(required, decimals)
	fromBlock, toBlock, err := v.lookbackWindow(ctx)
	if err != nil {
		return false, nil, err
	}
	query := ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{token},
		Topics: [][]common.Hash{
			{transferEventTopic},
			{common.BytesToHash(payer.Bytes())},
			{common.BytesToHash(recipient.Bytes())},
		},
	}
	entries, err := v.reader.FilterLogs(ctx, query)
	if err != nil {
		return false, nil, verification.NewRPCError(err, "failed to get transfer logs: %v", err)
	}

	found := false
	logs := make([]types.TransactionLog, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Data) < 32 {
			continue
		}
		amount := new(big.Int).SetBytes(entry.Data[:32])
		logs = append(logs, types.TransactionLog{
			TransactionHash: entry.TxHash.Hex(),
			From:            payer.Hex(),
			To:              recipient.Hex(),
			Value:           amount.String(),
			BlockNumber:     entry.BlockNumber,
			LogIndex:        uint64(entry.Index),
			Data:            hex.EncodeToString(entry.Data[:32]),
		})
		if amount.Cmp(scaled) >= 0 {
			found = true
		}
	}
	return found, logs, nil
}

func (v *EVMVerifier) lookbackWindow(ctx context.Context) (*big.Int, *big.Int, error) {
	latest, err := v.reader.BlockNumber(ctx)
	if err != nil {
		return nil, nil, verification.NewRPCError(err, "failed to get block number: %v", err)
	}
	from := uint64(0)
	if latest > evmLookbackBlocks {
		from = latest - evmLookbackBlocks
	}
	return new(big.Int).SetUint64(from), new(big.Int).SetUint64(latest), nil
}

func parseEvmAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, verification.ErrInvalidAddress
	}
	return common.HexToAddress(address), nil
}
