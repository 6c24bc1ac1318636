package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vitwit/x402-gate/types"
	"github.com/vitwit/x402-gate/utils"
	"github.com/vitwit/x402-gate/verification"
)

// suiScanLimit caps how many recent transaction blocks one verification
// fetches.
const suiScanLimit = 50

// mistPerSUIExp: dotted amount strings are SUI and scale by 10^9.
const mistPerSUIExp = 9

// SuiTransferInfo is the transport-neutral view of one SUI transfer.
type SuiTransferInfo struct {
	Digest     string
	From       string
	To         string
	Mist       uint64
	Checkpoint uint64
	Succeeded  bool
}

// SuiReader is the ledger surface the Sui verifier needs: recent transaction
// blocks addressed to an account, newest first.
type SuiReader interface {
	TransactionsToAddress(ctx context.Context, address string, limit int) ([]SuiTransferInfo, error)
}

// suiJSONRPCReader adapts a Sui JSON-RPC endpoint to SuiReader using
// suix_queryTransactionBlocks with balance-change output.
type suiJSONRPCReader struct {
	endpoint string
	hc       *http.Client
}

func (r *suiJSONRPCReader) TransactionsToAddress(ctx context.Context, address string, limit int) ([]SuiTransferInfo, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "suix_queryTransactionBlocks",
		"params": []any{
			map[string]any{
				"filter":  map[string]any{"ToAddress": address},
				"options": map[string]any{"showBalanceChanges": true, "showEffects": true},
			},
			nil, limit, true,
		},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sui endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		Result struct {
			Data []struct {
				Digest     string `json:"digest"`
				Checkpoint string `json:"checkpoint"`
				Effects    struct {
					Status struct {
						Status string `json:"status"`
					} `json:"status"`
				} `json:"effects"`
				BalanceChanges []struct {
					Owner struct {
						AddressOwner string `json:"AddressOwner"`
					} `json:"owner"`
					CoinType string `json:"coinType"`
					Amount   string `json:"amount"`
				} `json:"balanceChanges"`
				Transaction struct {
					Data struct {
						Sender string `json:"sender"`
					} `json:"data"`
				} `json:"transaction"`
			} `json:"data"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("sui rpc error: %s", out.Error.Message)
	}

	transfers := make([]SuiTransferInfo, 0, len(out.Result.Data))
	for _, block := range out.Result.Data {
		checkpoint, _ := strconv.ParseUint(block.Checkpoint, 10, 64)
		info := SuiTransferInfo{
			Digest:     block.Digest,
			From:       block.Transaction.Data.Sender,
			Checkpoint: checkpoint,
			Succeeded:  block.Effects.Status.Status == "success",
		}
		for _, change := range block.BalanceChanges {
			if change.CoinType != "0x2::sui::SUI" || change.Owner.AddressOwner != address {
				continue
			}
			mist, err := strconv.ParseUint(change.Amount, 10, 64)
			if err != nil {
				continue
			}
			info.To = change.Owner.AddressOwner
			info.Mist = mist
			break
		}
		transfers = append(transfers, info)
	}
	return transfers, nil
}

// SuiVerifier verifies native SUI payments by scanning recent transaction
// blocks addressed to the recipient, mirroring the Solana verifier's
// first-match scan.
type SuiVerifier struct {
	reader SuiReader
	chain  types.ChainType
}

var _ verification.Verifier = (*SuiVerifier)(nil)

// NewSuiVerifier builds a verifier against a JSON-RPC endpoint.
func NewSuiVerifier(rpcURL string, chain types.ChainType) (*SuiVerifier, error) {
	if chain.Family != types.FamilySui {
		return nil, verification.ErrChainNotSupported
	}
	if rpcURL == "" {
		return nil, verification.NewNetworkError("no RPC endpoint for sui network %q", chain.Network)
	}
	return &SuiVerifier{
		reader: &suiJSONRPCReader{endpoint: rpcURL, hc: http.DefaultClient},
		chain:  chain,
	}, nil
}

// NewSuiVerifierWithReader builds a verifier on an existing reader.
func NewSuiVerifierWithReader(reader SuiReader, chain types.ChainType) *SuiVerifier {
	return &SuiVerifier{reader: reader, chain: chain}
}

// SupportsChain reports whether this verifier can serve the chain family.
func (v *SuiVerifier) SupportsChain(chain types.ChainType) bool {
	return chain.Family == types.FamilySui
}

// VerifyPayment scans the recipient's recent transaction blocks for a
// successful transfer from the payer meeting the required amount in MIST.
func (v *SuiVerifier) VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error) {
	if !utils.IsMoveAddress(payerAddress) || !utils.IsMoveAddress(request.Recipient) {
		return nil, verification.ErrInvalidAddress
	}
	required, err := parseAmountToBaseUnits(request.Amount, mistPerSUIExp)
	if err != nil {
		return nil, verification.NewParseError("%v", err)
	}

	transfers, err := v.reader.TransactionsToAddress(ctx, request.Recipient, suiScanLimit)
	if err != nil {
		return nil, verification.NewRPCError(err, "failed to list transactions: %v", err)
	}

	var (
		found      bool
		paidAmount = "0"
		txHash     string
		logs       []types.TransactionLog
	)
	for _, transfer := range transfers {
		if !transfer.Succeeded || transfer.From != payerAddress || transfer.To != request.Recipient {
			continue
		}
		if transfer.Mist >= required {
			found = true
			paidAmount = strconv.FormatUint(transfer.Mist, 10)
			txHash = transfer.Digest
			logs = append(logs, types.TransactionLog{
				TransactionHash: transfer.Digest,
				From:            transfer.From,
				To:              transfer.To,
				Value:           paidAmount,
				BlockNumber:     transfer.Checkpoint,
			})
			break
		}
	}

	return &types.PaymentVerification{
		IsPaid:          found,
		PaidAmount:      paidAmount,
		TransactionHash: txHash,
		VerifiedAt:      time.Now().Unix(),
		Chain:           request.Chain,
		TransactionLogs: logs,
	}, nil
}
