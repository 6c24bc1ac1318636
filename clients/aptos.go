package clients

import (
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

// aptosScanLimit caps how many recent account transactions one verification
// fetches.
const aptosScanLimit = 50

// octasPerAPTExp: dotted amount strings are APT and scale by 10^8.
const octasPerAPTExp = 8

// AptosTransferInfo is the transport-neutral view of one coin transfer.
type AptosTransferInfo struct {
	Hash      string
	From      string
	To        string
	Octas     uint64
	Version   uint64
	Succeeded bool
}

// AptosReader is the ledger surface the Aptos verifier needs: recent
// transactions submitted by an account, newest first. The fullnode account
// listing is sender-scoped, so verification scans the payer's side.
type AptosReader interface {
	AccountTransactions(ctx context.Context, address string, limit int) ([]AptosTransferInfo, error)
}

// aptosRESTReader adapts an Aptos fullnode REST endpoint to AptosReader.
type aptosRESTReader struct {
	baseURL string
	hc      *http.Client
}

func (r *aptosRESTReader) AccountTransactions(ctx context.Context, address string, limit int) ([]AptosTransferInfo, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/transactions?limit=%d", r.baseURL, address, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aptos fullnode returned status %d", resp.StatusCode)
	}

	var raw []struct {
		Version string `json:"version"`
		Hash    string `json:"hash"`
		Success bool   `json:"success"`
		Sender  string `json:"sender"`
		Payload struct {
			Function  string   `json:"function"`
			Arguments []string `json:"arguments"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	transfers := make([]AptosTransferInfo, 0, len(raw))
	for _, tx := range raw {
		if !isAptosTransferFunction(tx.Payload.Function) || len(tx.Payload.Arguments) < 2 {
			continue
		}
		octas, err := strconv.ParseUint(tx.Payload.Arguments[1], 10, 64)
		if err != nil {
			continue
		}
		version, _ := strconv.ParseUint(tx.Version, 10, 64)
		transfers = append(transfers, AptosTransferInfo{
			Hash:      tx.Hash,
			From:      tx.Sender,
			To:        tx.Payload.Arguments[0],
			Octas:     octas,
			Version:   version,
			Succeeded: tx.Success,
		})
	}
	return transfers, nil
}

func isAptosTransferFunction(fn string) bool {
	return fn == "0x1::aptos_account::transfer" || fn == "0x1::coin::transfer"
}

// AptosVerifier verifies native APT payments by scanning recent coin
// transfers between payer and recipient, like the Solana verifier: first
// qualifying transaction wins and the scan stops.
type AptosVerifier struct {
	reader AptosReader
	chain  types.ChainType
}

var _ verification.Verifier = (*AptosVerifier)(nil)

// NewAptosVerifier builds a verifier against a fullnode REST endpoint.
func NewAptosVerifier(rpcURL string, chain types.ChainType) (*AptosVerifier, error) {
	if chain.Family != types.FamilyAptos {
		return nil, verification.ErrChainNotSupported
	}
	if rpcURL == "" {
		return nil, verification.NewNetworkError("no REST endpoint for aptos network %q", chain.Network)
	}
	return &AptosVerifier{
		reader: &aptosRESTReader{baseURL: rpcURL, hc: http.DefaultClient},
		chain:  chain,
	}, nil
}

// NewAptosVerifierWithReader builds a verifier on an existing reader.
func NewAptosVerifierWithReader(reader AptosReader, chain types.ChainType) *AptosVerifier {
	return &AptosVerifier{reader: reader, chain: chain}
}

// SupportsChain reports whether this verifier can serve the chain family.
func (v *AptosVerifier) SupportsChain(chain types.ChainType) bool {
	return chain.Family == types.FamilyAptos
}

// VerifyPayment scans the payer's recent transactions for a successful
// transfer to the recipient meeting the required amount in octas.
func (v *AptosVerifier) VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error) {
	if !utils.IsMoveAddress(payerAddress) || !utils.IsMoveAddress(request.Recipient) {
		return nil, verification.ErrInvalidAddress
	}
	required, err := parseAmountToBaseUnits(request.Amount, octasPerAPTExp)
	if err != nil {
		return nil, verification.NewParseError("%v", err)
	}

	transfers, err := v.reader.AccountTransactions(ctx, payerAddress, aptosScanLimit)
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
		if transfer.Octas >= required {
			found = true
			paidAmount = strconv.FormatUint(transfer.Octas, 10)
			txHash = transfer.Hash
			logs = append(logs, types.TransactionLog{
				TransactionHash: transfer.Hash,
				From:            transfer.From,
				To:              transfer.To,
				Value:           paidAmount,
				BlockNumber:     transfer.Version,
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
