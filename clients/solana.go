package clients

import (
	"context"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vitwit/x402-gate/types"
	"github.com/vitwit/x402-gate/utils"
	"github.com/vitwit/x402-gate/verification"
)

// solanaScanLimit caps how many recent transactions one verification fetches.
const solanaScanLimit = 50

// lamportsPerSOLExp: dotted amount strings are SOL and scale by 10^9.
const lamportsPerSOLExp = 9

// SolanaTransactionInfo is the transport-neutral view of one transaction's
// first system transfer.
type SolanaTransactionInfo struct {
	Signature string
	From      string
	To        string
	Lamports  uint64
	Slot      uint64
	Succeeded bool
}

// SolanaReader is the ledger surface the Solana verifier needs: a listing of
// recent transaction signatures between two addresses, and per-transaction
// detail.
type SolanaReader interface {
	RecentSignaturesBetween(ctx context.Context, payer, recipient string, limit int) ([]string, error)
	TransactionDetail(ctx context.Context, signature string) (*SolanaTransactionInfo, error)
}

// solanaRPCReader adapts rpc.Client to SolanaReader. Listing is scoped to
// the recipient account; the payer constraint is enforced by the verifier on
// the decoded detail.
type solanaRPCReader struct {
	rc *rpc.Client
}

func (r *solanaRPCReader) RecentSignaturesBetween(ctx context.Context, payer, recipient string, limit int) ([]string, error) {
	account, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, err
	}
	out, err := r.rc.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	})
	if err != nil {
		return nil, err
	}
	sigs := make([]string, 0, len(out))
	for _, item := range out {
		sigs = append(sigs, item.Signature.String())
	}
	return sigs, nil
}

func (r *solanaRPCReader) TransactionDetail(ctx context.Context, signature string) (*SolanaTransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, err
	}
	out, err := r.rc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding: solana.EncodingBase64,
	})
	if err != nil {
		return nil, err
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(out.Transaction.GetBinary()))
	if err != nil {
		return nil, err
	}

	info := &SolanaTransactionInfo{
		Signature: signature,
		Slot:      out.Slot,
		Succeeded: out.Meta == nil || out.Meta.Err == nil,
	}
	for _, inst := range tx.Message.Instructions {
		prog := tx.Message.AccountKeys[inst.ProgramIDIndex]
		if !prog.Equals(solana.SystemProgramID) {
			continue
		}
		metas := make([]*solana.AccountMeta, len(inst.Accounts))
		for i, accIdx := range inst.Accounts {
			pub := tx.Message.AccountKeys[accIdx]
			writable, err := tx.Message.IsWritable(pub)
			if err != nil {
				return nil, err
			}
			metas[i] = &solana.AccountMeta{
				PublicKey:  pub,
				IsSigner:   tx.Message.IsSigner(pub),
				IsWritable: writable,
			}
		}
		sysInst, err := system.DecodeInstruction(metas, inst.Data)
		if err != nil {
			continue
		}
		transfer, ok := sysInst.Impl.(*system.Transfer)
		if !ok || len(metas) < 2 {
			continue
		}
		info.From = metas[0].PublicKey.String()
		info.To = metas[1].PublicKey.String()
		if transfer.Lamports != nil {
			info.Lamports = *transfer.Lamports
		}
		break
	}
	return info, nil
}

// SolanaVerifier verifies native SOL payments by scanning recent
// transactions between payer and recipient. The client is bound to one
// network at construction.
type SolanaVerifier struct {
	reader SolanaReader
	chain  types.ChainType
}

var _ verification.Verifier = (*SolanaVerifier)(nil)

// NewSolanaVerifier builds a verifier against an RPC endpoint. An empty URL
// selects the public cluster endpoint for the chain's network variant.
func NewSolanaVerifier(rpcURL string, chain types.ChainType) (*SolanaVerifier, error) {
	if chain.Family != types.FamilySolana {
		return nil, verification.ErrChainNotSupported
	}
	if rpcURL == "" {
		switch chain.Network {
		case types.NetworkMainnet:
			rpcURL = rpc.MainNetBeta_RPC
		case types.NetworkTestnet:
			rpcURL = rpc.TestNet_RPC
		case types.NetworkDevnet:
			rpcURL = rpc.DevNet_RPC
		default:
			return nil, verification.NewNetworkError("no RPC endpoint for solana network %q", chain.Network)
		}
	}
	return &SolanaVerifier{
		reader: &solanaRPCReader{rc: rpc.New(rpcURL)},
		chain:  chain,
	}, nil
}

// NewSolanaVerifierWithReader builds a verifier on an existing reader.
func NewSolanaVerifierWithReader(reader SolanaReader, chain types.ChainType) *SolanaVerifier {
	return &SolanaVerifier{reader: reader, chain: chain}
}

// SupportsChain reports whether this verifier can serve the chain family.
func (v *SolanaVerifier) SupportsChain(chain types.ChainType) bool {
	return chain.Family == types.FamilySolana
}

// VerifyPayment fetches recent transactions strictly between payer and
// recipient and accepts the first successful one whose transferred lamports
// meet the required amount. Scanning stops at the first match.
func (v *SolanaVerifier) VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error) {
	if !utils.IsBase58Address(payerAddress) {
		return nil, verification.ErrInvalidAddress
	}
	if !utils.IsBase58Address(request.Recipient) {
		return nil, verification.ErrInvalidAddress
	}
	required, err := parseAmountToBaseUnits(request.Amount, lamportsPerSOLExp)
	if err != nil {
		return nil, verification.NewParseError("%v", err)
	}

	sigs, err := v.reader.RecentSignaturesBetween(ctx, payerAddress, request.Recipient, solanaScanLimit)
	if err != nil {
		return nil, verification.NewRPCError(err, "failed to list transactions: %v", err)
	}

	var (
		found      bool
		paidAmount = "0"
		txHash     string
		logs       []types.TransactionLog
	)
	for _, sig := range sigs {
		info, err := v.reader.TransactionDetail(ctx, sig)
		if err != nil || info == nil {
			continue
		}
		if !info.Succeeded {
			continue
		}
		if info.To != request.Recipient || info.From != payerAddress {
			continue
		}
		if info.Lamports >= required {
			found = true
			paidAmount = strconv.FormatUint(info.Lamports, 10)
			txHash = info.Signature
			logs = append(logs, types.TransactionLog{
				TransactionHash: info.Signature,
				From:            info.From,
				To:              info.To,
				Value:           paidAmount,
				BlockNumber:     info.Slot,
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
