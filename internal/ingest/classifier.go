package ingest

import (
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/constants"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/rpc"
)

// TransferShape tags where in a transaction the transfer instruction
// was found.
type TransferShape int

const (
	// NoTransferFound means the transaction carries no token transfer.
	NoTransferFound TransferShape = iota
	// LegacyTransfer is a transfer among the top-level instructions.
	LegacyTransfer
	// VersionedInnerTransfer is a transfer nested in the inner
	// instruction list, as produced by versioned transactions.
	VersionedInnerTransfer
)

// Classified is the outcome of classifying one transaction against the
// scoped token account.
type Classified struct {
	Type     string // models.TransferBuy or models.TransferSell
	Amount   decimal.Decimal
	Protocol string
	Shape    TransferShape
}

var fallbackExp = int32(constants.FallbackTokenDecimals)

// findTransfer locates the first parsed transfer or transferChecked
// instruction, searching top-level instructions first and falling back
// to the flattened inner-instruction groups.
func findTransfer(tx *rpc.TransactionResult) (TransferShape, *rpc.ParsedInstruction, *rpc.Instruction) {
	if tx == nil || tx.Transaction == nil {
		return NoTransferFound, nil, nil
	}

	if shape, p, in := searchInstructions(tx.Transaction.Message.Instructions, LegacyTransfer); shape != NoTransferFound {
		return shape, p, in
	}

	if tx.Meta != nil {
		for _, group := range tx.Meta.InnerInstructions {
			if shape, p, in := searchInstructions(group.Instructions, VersionedInnerTransfer); shape != NoTransferFound {
				return shape, p, in
			}
		}
	}

	return NoTransferFound, nil, nil
}

func searchInstructions(ins []rpc.Instruction, shape TransferShape) (TransferShape, *rpc.ParsedInstruction, *rpc.Instruction) {
	for i := range ins {
		p := ins[i].ParsedTransfer()
		if p == nil {
			continue
		}
		if p.Type == constants.InstructionTransferChecked || p.Type == constants.InstructionTransfer {
			return shape, p, &ins[i]
		}
	}
	return NoTransferFound, nil, nil
}

// Classify extracts a buy/sell record from one parsed transaction. The
// transaction is untrusted, partially-shaped input; any missing field
// degrades to a zero value rather than an error. ok=false means the
// transaction yields no record.
func Classify(tx *rpc.TransactionResult, tokenAccount string) (Classified, bool) {
	shape, parsed, in := findTransfer(tx)
	if shape == NoTransferFound {
		return Classified{Shape: NoTransferFound}, false
	}

	kind := models.TransferSell
	if parsed.Info.Destination == tokenAccount {
		kind = models.TransferBuy
	}

	return Classified{
		Type:     kind,
		Amount:   extractAmount(parsed),
		Protocol: in.Program,
		Shape:    shape,
	}, true
}

// extractAmount prefers the human-readable UI amount, then the raw
// integer amount shifted by the fallback decimal exponent, then zero.
func extractAmount(parsed *rpc.ParsedInstruction) decimal.Decimal {
	if ta := parsed.Info.TokenAmount; ta != nil && ta.UIAmountString != "" {
		if d, err := decimal.NewFromString(ta.UIAmountString); err == nil {
			return d
		}
	}

	if parsed.Info.Amount != "" {
		if raw, err := decimal.NewFromString(parsed.Info.Amount); err == nil {
			return raw.Shift(-fallbackExp)
		}
	}

	return decimal.Zero
}
