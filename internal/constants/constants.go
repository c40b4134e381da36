package constants

import "github.com/gagliardetto/solana-go"

// Well-known mint addresses
var (
	// Wrapped SOL
	WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	// USDT, the quote side for reference price lookups
	USDTMint = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

// Transfer instruction types emitted by the token program in jsonParsed encoding
const (
	InstructionTransfer        = "transfer"
	InstructionTransferChecked = "transferChecked"
)

// Limits
const (
	// SignatureFetchLimit bounds each ingestion run to the most recent
	// signatures for the scoped account.
	SignatureFetchLimit = 10

	// MaxRPCAttempts is the attempt ceiling for rate-limited RPC calls.
	MaxRPCAttempts = 5
)

// FallbackTokenDecimals is assumed when a parsed transfer carries only a
// raw integer amount and no uiAmountString. Mints with a different
// precision misreport through this path; kept to match upstream data.
const FallbackTokenDecimals = 6

// LamportsPerSOL converts native balance lookups to SOL.
const LamportsPerSOL = 1_000_000_000
