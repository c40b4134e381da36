package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer direction relative to the scoped token account.
const (
	TransferBuy  = "buy"
	TransferSell = "sell"
)

// TransferEvent is one classified token transfer, keyed by signature.
// Rows are append-only; a signature is stored at most once.
type TransferEvent struct {
	Signature    string          `json:"signature"`
	Timestamp    time.Time       `json:"timestamp"`
	Type         string          `json:"type"` // "buy" or "sell"
	Amount       decimal.Decimal `json:"amount"`
	Protocol     string          `json:"protocol"`
	TokenAccount string          `json:"tokenAccount"`
}

// HolderSnapshot is one entry of a top-holders report. It is recomputed
// in full on every request and never persisted.
type HolderSnapshot struct {
	TokenAccount     string  `json:"tokenAccount"`
	Owner            string  `json:"owner,omitempty"`
	SolBalance       float64 `json:"solBalance"`
	ReferenceBalance float64 `json:"referenceBalance"`
	Percentage       float64 `json:"percentage"`
	Error            string  `json:"error,omitempty"`
}

// HolderReport is the response shape of the holders endpoint. Homedata
// preserves the upstream largest-accounts ranking order.
type HolderReport struct {
	TokenAccountAddress string           `json:"tokenAccountAddress"`
	AccountOwner        string           `json:"accountOwner"`
	Homedata            []HolderSnapshot `json:"homedata"`
}
