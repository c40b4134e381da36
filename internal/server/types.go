package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/chaintime"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// TransferView is one stored transfer as served over HTTP. The display
// timestamp is rendered here, at the boundary; everything upstream
// carries the canonical instant.
type TransferView struct {
	Signature    string          `json:"signature"`
	Timestamp    time.Time       `json:"timestamp"`
	DisplayTime  string          `json:"displayTime"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Protocol     string          `json:"protocol"`
	TokenAccount string          `json:"tokenAccount"`
}

func toTransferView(ev models.TransferEvent) TransferView {
	return TransferView{
		Signature:    ev.Signature,
		Timestamp:    ev.Timestamp,
		DisplayTime:  chaintime.FormatDisplay(ev.Timestamp),
		Type:         ev.Type,
		Amount:       ev.Amount,
		Protocol:     ev.Protocol,
		TokenAccount: ev.TokenAccount,
	}
}

// PriceResponse represents a best-effort price lookup. Price is null
// when the quote service had no answer.
type PriceResponse struct {
	Mint  string   `json:"mint"`
	Price *float64 `json:"price"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"` // optional model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
	TookMs int64  `json:"took_ms"`
}
