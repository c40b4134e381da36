package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/ai"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// IngestRunner triggers one fetch+classify+persist pass for an account.
type IngestRunner interface {
	Run(ctx context.Context, tokenAccount string) int
}

// HolderSource builds a fresh top-holders report for a mint.
type HolderSource interface {
	TopHolders(ctx context.Context, mint string) (*models.HolderReport, error)
}

// PriceSource resolves a best-effort price for a mint.
type PriceSource interface {
	Price(ctx context.Context, mint string) *float64
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Store        storage.TransactionStore
	Ingestor     IngestRunner
	Holders      HolderSource
	Prices       PriceSource    // optional
	AI           *ai.Agent      // optional
	AIBaseConfig ai.AgentConfig // base configuration for model overrides
	DevMode      bool
	Logger       *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Transfers runs a fresh ingestion pass for the token account, then
// returns stored records matching the optional filters, newest first.
func (h *Handlers) Transfers(c echo.Context) error {
	tokenAccount := strings.TrimSpace(c.Param("tokenAccount"))
	if _, err := solana.PublicKeyFromBase58(tokenAccount); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid token account", map[string]any{"tokenAccount": "must be a base58 public key"})
	}

	filter, errResp := h.buildFilter(c, tokenAccount)
	if errResp != nil {
		return errResp
	}

	// The whole batch gets one deadline; individual record failures
	// inside the run are logged and skipped.
	ctx, cancel := h.withTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	stored := h.Ingestor.Run(ctx, tokenAccount)
	h.Logger.WithFields(logrus.Fields{
		"account": tokenAccount,
		"stored":  stored,
	}).Debug("ingestion pass finished")

	items, err := h.Store.List(ctx, filter)
	if err != nil {
		h.Logger.WithError(err).Error("failed to list transfers")
		return h.err(c, http.StatusInternalServerError, "failed to list transfers", nil)
	}

	views := make([]TransferView, 0, len(items))
	for _, ev := range items {
		views = append(views, toTransferView(ev))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handlers) buildFilter(c echo.Context, tokenAccount string) (storage.Filter, error) {
	f := storage.Filter{TokenAccount: tokenAccount}

	if t := strings.TrimSpace(c.QueryParam("type")); t != "" {
		if t != models.TransferBuy && t != models.TransferSell {
			return f, h.err(c, http.StatusBadRequest, "invalid type", map[string]any{"type": "must be buy or sell"})
		}
		f.Type = t
	}

	f.Protocol = strings.TrimSpace(c.QueryParam("protocol"))

	if sig := strings.TrimSpace(c.QueryParam("signature")); sig != "" {
		raw, err := base58.Decode(sig)
		if err != nil || len(raw) != 64 {
			return f, h.err(c, http.StatusBadRequest, "invalid signature", map[string]any{"signature": "must be a base58 transaction signature"})
		}
		f.Signature = sig
	}

	start, startErr := parseTimeParam(c.QueryParam("start"))
	if startErr != nil {
		return f, h.err(c, http.StatusBadRequest, "invalid start", map[string]any{"start": "must be RFC3339 or YYYY-MM-DD"})
	}
	end, endErr := parseTimeParam(c.QueryParam("end"))
	if endErr != nil {
		return f, h.err(c, http.StatusBadRequest, "invalid end", map[string]any{"end": "must be RFC3339 or YYYY-MM-DD"})
	}
	f.Start, f.End = start, end

	return f, nil
}

// parseTimeParam accepts RFC3339 or a bare date. Returns nil for an
// absent value.
func parseTimeParam(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// TopHolders returns the ordered holder report for a mint.
func (h *Handlers) TopHolders(c echo.Context) error {
	mint := strings.TrimSpace(c.Param("tokenMint"))
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid token mint", map[string]any{"tokenMint": "must be a base58 public key"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	report, err := h.Holders.TopHolders(ctx, mint)
	if err != nil {
		h.Logger.WithError(err).WithField("mint", mint).Error("holder aggregation failed")
		return h.err(c, http.StatusInternalServerError, "failed to build holder report", nil)
	}

	return c.JSON(http.StatusOK, report)
}

// Price returns the best-effort reference price for a mint. A null
// price means the quote service had no answer.
func (h *Handlers) Price(c echo.Context) error {
	if h.Prices == nil {
		return h.err(c, http.StatusBadRequest, "prices are not configured", nil)
	}

	mint := strings.TrimSpace(c.Param("mint"))
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be a base58 public key"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, PriceResponse{Mint: mint, Price: h.Prices.Price(ctx, mint)})
}

// AIAsk processes natural language questions about transfer data.
// Supports an optional model override for one-off requests.
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		tmp, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		agent = tmp
		defer func() {
			_ = tmp.Close()
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
