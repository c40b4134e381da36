package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/cache"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
)

const (
	validAccount = "So11111111111111111111111111111111111111112"
	validMint    = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

type fakeRunner struct {
	calls   int
	account string
}

func (f *fakeRunner) Run(ctx context.Context, tokenAccount string) int {
	f.calls++
	f.account = tokenAccount
	return 0
}

type fakeHolders struct {
	report *models.HolderReport
	err    error
}

func (f *fakeHolders) TopHolders(ctx context.Context, mint string) (*models.HolderReport, error) {
	return f.report, f.err
}

type fakePrices struct {
	price *float64
}

func (f *fakePrices) Price(ctx context.Context, mint string) *float64 {
	return f.price
}

func newTestHandlers(store *cache.MemoryStore, runner *fakeRunner, holders *fakeHolders) *Handlers {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Handlers{
		Store:    store,
		Ingestor: runner,
		Holders:  holders,
		Logger:   logger,
	}
}

func seedTransfers(t *testing.T, store *cache.MemoryStore) {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []models.TransferEvent{
		{Signature: "sig1", Timestamp: base, Type: models.TransferBuy, Amount: decimal.NewFromInt(10), Protocol: "raydium", TokenAccount: validAccount},
		{Signature: "sig2", Timestamp: base.Add(time.Minute), Type: models.TransferSell, Amount: decimal.NewFromInt(5), Protocol: "jupiter", TokenAccount: validAccount},
		{Signature: "sig3", Timestamp: base.Add(2 * time.Minute), Type: models.TransferSell, Amount: decimal.NewFromInt(3), Protocol: "raydium", TokenAccount: validAccount},
	}
	for i := range events {
		require.NoError(t, store.Insert(context.Background(), &events[i]))
	}
}

func doTransfers(h *Handlers, account, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/transactions/"+account+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/transactions/:tokenAccount")
	c.SetParamNames("tokenAccount")
	c.SetParamValues(account)
	_ = h.Transfers(c)
	return rec
}

func TestTransfersRunsIngestionAndListsNewestFirst(t *testing.T) {
	store := cache.NewMemoryStore()
	seedTransfers(t, store)
	runner := &fakeRunner{}
	h := newTestHandlers(store, runner, &fakeHolders{})

	rec := doTransfers(h, validAccount, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, validAccount, runner.account)

	var views []TransferView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "sig3", views[0].Signature)
	assert.NotEmpty(t, views[0].DisplayTime)
}

func TestTransfersAppliesConjunctiveFilters(t *testing.T) {
	store := cache.NewMemoryStore()
	seedTransfers(t, store)
	h := newTestHandlers(store, &fakeRunner{}, &fakeHolders{})

	rec := doTransfers(h, validAccount, "?type=sell&protocol=jupiter")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []TransferView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "sig2", views[0].Signature)
}

func TestTransfersTimeWindowFilter(t *testing.T) {
	store := cache.NewMemoryStore()
	seedTransfers(t, store)
	h := newTestHandlers(store, &fakeRunner{}, &fakeHolders{})

	rec := doTransfers(h, validAccount, "?start=2024-05-01T12:01:00Z&end=2024-05-01T12:01:30Z")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []TransferView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "sig2", views[0].Signature)
}

func TestTransfersRejectsBadInput(t *testing.T) {
	h := newTestHandlers(cache.NewMemoryStore(), &fakeRunner{}, &fakeHolders{})

	assert.Equal(t, http.StatusBadRequest, doTransfers(h, "not-base58!", "").Code)
	assert.Equal(t, http.StatusBadRequest, doTransfers(h, validAccount, "?type=swap").Code)
	assert.Equal(t, http.StatusBadRequest, doTransfers(h, validAccount, "?signature=tooShort").Code)
	assert.Equal(t, http.StatusBadRequest, doTransfers(h, validAccount, "?start=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, doTransfers(h, validAccount, "?end=01/05/2024").Code)
}

func TestTransfersAcceptsFullLengthSignature(t *testing.T) {
	store := cache.NewMemoryStore()
	seedTransfers(t, store)
	h := newTestHandlers(store, &fakeRunner{}, &fakeHolders{})

	sig := base58.Encode(bytes.Repeat([]byte{7}, 64))
	rec := doTransfers(h, validAccount, "?signature="+sig)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []TransferView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Empty(t, views)
}

func doHolders(h *Handlers, mint string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/holders/"+mint, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/holders/:tokenMint")
	c.SetParamNames("tokenMint")
	c.SetParamValues(mint)
	_ = h.TopHolders(c)
	return rec
}

func TestTopHoldersReportShape(t *testing.T) {
	holders := &fakeHolders{report: &models.HolderReport{
		TokenAccountAddress: "holderAcct0",
		AccountOwner:        "owner0",
		Homedata: []models.HolderSnapshot{
			{TokenAccount: "holderAcct0", Owner: "owner0", SolBalance: 1.5, ReferenceBalance: 500000, Percentage: 50},
			{TokenAccount: "holderAcct1", Error: "resolve owner: no owner for account holderAcct1"},
		},
	}}
	h := newTestHandlers(cache.NewMemoryStore(), &fakeRunner{}, holders)

	rec := doHolders(h, validMint)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TokenAccountAddress string                  `json:"tokenAccountAddress"`
		AccountOwner        string                  `json:"accountOwner"`
		Homedata            []models.HolderSnapshot `json:"homedata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "holderAcct0", body.TokenAccountAddress)
	assert.Equal(t, "owner0", body.AccountOwner)
	require.Len(t, body.Homedata, 2)
	assert.Empty(t, body.Homedata[0].Error)
	assert.Contains(t, body.Homedata[1].Error, "resolve owner")
}

func TestTopHoldersBadMintAndUpstreamFailure(t *testing.T) {
	h := newTestHandlers(cache.NewMemoryStore(), &fakeRunner{}, &fakeHolders{err: errors.New("supply unavailable")})

	assert.Equal(t, http.StatusBadRequest, doHolders(h, "nope").Code)
	assert.Equal(t, http.StatusInternalServerError, doHolders(h, validMint).Code)
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(cache.NewMemoryStore(), &fakeRunner{}, &fakeHolders{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Health(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestPriceEndpoint(t *testing.T) {
	price := 3.5
	h := newTestHandlers(cache.NewMemoryStore(), &fakeRunner{}, &fakeHolders{})
	h.Prices = &fakePrices{price: &price}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/prices/"+validMint, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/prices/:mint")
	c.SetParamNames("mint")
	c.SetParamValues(validMint)
	require.NoError(t, h.Price(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Price)
	assert.Equal(t, 3.5, *resp.Price)

	// Unavailable price serializes as null, not an error.
	h.Prices = &fakePrices{}
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/prices/"+validMint, nil), rec)
	c.SetPath("/v1/prices/:mint")
	c.SetParamNames("mint")
	c.SetParamValues(validMint)
	require.NoError(t, h.Price(c))
	assert.Contains(t, rec.Body.String(), `"price":null`)
}
