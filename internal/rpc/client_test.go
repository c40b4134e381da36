package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) (*Client, *[]time.Duration) {
	t.Helper()

	c := NewClient(ClientConfig{
		BaseURL:     url,
		Timeout:     5 * time.Second,
		MaxAttempts: 5,
		BaseBackoff: time.Second,
	})

	// Record the backoff schedule instead of sleeping.
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestCallBackoffScheduleOnRateLimit(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.Call(context.Background(), "getBalance", []interface{}{"x"}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	// No more than 5 attempts before terminal failure.
	assert.Equal(t, int64(5), hits.Load())

	// Delays are exactly 1s, 2s, 4s, 8s, 16s.
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	assert.Equal(t, want, *slept)
}

func TestCallRecoversAfterRateLimit(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":42}}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv.URL)

	var out balanceResponse
	err := c.Call(context.Background(), "getBalance", []interface{}{"x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), out.Result.Value)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestCallTerminalOnOtherStatus(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.Call(context.Background(), "getBalance", []interface{}{"x"}, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))

	// A non-rate-limit fault never retries.
	assert.Equal(t, int64(1), hits.Load())
	assert.Empty(t, *slept)
}

func TestCallRetriesInBandRateLimitCode(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32429,"message":"too many requests"}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":7}}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv.URL)

	var out balanceResponse
	err := c.Call(context.Background(), "getBalance", []interface{}{"x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), out.Result.Value)
	assert.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestGetAccountOwner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"data":{"parsed":{"info":{"owner":"OwnerWallet111"}}}}}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	owner, err := c.GetAccountOwner(context.Background(), "TokenAcct111")
	require.NoError(t, err)
	assert.Equal(t, "OwnerWallet111", owner)
}

func TestGetAccountOwnerMissingValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":null}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	_, err := c.GetAccountOwner(context.Background(), "TokenAcct111")
	assert.Error(t, err)
}

func TestGetTokenBalanceNoAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":[]}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	bal, err := c.GetTokenBalance(context.Background(), "owner", "mint")
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal)
}
