package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/cache"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

type fakeChain struct {
	mu         sync.Mutex
	signatures []rpc.SignatureInfo
	sigErr     error
	details    map[string]*rpc.TransactionResult
	detailErrs map[string]error
}

func (f *fakeChain) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]rpc.SignatureInfo, error) {
	if f.sigErr != nil {
		return nil, f.sigErr
	}
	if limit < len(f.signatures) {
		return f.signatures[:limit], nil
	}
	return f.signatures, nil
}

func (f *fakeChain) GetTransactionDetail(ctx context.Context, signature string) (*rpc.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.detailErrs[signature]; ok {
		return nil, err
	}
	return f.details[signature], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func buyTx(t *testing.T, blockTime int64) *rpc.TransactionResult {
	t.Helper()
	tx := txWithInstructions([]rpc.Instruction{
		transferIx(t, "spl-token", "transferChecked", rpc.ParsedInfo{
			Destination: scopedAccount,
			TokenAmount: &rpc.TokenAmount{UIAmountString: "1"},
		}),
	}, nil)
	tx.BlockTime = blockTime
	return tx
}

func newTestIngestor(chain ChainReader, store storage.TransactionStore) *Ingestor {
	return NewIngestor(IngestorConfig{
		Chain:   chain,
		Store:   store,
		Workers: 2,
		Logger:  quietLogger(),
	})
}

func TestRunStoresClassifiedTransfers(t *testing.T) {
	chain := &fakeChain{
		signatures: []rpc.SignatureInfo{{Signature: "sigA"}, {Signature: "sigB"}},
		details: map[string]*rpc.TransactionResult{
			"sigA": buyTx(t, 1700000000),
			"sigB": buyTx(t, 1700000100),
		},
	}
	store := cache.NewMemoryStore()

	stored := newTestIngestor(chain, store).Run(context.Background(), scopedAccount)
	assert.Equal(t, 2, stored)

	events, err := store.List(context.Background(), storage.Filter{TokenAccount: scopedAccount})
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Most recent first.
	assert.Equal(t, "sigB", events[0].Signature)
	assert.Equal(t, models.TransferBuy, events[0].Type)
}

func TestRunIsIdempotentPerSignature(t *testing.T) {
	chain := &fakeChain{
		signatures: []rpc.SignatureInfo{{Signature: "sigA"}},
		details:    map[string]*rpc.TransactionResult{"sigA": buyTx(t, 1700000000)},
	}
	store := cache.NewMemoryStore()
	ing := newTestIngestor(chain, store)

	assert.Equal(t, 1, ing.Run(context.Background(), scopedAccount))
	assert.Equal(t, 0, ing.Run(context.Background(), scopedAccount))

	events, err := store.List(context.Background(), storage.Filter{TokenAccount: scopedAccount})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRunSkipsFailedDetailFetch(t *testing.T) {
	chain := &fakeChain{
		signatures: []rpc.SignatureInfo{{Signature: "sigA"}, {Signature: "sigB"}, {Signature: "sigC"}},
		details: map[string]*rpc.TransactionResult{
			"sigA": buyTx(t, 1700000000),
			"sigC": buyTx(t, 1700000200),
		},
		detailErrs: map[string]error{"sigB": errors.New("node unavailable")},
	}
	store := cache.NewMemoryStore()

	stored := newTestIngestor(chain, store).Run(context.Background(), scopedAccount)
	assert.Equal(t, 2, stored)
}

func TestRunSkipsRecordsWithoutBlockTime(t *testing.T) {
	chain := &fakeChain{
		signatures: []rpc.SignatureInfo{{Signature: "sigA"}, {Signature: "sigB"}},
		details: map[string]*rpc.TransactionResult{
			"sigA": buyTx(t, 0),
			"sigB": buyTx(t, 1700000100),
		},
	}
	store := cache.NewMemoryStore()

	stored := newTestIngestor(chain, store).Run(context.Background(), scopedAccount)
	assert.Equal(t, 1, stored)

	events, err := store.List(context.Background(), storage.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "sigB", events[0].Signature)
}

func TestRunSignatureListFailureYieldsNoData(t *testing.T) {
	chain := &fakeChain{sigErr: errors.New("rpc down")}
	store := cache.NewMemoryStore()

	stored := newTestIngestor(chain, store).Run(context.Background(), scopedAccount)
	assert.Equal(t, 0, stored)
}

func TestFetchDetailsPreservesSignatureOrder(t *testing.T) {
	var sigs []rpc.SignatureInfo
	details := make(map[string]*rpc.TransactionResult)
	for i := 0; i < 20; i++ {
		sig := fmt.Sprintf("sig%02d", i)
		sigs = append(sigs, rpc.SignatureInfo{Signature: sig})
		details[sig] = buyTx(t, int64(1700000000+i))
	}
	chain := &fakeChain{signatures: sigs, details: details}

	ing := NewIngestor(IngestorConfig{
		Chain:    chain,
		Store:    cache.NewMemoryStore(),
		SigLimit: len(sigs),
		Workers:  5,
		Logger:   quietLogger(),
	})

	resolved := ing.fetchDetails(context.Background(), sigs)
	require.Len(t, resolved, len(sigs))
	for i := range sigs {
		require.NotNil(t, resolved[i])
		assert.Equal(t, int64(1700000000+i), resolved[i].BlockTime)
	}
}
