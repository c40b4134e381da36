package ingest

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/chaintime"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/constants"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// ChainReader is the slice of the RPC client the ingestor depends on.
type ChainReader interface {
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]rpc.SignatureInfo, error)
	GetTransactionDetail(ctx context.Context, signature string) (*rpc.TransactionResult, error)
}

// PriceSource resolves a best-effort reference price for a mint. A nil
// result means the price is unavailable; ingestion never depends on it.
type PriceSource interface {
	Price(ctx context.Context, mint string) *float64
}

// Ingestor drives one fetch, classify and persist pass per request.
type Ingestor struct {
	chain     ChainReader
	store     storage.TransactionStore
	prices    PriceSource
	priceMint string
	sigLimit  int
	workers   int
	logger    *logrus.Logger
}

// IngestorConfig holds dependencies and tuning for the ingestor.
type IngestorConfig struct {
	Chain     ChainReader
	Store     storage.TransactionStore
	Prices    PriceSource // optional
	PriceMint string      // mint whose reference price is logged per run
	SigLimit  int         // signatures fetched per run
	Workers   int         // detail-fetch worker pool size
	Logger    *logrus.Logger
}

// NewIngestor creates a new ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.SigLimit <= 0 {
		cfg.SigLimit = constants.SignatureFetchLimit
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PriceMint == "" {
		cfg.PriceMint = constants.WSOLMint.String()
	}

	return &Ingestor{
		chain:     cfg.Chain,
		store:     cfg.Store,
		prices:    cfg.Prices,
		priceMint: cfg.PriceMint,
		sigLimit:  cfg.SigLimit,
		workers:   cfg.Workers,
		logger:    cfg.Logger,
	}
}

// Run ingests the most recent transfers for a token account: list
// signatures, fetch each transaction's parsed detail, classify, and
// persist idempotently. Per-record failures are logged and skipped;
// they never abort the remaining records. Returns the number of newly
// stored records.
func (ing *Ingestor) Run(ctx context.Context, tokenAccount string) int {
	sigs, err := ing.chain.GetSignaturesForAddress(ctx, tokenAccount, ing.sigLimit)
	if err != nil {
		// Terminal upstream failure surfaces as "no data".
		ing.logger.WithError(err).WithField("account", tokenAccount).Warn("failed to list signatures")
		return 0
	}
	if len(sigs) == 0 {
		ing.logger.WithField("account", tokenAccount).Debug("no signatures")
		return 0
	}

	ing.logPrice(ctx)

	details := ing.fetchDetails(ctx, sigs)

	stored := 0
	for i, sig := range sigs {
		tx := details[i]
		if tx == nil {
			ing.logger.WithField("signature", short(sig.Signature)).Debug("no transaction data, skipping")
			continue
		}

		cls, ok := Classify(tx, tokenAccount)
		if !ok {
			continue
		}

		ts, ok := chaintime.FromBlockTime(tx.BlockTime)
		if !ok {
			ing.logger.WithField("signature", short(sig.Signature)).Warn("missing block time, skipping record")
			continue
		}

		ev := &models.TransferEvent{
			Signature:    sig.Signature,
			Timestamp:    ts,
			Type:         cls.Type,
			Amount:       cls.Amount,
			Protocol:     cls.Protocol,
			TokenAccount: tokenAccount,
		}

		if ing.persist(ctx, ev) {
			stored++
		}
	}

	ing.logger.WithFields(logrus.Fields{
		"account":    tokenAccount,
		"signatures": len(sigs),
		"stored":     stored,
	}).Info("ingestion pass complete")

	return stored
}

// fetchDetails resolves transaction details on a bounded worker pool.
// Results are index-addressed so the upstream signature order is
// preserved; a failed or empty fetch leaves a nil slot.
func (ing *Ingestor) fetchDetails(ctx context.Context, sigs []rpc.SignatureInfo) []*rpc.TransactionResult {
	details := make([]*rpc.TransactionResult, len(sigs))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := ing.workers
	if workers > len(sigs) {
		workers = len(sigs)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tx, err := ing.chain.GetTransactionDetail(ctx, sigs[i].Signature)
				if err != nil {
					ing.logger.WithError(err).WithField("signature", short(sigs[i].Signature)).Warn("failed to fetch transaction")
					continue
				}
				details[i] = tx
			}
		}()
	}

	for i := range sigs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return details
}

// persist applies the idempotent append: look up by signature, skip
// when present, insert otherwise. Any per-record error is logged and
// swallowed so the batch continues.
func (ing *Ingestor) persist(ctx context.Context, ev *models.TransferEvent) bool {
	exists, err := ing.store.FindBySignature(ctx, ev.Signature)
	if err != nil {
		ing.logger.WithError(err).WithField("signature", short(ev.Signature)).Error("signature lookup failed")
		return false
	}
	if exists {
		ing.logger.WithField("signature", short(ev.Signature)).Debug("already stored")
		return false
	}

	if err := ing.store.Insert(ctx, ev); err != nil {
		ing.logger.WithError(err).WithField("signature", short(ev.Signature)).Error("insert failed")
		return false
	}
	return true
}

func (ing *Ingestor) logPrice(ctx context.Context) {
	if ing.prices == nil {
		return
	}
	if p := ing.prices.Price(ctx, ing.priceMint); p != nil {
		ing.logger.WithFields(logrus.Fields{
			"mint":  ing.priceMint,
			"price": *p,
		}).Info("reference price")
	} else {
		ing.logger.WithField("mint", ing.priceMint).Debug("reference price unavailable")
	}
}

func short(sig string) string {
	if len(sig) > 8 {
		return sig[:8]
	}
	return sig
}
