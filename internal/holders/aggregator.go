package holders

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/rpc"
)

// BalanceReader is the slice of the RPC client the aggregator depends on.
type BalanceReader interface {
	GetTokenSupply(ctx context.Context, mint string) (float64, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]rpc.LargestAccount, error)
	GetAccountOwner(ctx context.Context, tokenAccount string) (string, error)
	GetBalance(ctx context.Context, wallet string) (float64, error)
	GetTokenBalance(ctx context.Context, owner, mint string) (float64, error)
}

// Aggregator resolves owner, native balance, reference-token balance
// and supply share for the ranked top holders of a mint.
type Aggregator struct {
	chain         BalanceReader
	referenceMint string
	workers       int
	logger        *logrus.Logger
}

// AggregatorConfig holds dependencies and tuning for the aggregator.
type AggregatorConfig struct {
	Chain         BalanceReader
	ReferenceMint string // mint whose balance each holder is measured in
	Workers       int    // per-account resolution pool size
	Logger        *logrus.Logger
}

// NewAggregator creates a new holder aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Aggregator{
		chain:         cfg.Chain,
		referenceMint: cfg.ReferenceMint,
		workers:       cfg.Workers,
		logger:        cfg.Logger,
	}
}

// TopHolders builds a fresh report for a mint. The supply is fetched
// once; each ranked account resolves on a bounded worker pool with
// results index-addressed, so the output order always matches the
// upstream largest-accounts ranking. A failing account yields a
// snapshot carrying an error instead of voiding the batch.
func (a *Aggregator) TopHolders(ctx context.Context, mint string) (*models.HolderReport, error) {
	accounts, err := a.chain.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("largest accounts for %s: %w", mint, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no holder accounts for mint %s", mint)
	}

	supply, err := a.chain.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("token supply for %s: %w", mint, err)
	}

	a.logger.WithFields(logrus.Fields{
		"mint":     mint,
		"accounts": len(accounts),
		"supply":   supply,
	}).Info("processing top holders")

	snapshots := make([]models.HolderSnapshot, len(accounts))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := a.workers
	if workers > len(accounts) {
		workers = len(accounts)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				snapshots[i] = a.resolve(ctx, accounts[i], supply)
			}
		}()
	}

	for i := range accounts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return &models.HolderReport{
		TokenAccountAddress: accounts[0].Address,
		AccountOwner:        snapshots[0].Owner,
		Homedata:            snapshots,
	}, nil
}

// resolve builds one holder snapshot. Any fault is captured inline on
// the snapshot's Error field.
func (a *Aggregator) resolve(ctx context.Context, account rpc.LargestAccount, supply float64) models.HolderSnapshot {
	snap := models.HolderSnapshot{TokenAccount: account.Address}

	owner, err := a.chain.GetAccountOwner(ctx, account.Address)
	if err != nil {
		return a.failed(snap, "resolve owner", err)
	}
	snap.Owner = owner

	solBalance, err := a.chain.GetBalance(ctx, owner)
	if err != nil {
		return a.failed(snap, "native balance", err)
	}
	snap.SolBalance = solBalance

	refBalance, err := a.chain.GetTokenBalance(ctx, owner, a.referenceMint)
	if err != nil {
		return a.failed(snap, "reference balance", err)
	}
	snap.ReferenceBalance = refBalance

	if supply > 0 {
		snap.Percentage = refBalance / supply * 100
	}

	return snap
}

func (a *Aggregator) failed(snap models.HolderSnapshot, stage string, err error) models.HolderSnapshot {
	a.logger.WithError(err).WithFields(logrus.Fields{
		"account": snap.TokenAccount,
		"stage":   stage,
	}).Warn("holder resolution failed")
	snap.Error = fmt.Sprintf("%s: %v", stage, err)
	return snap
}
