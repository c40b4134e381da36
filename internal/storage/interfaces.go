package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
)

// Filter narrows a transfer listing. Zero-valued fields are ignored;
// Start/End form an inclusive timestamp range.
type Filter struct {
	TokenAccount string
	Type         string
	Protocol     string
	Signature    string
	Start        *time.Time
	End          *time.Time
}

// TransactionStore is the append-only persistence gateway for
// classified transfers, keyed by signature. There is no update or
// delete path.
type TransactionStore interface {
	// FindBySignature reports whether a record with the signature exists.
	FindBySignature(ctx context.Context, signature string) (bool, error)

	// Insert appends one classified transfer.
	Insert(ctx context.Context, ev *models.TransferEvent) error

	// List returns stored transfers matching the filter, ordered by
	// timestamp descending.
	List(ctx context.Context, f Filter) ([]models.TransferEvent, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// PriceCache caches best-effort reference prices by mint.
type PriceCache interface {
	// GetPrice returns the cached price for a mint, ok=false on miss.
	GetPrice(ctx context.Context, mint string) (price float64, ok bool, err error)

	// SetPrice stores a price for a mint.
	SetPrice(ctx context.Context, mint string, price float64) error
}
