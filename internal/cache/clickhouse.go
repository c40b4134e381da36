package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// Expected table, managed outside this service:
//
//	CREATE TABLE transfers (
//	    signature     String,
//	    timestamp     DateTime('UTC'),
//	    type          LowCardinality(String),
//	    amount        Decimal(38, 12),
//	    protocol      LowCardinality(String),
//	    token_account String
//	) ENGINE = ReplacingMergeTree
//	ORDER BY signature

// ClickHouseStore is the transfers persistence gateway.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// ClickHouseConfig holds connection settings for the transfers store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// NewClickHouseStore connects to ClickHouse and verifies the connection.
func NewClickHouseStore(cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

func (c *ClickHouseStore) FindBySignature(ctx context.Context, signature string) (bool, error) {
	var count uint64
	row := c.conn.QueryRow(ctx, "SELECT count() FROM transfers WHERE signature = ?", signature)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("signature lookup: %w", err)
	}
	return count > 0, nil
}

func (c *ClickHouseStore) Insert(ctx context.Context, ev *models.TransferEvent) error {
	query := `
		INSERT INTO transfers (
			signature, timestamp, type, amount, protocol, token_account
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		ev.Signature,
		ev.Timestamp,
		ev.Type,
		ev.Amount,
		ev.Protocol,
		ev.TokenAccount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) List(ctx context.Context, f storage.Filter) ([]models.TransferEvent, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if f.TokenAccount != "" {
		add("token_account = ?", f.TokenAccount)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.Protocol != "" {
		add("protocol = ?", f.Protocol)
	}
	if f.Signature != "" {
		add("signature = ?", f.Signature)
	}
	if f.Start != nil {
		add("timestamp >= ?", *f.Start)
	}
	if f.End != nil {
		add("timestamp <= ?", *f.End)
	}

	query := "SELECT signature, timestamp, type, amount, protocol, token_account FROM transfers"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var out []models.TransferEvent
	for rows.Next() {
		var (
			ev models.TransferEvent
			ts time.Time
			am decimal.Decimal
		)
		if err := rows.Scan(&ev.Signature, &ts, &ev.Type, &am, &ev.Protocol, &ev.TokenAccount); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		ev.Timestamp = ts.UTC()
		ev.Amount = am
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
