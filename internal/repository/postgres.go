// Package repository persists previously captured product records. The
// extraction chain consults it as a cache of known products and stores every
// successful authoritative extraction back into it.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafadias/shopee-scraper/internal/models"
)

type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
}

// PostgresStore keeps product records in a single JSONB-payload table keyed
// by item ID.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLife
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the products table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			item_id    TEXT PRIMARY KEY,
			shop_id    TEXT NOT NULL,
			provenance TEXT NOT NULL,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// Lookup returns the stored record for an item, or (nil, nil) when the item
// has never been captured.
func (s *PostgresStore) Lookup(ctx context.Context, itemID string) (*models.ProductRecord, error) {
	query := `SELECT payload FROM products WHERE item_id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", itemID, err)
	}

	var rec models.ProductRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stored product %s: %w", itemID, err)
	}

	return &rec, nil
}

// Save upserts a record. The stored provenance is whatever the record
// carries; it is never rewritten on later saves of the same item.
func (s *PostgresStore) Save(ctx context.Context, rec *models.ProductRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", rec.ItemID, err)
	}

	query := `
		INSERT INTO products (item_id, shop_id, provenance, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (item_id) DO UPDATE
		SET shop_id = EXCLUDED.shop_id,
		    provenance = EXCLUDED.provenance,
		    payload = EXCLUDED.payload,
		    updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, rec.ItemID, rec.ShopID, string(rec.Provenance), payload); err != nil {
		return fmt.Errorf("failed to save product %s: %w", rec.ItemID, err)
	}

	return nil
}
