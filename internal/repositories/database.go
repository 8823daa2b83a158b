package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertQuery = `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `

// OpenDatabase opens an instrumented postgres pool and verifies it is reachable.
func OpenDatabase(cfg *config.Config) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

type PostgresStore struct {
	DB     *sql.DB
	prefix string
}

func NewPostgresStore(db *sql.DB, prefix string) *PostgresStore {
	return &PostgresStore{DB: db, prefix: prefix}
}

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {

	if err := validateKeys([]string{key}); err != nil {
		return "", false, err
	}

	var value string

	err := p.DB.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, namespaced(p.prefix, key)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {

	if err := validateKeys([]string{key}); err != nil {
		return err
	}

	if _, err := p.DB.ExecContext(ctx, upsertQuery, namespaced(p.prefix, key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

func (p *PostgresStore) Remove(ctx context.Context, key string) error {
	return p.MultiRemove(ctx, []string{key})
}

func (p *PostgresStore) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {

	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	full := make([]string, len(keys))
	original := make(map[string]string, len(keys))
	for i, k := range keys {
		full[i] = namespaced(p.prefix, k)
		original[full[i]] = k
	}

	rows, err := p.DB.QueryContext(ctx, `SELECT key, value FROM kv_store WHERE key = ANY($1)`, pq.Array(full))
	if err != nil {
		return nil, fmt.Errorf("failed to get %d keys: %w", len(keys), err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan key value row: %w", err)
		}

		out[original[key]] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key value rows: %w", err)
	}

	return out, nil
}

func (p *PostgresStore) MultiSet(ctx context.Context, pairs map[string]string) (err error) {

	if len(pairs) == 0 {
		return nil
	}

	keys := sortedKeys(pairs)
	if err := validateKeys(keys); err != nil {
		return err
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, upsertQuery, namespaced(p.prefix, k), pairs[k]); err != nil {
			return fmt.Errorf("failed to set key %s: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (p *PostgresStore) MultiRemove(ctx context.Context, keys []string) error {

	if len(keys) == 0 {
		return nil
	}

	if err := validateKeys(keys); err != nil {
		return err
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = namespaced(p.prefix, k)
	}

	if _, err := p.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ANY($1)`, pq.Array(full)); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}

	return nil
}

func (p *PostgresStore) Close() error {
	return p.DB.Close()
}
