// Package credstore is the durable credential store adapter: tenants and
// their credentials, looked up by hash, with a best-effort last-used touch.
package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no active credential matches the given hash.
var ErrNotFound = errors.New("credstore: credential not found or inactive")

// Credential is an active bearer credential looked up by its key hash.
type Credential struct {
	ID       string
	TenantID string
	KeyHash  string
	Label    string
}

// Store is the durable credential store adapter.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres at dsn. Connection is validated with a ping so
// misconfiguration fails at startup, not on the first request.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// GetActiveByHash returns the active (non-revoked) credential matching hash,
// or ErrNotFound.
func (s *Store) GetActiveByHash(ctx context.Context, hash string) (*Credential, error) {
	const q = `
		SELECT id, tenant_id, key_hash, COALESCE(label, '')
		FROM credentials
		WHERE key_hash = $1 AND revoked_at IS NULL
	`
	var c Credential
	err := s.pool.QueryRow(ctx, q, hash).Scan(&c.ID, &c.TenantID, &c.KeyHash, &c.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TouchLastUsed updates last_used_at for the given credential. Callers treat
// a failure here as non-fatal to the request that triggered it — the lookup
// already succeeded — but it must still be logged by the caller.
func (s *Store) TouchLastUsed(ctx context.Context, credentialID string) error {
	const q = `UPDATE credentials SET last_used_at = $2 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, credentialID, time.Now().UTC())
	return err
}

// Ping verifies connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
