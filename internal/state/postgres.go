package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps drafts in a single table so they survive process
// restarts and are shared across replicas.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initDraftSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool reuses an existing pool (shared with the
// persistence gateway) instead of opening a second connection set.
func NewPostgresStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := initDraftSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initDraftSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS workflow_drafts (
			session_id TEXT PRIMARY KEY,
			draft JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("init draft schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (Draft, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT draft FROM workflow_drafts WHERE session_id=$1`, sessionID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) Put(ctx context.Context, draft Draft) error {
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO workflow_drafts (session_id, draft, updated_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (session_id) DO UPDATE SET
			draft=EXCLUDED.draft,
			updated_at=EXCLUDED.updated_at`,
		draft.SessionID, raw, draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM workflow_drafts WHERE session_id=$1`, sessionID,
	); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
