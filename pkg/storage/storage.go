// Package storage is a reference adapter for persisting commit/session
// history, satisfying the "sessions table keyed by UUID" contract
// named in original_source/crates/storage. It is intentionally not
// imported by any core pipeline package (pkg/commit, pkg/router,
// pkg/tools) — persistence is an optional side-effect a deployment may
// wire in via the SessionStore interface, not a dependency the
// pipeline requires to function.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is one tracked utterance session: a UUID, when it started,
// and the last final commit text recorded against it.
type Session struct {
	ID           uuid.UUID
	StartedAt    time.Time
	LastCommit   string
	LastCommitAt time.Time
}

// SessionStore persists Session records. Implementations must be safe
// for concurrent use.
type SessionStore interface {
	CreateSession(ctx context.Context) (Session, error)
	RecordCommit(ctx context.Context, id uuid.UUID, text string, at time.Time) error
	GetSession(ctx context.Context, id uuid.UUID) (Session, error)
}

// PGSessionStore implements SessionStore against Postgres via pgx.
type PGSessionStore struct {
	pool *pgxpool.Pool
}

// NewPGSessionStore wraps an existing pgx pool. Schema migration is
// out of scope here; see Schema for the expected table shape.
func NewPGSessionStore(pool *pgxpool.Pool) *PGSessionStore {
	return &PGSessionStore{pool: pool}
}

// Schema is the minimal DDL this store expects to exist already.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id uuid PRIMARY KEY,
	started_at timestamptz NOT NULL,
	last_commit text NOT NULL DEFAULT '',
	last_commit_at timestamptz
);`

func (s *PGSessionStore) CreateSession(ctx context.Context) (Session, error) {
	sess := Session{ID: uuid.New(), StartedAt: time.Now()}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, started_at) VALUES ($1, $2)`,
		sess.ID, sess.StartedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *PGSessionStore) RecordCommit(ctx context.Context, id uuid.UUID, text string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_commit = $1, last_commit_at = $2 WHERE id = $3`,
		text, at, id)
	return err
}

func (s *PGSessionStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	var sess Session
	var lastCommitAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, started_at, last_commit, last_commit_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.StartedAt, &sess.LastCommit, &lastCommitAt)
	if err != nil {
		return Session{}, err
	}
	if lastCommitAt != nil {
		sess.LastCommitAt = *lastCommitAt
	}
	return sess, nil
}
