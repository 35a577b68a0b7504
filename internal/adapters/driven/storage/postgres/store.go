// Package postgres provides a Postgres implementation of driven.AnalysisStore
// for shared deployments, with an LRU cache in front of record reads.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// DefaultCacheSize is the number of records kept in the read cache.
const DefaultCacheSize = 256

// Ensure Store implements the interface.
var _ driven.AnalysisStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
  id          TEXT PRIMARY KEY,
  file_name   TEXT NOT NULL,
  method      TEXT NOT NULL,
  issue_count INTEGER NOT NULL DEFAULT 0,
  result      JSONB NOT NULL,
  created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
`

// Store persists analysis records in Postgres.
type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, *domain.AnalysisRecord]
}

// NewStore opens a connection pool for dsn and verifies it with a ping.
// A cacheSize of 0 or less uses DefaultCacheSize.
func NewStore(ctx context.Context, dsn string, cacheSize int) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s, err := newWithDB(db, cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newWithDB(db *sql.DB, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *domain.AnalysisRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating record cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, schema)
	})
	return s.schemaErr
}

// Save stores or replaces a record.
func (s *Store) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	stored := cloneRecord(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	resultJSON, err := json.Marshal(stored.Result)
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO analyses (id, file_name, method, issue_count, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET file_name=EXCLUDED.file_name,
  method=EXCLUDED.method,
  issue_count=EXCLUDED.issue_count,
  result=EXCLUDED.result,
  created_at=EXCLUDED.created_at`,
		stored.ID, stored.FileName, stored.Method, stored.Result.Len(), resultJSON, stored.CreatedAt)
	if err != nil {
		s.cache.Remove(stored.ID)
		return fmt.Errorf("saving analysis: %w", err)
	}

	s.cache.Add(stored.ID, &stored)
	return nil
}

// Get retrieves a record by ID, serving repeat reads from the cache.
func (s *Store) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	if cached, ok := s.cache.Get(id); ok {
		clone := cloneRecord(cached)
		return &clone, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, file_name, method, result, created_at
FROM analyses WHERE id = $1`, id)

	var record domain.AnalysisRecord
	var resultJSON []byte
	if err := row.Scan(&record.ID, &record.FileName, &record.Method, &resultJSON, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning analysis: %w", err)
	}
	record.Result = &domain.AnalysisResult{}
	if err := json.Unmarshal(resultJSON, record.Result); err != nil {
		return nil, fmt.Errorf("unmarshaling result: %w", err)
	}
	record.CreatedAt = record.CreatedAt.UTC()

	cached := cloneRecord(&record)
	s.cache.Add(id, &cached)
	return &record, nil
}

// List returns record summaries, newest first. Summaries are never cached.
func (s *Store) List(ctx context.Context, limit int) ([]domain.RecordSummary, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// LIMIT NULL means no limit
	rows, err := s.db.QueryContext(ctx, `
SELECT id, file_name, method, issue_count, created_at
FROM analyses
ORDER BY created_at DESC, id ASC
LIMIT $1`, sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.RecordSummary, 0)
	for rows.Next() {
		var summary domain.RecordSummary
		if err := rows.Scan(&summary.ID, &summary.FileName, &summary.Method,
			&summary.IssueCount, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		summary.CreatedAt = summary.CreatedAt.UTC()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analyses: %w", err)
	}
	return summaries, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	return nil
}

// cloneRecord copies a record so cached values cannot be changed by callers.
func cloneRecord(rec *domain.AnalysisRecord) domain.AnalysisRecord {
	clone := *rec
	if rec.Result != nil {
		clone.Result = domain.NewAnalysisResult(rec.Result.FileName, rec.Result.Issues())
	} else {
		clone.Result = domain.NewAnalysisResult(rec.FileName, nil)
	}
	return clone
}
