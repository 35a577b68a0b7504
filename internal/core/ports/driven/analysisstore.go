package driven

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// AnalysisStore persists analysis records.
// Backed by SQLite locally or Postgres on a server.
type AnalysisStore interface {
	// Save stores or replaces a record.
	Save(ctx context.Context, record *domain.AnalysisRecord) error

	// Get retrieves a record by ID. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.AnalysisRecord, error)

	// List returns the newest records first. A limit of 0 returns all.
	List(ctx context.Context, limit int) ([]domain.RecordSummary, error)

	// Delete removes a record.
	Delete(ctx context.Context, id string) error
}
