package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure AnalysisStore implements the interface.
var _ driven.AnalysisStore = (*AnalysisStore)(nil)

// AnalysisStore is an in-memory implementation of driven.AnalysisStore.
type AnalysisStore struct {
	mu      sync.RWMutex
	records map[string]domain.AnalysisRecord
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		records: make(map[string]domain.AnalysisRecord),
	}
}

// Save stores or replaces a record. The result is copied so later
// changes by the caller are not visible through the store.
func (s *AnalysisStore) Save(_ context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Get retrieves a record by ID.
func (s *AnalysisStore) Get(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := cloneRecord(&rec)
	return &clone, nil
}

// List returns record summaries, newest first.
func (s *AnalysisStore) List(_ context.Context, limit int) ([]domain.RecordSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RecordSummary, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, domain.RecordSummary{
			ID:         rec.ID,
			FileName:   rec.FileName,
			Method:     rec.Method,
			IssueCount: rec.Result.Len(),
			CreatedAt:  rec.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Delete removes a record.
func (s *AnalysisStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func cloneRecord(rec *domain.AnalysisRecord) domain.AnalysisRecord {
	clone := *rec
	if rec.Result != nil {
		clone.Result = domain.NewAnalysisResult(rec.Result.FileName, rec.Result.Issues())
	} else {
		clone.Result = domain.NewAnalysisResult(rec.FileName, nil)
	}
	return clone
}
