package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/disha/internal/domain/submission"
)

// MemoryRepository keeps submissions in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]submission.Record
}

// NewMemoryRepository constructs an empty ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]submission.Record)}
}

// Create stores a new record.
func (r *MemoryRepository) Create(_ context.Context, rec submission.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

// UpdateStatus settles a record.
func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status submission.Status, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.Error = errMsg
	rec.UpdatedAt = at
	r.records[id] = rec
	return nil
}

// ListBySession returns a session's records, newest first.
func (r *MemoryRepository) ListBySession(_ context.Context, sessionID string, limit int) ([]submission.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]submission.Record, 0)
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ submission.Repository = (*MemoryRepository)(nil)
