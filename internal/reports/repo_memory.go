package reports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps reports in process memory. It backs dev mode and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	reports map[string]Report
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reports: map[string]Report{}}
}

func (r *MemoryRepo) Save(ctx context.Context, report Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = report
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	limit = clampLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Report, 0)
	for _, report := range r.reports {
		if report.UserID == userID {
			out = append(out, report)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, reportID string) (Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[reportID]
	if !ok || report.UserID != userID {
		return Report{}, ErrNotFound
	}
	return report, nil
}
