package reports

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("report not found")

// Repo defines persistence operations for reports.
type Repo interface {
	Save(ctx context.Context, report Report) error
	// ListByUser returns up to limit reports for userID, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Report, error)
	GetByID(ctx context.Context, userID, reportID string) (Report, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return HistoryLimit
	}
	return limit
}
