package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepo implements Repo on a single-file SQLite database. created_at is
// stored as unix microseconds.
type SQLiteRepo struct {
	DB *sql.DB
}

func (r *SQLiteRepo) Save(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, user_id, original_text, summary, analysis, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	payload, err := json.Marshal(report.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.OriginalText,
		report.Summary,
		string(payload),
		report.CreatedAt.UTC().UnixMicro(),
	)
	return err
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	const query = `
SELECT id, user_id, original_text, summary, analysis, created_at
FROM reports
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Report, 0)
	for rows.Next() {
		report, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) GetByID(ctx context.Context, userID, reportID string) (Report, error) {
	const query = `
SELECT id, user_id, original_text, summary, analysis, created_at
FROM reports
WHERE id = ? AND user_id = ?
LIMIT 1`
	report, err := scanSQLiteReport(r.DB.QueryRowContext(ctx, query, reportID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}

func scanSQLiteReport(row rowScanner) (Report, error) {
	var report Report
	var payload string
	var createdAt int64
	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.OriginalText,
		&report.Summary,
		&payload,
		&createdAt,
	); err != nil {
		return Report{}, err
	}
	report.CreatedAt = time.UnixMicro(createdAt).UTC()
	if err := decodeAnalysis([]byte(payload), &report); err != nil {
		return Report{}, err
	}
	return report, nil
}
