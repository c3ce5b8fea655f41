package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres; the analysis is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Save(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, user_id, original_text, summary, analysis, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
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
		report.CreatedAt,
	)
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	const query = `
SELECT id, user_id, original_text, summary, analysis, created_at
FROM reports
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Report, 0)
	for rows.Next() {
		report, err := scanPGReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, userID, reportID string) (Report, error) {
	const query = `
SELECT id, user_id, original_text, summary, analysis, created_at
FROM reports
WHERE id = $1 AND user_id = $2
LIMIT 1`
	report, err := scanPGReport(r.DB.QueryRowContext(ctx, query, reportID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGReport(row rowScanner) (Report, error) {
	var report Report
	var payload []byte
	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.OriginalText,
		&report.Summary,
		&payload,
		&report.CreatedAt,
	); err != nil {
		return Report{}, err
	}
	if err := decodeAnalysis(payload, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}
