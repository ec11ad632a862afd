package db

import (
	"context"
	"fmt"
	"time"
)

// IndicatorSnapshot is one indicator value captured on a given day.
type IndicatorSnapshot struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	CapturedOn time.Time `json:"captured_on"`
}

// UpsertIndicator stores or refreshes an indicator snapshot for a day.
func (p *Pool) UpsertIndicator(ctx context.Context, snap IndicatorSnapshot) error {
	const q = `
INSERT INTO clip.indicators (code, name, value, captured_on)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code, captured_on) DO UPDATE
SET name = EXCLUDED.name,
    value = EXCLUDED.value
`
	if _, err := p.Exec(ctx, q, snap.Code, snap.Name, snap.Value, snap.CapturedOn.UTC().Format("2006-01-02")); err != nil {
		return fmt.Errorf("upsert indicator %s: %w", snap.Code, err)
	}
	return nil
}

// ListIndicators returns the snapshots for one day ordered by code.
func (p *Pool) ListIndicators(ctx context.Context, day time.Time) ([]IndicatorSnapshot, error) {
	const q = `
SELECT i.code, i.name, i.value, i.captured_on
FROM clip.indicators i
WHERE i.captured_on = $1
ORDER BY i.code ASC
`
	rows, err := p.Query(ctx, q, day.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	items := make([]IndicatorSnapshot, 0, 4)
	for rows.Next() {
		var row IndicatorSnapshot
		if err := rows.Scan(&row.Code, &row.Name, &row.Value, &row.CapturedOn); err != nil {
			return nil, fmt.Errorf("scan indicator row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicator rows: %w", err)
	}

	return items, nil
}
