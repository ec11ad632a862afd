package db

import (
	"context"
	"fmt"
	"time"
)

// CreateDigestRun opens a digest run row and returns its id.
func (p *Pool) CreateDigestRun(ctx context.Context, client string, runDate time.Time) (int64, error) {
	const q = `
INSERT INTO clip.digest_runs (client, run_date)
VALUES ($1, $2)
RETURNING digest_run_id
`
	var id int64
	if err := p.QueryRow(ctx, q, client, runDate.UTC().Format("2006-01-02")).Scan(&id); err != nil {
		return 0, fmt.Errorf("create digest run: %w", err)
	}
	return id, nil
}

// NewDigestEntry is one composed entry to persist.
type NewDigestEntry struct {
	ClipID   int64
	Section  string
	Topic    string
	Rank     int
	Summary  string
	Citation string
}

// FinishDigestRun closes the run and stores its entries in one transaction.
func (p *Pool) FinishDigestRun(ctx context.Context, runID int64, status string, sectionCount int, entries []NewDigestEntry, errMessage *string) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin digest finish: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insert = `
INSERT INTO clip.digest_entries (digest_run_id, clip_id, section, topic, rank, summary, citation)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, insert, runID, e.ClipID, e.Section, e.Topic, e.Rank, e.Summary, e.Citation); err != nil {
			return fmt.Errorf("insert digest entry clip=%d: %w", e.ClipID, err)
		}
	}

	const close = `
UPDATE clip.digest_runs
SET status = $2,
    section_count = $3,
    entry_count = $4,
    error_message = $5,
    finished_at = now()
WHERE digest_run_id = $1
`
	tag, err := tx.Exec(ctx, close, runID, status, sectionCount, len(entries), errMessage)
	if err != nil {
		return fmt.Errorf("close digest run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("digest run %d not found", runID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit digest finish: %w", err)
	}
	return nil
}

// DigestRunSummary is one digest run row for listings.
type DigestRunSummary struct {
	DigestRunID  int64      `json:"digest_run_id"`
	Client       string     `json:"client"`
	RunDate      time.Time  `json:"run_date"`
	Status       string     `json:"status"`
	SectionCount int        `json:"section_count"`
	EntryCount   int        `json:"entry_count"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// ListDigestRuns lists recent digest runs, newest first.
func (p *Pool) ListDigestRuns(ctx context.Context, client string, limit int) ([]DigestRunSummary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT
	d.digest_run_id, d.client, d.run_date, d.status,
	d.section_count, d.entry_count, d.started_at, d.finished_at
FROM clip.digest_runs d
WHERE ($1 = '' OR d.client = $1)
ORDER BY d.started_at DESC
LIMIT $2
`
	rows, err := p.Query(ctx, q, client, limit)
	if err != nil {
		return nil, fmt.Errorf("query digest runs: %w", err)
	}
	defer rows.Close()

	items := make([]DigestRunSummary, 0, limit)
	for rows.Next() {
		var row DigestRunSummary
		if err := rows.Scan(
			&row.DigestRunID,
			&row.Client,
			&row.RunDate,
			&row.Status,
			&row.SectionCount,
			&row.EntryCount,
			&row.StartedAt,
			&row.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan digest run row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest run rows: %w", err)
	}

	return items, nil
}
