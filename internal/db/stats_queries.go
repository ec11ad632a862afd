package db

import (
	"context"
	"fmt"
	"time"
)

// StatsSourceCount stores per-source pipeline counts.
type StatsSourceCount struct {
	SourceID   string `json:"source_id"`
	Articles   int64  `json:"articles"`
	Duplicates int64  `json:"duplicates"`
}

// StatsSectionCount stores per-section assignment counts for the day.
type StatsSectionCount struct {
	Section string `json:"section"`
	Clips   int64  `json:"clips"`
}

// StatsTotals stores totals across sources.
type StatsTotals struct {
	Articles   int64 `json:"articles"`
	Clips      int64 `json:"clips"`
	Duplicates int64 `json:"duplicates"`
}

// PipelineThroughput stores throughput/pending counters.
type PipelineThroughput struct {
	ArticlesFetchedToday int64 `json:"articles_fetched_today"`
	ClipsCreatedToday    int64 `json:"clips_created_today"`
	PendingNotGrouped    int64 `json:"pending_not_grouped"`
	UnclassifiedToday    int64 `json:"unclassified_today"`
}

// PipelineStats is the read model returned by the stats command.
type PipelineStats struct {
	Day        string              `json:"day"`
	Sources    []StatsSourceCount  `json:"sources"`
	Sections   []StatsSectionCount `json:"sections"`
	Totals     StatsTotals         `json:"totals"`
	Throughput PipelineThroughput  `json:"throughput"`
}

// QueryPipelineStats returns per-source and per-section counts plus daily
// throughput for one UTC day window.
func (p *Pool) QueryPipelineStats(ctx context.Context, dayStart, dayEnd time.Time) (*PipelineStats, error) {
	startUTC := dayStart.UTC()
	endUTC := dayEnd.UTC()
	if !startUTC.Before(endUTC) {
		return nil, fmt.Errorf("dayStart must be before dayEnd")
	}

	stats := &PipelineStats{
		Day:      startUTC.Format("2006-01-02"),
		Sources:  make([]StatsSourceCount, 0, 16),
		Sections: make([]StatsSectionCount, 0, 8),
	}

	const sourceQuery = `
WITH article_counts AS (
	SELECT a.source_id, COUNT(*)::BIGINT AS articles
	FROM clip.articles a
	WHERE a.deleted_at IS NULL
	GROUP BY a.source_id
),
duplicate_counts AS (
	SELECT a.source_id, COUNT(*)::BIGINT AS duplicates
	FROM clip.dedup_events de
	JOIN clip.articles a
		ON a.article_id = de.article_id
	WHERE de.decision = 'duplicate'
	GROUP BY a.source_id
)
SELECT
	COALESCE(a.source_id, d.source_id) AS source_id,
	COALESCE(a.articles, 0) AS articles,
	COALESCE(d.duplicates, 0) AS duplicates
FROM article_counts a
FULL OUTER JOIN duplicate_counts d
	ON d.source_id = a.source_id
ORDER BY 1
`

	rows, err := p.Query(ctx, sourceQuery)
	if err != nil {
		return nil, fmt.Errorf("query stats source counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row StatsSourceCount
		if err := rows.Scan(&row.SourceID, &row.Articles, &row.Duplicates); err != nil {
			return nil, fmt.Errorf("scan stats source row: %w", err)
		}
		stats.Sources = append(stats.Sources, row)
		stats.Totals.Articles += row.Articles
		stats.Totals.Duplicates += row.Duplicates
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats source rows: %w", err)
	}

	const clipTotalQuery = `
SELECT COUNT(*)::BIGINT FROM clip.clips c WHERE c.deleted_at IS NULL
`
	if err := p.QueryRow(ctx, clipTotalQuery).Scan(&stats.Totals.Clips); err != nil {
		return nil, fmt.Errorf("query stats clip total: %w", err)
	}

	const sectionQuery = `
SELECT sa.section, COUNT(DISTINCT sa.clip_id)::BIGINT AS clips
FROM clip.section_assignments sa
WHERE sa.run_date >= $1::date AND sa.run_date < $2::date
GROUP BY sa.section
ORDER BY 2 DESC, 1 ASC
`
	srows, err := p.Query(ctx, sectionQuery, startUTC.Format("2006-01-02"), endUTC.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query stats section counts: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var row StatsSectionCount
		if err := srows.Scan(&row.Section, &row.Clips); err != nil {
			return nil, fmt.Errorf("scan stats section row: %w", err)
		}
		stats.Sections = append(stats.Sections, row)
	}
	if err := srows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats section rows: %w", err)
	}

	const throughputQuery = `
SELECT
	(SELECT COUNT(*) FROM clip.articles a WHERE a.fetched_at >= $1 AND a.fetched_at < $2 AND a.deleted_at IS NULL) AS articles_fetched_today,
	(SELECT COUNT(*) FROM clip.clips c WHERE c.created_at >= $1 AND c.created_at < $2 AND c.deleted_at IS NULL) AS clips_created_today,
	(SELECT COUNT(*) FROM clip.articles a WHERE a.deleted_at IS NULL AND NOT EXISTS (SELECT 1 FROM clip.clip_articles ca WHERE ca.article_id = a.article_id)) AS pending_not_grouped,
	(SELECT COUNT(*) FROM clip.clips c WHERE c.run_date = $1::date AND c.deleted_at IS NULL AND NOT EXISTS (SELECT 1 FROM clip.section_assignments sa WHERE sa.clip_id = c.clip_id)) AS unclassified_today
`

	if err := p.QueryRow(ctx, throughputQuery, startUTC, endUTC).Scan(
		&stats.Throughput.ArticlesFetchedToday,
		&stats.Throughput.ClipsCreatedToday,
		&stats.Throughput.PendingNotGrouped,
		&stats.Throughput.UnclassifiedToday,
	); err != nil {
		return nil, fmt.Errorf("query stats throughput: %w", err)
	}

	return stats, nil
}
