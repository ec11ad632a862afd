package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticleListOptions controls article listing queries. Zero-valued filters
// are skipped.
type ArticleListOptions struct {
	SourceID string
	Language string
	From     time.Time
	To       time.Time
	Limit    int
}

// ArticleListItem is used by the articles CLI command and the HTTP API.
type ArticleListItem struct {
	ArticleID   int64      `json:"article_id"`
	ArticleUUID string     `json:"article_uuid"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Language    string     `json:"language"`
	BodyChars   int        `json:"body_chars"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// NewArticle carries one fetched article into storage. Canonical fields must
// already be derived by the caller.
type NewArticle struct {
	RunID            *int64
	SourceID         string
	URL              string
	Title            string
	Body             string
	CanonicalURL     string
	CanonicalURLHash []byte
	NormalizedTitle  string
	TitleHash        []byte
	ContentHash      []byte
	Language         string
	PublishedAt      *time.Time
	FetchedAt        time.Time
}

// InsertArticle stores one article. Returns (0, false, nil) when an article
// with the same canonical URL already exists.
func (p *Pool) InsertArticle(ctx context.Context, a NewArticle) (int64, bool, error) {
	if strings.TrimSpace(a.SourceID) == "" {
		return 0, false, fmt.Errorf("source_id is required")
	}
	if strings.TrimSpace(a.URL) == "" {
		return 0, false, fmt.Errorf("url is required")
	}

	const q = `
INSERT INTO clip.articles (
	run_id, source_id, url, title, body,
	canonical_url, canonical_url_hash, normalized_title, title_hash, content_hash,
	language, published_at, fetched_at, body_chars
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (canonical_url_hash) WHERE canonical_url_hash IS NOT NULL AND deleted_at IS NULL
DO NOTHING
RETURNING article_id
`

	var articleID int64
	err := p.QueryRow(ctx, q,
		a.RunID,
		a.SourceID,
		a.URL,
		a.Title,
		a.Body,
		a.CanonicalURL,
		a.CanonicalURLHash,
		a.NormalizedTitle,
		a.TitleHash,
		a.ContentHash,
		a.Language,
		a.PublishedAt,
		a.FetchedAt.UTC(),
		len([]rune(a.Body)),
	).Scan(&articleID)
	if IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	return articleID, true, nil
}

// ListArticles lists stored articles, newest first.
func (p *Pool) ListArticles(ctx context.Context, opts ArticleListOptions) ([]ArticleListItem, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	builder := psql.
		Select(
			"a.article_id",
			"a.article_uuid::text",
			"a.source_id",
			"a.title",
			"a.url",
			"a.language",
			"a.body_chars",
			"a.published_at",
			"a.fetched_at",
		).
		From("clip.articles a").
		Where(sq.Eq{"a.deleted_at": nil}).
		OrderBy("a.fetched_at DESC", "a.article_id DESC").
		Limit(uint64(opts.Limit))

	if opts.SourceID != "" {
		builder = builder.Where(sq.Eq{"a.source_id": opts.SourceID})
	}
	if opts.Language != "" {
		builder = builder.Where(sq.Eq{"a.language": opts.Language})
	}
	if !opts.From.IsZero() {
		builder = builder.Where(sq.GtOrEq{"a.fetched_at": opts.From.UTC()})
	}
	if !opts.To.IsZero() {
		builder = builder.Where(sq.Lt{"a.fetched_at": opts.To.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items := make([]ArticleListItem, 0, opts.Limit)
	for rows.Next() {
		var row ArticleListItem
		if err := rows.Scan(
			&row.ArticleID,
			&row.ArticleUUID,
			&row.SourceID,
			&row.Title,
			&row.URL,
			&row.Language,
			&row.BodyChars,
			&row.PublishedAt,
			&row.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return items, nil
}

// PendingArticle is one article that has not yet been grouped into a clip.
type PendingArticle struct {
	ArticleID   int64
	SourceID    string
	URL         string
	Title       string
	Body        string
	Language    string
	PublishedAt *time.Time
	FetchedAt   time.Time
}

// ListPendingArticles returns articles fetched in [from, to) that are not yet
// members of any clip, oldest first so grouping is stable across runs.
func (p *Pool) ListPendingArticles(ctx context.Context, from, to time.Time, keepLanguages []string) ([]PendingArticle, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to")
	}

	const q = `
SELECT
	a.article_id,
	a.source_id,
	a.url,
	a.title,
	a.body,
	a.language,
	a.published_at,
	a.fetched_at
FROM clip.articles a
WHERE a.fetched_at >= $1
  AND a.fetched_at < $2
  AND a.deleted_at IS NULL
  AND (cardinality($3::text[]) = 0 OR a.language = ANY($3::text[]))
  AND NOT EXISTS (
	SELECT 1 FROM clip.clip_articles ca WHERE ca.article_id = a.article_id
  )
ORDER BY a.fetched_at ASC, a.article_id ASC
`

	rows, err := p.Query(ctx, q, from.UTC(), to.UTC(), textArray(keepLanguages))
	if err != nil {
		return nil, fmt.Errorf("query pending articles: %w", err)
	}
	defer rows.Close()

	items := make([]PendingArticle, 0, 64)
	for rows.Next() {
		var row PendingArticle
		if err := rows.Scan(
			&row.ArticleID,
			&row.SourceID,
			&row.URL,
			&row.Title,
			&row.Body,
			&row.Language,
			&row.PublishedAt,
			&row.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending article row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending article rows: %w", err)
	}

	return items, nil
}

// CreateIngestRun opens a run row and returns its id.
func (p *Pool) CreateIngestRun(ctx context.Context, trigger string, sourceID *string) (int64, error) {
	const q = `
INSERT INTO clip.ingest_runs (trigger, source_id)
VALUES ($1, $2)
RETURNING run_id
`
	var runID int64
	if err := p.QueryRow(ctx, q, trigger, sourceID).Scan(&runID); err != nil {
		return 0, fmt.Errorf("create ingest run: %w", err)
	}
	return runID, nil
}

// FinishIngestRun closes a run row with final counters.
func (p *Pool) FinishIngestRun(ctx context.Context, runID int64, status string, fetched, inserted, dropped int, errMessage *string) error {
	const q = `
UPDATE clip.ingest_runs
SET status = $2,
    items_fetched = $3,
    items_inserted = $4,
    items_dropped = $5,
    error_message = $6,
    finished_at = now(),
    updated_at = now()
WHERE run_id = $1
`
	tag, err := p.Exec(ctx, q, runID, status, fetched, inserted, dropped, errMessage)
	if err != nil {
		return fmt.Errorf("finish ingest run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ingest run %d not found", runID)
	}
	return nil
}

// textArray renders a Postgres text[] literal for ANY() parameters.
func textArray(values []string) string {
	if len(values) == 0 {
		return "{}"
	}
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		escaped = append(escaped, `"`+v+`"`)
	}
	return "{" + strings.Join(escaped, ",") + "}"
}
