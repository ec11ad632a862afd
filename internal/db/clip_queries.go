package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// NewClip carries one deduplicated group into storage.
type NewClip struct {
	RunDate                 time.Time
	CanonicalTitle          string
	CanonicalURL            *string
	RepresentativeArticleID int64
	MemberCount             int
	SourceCount             int
	FirstSeenAt             time.Time
	LastSeenAt              time.Time
}

// ClipMember is one grouped article with its match provenance.
type ClipMember struct {
	ArticleID  int64
	MatchType  string
	MatchScore *float64
}

// InsertClip stores a clip with its members and one dedup event per member,
// all inside the caller's transaction.
func InsertClip(ctx context.Context, tx Tx, clip NewClip, members []ClipMember) (int64, error) {
	if len(members) == 0 {
		return 0, fmt.Errorf("clip must have at least one member")
	}

	const insertClip = `
INSERT INTO clip.clips (
	run_date, canonical_title, canonical_url, representative_article_id,
	member_count, source_count, first_seen_at, last_seen_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING clip_id
`
	var clipID int64
	err := tx.QueryRow(ctx, insertClip,
		clip.RunDate.UTC().Format("2006-01-02"),
		clip.CanonicalTitle,
		clip.CanonicalURL,
		clip.RepresentativeArticleID,
		clip.MemberCount,
		clip.SourceCount,
		clip.FirstSeenAt.UTC(),
		clip.LastSeenAt.UTC(),
	).Scan(&clipID)
	if err != nil {
		return 0, fmt.Errorf("insert clip: %w", err)
	}

	const insertMember = `
INSERT INTO clip.clip_articles (clip_id, article_id, match_type, match_score)
VALUES ($1, $2, $3, $4)
ON CONFLICT (article_id) DO NOTHING
`
	const insertEvent = `
INSERT INTO clip.dedup_events (article_id, decision, clip_id, match_type, match_score)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (article_id) DO NOTHING
`

	for _, m := range members {
		if _, err := tx.Exec(ctx, insertMember, clipID, m.ArticleID, m.MatchType, m.MatchScore); err != nil {
			return 0, fmt.Errorf("insert clip member %d: %w", m.ArticleID, err)
		}
		decision := "duplicate"
		if m.ArticleID == clip.RepresentativeArticleID {
			decision = "representative"
		}
		if _, err := tx.Exec(ctx, insertEvent, m.ArticleID, decision, clipID, m.MatchType, m.MatchScore); err != nil {
			return 0, fmt.Errorf("insert dedup event %d: %w", m.ArticleID, err)
		}
	}

	return clipID, nil
}

// RecordSkippedArticle audits an article that was excluded from grouping.
func RecordSkippedArticle(ctx context.Context, tx Tx, articleID int64) error {
	const q = `
INSERT INTO clip.dedup_events (article_id, decision)
VALUES ($1, 'skipped')
ON CONFLICT (article_id) DO NOTHING
`
	if _, err := tx.Exec(ctx, q, articleID); err != nil {
		return fmt.Errorf("record skipped article %d: %w", articleID, err)
	}
	return nil
}

// NewAssignment is one fired classification rule for a clip.
type NewAssignment struct {
	ClipID   int64
	Client   string
	Section  string
	Topic    string
	Matches  int
	Priority int
	RunDate  time.Time
}

// InsertAssignments stores fired rules, skipping ones already recorded for
// the same clip, client, section and topic.
func InsertAssignments(ctx context.Context, tx Tx, assignments []NewAssignment) (int, error) {
	const q = `
INSERT INTO clip.section_assignments (clip_id, client, section, topic, matches, priority, run_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (clip_id, client, section, topic) DO NOTHING
`
	inserted := 0
	for _, a := range assignments {
		tag, err := tx.Exec(ctx, q,
			a.ClipID, a.Client, a.Section, a.Topic, a.Matches, a.Priority,
			a.RunDate.UTC().Format("2006-01-02"),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert assignment clip=%d section=%s: %w", a.ClipID, a.Section, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ClipListOptions controls clip listing queries.
type ClipListOptions struct {
	RunDate  time.Time
	Client   string
	Section  string
	SourceID string
	Limit    int
}

// ClipListItem is used by the clips CLI command and the HTTP API.
type ClipListItem struct {
	ClipID         int64      `json:"clip_id"`
	ClipUUID       string     `json:"clip_uuid"`
	RunDate        time.Time  `json:"run_date"`
	CanonicalTitle string     `json:"canonical_title"`
	CanonicalURL   *string    `json:"canonical_url,omitempty"`
	SourceID       string     `json:"source_id"`
	MemberCount    int        `json:"member_count"`
	SourceCount    int        `json:"source_count"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// ListClips lists clips, newest run first.
func (p *Pool) ListClips(ctx context.Context, opts ClipListOptions) ([]ClipListItem, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	builder := psql.
		Select(
			"c.clip_id",
			"c.clip_uuid::text",
			"c.run_date",
			"c.canonical_title",
			"c.canonical_url",
			"r.source_id",
			"c.member_count",
			"c.source_count",
			"r.published_at",
		).
		From("clip.clips c").
		Join("clip.articles r ON r.article_id = c.representative_article_id").
		Where(sq.Eq{"c.deleted_at": nil}).
		OrderBy("c.run_date DESC", "c.clip_id DESC").
		Limit(uint64(opts.Limit))

	if !opts.RunDate.IsZero() {
		builder = builder.Where(sq.Eq{"c.run_date": opts.RunDate.UTC().Format("2006-01-02")})
	}
	if opts.SourceID != "" {
		builder = builder.Where(sq.Eq{"r.source_id": opts.SourceID})
	}
	if opts.Client != "" || opts.Section != "" {
		exists := sq.Expr(
			`EXISTS (
				SELECT 1 FROM clip.section_assignments sa
				WHERE sa.clip_id = c.clip_id
				  AND (? = '' OR sa.client = ?)
				  AND (? = '' OR sa.section = ?)
			)`,
			opts.Client, opts.Client, opts.Section, opts.Section,
		)
		builder = builder.Where(exists)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build clip query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	items := make([]ClipListItem, 0, opts.Limit)
	for rows.Next() {
		var row ClipListItem
		if err := rows.Scan(
			&row.ClipID,
			&row.ClipUUID,
			&row.RunDate,
			&row.CanonicalTitle,
			&row.CanonicalURL,
			&row.SourceID,
			&row.MemberCount,
			&row.SourceCount,
			&row.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan clip row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clip rows: %w", err)
	}

	return items, nil
}

// ClipDetail is the full view of one clip for the clip-detail API.
type ClipDetail struct {
	ClipListItem
	RepresentativeBody string             `json:"representative_body"`
	Members            []ClipMemberDetail `json:"members"`
	Assignments        []AssignmentDetail `json:"assignments"`
}

// ClipMemberDetail is one grouped article in a clip-detail response.
type ClipMemberDetail struct {
	ArticleID   int64      `json:"article_id"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	MatchType   string     `json:"match_type"`
	MatchScore  *float64   `json:"match_score,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// AssignmentDetail is one fired rule in a clip-detail response.
type AssignmentDetail struct {
	Client   string `json:"client"`
	Section  string `json:"section"`
	Topic    string `json:"topic"`
	Matches  int    `json:"matches"`
	Priority int    `json:"priority"`
}

// GetClipByUUID loads one clip with its members and assignments.
// Returns ErrNoRows when the clip does not exist.
func (p *Pool) GetClipByUUID(ctx context.Context, clipUUID string) (*ClipDetail, error) {
	const clipQ = `
SELECT
	c.clip_id,
	c.clip_uuid::text,
	c.run_date,
	c.canonical_title,
	c.canonical_url,
	r.source_id,
	c.member_count,
	c.source_count,
	r.published_at,
	r.body
FROM clip.clips c
JOIN clip.articles r ON r.article_id = c.representative_article_id
WHERE c.clip_uuid = $1::uuid
  AND c.deleted_at IS NULL
`
	var detail ClipDetail
	err := p.QueryRow(ctx, clipQ, clipUUID).Scan(
		&detail.ClipID,
		&detail.ClipUUID,
		&detail.RunDate,
		&detail.CanonicalTitle,
		&detail.CanonicalURL,
		&detail.SourceID,
		&detail.MemberCount,
		&detail.SourceCount,
		&detail.PublishedAt,
		&detail.RepresentativeBody,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query clip: %w", err)
	}

	const membersQ = `
SELECT
	a.article_id,
	a.source_id,
	a.title,
	a.url,
	ca.match_type,
	ca.match_score,
	a.published_at
FROM clip.clip_articles ca
JOIN clip.articles a ON a.article_id = ca.article_id
WHERE ca.clip_id = $1
ORDER BY a.published_at ASC NULLS LAST, a.article_id ASC
`
	rows, err := p.Query(ctx, membersQ, detail.ClipID)
	if err != nil {
		return nil, fmt.Errorf("query clip members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m ClipMemberDetail
		if err := rows.Scan(&m.ArticleID, &m.SourceID, &m.Title, &m.URL, &m.MatchType, &m.MatchScore, &m.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan clip member row: %w", err)
		}
		detail.Members = append(detail.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clip member rows: %w", err)
	}

	const assignmentsQ = `
SELECT sa.client, sa.section, sa.topic, sa.matches, sa.priority
FROM clip.section_assignments sa
WHERE sa.clip_id = $1
ORDER BY sa.client ASC, sa.priority ASC, sa.section ASC
`
	arows, err := p.Query(ctx, assignmentsQ, detail.ClipID)
	if err != nil {
		return nil, fmt.Errorf("query clip assignments: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var a AssignmentDetail
		if err := arows.Scan(&a.Client, &a.Section, &a.Topic, &a.Matches, &a.Priority); err != nil {
			return nil, fmt.Errorf("scan clip assignment row: %w", err)
		}
		detail.Assignments = append(detail.Assignments, a)
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clip assignment rows: %w", err)
	}

	return &detail, nil
}

// RunClip is one clip of a run date with its representative article text,
// as consumed by classification.
type RunClip struct {
	ClipID      int64
	SourceID    string
	URL         string
	Title       string
	Body        string
	PublishedAt *time.Time
}

// ListRunClips returns the clips created for one run date joined with their
// representative article.
func (p *Pool) ListRunClips(ctx context.Context, runDate time.Time) ([]RunClip, error) {
	const q = `
SELECT
	c.clip_id,
	r.source_id,
	r.url,
	r.title,
	r.body,
	r.published_at
FROM clip.clips c
JOIN clip.articles r ON r.article_id = c.representative_article_id
WHERE c.run_date = $1
  AND c.deleted_at IS NULL
ORDER BY c.clip_id ASC
`
	rows, err := p.Query(ctx, q, runDate.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query run clips: %w", err)
	}
	defer rows.Close()

	items := make([]RunClip, 0, 32)
	for rows.Next() {
		var row RunClip
		if err := rows.Scan(&row.ClipID, &row.SourceID, &row.URL, &row.Title, &row.Body, &row.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan run clip row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run clip rows: %w", err)
	}

	return items, nil
}

// SectionClip is one clip eligible for a digest section.
type SectionClip struct {
	ClipID         int64
	CanonicalTitle string
	CanonicalURL   *string
	SourceID       string
	Body           string
	Section        string
	Topic          string
	Priority       int
	Matches        int
	PublishedAt    *time.Time
}

// ListSectionClips loads the classified clips for one client and run date,
// joined with their representative article. Ordered by rule priority then
// match count so the digest can rank within a section.
func (p *Pool) ListSectionClips(ctx context.Context, client string, runDate time.Time) ([]SectionClip, error) {
	const q = `
SELECT
	c.clip_id,
	c.canonical_title,
	c.canonical_url,
	r.source_id,
	r.body,
	sa.section,
	sa.topic,
	sa.priority,
	sa.matches,
	r.published_at
FROM clip.section_assignments sa
JOIN clip.clips c ON c.clip_id = sa.clip_id AND c.deleted_at IS NULL
JOIN clip.articles r ON r.article_id = c.representative_article_id
WHERE sa.client = $1
  AND sa.run_date = $2
ORDER BY sa.section ASC, sa.priority ASC, sa.matches DESC, c.clip_id ASC
`
	rows, err := p.Query(ctx, q, client, runDate.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query section clips: %w", err)
	}
	defer rows.Close()

	items := make([]SectionClip, 0, 32)
	for rows.Next() {
		var row SectionClip
		if err := rows.Scan(
			&row.ClipID,
			&row.CanonicalTitle,
			&row.CanonicalURL,
			&row.SourceID,
			&row.Body,
			&row.Section,
			&row.Topic,
			&row.Priority,
			&row.Matches,
			&row.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan section clip row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section clip rows: %w", err)
	}

	return items, nil
}

// ListUnclassifiedClips returns clips from a run date that no rule matched
// for the given client.
func (p *Pool) ListUnclassifiedClips(ctx context.Context, client string, runDate time.Time) ([]SectionClip, error) {
	const q = `
SELECT
	c.clip_id,
	c.canonical_title,
	c.canonical_url,
	r.source_id,
	r.body,
	r.published_at
FROM clip.clips c
JOIN clip.articles r ON r.article_id = c.representative_article_id
WHERE c.run_date = $1
  AND c.deleted_at IS NULL
  AND NOT EXISTS (
	SELECT 1 FROM clip.section_assignments sa
	WHERE sa.clip_id = c.clip_id AND sa.client = $2
  )
ORDER BY r.published_at ASC NULLS LAST, c.clip_id ASC
`
	rows, err := p.Query(ctx, q, runDate.UTC().Format("2006-01-02"), client)
	if err != nil {
		return nil, fmt.Errorf("query unclassified clips: %w", err)
	}
	defer rows.Close()

	items := make([]SectionClip, 0, 16)
	for rows.Next() {
		var row SectionClip
		if err := rows.Scan(
			&row.ClipID,
			&row.CanonicalTitle,
			&row.CanonicalURL,
			&row.SourceID,
			&row.Body,
			&row.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unclassified clip row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unclassified clip rows: %w", err)
	}

	return items, nil
}
