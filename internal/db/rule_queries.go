package db

import (
	"context"
	"fmt"
	"strings"
)

// StoredRule is one keyword rule as persisted.
type StoredRule struct {
	RuleID          int64  `json:"rule_id"`
	Client          string `json:"client"`
	Section         string `json:"section"`
	Topic           string `json:"topic"`
	Keywords        string `json:"keywords"`
	RequiredMention string `json:"required_mention,omitempty"`
	Media           string `json:"media,omitempty"`
	Priority        *int   `json:"priority,omitempty"`
	OfferingGated   bool   `json:"offering_gated"`
	Enabled         bool   `json:"enabled"`
}

// ListRules returns the rules for one client, or all clients when client is
// empty. Disabled rules are included so the CLI can show them.
func (p *Pool) ListRules(ctx context.Context, client string) ([]StoredRule, error) {
	const q = `
SELECT
	r.rule_id,
	r.client,
	r.section,
	r.topic,
	r.keywords,
	r.required_mention,
	r.media,
	r.priority,
	r.offering_gated,
	r.enabled
FROM clip.keyword_rules r
WHERE ($1 = '' OR r.client = $1)
ORDER BY r.client ASC, r.priority ASC, r.section ASC, r.topic ASC
`
	rows, err := p.Query(ctx, q, strings.TrimSpace(client))
	if err != nil {
		return nil, fmt.Errorf("query keyword rules: %w", err)
	}
	defer rows.Close()

	items := make([]StoredRule, 0, 32)
	for rows.Next() {
		var row StoredRule
		if err := rows.Scan(
			&row.RuleID,
			&row.Client,
			&row.Section,
			&row.Topic,
			&row.Keywords,
			&row.RequiredMention,
			&row.Media,
			&row.Priority,
			&row.OfferingGated,
			&row.Enabled,
		); err != nil {
			return nil, fmt.Errorf("scan keyword rule row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rule rows: %w", err)
	}

	return items, nil
}

// ReplaceClientRules swaps the full rule table for one client in a single
// transaction. An import is all-or-nothing.
func (p *Pool) ReplaceClientRules(ctx context.Context, client string, rules []StoredRule) (int, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return 0, fmt.Errorf("client is required")
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin rule import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM clip.keyword_rules WHERE client = $1`, client); err != nil {
		return 0, fmt.Errorf("clear keyword rules: %w", err)
	}

	const insert = `
INSERT INTO clip.keyword_rules (client, section, topic, keywords, required_mention, media, priority, offering_gated, enabled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	inserted := 0
	for _, r := range rules {
		if _, err := tx.Exec(ctx, insert,
			client, r.Section, r.Topic, r.Keywords,
			r.RequiredMention, r.Media, r.Priority, r.OfferingGated, r.Enabled,
		); err != nil {
			return 0, fmt.Errorf("insert keyword rule %s/%s: %w", r.Section, r.Topic, err)
		}
		inserted++
	}

	const upsertClient = `
INSERT INTO clip.clients (slug, name)
VALUES ($1, $1)
ON CONFLICT (slug) DO UPDATE SET updated_at = now()
`
	if _, err := tx.Exec(ctx, upsertClient, client); err != nil {
		return 0, fmt.Errorf("upsert client: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit rule import: %w", err)
	}
	return inserted, nil
}

// ListClients returns enabled clients ordered by slug.
func (p *Pool) ListClients(ctx context.Context) ([]Client, error) {
	const q = `
SELECT c.client_id, c.slug, c.name, c.enabled, c.created_at, c.updated_at
FROM clip.clients c
WHERE c.enabled
ORDER BY c.slug ASC
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0, 8)
	for rows.Next() {
		var row Client
		if err := rows.Scan(&row.ClientID, &row.Slug, &row.Name, &row.Enabled, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}

	return items, nil
}
