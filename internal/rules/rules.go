// Package rules loads client classification rules from YAML workbooks,
// spreadsheet CSV exports and the database, producing the rule set the
// pipeline consumes.
package rules

import (
	"strings"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/pipeline"
)

// anyMedia is the whitelist value meaning "any source".
const anyMedia = "todos"

// SplitKeywords parses a pipe-delimited keyword cell, trimming whitespace and
// surrounding quotes per term. Empty terms are dropped.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, "|")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		term := strings.Trim(strings.TrimSpace(part), `"'`)
		if term == "" {
			continue
		}
		keywords = append(keywords, term)
	}
	return keywords
}

// JoinKeywords is the storage inverse of SplitKeywords.
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, "|")
}

// SplitMedia parses a media cell into a source whitelist. "Todos" (any
// casing) or an empty cell means no whitelist; otherwise the cell is a
// comma-separated list of source ids.
func SplitMedia(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, anyMedia) {
		return nil
	}
	parts := strings.Split(raw, ",")
	media := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.ToLower(strings.TrimSpace(part))
		if id == "" || id == anyMedia {
			continue
		}
		media = append(media, id)
	}
	if len(media) == 0 {
		return nil
	}
	return media
}

// JoinMedia is the storage inverse of SplitMedia.
func JoinMedia(media []string) string {
	if len(media) == 0 {
		return ""
	}
	return strings.Join(media, ",")
}

// DefaultPriority derives a rule priority from the configured section order.
// Unknown sections sort after every configured one.
func DefaultPriority(section string, sectionOrder []string) int {
	for i, s := range sectionOrder {
		if strings.EqualFold(s, section) {
			return i
		}
	}
	return len(sectionOrder)
}

// FromStored converts persisted rules into the pipeline's rule set. Disabled
// rows are dropped; rows without a priority inherit one from the section
// order. An explicit priority is kept as-is, zero included.
func FromStored(stored []db.StoredRule, sectionOrder []string) pipeline.RuleSet {
	converted := make([]pipeline.Rule, 0, len(stored))
	for _, r := range stored {
		if !r.Enabled {
			continue
		}
		priority := DefaultPriority(r.Section, sectionOrder)
		if r.Priority != nil {
			priority = *r.Priority
		}
		converted = append(converted, pipeline.Rule{
			Client:          r.Client,
			Section:         r.Section,
			Topic:           r.Topic,
			Keywords:        SplitKeywords(r.Keywords),
			RequiredMention: r.RequiredMention,
			SourceWhitelist: SplitMedia(r.Media),
			Priority:        priority,
			OfferingGated:   r.OfferingGated,
		})
	}
	return pipeline.NewRuleSet(converted...)
}

// ToStored converts loaded rules into persistable rows for one client.
func ToStored(client string, loaded []pipeline.Rule) []db.StoredRule {
	stored := make([]db.StoredRule, 0, len(loaded))
	for _, r := range loaded {
		priority := r.Priority
		stored = append(stored, db.StoredRule{
			Client:          client,
			Section:         r.Section,
			Topic:           r.Topic,
			Keywords:        JoinKeywords(r.Keywords),
			RequiredMention: r.RequiredMention,
			Media:           JoinMedia(r.SourceWhitelist),
			Priority:        &priority,
			OfferingGated:   r.OfferingGated,
			Enabled:         true,
		})
	}
	return stored
}
