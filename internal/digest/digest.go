// Package digest composes the daily newsletter body for one client from the
// day's classified clips.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/indicators"
	"horse.fit/recorte/internal/summarize"
)

// DefaultMaxPerSection caps entries per section when unset.
const DefaultMaxPerSection = 10

// Options controls composition.
type Options struct {
	SectionOrder     []string
	MaxPerSection    int
	SourcePriorities map[string]int
	SummaryChars     int
}

func (o Options) withDefaults() Options {
	if o.MaxPerSection <= 0 {
		o.MaxPerSection = DefaultMaxPerSection
	}
	return o
}

// Entry is one rendered digest item.
type Entry struct {
	ClipID   int64  `json:"clip_id"`
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Citation string `json:"citation"`
	URL      string `json:"url,omitempty"`
	Rank     int    `json:"rank"`
}

// Section is one ordered digest section.
type Section struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Digest is the composed newsletter for one client and day.
type Digest struct {
	Client       string    `json:"client"`
	RunDate      time.Time `json:"run_date"`
	Indicators   []string  `json:"indicators"`
	Sections     []Section `json:"sections"`
	Unclassified int       `json:"unclassified"`
}

// Composer loads classified clips, decorates them with summaries and
// indicator lines, and renders the digest.
type Composer struct {
	pool       *db.Pool
	summarizer *summarize.Summarizer
	logger     zerolog.Logger
	opts       Options
}

func NewComposer(pool *db.Pool, summarizer *summarize.Summarizer, logger zerolog.Logger, opts Options) *Composer {
	return &Composer{
		pool:       pool,
		summarizer: summarizer,
		logger:     logger.With().Str("component", "digest").Logger(),
		opts:       opts.withDefaults(),
	}
}

// Compose builds the digest for one client and run date. Summary failures
// degrade to the article title; the digest always composes.
func (c *Composer) Compose(ctx context.Context, client string, runDate time.Time) (*Digest, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return nil, fmt.Errorf("client is required")
	}

	clips, err := c.pool.ListSectionClips(ctx, client, runDate)
	if err != nil {
		return nil, err
	}

	unclassified, err := c.pool.ListUnclassifiedClips(ctx, client, runDate)
	if err != nil {
		return nil, err
	}

	snapshots, err := c.pool.ListIndicators(ctx, runDate)
	if err != nil {
		c.logger.Warn().Err(err).Msg("indicator lookup failed, rendering unavailable")
		snapshots = nil
	}

	d := &Digest{
		Client:       client,
		RunDate:      runDate,
		Indicators:   indicators.RenderLines(snapshots),
		Sections:     c.composeSections(ctx, clips, runDate),
		Unclassified: len(unclassified),
	}

	c.logger.Info().
		Str("client", client).
		Str("run_date", runDate.Format("2006-01-02")).
		Int("sections", len(d.Sections)).
		Int("unclassified", d.Unclassified).
		Msg("digest composed")

	return d, nil
}

func (c *Composer) composeSections(ctx context.Context, clips []db.SectionClip, runDate time.Time) []Section {
	bySection := make(map[string][]db.SectionClip)
	for _, clip := range clips {
		bySection[clip.Section] = append(bySection[clip.Section], clip)
	}

	names := make([]string, 0, len(bySection))
	for name := range bySection {
		names = append(names, name)
	}
	orderIndex := make(map[string]int, len(c.opts.SectionOrder))
	for i, name := range c.opts.SectionOrder {
		orderIndex[name] = i
	}
	sort.Slice(names, func(i, j int) bool {
		li, lok := orderIndex[names[i]]
		rj, rok := orderIndex[names[j]]
		switch {
		case lok && rok:
			return li < rj
		case lok:
			return true
		case rok:
			return false
		default:
			return names[i] < names[j]
		}
	})

	sections := make([]Section, 0, len(names))
	for _, name := range names {
		entries := c.composeEntries(ctx, bySection[name], runDate)
		sections = append(sections, Section{Name: name, Entries: entries})
	}
	return sections
}

func (c *Composer) composeEntries(ctx context.Context, clips []db.SectionClip, runDate time.Time) []Entry {
	// Dedup clips that fired on several topics of the same section, keeping
	// the strongest firing.
	seen := make(map[int64]int, len(clips))
	unique := make([]db.SectionClip, 0, len(clips))
	for _, clip := range clips {
		if idx, dup := seen[clip.ClipID]; dup {
			if clip.Matches > unique[idx].Matches {
				unique[idx] = clip
			}
			continue
		}
		seen[clip.ClipID] = len(unique)
		unique = append(unique, clip)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		left, right := unique[i], unique[j]
		lp := c.sourcePriority(left.SourceID)
		rp := c.sourcePriority(right.SourceID)
		if lp != rp {
			return lp > rp
		}
		if left.Matches != right.Matches {
			return left.Matches > right.Matches
		}
		return left.ClipID < right.ClipID
	})

	if len(unique) > c.opts.MaxPerSection {
		unique = unique[:c.opts.MaxPerSection]
	}

	entries := make([]Entry, 0, len(unique))
	for i, clip := range unique {
		entry := Entry{
			ClipID:   clip.ClipID,
			Topic:    clip.Topic,
			Title:    clip.CanonicalTitle,
			Summary:  c.summarizeClip(ctx, clip),
			Citation: Citation(clip.SourceID, clip.PublishedAt, runDate),
			Rank:     i + 1,
		}
		if clip.CanonicalURL != nil {
			entry.URL = *clip.CanonicalURL
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *Composer) summarizeClip(ctx context.Context, clip db.SectionClip) string {
	if c.summarizer == nil {
		return clip.CanonicalTitle
	}

	resp, err := c.summarizer.Summarize(ctx, summarize.Request{
		Title:    clip.CanonicalTitle,
		Text:     clip.Body,
		MaxChars: c.opts.SummaryChars,
	})
	if err != nil {
		c.logger.Warn().Err(err).Int64("clip_id", clip.ClipID).Msg("summary failed, using title")
		return clip.CanonicalTitle
	}
	return resp.Summary
}

func (c *Composer) sourcePriority(sourceID string) int {
	if p, ok := c.opts.SourcePriorities[strings.ToLower(sourceID)]; ok {
		return p
	}
	return 1
}

// Citation renders the standard source line: "Fuente: <source>, <dd/mm/yyyy>".
// The run date stands in when the article has no published date.
func Citation(sourceID string, publishedAt *time.Time, runDate time.Time) string {
	day := runDate
	if publishedAt != nil {
		day = *publishedAt
	}
	return fmt.Sprintf("Fuente: %s, %s", sourceID, day.UTC().Format("02/01/2006"))
}

// Persist stores the composed digest as a finished digest run.
func (c *Composer) Persist(ctx context.Context, d *Digest) (int64, error) {
	runID, err := c.pool.CreateDigestRun(ctx, d.Client, d.RunDate)
	if err != nil {
		return 0, err
	}

	entries := make([]db.NewDigestEntry, 0, 32)
	for _, section := range d.Sections {
		for _, entry := range section.Entries {
			entries = append(entries, db.NewDigestEntry{
				ClipID:   entry.ClipID,
				Section:  section.Name,
				Topic:    entry.Topic,
				Rank:     entry.Rank,
				Summary:  entry.Summary,
				Citation: entry.Citation,
			})
		}
	}

	if err := c.pool.FinishDigestRun(ctx, runID, "completed", len(d.Sections), entries, nil); err != nil {
		return runID, err
	}
	return runID, nil
}

// RenderText renders the digest as plain text for preview and email bodies.
func (d *Digest) RenderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Resumen de prensa — %s — %s\n", d.Client, d.RunDate.UTC().Format("02/01/2006"))
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	b.WriteString("Indicadores Económicos\n")
	for _, line := range d.Indicators {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	b.WriteString("\n")

	for _, section := range d.Sections {
		fmt.Fprintf(&b, "%s\n", section.Name)
		b.WriteString(strings.Repeat("-", len([]rune(section.Name))))
		b.WriteString("\n")
		for _, entry := range section.Entries {
			fmt.Fprintf(&b, "%d. %s\n", entry.Rank, entry.Title)
			if entry.Summary != "" && entry.Summary != entry.Title {
				fmt.Fprintf(&b, "   %s\n", entry.Summary)
			}
			fmt.Fprintf(&b, "   %s\n", entry.Citation)
			if entry.URL != "" {
				fmt.Fprintf(&b, "   %s\n", entry.URL)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
