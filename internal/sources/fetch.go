package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const (
	defaultFetchTimeout = 20 * time.Second
	fetchUserAgent      = "recorte/1.0 (+https://horse.fit/recorte)"
)

// Item is one candidate article discovered at a source, before body
// extraction and ingest.
type Item struct {
	SourceID    string
	SourceName  string
	URL         string
	Title       string
	PublishedAt *time.Time
}

// FetchResult aggregates one fetch pass over the registry.
type FetchResult struct {
	Items  []Item
	Errors map[string]error
}

// Fetcher discovers candidate articles from registered sources.
type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
	logger zerolog.Logger
}

func NewFetcher(logger zerolog.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	client := &http.Client{Timeout: timeout}

	parser := gofeed.NewParser()
	parser.UserAgent = fetchUserAgent
	parser.Client = client

	return &Fetcher{
		client: client,
		parser: parser,
		logger: logger.With().Str("component", "sources").Logger(),
	}
}

// Fetch discovers items at one source. Items published before cutoff are
// dropped; items without a published date are kept (the ingest window
// filters again on fetch time).
func (f *Fetcher) Fetch(ctx context.Context, src Source, cutoff time.Time) ([]Item, error) {
	switch src.Kind {
	case KindRSS:
		return f.fetchRSS(ctx, src, cutoff)
	case KindWeb:
		return f.fetchWeb(ctx, src)
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", src.ID, src.Kind)
	}
}

// FetchAll fetches every enabled source, tolerating per-source failures so
// one dead feed never empties the day's batch.
func (f *Fetcher) FetchAll(ctx context.Context, reg *Registry, cutoff time.Time) FetchResult {
	result := FetchResult{Errors: make(map[string]error)}
	for _, src := range reg.Enabled() {
		items, err := f.Fetch(ctx, src, cutoff)
		if err != nil {
			f.logger.Warn().Err(err).Str("source", src.ID).Msg("source fetch failed")
			result.Errors[src.ID] = err
			continue
		}
		f.logger.Debug().Str("source", src.ID).Int("items", len(items)).Msg("source fetched")
		result.Items = append(result.Items, items...)
	}
	return result
}

func (f *Fetcher) fetchRSS(ctx context.Context, src Source, cutoff time.Time) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.ID, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || strings.TrimSpace(entry.Link) == "" {
			continue
		}
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		if published != nil && published.Before(cutoff) {
			continue
		}
		items = append(items, Item{
			SourceID:    src.ID,
			SourceName:  src.Name,
			URL:         strings.TrimSpace(entry.Link),
			Title:       strings.TrimSpace(entry.Title),
			PublishedAt: published,
		})
	}
	return items, nil
}

func (f *Fetcher) fetchWeb(ctx context.Context, src Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.ID, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept-Language", "es-CL,es;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", src.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing %s: unexpected status %d", src.ID, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", src.ID, err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse listing URL %s: %w", src.ID, err)
	}

	var items []Item
	seen := make(map[string]struct{})
	doc.Find(src.Selectors.Item).Each(func(_ int, sel *goquery.Selection) {
		link := sel
		if src.Selectors.Link != "" {
			link = sel.Find(src.Selectors.Link)
		}
		href, ok := link.Attr("href")
		if !ok {
			href, ok = link.Find("a").Attr("href")
		}
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		resolved := resolveURL(base, strings.TrimSpace(href))
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}

		title := ""
		if src.Selectors.Title != "" {
			title = strings.TrimSpace(sel.Find(src.Selectors.Title).First().Text())
		}
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}

		items = append(items, Item{
			SourceID:   src.ID,
			SourceName: src.Name,
			URL:        resolved,
			Title:      title,
		})
	})

	return items, nil
}

func resolveURL(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// LookbackDays widens the fetch window on Mondays so weekend coverage is not
// lost between Friday and Monday runs.
func LookbackDays(day time.Time, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		maxAgeDays = 1
	}
	if day.UTC().Weekday() == time.Monday && maxAgeDays < 3 {
		return 3
	}
	return maxAgeDays
}
