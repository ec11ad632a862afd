package sources

import (
	"strings"
	"testing"
	"time"
)

const sampleRegistry = `
sources:
  - id: DF
    name: Diario Financiero
    kind: rss
    url: https://df.cl/rss
  - id: fundspeople
    kind: web
    url: https://fundspeople.com/cl/noticias
    selectors:
      item: article.news-item
      title: h2
      link: a
  - id: emol
    kind: rss
    url: https://emol.com/rss
    enabled: false
`

func TestLoadRegistry_NormalizesAndValidates(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry(strings.NewReader(sampleRegistry))
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	if len(reg.All()) != 3 {
		t.Fatalf("expected three sources, got %d", len(reg.All()))
	}

	src, ok := reg.Lookup("df")
	if !ok {
		t.Fatalf("expected uppercase id to be normalized and found")
	}
	if src.Name != "Diario Financiero" {
		t.Fatalf("unexpected name: %q", src.Name)
	}

	web, ok := reg.Lookup("fundspeople")
	if !ok {
		t.Fatalf("expected web source to be registered")
	}
	if web.Name != "fundspeople" {
		t.Fatalf("expected missing name to default to the id, got %q", web.Name)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected the disabled source excluded, got %d", len(enabled))
	}
}

func TestLoadRegistry_RejectsBadEntries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
	}{
		{name: "no sources", yaml: "sources: []"},
		{name: "missing id", yaml: "sources:\n  - kind: rss\n    url: https://x.cl/rss"},
		{name: "duplicate id", yaml: "sources:\n  - id: df\n    kind: rss\n    url: https://a.cl\n  - id: DF\n    kind: rss\n    url: https://b.cl"},
		{name: "missing url", yaml: "sources:\n  - id: df\n    kind: rss"},
		{name: "unknown kind", yaml: "sources:\n  - id: df\n    kind: ftp\n    url: https://a.cl"},
		{name: "web without selectors", yaml: "sources:\n  - id: df\n    kind: web\n    url: https://a.cl"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadRegistry(strings.NewReader(tc.yaml)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestNewRegistry_SkipsBlankAndDuplicateIDs(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Source{
		{ID: "DF", Kind: KindRSS, URL: "https://df.cl/rss"},
		{ID: "df", Kind: KindRSS, URL: "https://df.cl/rss"},
		{ID: "  ", Kind: KindRSS, URL: "https://x.cl/rss"},
	})

	if len(reg.All()) != 1 {
		t.Fatalf("expected one unique source, got %d", len(reg.All()))
	}
}

func TestLookbackDays_WidensOnMondays(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	if got := LookbackDays(monday, 2); got != 3 {
		t.Fatalf("expected Monday lookback widened to 3, got %d", got)
	}
	if got := LookbackDays(tuesday, 2); got != 2 {
		t.Fatalf("expected weekday lookback unchanged, got %d", got)
	}
	if got := LookbackDays(monday, 5); got != 5 {
		t.Fatalf("expected wide lookback left alone on Monday, got %d", got)
	}
	if got := LookbackDays(tuesday, 0); got != 1 {
		t.Fatalf("expected non-positive lookback to default to 1, got %d", got)
	}
}
