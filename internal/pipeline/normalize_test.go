package pipeline

import (
	"testing"
)

func TestNormalize_StripsTrackingAndNormalizes(t *testing.T) {
	t.Parallel()

	key := Normalize(Article{
		URL:   "https://Example.COM:443/news/path/?utm_source=abc&fbclid=123&b=2&a=1",
		Title: "  Banco Central sube tasa a 5,5%  ",
	}, Options{})

	if key.CanonicalURL != "https://example.com/news/path?a=1&b=2" {
		t.Fatalf("unexpected canonical url: %q", key.CanonicalURL)
	}
	if key.NormalizedTitle != "banco central sube tasa a 5 5" {
		t.Fatalf("unexpected normalized title: %q", key.NormalizedTitle)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	first := Normalize(Article{
		URL:   "HTTP://Example.com:80/a//b/?utm_campaign=x&q=1#frag",
		Title: "Fondos de Inversión: ¿qué viene ahora?",
	}, Options{})
	second := Normalize(Article{
		URL:   first.CanonicalURL,
		Title: first.NormalizedTitle,
	}, Options{})

	if first != second {
		t.Fatalf("normalization is not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestNormalize_KeepsPercentEncodedPathsStable(t *testing.T) {
	t.Parallel()

	first := Normalize(Article{URL: "https://df.cl/econom%C3%ADa/nota-1"}, Options{})
	if first.CanonicalURL != "https://df.cl/econom%C3%ADa/nota-1" {
		t.Fatalf("encoded path was rewritten: %q", first.CanonicalURL)
	}

	second := Normalize(Article{URL: first.CanonicalURL}, Options{})
	if second.CanonicalURL != first.CanonicalURL {
		t.Fatalf("encoded path does not reach a fixed point: first=%q second=%q", first.CanonicalURL, second.CanonicalURL)
	}

	decoded := Normalize(Article{URL: "https://df.cl/economía/nota-1"}, Options{})
	if decoded.CanonicalURL != first.CanonicalURL {
		t.Fatalf("decoded and encoded forms diverge: %q vs %q", decoded.CanonicalURL, first.CanonicalURL)
	}
}

func TestNormalize_PreservesIPv6HostBrackets(t *testing.T) {
	t.Parallel()

	key := Normalize(Article{URL: "https://[::1]:8443/x"}, Options{})
	if key.CanonicalURL != "https://[::1]:8443/x" {
		t.Fatalf("unexpected ipv6 canonical url: %q", key.CanonicalURL)
	}

	stripped := Normalize(Article{URL: "http://[::1]:80/x"}, Options{})
	if stripped.CanonicalURL != "http://[::1]/x" {
		t.Fatalf("expected default port stripped with brackets kept, got %q", stripped.CanonicalURL)
	}
}

func TestNormalize_DegenerateURLFallsBackToRawString(t *testing.T) {
	t.Parallel()

	key := Normalize(Article{URL: "  not a url at all  ", Title: "t"}, Options{})
	if key.CanonicalURL != "not a url at all" {
		t.Fatalf("expected raw-string fallback, got %q", key.CanonicalURL)
	}
}

func TestNormalize_CustomTrackingDenylist(t *testing.T) {
	t.Parallel()

	opts := Options{TrackingParams: []string{"session"}}
	key := Normalize(Article{URL: "https://example.com/x?session=9&fbclid=1"}, opts)
	if key.CanonicalURL != "https://example.com/x?fbclid=1" {
		t.Fatalf("expected custom denylist to replace default, got %q", key.CanonicalURL)
	}
}

func TestFoldText_AccentsAndPunctuation(t *testing.T) {
	t.Parallel()

	if got := foldText("Administración de Fondos, S.A.  —  ¡Récord!"); got != "administracion de fondos s a record" {
		t.Fatalf("unexpected folded text: %q", got)
	}
	if got := foldText("   "); got != "" {
		t.Fatalf("expected empty fold for whitespace, got %q", got)
	}
}

func TestNormalizeText_CollapsesWhitespaceKeepsPunctuation(t *testing.T) {
	t.Parallel()

	if got := normalizeText("  Hola,\n\tMundo.  "); got != "hola, mundo." {
		t.Fatalf("unexpected normalized text: %q", got)
	}
}
