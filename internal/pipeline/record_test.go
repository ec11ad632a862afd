package pipeline

import (
	"bytes"
	"testing"
	"time"

	"horse.fit/recorte/internal/globaltime"
)

func TestBuildArticleRecord_DerivesCanonicalFields(t *testing.T) {
	// Mocks the process clock, so no t.Parallel.
	stamp := time.Date(2026, 8, 20, 11, 30, 0, 0, time.UTC)
	globaltime.SetMockTime(stamp)
	defer globaltime.ResetTime()

	published := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	record := BuildArticleRecord(7, "df",
		"https://DF.cl/mercados/nota-1/?utm_source=rss",
		"Fondo inmobiliario levanta capital",
		"El fondo inmobiliario anunció un nuevo levantamiento de capital por UF 2 millones.",
		&published, Options{})

	if !record.FetchedAt.Equal(stamp) {
		t.Fatalf("expected mocked fetched_at %v, got %v", stamp, record.FetchedAt)
	}
	if record.RunID == nil || *record.RunID != 7 {
		t.Fatalf("unexpected run id: %v", record.RunID)
	}
	if record.CanonicalURL != "https://df.cl/mercados/nota-1" {
		t.Fatalf("unexpected canonical url: %q", record.CanonicalURL)
	}
	if record.NormalizedTitle != "fondo inmobiliario levanta capital" {
		t.Fatalf("unexpected normalized title: %q", record.NormalizedTitle)
	}
	if len(record.CanonicalURLHash) != 32 || len(record.TitleHash) != 32 || len(record.ContentHash) != 32 {
		t.Fatalf("expected sha256 hashes, got lens %d/%d/%d",
			len(record.CanonicalURLHash), len(record.TitleHash), len(record.ContentHash))
	}
	if record.Language != "es" {
		t.Fatalf("unexpected language: %q", record.Language)
	}
}

func TestBuildArticleRecord_EmptyBodySkipsContentHash(t *testing.T) {
	// Mocks the process clock, so no t.Parallel.
	globaltime.SetMockTime(time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	record := BuildArticleRecord(0, "emol", "https://emol.com/nota", "Título sin cuerpo", "", nil, Options{})
	if record.ContentHash != nil {
		t.Fatalf("expected nil content hash for empty body, got %x", record.ContentHash)
	}
	if record.RunID != nil {
		t.Fatalf("expected nil run id for zero run, got %v", record.RunID)
	}
	if bytes.Equal(record.CanonicalURLHash, record.TitleHash) {
		t.Fatalf("url and title hashes should differ")
	}
}
