package pipeline

import (
	"crypto/sha256"
	"time"

	"horse.fit/recorte/internal/config"
	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/globaltime"
	"horse.fit/recorte/internal/langdetect"
	"horse.fit/recorte/internal/language"
)

// OptionsFromConfig maps runtime configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TitleSimilarityThreshold: cfg.TitleSimilarityThreshold,
		TrackingParams:           cfg.TrackingParamList(),
		SectionOrder:             cfg.SectionList(),
		OfferingTerms:            cfg.OfferingTermList(),
	}
}

// BuildArticleRecord derives the canonical comparison fields once, at write
// time, so dedup never re-normalizes stored rows.
func BuildArticleRecord(runID int64, sourceID, rawURL, title, body string, publishedAt *time.Time, opts Options) db.NewArticle {
	art := Article{SourceID: sourceID, URL: rawURL, Title: title, Body: body, PublishedAt: publishedAt}
	key := Normalize(art, opts)

	record := db.NewArticle{
		SourceID:        sourceID,
		URL:             rawURL,
		Title:           title,
		Body:            body,
		CanonicalURL:    key.CanonicalURL,
		NormalizedTitle: key.NormalizedTitle,
		Language:        detectLanguage(title, body),
		PublishedAt:     publishedAt,
		FetchedAt:       globaltime.UTC(),
	}
	if runID > 0 {
		record.RunID = &runID
	}
	if key.CanonicalURL != "" {
		record.CanonicalURLHash = hashBytes(key.CanonicalURL)
	}
	if key.NormalizedTitle != "" {
		record.TitleHash = hashBytes(key.NormalizedTitle)
	}
	if fp := FingerprintArticle(art); !fp.Empty {
		record.ContentHash = append([]byte(nil), fp.Hash[:]...)
	}
	return record
}

func hashBytes(value string) []byte {
	sum := sha256.Sum256([]byte(value))
	return sum[:]
}

func detectLanguage(title, body string) string {
	sample := body
	if sample == "" {
		sample = title
	}
	code := language.NormalizeCode(langdetect.DetectISO6391(sample))
	if code == "" {
		return "und"
	}
	return code
}
