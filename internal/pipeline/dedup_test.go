package pipeline

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDeduplicate_CollapsesByCanonicalURL(t *testing.T) {
	t.Parallel()

	groups, skipped := Deduplicate([]Article{
		{ID: 1, SourceID: "df", URL: "https://DF.cl/mercados/nota-1?utm_source=mail", Title: "Una noticia"},
		{ID: 2, SourceID: "emol", URL: "https://df.cl/mercados/nota-1/?fbclid=xyz", Title: "Otra bajada distinta"},
	}, Options{})

	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped articles: %d", len(skipped))
	}
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Fatalf("expected both articles in the group, got %d members", len(groups[0].Members))
	}
}

func TestDeduplicate_CollapsesPunctuationTitleVariants(t *testing.T) {
	t.Parallel()

	early := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 20, 12, 30, 0, 0, time.UTC)

	groups, _ := Deduplicate([]Article{
		{ID: 1, SourceID: "latercera", URL: "https://latercera.com/a", Title: "Banco Central sube tasa a 5,5%", PublishedAt: timePtr(late)},
		{ID: 2, SourceID: "df", URL: "https://df.cl/b", Title: "Banco Central sube tasa a 5.5%", PublishedAt: timePtr(early)},
	}, Options{})

	if len(groups) != 1 {
		t.Fatalf("expected punctuation-only variants to collapse, got %d groups", len(groups))
	}
	if groups[0].Representative.ID != 2 {
		t.Fatalf("expected earliest published article as representative, got ID %d", groups[0].Representative.ID)
	}
	if groups[0].Members[0].MatchType != MatchSeed {
		t.Fatalf("expected representative listed first as seed, got %q", groups[0].Members[0].MatchType)
	}
	if groups[0].Members[1].MatchType != MatchTitle {
		t.Fatalf("expected title match for the variant, got %q", groups[0].Members[1].MatchType)
	}
}

func TestDeduplicate_TransitiveClosureAcrossRelations(t *testing.T) {
	t.Parallel()

	// A ties to B by canonical URL, B ties to C by content; A and C share no
	// direct relation but must land in one group.
	groups, _ := Deduplicate([]Article{
		{ID: 1, SourceID: "a", URL: "https://example.com/nota", Title: "Titular completamente distinto", Body: "cuerpo uno"},
		{ID: 2, SourceID: "b", URL: "https://example.com/nota?utm_source=x", Title: "Segundo titular diferente", Body: "Texto compartido de la nota."},
		{ID: 3, SourceID: "c", URL: "https://otro.cl/reproduccion", Title: "Tercer titular sin relación", Body: "  texto   COMPARTIDO de la nota. "},
	}, Options{})

	if len(groups) != 1 {
		t.Fatalf("expected transitive closure into one group, got %d groups", len(groups))
	}
	if len(groups[0].Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(groups[0].Members))
	}

	foundChain := false
	for _, member := range groups[0].Members {
		if member.MatchType == MatchChain {
			foundChain = true
		}
	}
	if !foundChain {
		t.Fatalf("expected one member to be chained through an intermediate article")
	}
}

func TestDeduplicate_DeterministicAcrossInputOrder(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	articles := []Article{
		{ID: 1, SourceID: "df", URL: "https://df.cl/uno", Title: "Fondo inmobiliario levanta capital", PublishedAt: timePtr(published)},
		{ID: 2, SourceID: "emol", URL: "https://emol.com/dos", Title: "Fondo inmobiliario levanta capital!", PublishedAt: timePtr(published.Add(time.Hour))},
		{ID: 3, SourceID: "lt", URL: "https://latercera.com/tres", Title: "Resultado electoral en la región"},
	}
	reversed := []Article{articles[2], articles[1], articles[0]}

	forward, _ := Deduplicate(articles, Options{})
	backward, _ := Deduplicate(reversed, Options{})

	if len(forward) != len(backward) {
		t.Fatalf("group count differs across orderings: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].Representative.ID != backward[i].Representative.ID {
			t.Fatalf("group %d representative differs: %d vs %d", i, forward[i].Representative.ID, backward[i].Representative.ID)
		}
		if len(forward[i].Members) != len(backward[i].Members) {
			t.Fatalf("group %d member count differs", i)
		}
		for j := range forward[i].Members {
			if forward[i].Members[j].Article.ID != backward[i].Members[j].Article.ID {
				t.Fatalf("group %d member %d differs across orderings", i, j)
			}
		}
	}
}

func TestDeduplicate_RepresentativeTieBreaks(t *testing.T) {
	t.Parallel()

	// No timestamps anywhere: longest body wins, then source id.
	groups, _ := Deduplicate([]Article{
		{ID: 1, SourceID: "zeta", URL: "https://a.cl/x", Title: "Misma noticia repetida", Body: "corto"},
		{ID: 2, SourceID: "alfa", URL: "https://b.cl/y", Title: "Misma noticia repetida", Body: "un cuerpo bastante más largo"},
		{ID: 3, SourceID: "beta", URL: "https://c.cl/z", Title: "Misma noticia repetida", Body: "corto"},
	}, Options{})

	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].Representative.ID != 2 {
		t.Fatalf("expected longest body to win, got ID %d", groups[0].Representative.ID)
	}

	groups, _ = Deduplicate([]Article{
		{ID: 1, SourceID: "zeta", URL: "https://a.cl/x", Title: "Misma noticia repetida", Body: "corto"},
		{ID: 3, SourceID: "beta", URL: "https://c.cl/z", Title: "Misma noticia repetida", Body: "corto"},
	}, Options{})
	if groups[0].Representative.ID != 3 {
		t.Fatalf("expected lexicographic source id tie-break, got ID %d", groups[0].Representative.ID)
	}
}

func TestDeduplicate_SkipsArticleMissingURLAndTitle(t *testing.T) {
	t.Parallel()

	groups, skipped := Deduplicate([]Article{
		{ID: 1, SourceID: "df", URL: "https://df.cl/ok", Title: "Noticia válida"},
		{ID: 2, SourceID: "rota", URL: "   ", Title: " ", Body: "cuerpo sin metadatos"},
	}, Options{})

	if len(skipped) != 1 || skipped[0].ID != 2 {
		t.Fatalf("expected the degenerate article to be skipped, got %+v", skipped)
	}
	if len(groups) != 1 || len(groups[0].Members) != 1 {
		t.Fatalf("expected a single singleton group for the valid article")
	}
}

func TestDeduplicate_EmptyBodiesDoNotContentMatch(t *testing.T) {
	t.Parallel()

	groups, _ := Deduplicate([]Article{
		{ID: 1, SourceID: "a", URL: "https://a.cl/1", Title: "Primer tema del día"},
		{ID: 2, SourceID: "b", URL: "https://b.cl/2", Title: "Segundo tema sin relación"},
	}, Options{})

	if len(groups) != 2 {
		t.Fatalf("expected empty bodies to stay separate, got %d groups", len(groups))
	}
}

func TestDeduplicate_ThresholdConfigurable(t *testing.T) {
	t.Parallel()

	articles := []Article{
		{ID: 1, SourceID: "a", URL: "https://a.cl/1", Title: "Fondos de inversión crecen fuerte este año"},
		{ID: 2, SourceID: "b", URL: "https://b.cl/2", Title: "Fondos de inversión crecen este año"},
	}

	strict, _ := Deduplicate(articles, Options{TitleSimilarityThreshold: 0.99})
	if len(strict) != 1 {
		loose, _ := Deduplicate(articles, Options{TitleSimilarityThreshold: 0.5})
		if len(loose) != 1 {
			t.Fatalf("expected low threshold to collapse near-identical titles")
		}
		return
	}
	t.Fatalf("expected 0.99 threshold to keep near-identical titles apart")
}
