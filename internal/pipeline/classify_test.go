package pipeline

import (
	"testing"
)

func TestClassify_EmptyRuleTableYieldsUnclassified(t *testing.T) {
	t.Parallel()

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Fondo de inversión levanta capital"},
	}, nil, Options{})

	if len(classified) != 1 {
		t.Fatalf("expected one output per input, got %d", len(classified))
	}
	if !classified[0].Unclassified() {
		t.Fatalf("expected unclassified output, got %#v", classified[0].Assignments)
	}
}

func TestClassify_WholeWordAccentInsensitiveKeyword(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: []string{"fondo de inversión"}, Priority: 1},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Nuevo FONDO DE INVERSION para startups"},
		{ID: 2, SourceID: "df", Title: "Fondos de inversiones varias"},
	}, rules, Options{})

	if classified[0].Unclassified() {
		t.Fatalf("expected accent- and case-insensitive match to fire")
	}
	if !classified[1].Unclassified() {
		t.Fatalf("expected no whole-phrase match for inflected words, got %#v", classified[1].Assignments)
	}
}

func TestClassify_SubstringInsideWordDoesNotFire(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Client: "acme", Section: "AFP", Topic: "AFP", Keywords: []string{"afp"}, Priority: 1},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Reforma a las AFP avanza"},
		{ID: 2, SourceID: "df", Title: "Tráfico en la ciudad"},
		{ID: 3, SourceID: "df", Title: "Plataforma digital crece"},
	}, rules, Options{})

	if classified[0].Unclassified() {
		t.Fatalf("expected standalone keyword to fire")
	}
	if !classified[1].Unclassified() || !classified[2].Unclassified() {
		t.Fatalf("expected keyword inside a longer word not to fire")
	}
}

func TestClassify_RequiredMentionGatesTheRule(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{
			Client:          "acme",
			Section:         "Compañía",
			Topic:           "Compañía",
			Keywords:        []string{"resultados"},
			RequiredMention: "acme capital",
			Priority:        1,
		},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Resultados trimestrales de Acme Capital"},
		{ID: 2, SourceID: "df", Title: "Resultados trimestrales de otra gestora"},
	}, rules, Options{})

	if classified[0].Unclassified() {
		t.Fatalf("expected rule to fire when the required mention is present")
	}
	if !classified[1].Unclassified() {
		t.Fatalf("expected rule to stay silent without the required mention")
	}
}

func TestClassify_OfferingGatedRequiresOfferingTerm(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{
			Client:        "acme",
			Section:       "Ofertas",
			Topic:         "Ofertas",
			Keywords:      []string{"gestora"},
			OfferingGated: true,
			Priority:      1,
		},
	}
	opts := Options{OfferingTerms: []string{"levanta capital"}}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Gestora levanta capital para fondo inmobiliario"},
		{ID: 2, SourceID: "df", Title: "Gestora anuncia nuevos ejecutivos"},
	}, rules, opts)

	if classified[0].Unclassified() {
		t.Fatalf("expected offering-gated rule to fire with an offering term present")
	}
	if !classified[1].Unclassified() {
		t.Fatalf("expected offering-gated rule to stay silent without an offering term")
	}
}

func TestClassify_SourceWhitelistFiltersBySourceID(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{
			Client:          "acme",
			Section:         "Prensa",
			Topic:           "Prensa",
			Keywords:        []string{"mercado"},
			SourceWhitelist: []string{"df"},
			Priority:        1,
		},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "El mercado reacciona"},
		{ID: 2, SourceID: "emol", Title: "El mercado reacciona"},
	}, rules, Options{})

	if classified[0].Unclassified() {
		t.Fatalf("expected whitelisted source to fire")
	}
	if !classified[1].Unclassified() {
		t.Fatalf("expected non-whitelisted source to be skipped")
	}
}

func TestClassify_DuplicateFiringsCollapseAndOrderByPriority(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: []string{"fondo"}, Priority: 2},
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: []string{"inmobiliario", "sacude"}, Priority: 5},
		{Client: "acme", Section: "Mercado", Topic: "Mercado", Keywords: []string{"mercado"}, Priority: 1},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Fondo inmobiliario sacude el mercado"},
	}, rules, Options{})

	assignments := classified[0].Assignments
	if len(assignments) != 2 {
		t.Fatalf("expected duplicate (section, topic) firings to collapse, got %d", len(assignments))
	}
	if assignments[0].Section != "Mercado" {
		t.Fatalf("expected lowest priority first, got %q", assignments[0].Section)
	}
	if assignments[1].Section != "Fondos" || assignments[1].Priority != 2 {
		t.Fatalf("expected collapsed firing to keep the strongest priority, got %#v", assignments[1])
	}
	if assignments[1].Matches != 2 {
		t.Fatalf("expected collapsed firing to keep the highest match count, got %d", assignments[1].Matches)
	}
}

func TestGroupBySection_OrdersByConfiguredSectionOrder(t *testing.T) {
	t.Parallel()

	opts := Options{SectionOrder: []string{"Mercado", "Fondos"}}
	rules := []Rule{
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: []string{"fondo"}, Priority: 0},
		{Client: "acme", Section: "Mercado", Topic: "Mercado", Keywords: []string{"mercado"}, Priority: 1},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Un fondo nuevo"},
		{ID: 2, SourceID: "df", Title: "El mercado al alza"},
		{ID: 3, SourceID: "df", Title: "Nada relevante aquí"},
	}, rules, opts)

	groups := GroupBySection(classified, opts)
	if len(groups) != 3 {
		t.Fatalf("expected two sections plus unclassified, got %d", len(groups))
	}
	if groups[0].Section != "Mercado" || groups[1].Section != "Fondos" {
		t.Fatalf("expected configured order to win over rule priority, got %q then %q", groups[0].Section, groups[1].Section)
	}
	if groups[2].Section != SectionUnclassified {
		t.Fatalf("expected trailing unclassified bucket, got %q", groups[2].Section)
	}
	if len(groups[2].Articles) != 1 || groups[2].Articles[0].Article.ID != 3 {
		t.Fatalf("expected the unmatched article in the unclassified bucket")
	}
}

func TestGroupBySection_RanksArticlesByMatchCount(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: []string{"fondo", "capital"}, Priority: 1},
	}

	classified := Classify([]Article{
		{ID: 1, SourceID: "df", Title: "Un fondo cualquiera"},
		{ID: 2, SourceID: "df", Title: "Fondo levanta capital fresco"},
	}, rules, Options{})

	groups := GroupBySection(classified, Options{})
	if len(groups) != 1 {
		t.Fatalf("expected one section group, got %d", len(groups))
	}
	if groups[0].Articles[0].Article.ID != 2 {
		t.Fatalf("expected the article with more keyword matches first, got ID %d", groups[0].Articles[0].Article.ID)
	}
}
