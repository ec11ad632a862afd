package rules

import (
	"reflect"
	"testing"

	"horse.fit/recorte/internal/db"
)

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "pipe delimited", raw: "fondo|capital privado| afp ", want: []string{"fondo", "capital privado", "afp"}},
		{name: "quoted terms", raw: `"fondo de inversión"|'venture capital'`, want: []string{"fondo de inversión", "venture capital"}},
		{name: "drops empties", raw: "fondo||  |capital", want: []string{"fondo", "capital"}},
		{name: "empty cell", raw: "", want: []string{}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitKeywords(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitKeywords(%q) = %#v, want %#v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSplitMedia(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "any media keyword", raw: "Todos", want: nil},
		{name: "empty cell", raw: "  ", want: nil},
		{name: "comma separated", raw: "DF, Emol ,latercera", want: []string{"df", "emol", "latercera"}},
		{name: "drops any-media inside list", raw: "df, todos", want: []string{"df"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitMedia(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitMedia(%q) = %#v, want %#v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestDefaultPriority(t *testing.T) {
	t.Parallel()

	order := []string{"Mercado", "Fondos", "AFP"}

	if got := DefaultPriority("fondos", order); got != 1 {
		t.Fatalf("expected case-insensitive section lookup, got %d", got)
	}
	if got := DefaultPriority("Desconocida", order); got != len(order) {
		t.Fatalf("expected unknown sections to sort last, got %d", got)
	}
}

func TestFromStored_DropsDisabledAndDerivesPriority(t *testing.T) {
	t.Parallel()

	order := []string{"Mercado", "Fondos"}
	nine := 9
	stored := []db.StoredRule{
		{Client: "acme", Section: "Fondos", Topic: "Fondos", Keywords: "fondo|capital", Enabled: true},
		{Client: "acme", Section: "Mercado", Topic: "Mercado", Keywords: "mercado", Priority: &nine, Enabled: true},
		{Client: "acme", Section: "AFP", Topic: "AFP", Keywords: "afp", Enabled: false},
	}

	set := FromStored(stored, order)
	rules := set.ForClient("acme")
	if len(rules) != 2 {
		t.Fatalf("expected disabled rules dropped, got %d rules", len(rules))
	}
	if rules[0].Priority != 1 {
		t.Fatalf("expected unset priority derived from section order, got %d", rules[0].Priority)
	}
	if rules[1].Priority != 9 {
		t.Fatalf("expected explicit priority preserved, got %d", rules[1].Priority)
	}
	if !reflect.DeepEqual(rules[0].Keywords, []string{"fondo", "capital"}) {
		t.Fatalf("unexpected keywords: %#v", rules[0].Keywords)
	}
}

func TestFromStored_KeepsExplicitZeroPriority(t *testing.T) {
	t.Parallel()

	zero := 0
	set := FromStored([]db.StoredRule{
		{Client: "acme", Section: "Exclusivas", Topic: "Exclusivas", Keywords: "exclusiva", Priority: &zero, Enabled: true},
	}, []string{"Mercado", "Fondos"})

	rules := set.ForClient("acme")
	if len(rules) != 1 {
		t.Fatalf("expected one rule, got %d", len(rules))
	}
	if rules[0].Priority != 0 {
		t.Fatalf("explicit zero priority was remapped to %d", rules[0].Priority)
	}
}

func TestStoredRoundTrip(t *testing.T) {
	t.Parallel()

	three := 3
	set := FromStored([]db.StoredRule{
		{
			Client:          "acme",
			Section:         "Fondos",
			Topic:           "Nuevos fondos",
			Keywords:        "fondo|levanta capital",
			RequiredMention: "acme",
			Media:           "df,emol",
			Priority:        &three,
			OfferingGated:   true,
			Enabled:         true,
		},
	}, nil)

	stored := ToStored("acme", set.ForClient("acme"))
	if len(stored) != 1 {
		t.Fatalf("expected one stored rule, got %d", len(stored))
	}
	row := stored[0]
	if row.Keywords != "fondo|levanta capital" {
		t.Fatalf("unexpected keywords cell: %q", row.Keywords)
	}
	if row.Media != "df,emol" {
		t.Fatalf("unexpected media cell: %q", row.Media)
	}
	if row.Priority == nil || *row.Priority != 3 {
		t.Fatalf("unexpected stored priority: %v", row.Priority)
	}
	if !row.OfferingGated || !row.Enabled {
		t.Fatalf("expected offering gate and enabled flag preserved: %#v", row)
	}
}
