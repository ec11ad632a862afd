package rules

import (
	"strings"
	"testing"
)

const sampleSheet = `Pauta de prensa,,,
Sección,Tema,Palabras clave,Medios
Fondos,Nuevos fondos,fondo de inversión|levanta capital,Todos
Mercado,,bonos|renta fija,"df,emol"
,,,
`

func TestLoadSheet_ParsesDataRows(t *testing.T) {
	t.Parallel()

	order := []string{"Mercado", "Fondos"}
	set, err := LoadSheet(strings.NewReader(sampleSheet), "acme", order)
	if err != nil {
		t.Fatalf("LoadSheet returned error: %v", err)
	}

	rules := set.ForClient("acme")
	if len(rules) != 2 {
		t.Fatalf("expected two rules, blank rows skipped, got %d", len(rules))
	}

	first := rules[0]
	if first.Section != "Fondos" || first.Topic != "Nuevos fondos" {
		t.Fatalf("unexpected first rule: %#v", first)
	}
	if len(first.Keywords) != 2 {
		t.Fatalf("unexpected keywords: %#v", first.Keywords)
	}
	if first.SourceWhitelist != nil {
		t.Fatalf(`expected "Todos" to mean no whitelist, got %#v`, first.SourceWhitelist)
	}
	if first.Priority != 1 {
		t.Fatalf("expected priority from section order, got %d", first.Priority)
	}

	second := rules[1]
	if second.Topic != "Mercado" {
		t.Fatalf("expected topic to default to the section, got %q", second.Topic)
	}
	if len(second.SourceWhitelist) != 2 {
		t.Fatalf("unexpected whitelist: %#v", second.SourceWhitelist)
	}
}

func TestLoadSheet_RequiresClientAndData(t *testing.T) {
	t.Parallel()

	if _, err := LoadSheet(strings.NewReader(sampleSheet), "  ", nil); err == nil {
		t.Fatalf("expected error for missing client")
	}

	headerOnly := "title,,,\nSección,Tema,Palabras clave,Medios\n"
	if _, err := LoadSheet(strings.NewReader(headerOnly), "acme", nil); err == nil {
		t.Fatalf("expected error for sheet without data rows")
	}
}

func TestLoadSheet_RejectsShortRow(t *testing.T) {
	t.Parallel()

	short := "title,,,\nheaders,,,\nFondos,solo-dos-columnas\n"
	if _, err := LoadSheet(strings.NewReader(short), "acme", nil); err == nil {
		t.Fatalf("expected error for row with fewer than 3 columns")
	}
}
