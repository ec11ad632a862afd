package rules

import (
	"strings"
	"testing"
)

const sampleWorkbook = `
clients:
  - client: acme
    rules:
      - section: Fondos
        keywords: ["fondo de inversión", "levanta capital"]
        offering_gated: true
      - section: Mercado
        topic: Renta fija
        keywords: ["bonos"]
        required_mention: acme capital
        media: df,emol
        priority: 7
  - client: globex
    rules:
      - section: AFP
        keywords: ["afp"]
`

func TestLoadWorkbook_ParsesClientsAndDefaults(t *testing.T) {
	t.Parallel()

	order := []string{"Mercado", "Fondos", "AFP"}
	set, err := LoadWorkbook(strings.NewReader(sampleWorkbook), order)
	if err != nil {
		t.Fatalf("LoadWorkbook returned error: %v", err)
	}

	acme := set.ForClient("acme")
	if len(acme) != 2 {
		t.Fatalf("expected two acme rules, got %d", len(acme))
	}

	first := acme[0]
	if first.Topic != "Fondos" {
		t.Fatalf("expected topic to default to the section, got %q", first.Topic)
	}
	if first.Priority != 1 {
		t.Fatalf("expected priority derived from section order, got %d", first.Priority)
	}
	if !first.OfferingGated {
		t.Fatalf("expected offering gate preserved")
	}

	second := acme[1]
	if second.Topic != "Renta fija" {
		t.Fatalf("unexpected topic: %q", second.Topic)
	}
	if second.Priority != 7 {
		t.Fatalf("expected explicit priority to win, got %d", second.Priority)
	}
	if second.RequiredMention != "acme capital" {
		t.Fatalf("unexpected required mention: %q", second.RequiredMention)
	}
	if len(second.SourceWhitelist) != 2 {
		t.Fatalf("unexpected source whitelist: %#v", second.SourceWhitelist)
	}

	if len(set.ForClient("globex")) != 1 {
		t.Fatalf("expected one globex rule")
	}
}

func TestLoadWorkbook_RejectsMissingSection(t *testing.T) {
	t.Parallel()

	bad := `
clients:
  - client: acme
    rules:
      - keywords: ["fondo"]
`
	if _, err := LoadWorkbook(strings.NewReader(bad), nil); err == nil {
		t.Fatalf("expected error for rule without section")
	}
}

func TestLoadWorkbook_RejectsEmptyFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadWorkbook(strings.NewReader("clients: []"), nil); err == nil {
		t.Fatalf("expected error for workbook without clients")
	}
}
