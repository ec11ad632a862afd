package indicators

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `
<html><body>
<table>
  <tr><th>Indicador</th><th>Valor</th></tr>
  <tr><td>Unidad de Fomento (UF)</td><td>$39.012,45</td></tr>
  <tr><td>Dólar Observado</td><td>$951,30</td></tr>
  <tr><td>Euro</td><td>$1.032,80</td></tr>
  <tr><td>Unidad Tributaria Mensual (UTM)</td><td>$68.034</td></tr>
  <tr><td>Otro índice</td><td>$1,00</td></tr>
</table>
</body></html>`

func TestParseDocument_ExtractsTrackedIndicators(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("parse sample page: %v", err)
	}

	capturedOn := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	snapshots := ParseDocument(doc, capturedOn)

	if len(snapshots) != 4 {
		t.Fatalf("expected the four tracked indicators, got %d", len(snapshots))
	}

	byCode := make(map[string]string, len(snapshots))
	for _, snap := range snapshots {
		byCode[snap.Code] = snap.Value
		if !snap.CapturedOn.Equal(capturedOn) {
			t.Fatalf("unexpected capture date: %v", snap.CapturedOn)
		}
	}
	if byCode["uf"] != "$39.012,45" {
		t.Fatalf("unexpected UF value: %q", byCode["uf"])
	}
	if byCode["dolar"] != "$951,30" {
		t.Fatalf("unexpected dollar value: %q", byCode["dolar"])
	}
	if byCode["utm"] != "$68.034" {
		t.Fatalf("unexpected UTM value: %q", byCode["utm"])
	}
}

func TestParseDocument_PartialPageKeepsWhatWasFound(t *testing.T) {
	t.Parallel()

	partial := `<table><tr><td>Euro</td><td>$1.000,00</td></tr></table>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(partial))
	if err != nil {
		t.Fatalf("parse partial page: %v", err)
	}

	snapshots := ParseDocument(doc, time.Now().UTC())
	if len(snapshots) != 1 {
		t.Fatalf("expected only the euro indicator, got %d", len(snapshots))
	}
	if snapshots[0].Code != "euro" {
		t.Fatalf("unexpected code: %q", snapshots[0].Code)
	}
}

func TestRenderLines(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("parse sample page: %v", err)
	}
	snapshots := ParseDocument(doc, time.Now().UTC())

	lines := RenderLines(snapshots)
	if len(lines) != 4 {
		t.Fatalf("expected four lines, got %d", len(lines))
	}
	if lines[0] != "UF: $39.012,45" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}

	empty := RenderLines(nil)
	if len(empty) != 1 || empty[0] != "Indicadores no disponibles" {
		t.Fatalf("unexpected empty rendering: %#v", empty)
	}
}
