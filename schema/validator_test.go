package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateArticlePayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"df.cl",
		"url":"https://www.df.cl/mercados/fondos/nueva-administradora",
		"title":"Nueva administradora entra al mercado",
		"body_text":"La nueva administradora anunció su primer fondo de inversión.",
		"published_at":"2026-08-28T12:30:00Z",
		"language":"es"
	}`)

	item, err := ValidateArticlePayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if item.Source != "df.cl" {
		t.Fatalf("expected source=df.cl, got %q", item.Source)
	}
	if item.PayloadVersion != "v1" {
		t.Fatalf("expected payload_version=v1, got %q", item.PayloadVersion)
	}
	if item.Language == nil || *item.Language != "es" {
		t.Fatalf("expected language=es, got %v", item.Language)
	}
}

func TestValidateArticlePayload_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"emol.com",
		"title":"Missing url"
	}`)

	_, err := ValidateArticlePayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for missing url")
	}
}

func TestValidateArticlePayload_WhitespaceTitle(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"emol.com",
		"url":"https://www.emol.com/noticias/economia/1",
		"title":"   "
	}`)

	_, err := ValidateArticlePayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for whitespace title")
	}
}

func TestValidateArticlePayload_BadPublishedAt(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"df.cl",
		"url":"https://www.df.cl/noticia",
		"title":"Fecha inválida",
		"published_at":"28/08/2026"
	}`)

	_, err := ValidateArticlePayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for non-RFC3339 published_at")
	}
}

func TestValidateArticlePayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"df.cl",
		"url":"https://www.df.cl/noticia",
		"title":"Valida"
	}{"extra":true}`)

	_, err := ValidateArticlePayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateRulesImport_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"client":"acafi",
		"rules":[
			{
				"section":"ACAFI",
				"topic":"Menciones",
				"keywords":["acafi","asociación chilena de administradoras de fondos"],
				"required_mention":"acafi"
			},
			{
				"section":"Noticias de Socios",
				"topic":"nuevo fondo",
				"keywords":["fondo de inversión"],
				"media":"df.cl,elmercurio.com",
				"offering_gated":true
			}
		]
	}`)

	imp, err := ValidateRulesImport(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if imp.Client != "acafi" {
		t.Fatalf("expected client=acafi, got %q", imp.Client)
	}
	if len(imp.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(imp.Rules))
	}
	if !imp.Rules[1].OfferingGated {
		t.Fatalf("expected second rule offering_gated")
	}
}

func TestValidateRulesImport_EmptyRules(t *testing.T) {
	payload := json.RawMessage(`{"client":"acafi","rules":[]}`)

	_, err := ValidateRulesImport(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for empty rules")
	}
}
