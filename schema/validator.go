// Package payloadschema validates the JSON payloads that cross the service
// boundary: ingest articles and rule imports.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed article.schema.json
var articleSchemaJSON string

//go:embed rules_import.schema.json
var rulesImportSchemaJSON string

// ArticlePayload is one article as submitted to the ingest endpoint or read
// from a payload file.
type ArticlePayload struct {
	PayloadVersion string  `json:"payload_version"`
	Source         string  `json:"source"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	BodyText       *string `json:"body_text,omitempty"`
	PublishedAt    *string `json:"published_at,omitempty"`
	Language       *string `json:"language,omitempty"`
}

// RulesImport is a full rule table replacement for one client.
type RulesImport struct {
	Client string           `json:"client"`
	Rules  []RuleImportItem `json:"rules"`
}

// RuleImportItem is one rule row in a rules import payload.
type RuleImportItem struct {
	Section         string   `json:"section"`
	Topic           string   `json:"topic,omitempty"`
	Keywords        []string `json:"keywords"`
	RequiredMention string   `json:"required_mention,omitempty"`
	Media           string   `json:"media,omitempty"`
	Priority        *int     `json:"priority,omitempty"`
	OfferingGated   bool     `json:"offering_gated,omitempty"`
}

var (
	compileOnce        sync.Once
	articleSchema      *jsonschema.Schema
	rulesImportSchema  *jsonschema.Schema
	compiledSchemasErr error
)

// ValidateArticlePayload checks an ingest payload against the article schema
// plus semantic rules the schema cannot express.
func ValidateArticlePayload(payload json.RawMessage) (*ArticlePayload, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, _, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item ArticlePayload
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateArticleSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

// ValidateRulesImport checks a rules import payload against its schema.
func ValidateRulesImport(payload json.RawMessage) (*RulesImport, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	_, schema, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var imp RulesImport
	if err := json.Unmarshal(normalized, &imp); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if strings.TrimSpace(imp.Client) == "" {
		return nil, fmt.Errorf("client must not be empty")
	}
	for i, rule := range imp.Rules {
		if strings.TrimSpace(rule.Section) == "" {
			return nil, fmt.Errorf("rules[%d].section must not be empty", i)
		}
	}

	return &imp, nil
}

func loadSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		resources := []struct {
			name string
			data string
		}{
			{name: "article.schema.json", data: articleSchemaJSON},
			{name: "rules_import.schema.json", data: rulesImportSchemaJSON},
		}
		for _, res := range resources {
			if err := compiler.AddResource(res.name, strings.NewReader(res.data)); err != nil {
				compiledSchemasErr = fmt.Errorf("add schema resource %s: %w", res.name, err)
				return
			}
		}

		article, err := compiler.Compile("article.schema.json")
		if err != nil {
			compiledSchemasErr = fmt.Errorf("compile article schema: %w", err)
			return
		}
		rulesImport, err := compiler.Compile("rules_import.schema.json")
		if err != nil {
			compiledSchemasErr = fmt.Errorf("compile rules import schema: %w", err)
			return
		}

		articleSchema = article
		rulesImportSchema = rulesImport
	})

	if compiledSchemasErr != nil {
		return nil, nil, compiledSchemasErr
	}
	if articleSchema == nil || rulesImportSchema == nil {
		return nil, nil, fmt.Errorf("schemas not initialized")
	}
	return articleSchema, rulesImportSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateArticleSemantics(item *ArticlePayload) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}

	trimmedURL := strings.TrimSpace(item.URL)
	if trimmedURL == "" {
		return fmt.Errorf("url must not be empty")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return fmt.Errorf("url is not a valid URI: %w", err)
	}

	if item.PublishedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err != nil {
			return fmt.Errorf("published_at must be RFC3339: %w", err)
		}
	}

	return nil
}
