package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/config"
)

func TestNewServer_DefaultsSessionOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		SessionCookieName:   "recorte_session",
		SessionCookieSecure: true,
		SessionTTLHours:     24,
	}

	server := NewServer(nil, cfg, zerolog.Nop(), Options{})
	if server.opts.SessionCookie != "recorte_session" {
		t.Fatalf("unexpected cookie name: %q", server.opts.SessionCookie)
	}
	if !server.opts.SessionSecure {
		t.Fatalf("expected secure cookie from config")
	}
	if server.opts.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected session TTL: %v", server.opts.SessionTTL)
	}
	if server.opts.Port != 8090 {
		t.Fatalf("unexpected default port: %d", server.opts.Port)
	}
}

func TestDecodeJSONBody_RejectsUnknownFieldsAndTrailingContent(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	var out payload
	_, c, _ := newJSONContext(http.MethodPost, "/", `{"name":"ok"}`)
	if err := decodeJSONBody(c, &out); err != nil {
		t.Fatalf("decodeJSONBody returned error: %v", err)
	}
	if out.Name != "ok" {
		t.Fatalf("unexpected decoded value: %q", out.Name)
	}

	_, c, _ = newJSONContext(http.MethodPost, "/", `{"name":"ok","extra":1}`)
	if err := decodeJSONBody(c, &payload{}); err == nil {
		t.Fatalf("expected error for unknown field")
	}

	_, c, _ = newJSONContext(http.MethodPost, "/", `{"name":"ok"}{"name":"again"}`)
	if err := decodeJSONBody(c, &payload{}); err == nil {
		t.Fatalf("expected error for trailing JSON document")
	}
}

func TestFail_ClampsNon4xxStatuses(t *testing.T) {
	t.Parallel()

	_, c, rec := newJSONContext(http.MethodGet, "/", "")
	if err := fail(c, 302, "nope", nil); err != nil {
		t.Fatalf("fail returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected non-4xx status clamped to 400, got %d", rec.Code)
	}

	var body jsendFail
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "fail" || body.Message != "nope" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestParseDateParam(t *testing.T) {
	t.Parallel()

	day, err := parseDateParam("2026-08-21")
	if err != nil {
		t.Fatalf("parseDateParam returned error: %v", err)
	}
	if !day.Equal(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day: %v", day)
	}

	today, err := parseDateParam("  ")
	if err != nil {
		t.Fatalf("parseDateParam returned error for empty value: %v", err)
	}
	if today.Hour() != 0 || today.Location() != time.UTC {
		t.Fatalf("expected UTC midnight for empty value, got %v", today)
	}

	if _, err := parseDateParam("21/08/2026"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 50, 1, 200); err != nil || got != 50 {
		t.Fatalf("unexpected default: %d, %v", got, err)
	}
	if got, err := parsePositiveInt(" 25 ", 50, 1, 200); err != nil || got != 25 {
		t.Fatalf("unexpected parsed value: %d, %v", got, err)
	}
	if _, err := parsePositiveInt("0", 50, 1, 200); err == nil {
		t.Fatalf("expected error below minimum")
	}
	if _, err := parsePositiveInt("500", 50, 1, 200); err == nil {
		t.Fatalf("expected error above maximum")
	}
	if _, err := parsePositiveInt("abc", 50, 1, 200); err == nil {
		t.Fatalf("expected error for non-integer")
	}
}

func TestIsUUID(t *testing.T) {
	t.Parallel()

	if !isUUID("11111111-1111-1111-1111-111111111111") {
		t.Fatalf("expected canonical UUID to pass")
	}
	for _, bad := range []string{
		"",
		"not-a-uuid",
		"11111111111111111111111111111111",
		"11111111-1111-1111-1111-11111111111g",
		"11111111-1111-1111-1111-1111111111112",
	} {
		if isUUID(bad) {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
