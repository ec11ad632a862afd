package app

import (
	"testing"
	"time"
)

func TestParseUTCDateRange(t *testing.T) {
	t.Parallel()

	from, to, err := parseUTCDateRange("2026-08-20", "2026-08-21")
	if err != nil {
		t.Fatalf("parseUTCDateRange returned error: %v", err)
	}
	if !from.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from: %v", from)
	}
	if !to.Equal(time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected to to cover the full end day, got %v", to)
	}

	if _, _, err := parseUTCDateRange("2026-08-21", "2026-08-20"); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, _, err := parseUTCDateRange("", "2026-08-21"); err == nil {
		t.Fatalf("expected error for missing from date")
	}
	if _, _, err := parseUTCDateRange("20-08-2026", "2026-08-21"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestRunWindow(t *testing.T) {
	t.Parallel()

	runDate := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	start, end := runWindow(runDate, 2)

	if !end.Equal(time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected window ending at the end of the run date, got %v", end)
	}
	if !start.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected two-day window, got start %v", start)
	}

	start, _ = runWindow(runDate, 0)
	if !start.Equal(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected non-positive lookback clamped to one day, got %v", start)
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	if got, err := parseOutputFormat(" JSON ", outputFormatTable); err != nil || got != outputFormatJSON {
		t.Fatalf("unexpected result: %q, %v", got, err)
	}
	if got, err := parseOutputFormat("", outputFormatTable); err != nil || got != outputFormatTable {
		t.Fatalf("expected default format, got %q, %v", got, err)
	}
	if _, err := parseOutputFormat("xml", outputFormatTable); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  corto  ", 20); got != "corto" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := truncateForTable("una cadena bastante larga", 10); got != "una cad..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateForTable("título con acentos y más texto", 12); len([]rune(got)) != 12 {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func TestNextWeekdayRun(t *testing.T) {
	t.Parallel()

	// 2026-08-21 is a Friday.
	friday := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	next := nextWeekdayRun(friday, 11)
	if !next.Equal(time.Date(2026, 8, 21, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected same-day run before the hour, got %v", next)
	}

	afterHour := time.Date(2026, 8, 21, 11, 0, 0, 0, time.UTC)
	next = nextWeekdayRun(afterHour, 11)
	if !next.Equal(time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected weekend skipped to Monday, got %v", next)
	}

	saturday := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC)
	next = nextWeekdayRun(saturday, 11)
	if next.Weekday() != time.Monday {
		t.Fatalf("expected Saturday to schedule for Monday, got %v", next)
	}
}
