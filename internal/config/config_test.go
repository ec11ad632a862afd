package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Environment:              "local",
		LogLevel:                 "info",
		DatabaseURL:              "postgres://localhost/recorte",
		DBMinConns:               1,
		DBMaxConns:               4,
		TitleSimilarityThreshold: 0.85,
		NewsletterSections:       "Indicadores Económicos,ACAFI,Temas Industria",
		MaxArticleAgeDays:        2,
		DigestMaxPerSection:      10,
		DaemonHourUTC:            11,
		DefaultAdminUser:         "admin",
		SessionTTLHours:          168,
		SessionCookieName:        "recorte_session",
	}
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "  " }, want: "DATABASE_URL"},
		{name: "min conns above max", mutate: func(c *Config) { c.DBMinConns = 9 }, want: "RC_DB_MIN_CONNS"},
		{name: "threshold above one", mutate: func(c *Config) { c.TitleSimilarityThreshold = 1.5 }, want: "TITLE_SIMILARITY_THRESHOLD"},
		{name: "empty sections", mutate: func(c *Config) { c.NewsletterSections = " , ," }, want: "NEWSLETTER_SECTIONS"},
		{name: "zero article age", mutate: func(c *Config) { c.MaxArticleAgeDays = 0 }, want: "MAX_ARTICLE_AGE_DAYS"},
		{name: "daemon hour out of range", mutate: func(c *Config) { c.DaemonHourUTC = 24 }, want: "DAEMON_HOUR_UTC"},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTLHours = 0 }, want: "SESSION_TTL_HOURS"},
		{name: "blank cookie name", mutate: func(c *Config) { c.SessionCookieName = " " }, want: "SESSION_COOKIE_NAME"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestSectionList_TrimsAndDedups(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.NewsletterSections = " ACAFI , Temas Industria ,ACAFI,, "

	got := cfg.SectionList()
	if len(got) != 2 || got[0] != "ACAFI" || got[1] != "Temas Industria" {
		t.Fatalf("unexpected section list: %#v", got)
	}
}

func TestSourcePriorityMap_SkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SourcePriorities = "DF.cl:10, emol.com:7 ,latercera.com,bad:entry:,:3,fundssociety.com:abc"

	got := cfg.SourcePriorityMap()
	if len(got) != 2 {
		t.Fatalf("expected only well-formed entries, got %#v", got)
	}
	if got["df.cl"] != 10 {
		t.Fatalf("expected lowercased key with weight 10, got %#v", got)
	}
	if got["emol.com"] != 7 {
		t.Fatalf("expected emol.com weight 7, got %#v", got)
	}
}
