package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"RC_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"RC_DB_MAX_CONNS" default:"8"`

	// Dedup and classification policy. Tracking params are removed from URLs
	// during canonicalization in addition to the always-on utm_* prefix rule.
	TitleSimilarityThreshold float64 `envconfig:"TITLE_SIMILARITY_THRESHOLD" default:"0.85"`
	TrackingParams           string  `envconfig:"TRACKING_PARAMS" default:"fbclid,gclid,mc_cid,mc_eid,ref,ref_src"`
	NewsletterSections       string  `envconfig:"NEWSLETTER_SECTIONS" default:"Indicadores Económicos,ACAFI,Temas Industria,Noticias de Interés,Noticias de Socios"`
	OfferingTerms            string  `envconfig:"OFFERING_TERMS" default:"lanza nuevo fondo,nuevo fondo de inversión,levanta capital,levantamiento de capital,nuevo vehículo de inversión,lanzamiento de fondo"`

	// Fetch/ingest gates.
	MinArticleLength  int    `envconfig:"MIN_ARTICLE_LENGTH" default:"100"`
	MaxArticleAgeDays int    `envconfig:"MAX_ARTICLE_AGE_DAYS" default:"2"`
	KeepLanguages     string `envconfig:"KEEP_LANGUAGES" default:"es"`
	SourcesFile       string `envconfig:"SOURCES_FILE" default:"sources.yaml"`

	// Digest composition. Source priorities order entries inside a section;
	// unlisted sources default to 1. Presentation only.
	DigestMaxPerSection int    `envconfig:"DIGEST_MAX_PER_SECTION" default:"10"`
	SourcePriorities    string `envconfig:"SOURCE_PRIORITIES" default:"df.cl:10,elmercurio.com:9,latercera.com:8,emol.com:7,fundssociety.com:6"`

	SummaryProvider string `envconfig:"SUMMARY_PROVIDER" default:"local"`
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel     string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	DaemonHourUTC int `envconfig:"DAEMON_HOUR_UTC" default:"11"`

	DefaultAdminUser               string `envconfig:"DEFAULT_ADMIN_USER" default:"admin"`
	DefaultAdminPassword           string `envconfig:"DEFAULT_ADMIN_PASSWORD" default:""`
	DefaultAdminMustChangePassword bool   `envconfig:"DEFAULT_ADMIN_MUST_CHANGE_PASSWORD" default:"false"`
	SessionTTLHours                int    `envconfig:"SESSION_TTL_HOURS" default:"168"`
	SessionCookieName              string `envconfig:"SESSION_COOKIE_NAME" default:"recorte_session"`
	SessionCookieSecure            bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
	CORSAllowedOrigins             string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("RC_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("RC_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("RC_DB_MIN_CONNS (%d) cannot exceed RC_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.TitleSimilarityThreshold <= 0 || c.TitleSimilarityThreshold > 1 {
		return fmt.Errorf("TITLE_SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.TitleSimilarityThreshold)
	}
	if len(c.SectionList()) == 0 {
		return fmt.Errorf("NEWSLETTER_SECTIONS is required")
	}
	if c.MinArticleLength < 0 {
		return fmt.Errorf("MIN_ARTICLE_LENGTH must be >= 0")
	}
	if c.MaxArticleAgeDays < 1 {
		return fmt.Errorf("MAX_ARTICLE_AGE_DAYS must be >= 1")
	}
	if c.DigestMaxPerSection < 1 {
		return fmt.Errorf("DIGEST_MAX_PER_SECTION must be >= 1")
	}
	if c.DaemonHourUTC < 0 || c.DaemonHourUTC > 23 {
		return fmt.Errorf("DAEMON_HOUR_UTC must be in [0, 23], got %d", c.DaemonHourUTC)
	}
	if strings.TrimSpace(c.DefaultAdminUser) == "" {
		return fmt.Errorf("DEFAULT_ADMIN_USER is required")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	return nil
}

func (c *Config) SectionList() []string {
	return splitList(c.NewsletterSections)
}

func (c *Config) TrackingParamList() []string {
	return splitList(c.TrackingParams)
}

func (c *Config) OfferingTermList() []string {
	return splitList(c.OfferingTerms)
}

func (c *Config) KeepLanguageList() []string {
	return splitList(c.KeepLanguages)
}

// SourcePriorityMap parses SOURCE_PRIORITIES ("source:weight,...") into a
// lookup map. Malformed entries are skipped.
func (c *Config) SourcePriorityMap() map[string]int {
	priorities := make(map[string]int)
	for _, entry := range splitList(c.SourcePriorities) {
		source, weight, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		source = strings.ToLower(strings.TrimSpace(source))
		parsed, err := strconv.Atoi(strings.TrimSpace(weight))
		if err != nil || source == "" {
			continue
		}
		priorities[source] = parsed
	}
	return priorities
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
