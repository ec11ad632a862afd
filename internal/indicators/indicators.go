// Package indicators captures the daily Chilean economic indicators shown in
// the digest header: UF, Dólar Observado, Euro and UTM.
package indicators

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/globaltime"
)

// DefaultPageURL is the central-bank daily indicators page.
const DefaultPageURL = "https://si3.bcentral.cl/indicadoressiete/secure/indicadoresdiarios.aspx"

const fetchTimeout = 15 * time.Second

// tracked maps an indicator code to the label fragments that identify its
// row on the page, checked in order.
var tracked = []struct {
	Code   string
	Name   string
	Labels []string
}{
	{Code: "uf", Name: "UF", Labels: []string{"unidad de fomento", "uf"}},
	{Code: "dolar", Name: "Dólar Observado", Labels: []string{"dólar observado", "dolar observado"}},
	{Code: "euro", Name: "Euro", Labels: []string{"euro"}},
	{Code: "utm", Name: "UTM", Labels: []string{"unidad tributaria mensual", "utm"}},
}

// Service fetches and stores indicator snapshots.
type Service struct {
	pool    *db.Pool
	client  *http.Client
	logger  zerolog.Logger
	pageURL string
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:    pool,
		client:  &http.Client{Timeout: fetchTimeout},
		logger:  logger.With().Str("component", "indicators").Logger(),
		pageURL: DefaultPageURL,
	}
}

// WithPageURL overrides the scraped page, used by tests.
func (s *Service) WithPageURL(pageURL string) *Service {
	s.pageURL = pageURL
	return s
}

// Fetch scrapes the indicators page. Missing indicators are reported as
// absent, not as an error; only a full page failure errors.
func (s *Service) Fetch(ctx context.Context) ([]db.IndicatorSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build indicators request: %w", err)
	}
	req.Header.Set("User-Agent", "recorte/1.0 (+https://horse.fit/recorte)")
	req.Header.Set("Accept-Language", "es-CL,es;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch indicators page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch indicators page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse indicators page: %w", err)
	}

	return ParseDocument(doc, globaltime.UTC()), nil
}

// ParseDocument extracts the tracked indicators from a parsed page. Rows are
// label/value pairs in page tables; labels match case- and accent-loosely.
func ParseDocument(doc *goquery.Document, capturedOn time.Time) []db.IndicatorSnapshot {
	values := make(map[string]string, len(tracked))

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		for _, ind := range tracked {
			if _, done := values[ind.Code]; done {
				continue
			}
			for _, fragment := range ind.Labels {
				if label == fragment || strings.Contains(label, fragment) {
					values[ind.Code] = value
					break
				}
			}
		}
	})

	snapshots := make([]db.IndicatorSnapshot, 0, len(values))
	for _, ind := range tracked {
		value, ok := values[ind.Code]
		if !ok {
			continue
		}
		snapshots = append(snapshots, db.IndicatorSnapshot{
			Code:       ind.Code,
			Name:       ind.Name,
			Value:      value,
			CapturedOn: capturedOn,
		})
	}
	return snapshots
}

// Capture fetches today's indicators and stores them. Partial pages store
// what was found; a fetch failure returns an error without touching storage.
func (s *Service) Capture(ctx context.Context, day time.Time) ([]db.IndicatorSnapshot, error) {
	snapshots, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	for i := range snapshots {
		snapshots[i].CapturedOn = day
		if err := s.pool.UpsertIndicator(ctx, snapshots[i]); err != nil {
			return snapshots, err
		}
	}

	s.logger.Info().Int("indicators", len(snapshots)).Str("day", day.Format("2006-01-02")).Msg("indicators captured")
	return snapshots, nil
}

// RenderLines formats snapshots for the digest header. An empty slice
// renders a single unavailable line so the section never disappears.
func RenderLines(snapshots []db.IndicatorSnapshot) []string {
	if len(snapshots) == 0 {
		return []string{"Indicadores no disponibles"}
	}
	lines := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		lines = append(lines, fmt.Sprintf("%s: %s", snap.Name, snap.Value))
	}
	return lines
}
