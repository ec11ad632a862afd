package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/digest"
	"horse.fit/recorte/internal/pipeline"
	"horse.fit/recorte/internal/rules"
	"horse.fit/recorte/internal/summarize"
	payloadschema "horse.fit/recorte/schema"
)

const maxIngestBodyBytes = 1 << 20

func (s *Server) handleStats(c echo.Context) error {
	day, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return failValidation(c, map[string]string{"date": err.Error()})
	}

	stats, err := s.pool.QueryPipelineStats(c.Request().Context(), day, day.Add(24*time.Hour))
	if err != nil {
		s.logger.Error().Err(err).Msg("query pipeline stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleArticles(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	opts := db.ArticleListOptions{
		SourceID: strings.ToLower(strings.TrimSpace(c.QueryParam("source"))),
		Language: strings.ToLower(strings.TrimSpace(c.QueryParam("language"))),
		Limit:    limit,
	}

	if raw := strings.TrimSpace(c.QueryParam("from")); raw != "" {
		from, parseErr := parseDateParam(raw)
		if parseErr != nil {
			return failValidation(c, map[string]string{"from": parseErr.Error()})
		}
		opts.From = from
	}
	if raw := strings.TrimSpace(c.QueryParam("to")); raw != "" {
		to, parseErr := parseDateParam(raw)
		if parseErr != nil {
			return failValidation(c, map[string]string{"to": parseErr.Error()})
		}
		opts.To = to.Add(24 * time.Hour)
	}
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
		return failValidation(c, map[string]string{"to": "must not be before from"})
	}

	articles, err := s.pool.ListArticles(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("list articles failed")
		return internalError(c, "Failed to load articles")
	}
	return success(c, map[string]any{
		"articles": articles,
		"count":    len(articles),
	})
}

func (s *Server) handleIngestArticle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxIngestBodyBytes+1))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not read request body"})
	}
	if len(body) > maxIngestBodyBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "Payload too large", nil)
	}

	payload, err := payloadschema.ValidateArticlePayload(json.RawMessage(body))
	if err != nil {
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	var publishedAt *time.Time
	if payload.PublishedAt != nil {
		parsed, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(*payload.PublishedAt))
		if parseErr != nil {
			return failValidation(c, map[string]string{"published_at": "must be RFC 3339"})
		}
		utc := parsed.UTC()
		publishedAt = &utc
	}

	ctx := c.Request().Context()
	runID, err := s.pool.CreateIngestRun(ctx, "api", nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("create ingest run failed")
		return internalError(c, "Failed to ingest article")
	}

	articleBody := ""
	if payload.BodyText != nil {
		articleBody = strings.TrimSpace(*payload.BodyText)
	}

	record := pipeline.BuildArticleRecord(
		runID,
		strings.TrimSpace(payload.Source),
		strings.TrimSpace(payload.URL),
		strings.TrimSpace(payload.Title),
		articleBody,
		publishedAt,
		pipeline.OptionsFromConfig(s.cfg),
	)

	articleID, inserted, err := s.pool.InsertArticle(ctx, record)
	if err != nil {
		s.finishIngestRun(ctx, runID, "failed", 1, 0, 0, err)
		s.logger.Error().Err(err).Str("url", record.URL).Msg("article insert failed")
		return internalError(c, "Failed to ingest article")
	}

	insertedCount := 0
	if inserted {
		insertedCount = 1
	}
	s.finishIngestRun(ctx, runID, "completed", 1, insertedCount, 0, nil)

	if !inserted {
		return success(c, map[string]any{
			"run_id":    runID,
			"duplicate": true,
		})
	}
	return success(c, map[string]any{
		"run_id":     runID,
		"article_id": articleID,
		"inserted":   true,
	})
}

func (s *Server) finishIngestRun(ctx context.Context, runID int64, status string, fetched, inserted, dropped int, cause error) {
	var errMessage *string
	if cause != nil {
		msg := cause.Error()
		errMessage = &msg
	}
	if err := s.pool.FinishIngestRun(ctx, runID, status, fetched, inserted, dropped, errMessage); err != nil {
		s.logger.Error().Err(err).Int64("run_id", runID).Msg("finish ingest run failed")
	}
}

func (s *Server) handleClips(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	opts := db.ClipListOptions{
		Client:   strings.ToLower(strings.TrimSpace(c.QueryParam("client"))),
		Section:  strings.TrimSpace(c.QueryParam("section")),
		SourceID: strings.ToLower(strings.TrimSpace(c.QueryParam("source"))),
		Limit:    limit,
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		day, parseErr := parseDateParam(raw)
		if parseErr != nil {
			return failValidation(c, map[string]string{"date": parseErr.Error()})
		}
		opts.RunDate = day
	}

	clips, err := s.pool.ListClips(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("list clips failed")
		return internalError(c, "Failed to load clips")
	}
	return success(c, map[string]any{
		"clips": clips,
		"count": len(clips),
	})
}

func (s *Server) handleClipDetail(c echo.Context) error {
	clipUUID := strings.TrimSpace(c.Param("clip_uuid"))
	if !isUUID(clipUUID) {
		return failValidation(c, map[string]string{"clip_uuid": "must be a UUID"})
	}

	detail, err := s.pool.GetClipByUUID(c.Request().Context(), clipUUID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Clip not found")
		}
		s.logger.Error().Err(err).Str("clip_uuid", clipUUID).Msg("load clip failed")
		return internalError(c, "Failed to load clip")
	}
	return success(c, detail)
}

func (s *Server) handleRules(c echo.Context) error {
	client := strings.ToLower(strings.TrimSpace(c.QueryParam("client")))

	stored, err := s.pool.ListRules(c.Request().Context(), client)
	if err != nil {
		s.logger.Error().Err(err).Msg("list rules failed")
		return internalError(c, "Failed to load rules")
	}
	return success(c, map[string]any{
		"rules": stored,
		"count": len(stored),
	})
}

func (s *Server) handleImportRules(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxIngestBodyBytes+1))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not read request body"})
	}
	if len(body) > maxIngestBodyBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "Payload too large", nil)
	}

	payload, err := payloadschema.ValidateRulesImport(json.RawMessage(body))
	if err != nil {
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	sectionOrder := s.cfg.SectionList()
	client := strings.ToLower(strings.TrimSpace(payload.Client))

	loaded := make([]pipeline.Rule, 0, len(payload.Rules))
	for _, item := range payload.Rules {
		rule := pipeline.Rule{
			Client:          client,
			Section:         strings.TrimSpace(item.Section),
			Topic:           strings.TrimSpace(item.Topic),
			Keywords:        item.Keywords,
			RequiredMention: strings.TrimSpace(item.RequiredMention),
			SourceWhitelist: rules.SplitMedia(item.Media),
			OfferingGated:   item.OfferingGated,
		}
		if rule.Topic == "" {
			rule.Topic = rule.Section
		}
		if item.Priority != nil {
			rule.Priority = *item.Priority
		} else {
			rule.Priority = rules.DefaultPriority(rule.Section, sectionOrder)
		}
		loaded = append(loaded, rule)
	}

	imported, err := rules.ImportToDB(c.Request().Context(), s.pool, client, pipeline.NewRuleSet(loaded...))
	if err != nil {
		s.logger.Error().Err(err).Str("client", client).Msg("rules import failed")
		return internalError(c, "Failed to import rules")
	}

	s.logger.Info().Str("client", client).Int("rules", imported).Msg("rules imported")
	return success(c, map[string]any{
		"client":   client,
		"imported": imported,
	})
}

func (s *Server) handleClients(c echo.Context) error {
	clients, err := s.pool.ListClients(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list clients failed")
		return internalError(c, "Failed to load clients")
	}
	return success(c, map[string]any{
		"clients": clients,
		"count":   len(clients),
	})
}

type pipelineRunRequest struct {
	Date         string `json:"date,omitempty"`
	LookbackDays int    `json:"lookback_days,omitempty"`
}

func (s *Server) handlePipelineRun(c echo.Context) error {
	var req pipelineRunRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	runDate, err := parseDateParam(req.Date)
	if err != nil {
		return failValidation(c, map[string]string{"date": err.Error()})
	}

	lookback := req.LookbackDays
	if lookback < 0 || lookback > 14 {
		return failValidation(c, map[string]string{"lookback_days": "must be between 0 and 14"})
	}
	if lookback == 0 {
		lookback = s.cfg.MaxArticleAgeDays
	}

	from := runDate.Add(24 * time.Hour).Add(-time.Duration(lookback) * 24 * time.Hour)
	to := runDate.Add(24 * time.Hour)

	ctx := c.Request().Context()
	ruleSet, err := rules.LoadFromDB(ctx, s.pool, "", s.cfg.SectionList())
	if err != nil {
		s.logger.Error().Err(err).Msg("load rules failed")
		return internalError(c, "Failed to run pipeline")
	}

	svc := pipeline.NewService(s.pool, s.logger, pipeline.OptionsFromConfig(s.cfg))
	result, err := svc.Run(ctx, runDate, from, to, s.cfg.KeepLanguageList(), ruleSet)
	if err != nil {
		s.logger.Error().Err(err).Msg("pipeline run failed")
		return internalError(c, "Failed to run pipeline")
	}
	return success(c, result)
}

func (s *Server) handleDigestPreview(c echo.Context) error {
	client := strings.ToLower(strings.TrimSpace(c.QueryParam("client")))
	if client == "" {
		return failValidation(c, map[string]string{"client": "is required"})
	}

	runDate, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return failValidation(c, map[string]string{"date": err.Error()})
	}

	ctx := c.Request().Context()
	summarizer, err := summarize.NewSummarizer(ctx, s.cfg, s.logger)
	if err != nil {
		s.logger.Error().Err(err).Msg("summarizer init failed")
		return internalError(c, "Failed to compose digest")
	}
	defer summarizer.Close()

	composer := digest.NewComposer(s.pool, summarizer, s.logger, digest.Options{
		SectionOrder:     s.cfg.SectionList(),
		MaxPerSection:    s.cfg.DigestMaxPerSection,
		SourcePriorities: s.cfg.SourcePriorityMap(),
	})

	composed, err := composer.Compose(ctx, client, runDate)
	if err != nil {
		s.logger.Error().Err(err).Str("client", client).Msg("digest compose failed")
		return internalError(c, "Failed to compose digest")
	}

	return success(c, map[string]any{
		"digest": composed,
		"text":   composed.RenderText(),
	})
}

func (s *Server) handleIndicators(c echo.Context) error {
	day, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return failValidation(c, map[string]string{"date": err.Error()})
	}

	snapshots, err := s.pool.ListIndicators(c.Request().Context(), day)
	if err != nil {
		s.logger.Error().Err(err).Msg("list indicators failed")
		return internalError(c, "Failed to load indicators")
	}
	return success(c, map[string]any{
		"indicators": snapshots,
		"count":      len(snapshots),
	})
}
