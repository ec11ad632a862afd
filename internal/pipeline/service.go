package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/globaltime"
)

// Service runs the dedup and classification stages against storage. The pure
// engine does the grouping; the service loads candidates, persists the
// results and keeps the audit trail.
type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

func NewService(pool *db.Pool, logger zerolog.Logger, opts Options) *Service {
	return &Service{
		pool:   pool,
		logger: logger.With().Str("component", "pipeline").Logger(),
		opts:   opts,
	}
}

// DedupResult summarizes one dedup pass.
type DedupResult struct {
	RunDate    time.Time `json:"run_date"`
	Candidates int       `json:"candidates"`
	Clips      int       `json:"clips"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
}

// ClassifyResult summarizes one classification pass.
type ClassifyResult struct {
	RunDate      time.Time      `json:"run_date"`
	Clips        int            `json:"clips"`
	Assignments  int            `json:"assignments"`
	Unclassified int            `json:"unclassified"`
	ByClient     map[string]int `json:"by_client"`
}

// RunResult summarizes a full dedup-then-classify run.
type RunResult struct {
	Dedup    DedupResult    `json:"dedup"`
	Classify ClassifyResult `json:"classify"`
}

// DedupWindow groups the articles fetched in [from, to) that are not yet
// members of any clip, and persists one clip per group under runDate. Each
// clip is committed in its own transaction so a failure loses at most one
// group.
func (s *Service) DedupWindow(ctx context.Context, runDate, from, to time.Time, keepLanguages []string) (*DedupResult, error) {
	pending, err := s.pool.ListPendingArticles(ctx, from, to, keepLanguages)
	if err != nil {
		return nil, fmt.Errorf("load pending articles: %w", err)
	}

	result := &DedupResult{RunDate: runDate, Candidates: len(pending)}
	if len(pending) == 0 {
		s.logger.Info().Time("from", from).Time("to", to).Msg("no pending articles")
		return result, nil
	}

	articles := make([]Article, 0, len(pending))
	byID := make(map[int64]db.PendingArticle, len(pending))
	for _, p := range pending {
		articles = append(articles, Article{
			ID:          p.ArticleID,
			SourceID:    p.SourceID,
			URL:         p.URL,
			Title:       p.Title,
			Body:        p.Body,
			PublishedAt: p.PublishedAt,
		})
		byID[p.ArticleID] = p
	}

	groups, skipped := Deduplicate(articles, s.opts)

	for _, group := range groups {
		clipID, err := s.persistGroup(ctx, runDate, group, byID)
		if err != nil {
			return result, err
		}
		result.Clips++
		result.Duplicates += len(group.Members) - 1
		s.logger.Debug().
			Int64("clip_id", clipID).
			Int("members", len(group.Members)).
			Str("title", group.Representative.Title).
			Msg("clip created")
	}

	if len(skipped) > 0 {
		if err := s.persistSkipped(ctx, skipped); err != nil {
			return result, err
		}
		result.Skipped = len(skipped)
	}

	s.logger.Info().
		Int("candidates", result.Candidates).
		Int("clips", result.Clips).
		Int("duplicates", result.Duplicates).
		Int("skipped", result.Skipped).
		Msg("dedup pass complete")

	return result, nil
}

func (s *Service) persistGroup(ctx context.Context, runDate time.Time, group Group, byID map[int64]db.PendingArticle) (int64, error) {
	rep := group.Representative
	key := Normalize(rep, s.opts)

	firstSeen, lastSeen := seenBounds(group, byID)
	sourceSet := make(map[string]struct{}, len(group.Members))
	members := make([]db.ClipMember, 0, len(group.Members))
	for _, m := range group.Members {
		sourceSet[m.Article.SourceID] = struct{}{}
		score := m.MatchScore
		var scorePtr *float64
		if score > 0 {
			scorePtr = &score
		}
		members = append(members, db.ClipMember{
			ArticleID:  m.Article.ID,
			MatchType:  m.MatchType,
			MatchScore: scorePtr,
		})
	}

	var canonicalURL *string
	if key.CanonicalURL != "" {
		canonicalURL = &key.CanonicalURL
	}

	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin clip insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	clipID, err := db.InsertClip(ctx, tx, db.NewClip{
		RunDate:                 runDate,
		CanonicalTitle:          rep.Title,
		CanonicalURL:            canonicalURL,
		RepresentativeArticleID: rep.ID,
		MemberCount:             len(group.Members),
		SourceCount:             len(sourceSet),
		FirstSeenAt:             firstSeen,
		LastSeenAt:              lastSeen,
	}, members)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit clip insert: %w", err)
	}
	return clipID, nil
}

func (s *Service) persistSkipped(ctx context.Context, skipped []Article) error {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin skipped insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range skipped {
		if err := db.RecordSkippedArticle(ctx, tx, a.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit skipped insert: %w", err)
	}
	return nil
}

func seenBounds(group Group, byID map[int64]db.PendingArticle) (time.Time, time.Time) {
	var first, last time.Time
	for _, m := range group.Members {
		seen := m.Article.PublishedAt
		if seen == nil {
			if p, ok := byID[m.Article.ID]; ok {
				fetched := p.FetchedAt
				seen = &fetched
			}
		}
		if seen == nil {
			continue
		}
		if first.IsZero() || seen.Before(first) {
			first = *seen
		}
		if last.IsZero() || seen.After(last) {
			last = *seen
		}
	}
	if first.IsZero() {
		first = globaltime.UTC()
	}
	if last.IsZero() {
		last = first
	}
	return first.UTC(), last.UTC()
}

// ClassifyRun classifies the clips of one run date against every client in
// the rule set and persists the fired rules. Re-running is idempotent:
// already-recorded assignments are skipped.
func (s *Service) ClassifyRun(ctx context.Context, runDate time.Time, rules RuleSet) (*ClassifyResult, error) {
	runClips, err := s.pool.ListRunClips(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("load run clips: %w", err)
	}

	result := &ClassifyResult{
		RunDate:  runDate,
		Clips:    len(runClips),
		ByClient: make(map[string]int, len(rules)),
	}
	if len(runClips) == 0 {
		s.logger.Info().Str("run_date", runDate.Format("2006-01-02")).Msg("no clips to classify")
		return result, nil
	}

	reps := make([]Article, 0, len(runClips))
	for _, rc := range runClips {
		reps = append(reps, Article{
			ID:          rc.ClipID,
			SourceID:    rc.SourceID,
			URL:         rc.URL,
			Title:       rc.Title,
			Body:        rc.Body,
			PublishedAt: rc.PublishedAt,
		})
	}

	classifiedClips := make(map[int64]struct{}, len(reps))
	for client, clientRules := range rules {
		classified := Classify(reps, clientRules, s.opts)

		assignments := make([]db.NewAssignment, 0, len(classified))
		for _, ca := range classified {
			for _, a := range ca.Assignments {
				assignments = append(assignments, db.NewAssignment{
					ClipID:   ca.Article.ID,
					Client:   client,
					Section:  a.Section,
					Topic:    a.Topic,
					Matches:  a.Matches,
					Priority: a.Priority,
					RunDate:  runDate,
				})
			}
			if !ca.Unclassified() {
				classifiedClips[ca.Article.ID] = struct{}{}
			}
		}

		inserted, err := s.persistAssignments(ctx, assignments)
		if err != nil {
			return result, fmt.Errorf("persist assignments for %s: %w", client, err)
		}
		result.Assignments += inserted
		result.ByClient[client] = inserted

		s.logger.Info().
			Str("client", client).
			Int("clips", len(reps)).
			Int("assignments", inserted).
			Msg("classification pass complete")
	}

	result.Unclassified = len(reps) - len(classifiedClips)

	return result, nil
}

func (s *Service) persistAssignments(ctx context.Context, assignments []db.NewAssignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin assignment insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := db.InsertAssignments(ctx, tx, assignments)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit assignment insert: %w", err)
	}
	return inserted, nil
}

// Run performs a full dedup-then-classify pass for one run date over the
// given fetch window.
func (s *Service) Run(ctx context.Context, runDate, from, to time.Time, keepLanguages []string, rules RuleSet) (*RunResult, error) {
	dedup, err := s.DedupWindow(ctx, runDate, from, to, keepLanguages)
	if err != nil {
		return nil, err
	}

	classify, err := s.ClassifyRun(ctx, runDate, rules)
	if err != nil {
		return nil, err
	}

	return &RunResult{Dedup: *dedup, Classify: *classify}, nil
}
