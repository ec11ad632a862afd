package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/config"
	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/digest"
	"horse.fit/recorte/internal/globaltime"
	"horse.fit/recorte/internal/indicators"
	"horse.fit/recorte/internal/logging"
	"horse.fit/recorte/internal/pipeline"
	"horse.fit/recorte/internal/rules"
	"horse.fit/recorte/internal/sources"
	"horse.fit/recorte/internal/summarize"
)

// runDaemon runs the full pipeline once per weekday at the configured UTC
// hour: fetch, dedup, classify, capture indicators, and compose a digest per
// enabled client. Weekends are skipped; Monday runs cover the weekend via
// the widened lookback window.
func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	runNow := fs.Bool("run-now", false, "Run one cycle immediately before scheduling")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon does not accept positional arguments")
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := db.NewPool(dbCtx, cfg)
	dbCancel()
	if err != nil {
		logger.Error().Err(err).Msg("daemon failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	logger.Info().Int("hour_utc", cfg.DaemonHourUTC).Msg("daemon started")

	if *runNow {
		if err := runDailyCycle(ctx, pool, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("immediate cycle failed")
		}
	}

	for {
		next := nextWeekdayRun(globaltime.UTC(), cfg.DaemonHourUTC)
		logger.Info().Time("next_run", next).Msg("sleeping until next run")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("daemon stopped")
			return 0
		case <-timer.C:
		}

		if err := runDailyCycle(ctx, pool, cfg, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("daemon stopped")
				return 0
			}
			logger.Error().Err(err).Msg("daily cycle failed")
		}
	}
}

// nextWeekdayRun finds the next Monday-to-Friday occurrence of hourUTC
// strictly after now.
func nextWeekdayRun(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = candidate.Add(24 * time.Hour)
	}
	for candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}

// runDailyCycle is one end-to-end pipeline pass for today's run date. Stage
// failures are logged and later stages still run with whatever data exists.
func runDailyCycle(ctx context.Context, pool *db.Pool, cfg *config.Config, logger zerolog.Logger) error {
	runDate := defaultUTCDay()
	cycleLogger := logger.With().Str("run_date", runDate.Format("2006-01-02")).Logger()
	cycleLogger.Info().Msg("daily cycle started")

	registry, err := sources.LoadRegistryFile(cfg.SourcesFile)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("source registry load failed, skipping fetch")
	} else {
		summary, err := fetchSources(ctx, pool, cfg, cycleLogger, registry, runDate, false)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cycleLogger.Error().Err(err).Msg("fetch stage failed")
		} else {
			cycleLogger.Info().
				Int("fetched", summary.Fetched).
				Int("inserted", summary.Inserted).
				Int("duplicates", summary.Duplicates).
				Msg("fetch stage completed")
		}
	}

	ruleSet, err := rules.LoadFromDB(ctx, pool, "", cfg.SectionList())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cycleLogger.Error().Err(err).Msg("rule load failed")
		ruleSet = pipeline.RuleSet{}
	}

	svc := pipeline.NewService(pool, cycleLogger, pipelineOptions(cfg))
	lookback := sources.LookbackDays(runDate, cfg.MaxArticleAgeDays)
	from, to := runWindow(runDate, lookback)

	result, err := svc.Run(ctx, runDate, from, to, cfg.KeepLanguageList(), ruleSet)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cycleLogger.Error().Err(err).Msg("process stage failed")
	} else {
		cycleLogger.Info().
			Int("clips", result.Dedup.Clips).
			Int("assignments", result.Classify.Assignments).
			Msg("process stage completed")
	}

	indicatorSvc := indicators.NewService(pool, cycleLogger)
	if _, err := indicatorSvc.Capture(ctx, runDate); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cycleLogger.Warn().Err(err).Msg("indicator capture failed")
	}

	clients, err := pool.ListClients(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cycleLogger.Error().Err(err).Msg("client list failed, skipping digests")
		return nil
	}

	summarizer, err := summarize.NewSummarizer(ctx, cfg, cycleLogger)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("summarizer init failed, skipping digests")
		return nil
	}
	defer summarizer.Close()

	composer := digest.NewComposer(pool, summarizer, cycleLogger, digest.Options{
		SectionOrder:     cfg.SectionList(),
		MaxPerSection:    cfg.DigestMaxPerSection,
		SourcePriorities: cfg.SourcePriorityMap(),
	})

	for _, client := range clients {
		d, err := composer.Compose(ctx, client.Slug, runDate)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cycleLogger.Error().Err(err).Str("client", client.Slug).Msg("digest composition failed")
			continue
		}
		if _, err := composer.Persist(ctx, d); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cycleLogger.Error().Err(err).Str("client", client.Slug).Msg("digest persist failed")
		}
	}

	cycleLogger.Info().Msg("daily cycle finished")
	return nil
}
