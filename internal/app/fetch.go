package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/config"
	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/logging"
	"horse.fit/recorte/internal/pipeline"
	"horse.fit/recorte/internal/reader"
	"horse.fit/recorte/internal/sources"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	sourceFilter := fs.String("source", "", "Fetch only this source id")
	skipBodies := fs.Bool("skip-bodies", false, "Store discovered items without extracting article text")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "fetch does not accept positional arguments")
		return 2
	}

	runDate, err := parseUTCDate(*date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --date: %v\n", err)
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	registry, err := sources.LoadRegistryFile(cfg.SourcesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load sources registry: %v\n", err)
		return 1
	}

	if filter := normalizeSourceFlag(*sourceFilter); filter != "" {
		src, ok := registry.Lookup(filter)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown source id: %s\n", filter)
			return 2
		}
		registry = sources.NewRegistry([]sources.Source{src})
	}

	summary, err := fetchSources(ctx, pool, cfg, logger, registry, runDate, *skipBodies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		return 1
	}

	fmt.Printf("run_id=%d fetched=%d inserted=%d duplicates=%d dropped=%d source_errors=%d\n",
		summary.RunID, summary.Fetched, summary.Inserted, summary.Duplicates, summary.Dropped, summary.SourceErrors)
	return 0
}

type fetchSummary struct {
	RunID        int64 `json:"run_id"`
	Fetched      int   `json:"fetched"`
	Inserted     int   `json:"inserted"`
	Duplicates   int   `json:"duplicates"`
	Dropped      int   `json:"dropped"`
	SourceErrors int   `json:"source_errors"`
}

// fetchSources discovers items at every enabled source, extracts article
// text, and stores new articles. Per-source failures are logged and counted
// but never abort the run.
func fetchSources(ctx context.Context, pool *db.Pool, cfg *config.Config, logger zerolog.Logger, registry *sources.Registry, runDate time.Time, skipBodies bool) (*fetchSummary, error) {
	lookback := sources.LookbackDays(runDate, cfg.MaxArticleAgeDays)
	cutoff, _ := runWindow(runDate, lookback)

	runID, err := pool.CreateIngestRun(ctx, "fetch", nil)
	if err != nil {
		return nil, fmt.Errorf("create ingest run: %w", err)
	}

	fetcher := sources.NewFetcher(logger, 0)
	result := fetcher.FetchAll(ctx, registry, cutoff)

	opts := pipelineOptions(cfg)
	summary := &fetchSummary{RunID: runID, Fetched: len(result.Items), SourceErrors: len(result.Errors)}

	for _, item := range result.Items {
		if ctx.Err() != nil {
			break
		}

		body := ""
		if !skipBodies {
			text, extractErr := reader.ExtractTextWithOptions(ctx, item.URL, item.Title, reader.FetchOptions{
				MinArticleChars: cfg.MinArticleLength,
			})
			if extractErr != nil {
				if errors.Is(extractErr, reader.ErrTooShort) {
					logger.Debug().Str("url", item.URL).Msg("dropped thin extraction")
					summary.Dropped++
					continue
				}
				logger.Warn().Err(extractErr).Str("url", item.URL).Msg("article extraction failed, keeping title only")
			} else {
				body = text
			}
		}

		record := pipeline.BuildArticleRecord(runID, item.SourceID, item.URL, item.Title, body, item.PublishedAt, opts)
		_, inserted, err := pool.InsertArticle(ctx, record)
		if err != nil {
			logger.Error().Err(err).Str("url", item.URL).Msg("article insert failed")
			summary.Dropped++
			continue
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Duplicates++
		}
	}

	status := "completed"
	var errMessage *string
	if len(result.Errors) == len(registry.Enabled()) && len(registry.Enabled()) > 0 {
		status = "failed"
		msg := "all sources failed"
		errMessage = &msg
	}
	if err := pool.FinishIngestRun(ctx, runID, status, summary.Fetched, summary.Inserted, summary.Dropped, errMessage); err != nil {
		return nil, fmt.Errorf("finish ingest run: %w", err)
	}

	return summary, nil
}

