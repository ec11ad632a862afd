package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/language"
	"horse.fit/recorte/internal/logging"
	"horse.fit/recorte/internal/pipeline"
	payloadschema "horse.fit/recorte/schema"
)

// runIngest inserts article payloads supplied directly, bypassing source
// fetching. Used for manual additions and backfills.
func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	payloadFile := fs.String("payload-file", "", "Path to a payload JSON file (- for stdin)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "ingest does not accept positional arguments; use --payload-file")
		return 2
	}

	payloadJSON, err := readPayloadInput(*payloadFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	article, err := payloadschema.ValidateArticlePayload(payloadJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
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

	runID, err := pool.CreateIngestRun(ctx, "manual", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create ingest run: %v\n", err)
		return 1
	}

	var publishedAt *time.Time
	if article.PublishedAt != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*article.PublishedAt))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid payload.published_at: %v\n", err)
			return 2
		}
		utc := parsed.UTC()
		publishedAt = &utc
	}

	body := ""
	if article.BodyText != nil {
		body = strings.TrimSpace(*article.BodyText)
	}

	record := pipeline.BuildArticleRecord(runID, strings.TrimSpace(article.Source), strings.TrimSpace(article.URL), strings.TrimSpace(article.Title), body, publishedAt, pipelineOptions(cfg))
	if article.Language != nil {
		if code := language.NormalizeTag(*article.Language); code != "" {
			record.Language = code
		}
	}

	articleID, inserted, err := pool.InsertArticle(ctx, record)
	if err != nil {
		logger.Error().Err(err).Str("url", record.URL).Msg("article insert failed")
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	status := "completed"
	insertedCount := 0
	if inserted {
		insertedCount = 1
	}
	if err := pool.FinishIngestRun(ctx, runID, status, 1, insertedCount, 0, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to finish ingest run: %v\n", err)
		return 1
	}

	if inserted {
		fmt.Printf("run_id=%d inserted=true article_id=%d\n", runID, articleID)
	} else {
		fmt.Printf("run_id=%d inserted=false duplicate=true\n", runID)
	}
	return 0
}

func readPayloadInput(path string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("--payload-file is required (use - for stdin)")
	}

	var (
		data []byte
		err  error
	)
	if trimmed == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}
	return json.RawMessage(data), nil
}
