package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/digest"
	"horse.fit/recorte/internal/logging"
	"horse.fit/recorte/internal/summarize"
)

func runDigest(args []string) int {
	if len(args) > 0 {
		switch strings.ToLower(strings.TrimSpace(args[0])) {
		case "runs":
			return runDigestRuns(args[1:])
		case "compose":
			args = args[1:]
		}
	}
	return runDigestCompose(args)
}

// runDigestCompose builds the digest for one client and date and prints it.
// With --save the digest run and its entries are also persisted.
func runDigestCompose(args []string) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 3*time.Minute, "Command timeout")
	client := fs.String("client", "", "Client slug to compose for")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	format := fs.String("format", "text", "Output format: text or json")
	save := fs.Bool("save", false, "Persist the digest run and entries")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "digest does not accept positional arguments")
		return 2
	}

	clientSlug := strings.ToLower(strings.TrimSpace(*client))
	if clientSlug == "" {
		fmt.Fprintln(os.Stderr, "--client is required")
		return 2
	}

	outputFormat := strings.ToLower(strings.TrimSpace(*format))
	if outputFormat != "text" && outputFormat != outputFormatJSON {
		fmt.Fprintln(os.Stderr, "--format must be text or json")
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

	summarizer, err := summarize.NewSummarizer(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize summarizer: %v\n", err)
		return 1
	}
	defer summarizer.Close()

	composer := digest.NewComposer(pool, summarizer, logger, digest.Options{
		SectionOrder:     cfg.SectionList(),
		MaxPerSection:    cfg.DigestMaxPerSection,
		SourcePriorities: cfg.SourcePriorityMap(),
	})

	d, err := composer.Compose(ctx, clientSlug, runDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Digest composition failed: %v\n", err)
		return 1
	}

	if *save {
		runID, err := composer.Persist(ctx, d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to persist digest: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "saved digest_run_id=%d\n", runID)
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(d); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Print(d.RenderText())
	return 0
}

func runDigestRuns(args []string) int {
	fs := flag.NewFlagSet("digest runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	client := fs.String("client", "", "List only this client's runs")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	runs, err := pool.ListDigestRuns(ctx, strings.ToLower(strings.TrimSpace(*client)), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list digest runs: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(runs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", run.DigestRunID),
			run.Client,
			formatUTCDate(run.RunDate),
			run.Status,
			fmt.Sprintf("%d", run.EntryCount),
			formatUTCTimestamp(run.StartedAt),
		})
	}
	if err := writeTable([]string{"id", "client", "date", "status", "entries", "started_at"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
