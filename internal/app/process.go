package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/logging"
	"horse.fit/recorte/internal/pipeline"
	"horse.fit/recorte/internal/rules"
	"horse.fit/recorte/internal/sources"
)

// runProcess runs dedup followed by classification for one run date.
func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	client := fs.String("client", "", "Classify only this client (default: all enabled)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "process does not accept positional arguments")
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

	ruleSet, err := rules.LoadFromDB(ctx, pool, *client, cfg.SectionList())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
		return 1
	}

	svc := pipeline.NewService(pool, logger, pipelineOptions(cfg))

	lookback := sources.LookbackDays(runDate, cfg.MaxArticleAgeDays)
	from, to := runWindow(runDate, lookback)

	result, err := svc.Run(ctx, runDate, from, to, cfg.KeepLanguageList(), ruleSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Process failed: %v\n", err)
		return 1
	}

	fmt.Printf("dedup: candidates=%d clips=%d duplicates=%d skipped=%d\n",
		result.Dedup.Candidates, result.Dedup.Clips, result.Dedup.Duplicates, result.Dedup.Skipped)
	fmt.Printf("classify: clips=%d assignments=%d unclassified=%d\n",
		result.Classify.Clips, result.Classify.Assignments, result.Classify.Unclassified)
	return 0
}

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	lookbackFlag := fs.Int("lookback-days", 0, "Fetch window width in days (default: weekday rule)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "dedup does not accept positional arguments")
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

	lookback := *lookbackFlag
	if lookback <= 0 {
		lookback = sources.LookbackDays(runDate, cfg.MaxArticleAgeDays)
	}
	from, to := runWindow(runDate, lookback)

	svc := pipeline.NewService(pool, logger, pipelineOptions(cfg))
	result, err := svc.DedupWindow(ctx, runDate, from, to, cfg.KeepLanguageList())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dedup failed: %v\n", err)
		return 1
	}

	fmt.Printf("candidates=%d clips=%d duplicates=%d skipped=%d\n",
		result.Candidates, result.Clips, result.Duplicates, result.Skipped)
	return 0
}

func runClassify(args []string) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	client := fs.String("client", "", "Classify only this client (default: all enabled)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "classify does not accept positional arguments")
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

	ruleSet, err := rules.LoadFromDB(ctx, pool, *client, cfg.SectionList())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
		return 1
	}
	if len(ruleSet) == 0 {
		fmt.Fprintln(os.Stderr, "No enabled rules found; import rules first")
		return 1
	}

	svc := pipeline.NewService(pool, logger, pipelineOptions(cfg))
	result, err := svc.ClassifyRun(ctx, runDate, ruleSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classify failed: %v\n", err)
		return 1
	}

	fmt.Printf("clips=%d assignments=%d unclassified=%d\n",
		result.Clips, result.Assignments, result.Unclassified)
	for client, count := range result.ByClient {
		fmt.Printf("client=%s assignments=%d\n", client, count)
	}
	return 0
}
