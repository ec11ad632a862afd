package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/indicators"
	"horse.fit/recorte/internal/logging"
)

func runIndicators(args []string) int {
	sub := "show"
	if len(args) > 0 {
		switch strings.ToLower(strings.TrimSpace(args[0])) {
		case "capture", "show":
			sub = strings.ToLower(strings.TrimSpace(args[0]))
			args = args[1:]
		}
	}

	fs := flag.NewFlagSet("indicators", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Capture date (YYYY-MM-DD, UTC)")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "indicators does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	day, err := parseUTCDate(*date)
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

	svc := indicators.NewService(pool, logger)

	if sub == "capture" {
		snapshots, err := svc.Capture(ctx, day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Indicator capture failed: %v\n", err)
			return 1
		}
		fmt.Printf("captured=%d\n", len(snapshots))
		return 0
	}

	snapshots, err := pool.ListIndicators(ctx, day)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list indicators: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(snapshots); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, []string{
			snap.Code,
			snap.Name,
			snap.Value,
			formatUTCDate(snap.CapturedOn),
		})
	}
	if err := writeTable([]string{"code", "name", "value", "captured_on"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
