package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/recorte/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
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

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	dayStart, dayEnd := utcDayBounds(day)

	stats, err := pool.QueryPipelineStats(ctx, dayStart, dayEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query pipeline stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	sourceRows := make([][]string, 0, len(stats.Sources)+1)
	for _, row := range stats.Sources {
		sourceRows = append(sourceRows, []string{
			row.SourceID,
			fmt.Sprintf("%d", row.Articles),
			fmt.Sprintf("%d", row.Duplicates),
		})
	}
	sourceRows = append(sourceRows, []string{
		"TOTAL",
		fmt.Sprintf("%d", stats.Totals.Articles),
		fmt.Sprintf("%d", stats.Totals.Duplicates),
	})

	if err := writeTable([]string{"source", "articles", "duplicates"}, sourceRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render source table: %v\n", err)
		return 1
	}

	if len(stats.Sections) > 0 {
		fmt.Println()
		sectionRows := make([][]string, 0, len(stats.Sections))
		for _, row := range stats.Sections {
			sectionRows = append(sectionRows, []string{
				row.Section,
				fmt.Sprintf("%d", row.Clips),
			})
		}
		if err := writeTable([]string{"section", "clips"}, sectionRows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render section table: %v\n", err)
			return 1
		}
	}

	fmt.Println()
	throughputRows := [][]string{
		{"articles_fetched_today", fmt.Sprintf("%d", stats.Throughput.ArticlesFetchedToday)},
		{"clips_created_today", fmt.Sprintf("%d", stats.Throughput.ClipsCreatedToday)},
		{"pending_not_grouped", fmt.Sprintf("%d", stats.Throughput.PendingNotGrouped)},
		{"unclassified_today", fmt.Sprintf("%d", stats.Throughput.UnclassifiedToday)},
	}
	if err := writeTable([]string{"metric", "value"}, throughputRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render throughput table: %v\n", err)
		return 1
	}

	return 0
}
