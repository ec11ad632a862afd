package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/db"
)

func runClips(args []string) int {
	if len(args) > 0 && strings.ToLower(strings.TrimSpace(args[0])) == "show" {
		return runClipShow(args[1:])
	}
	return runClipsList(args)
}

func runClipsList(args []string) int {
	fs := flag.NewFlagSet("clips", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	date := fs.String("date", defaultUTCDayString(), "Run date (YYYY-MM-DD, UTC)")
	client := fs.String("client", "", "Only clips assigned to this client")
	section := fs.String("section", "", "Only clips assigned to this section")
	source := fs.String("source", "", "Only clips represented by this source")
	limit := fs.Int("limit", 50, "Maximum clips to return")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "clips does not accept positional arguments")
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	runDate, err := parseUTCDate(*date)
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

	clips, err := pool.ListClips(ctx, db.ClipListOptions{
		RunDate:  runDate,
		Client:   strings.ToLower(strings.TrimSpace(*client)),
		Section:  strings.TrimSpace(*section),
		SourceID: normalizeSourceFlag(*source),
		Limit:    *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query clips: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(clips); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		rows = append(rows, []string{
			fmt.Sprintf("%d", clip.ClipID),
			clip.ClipUUID,
			truncateForTable(clip.CanonicalTitle, 70),
			clip.SourceID,
			fmt.Sprintf("%d", clip.MemberCount),
			fmt.Sprintf("%d", clip.SourceCount),
			formatUTCDate(clip.RunDate),
		})
	}
	if err := writeTable(
		[]string{"clip_id", "uuid", "title", "source", "members", "sources", "run_date"},
		rows,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func runClipShow(args []string) int {
	fs := flag.NewFlagSet("clips show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "clips show requires exactly one clip UUID argument")
		return 2
	}
	clipUUID := strings.TrimSpace(fs.Arg(0))

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	detail, err := pool.GetClipByUUID(ctx, clipUUID)
	if err != nil {
		if db.IsNoRows(err) {
			fmt.Fprintf(os.Stderr, "Clip not found: %s\n", clipUUID)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to load clip: %v\n", err)
		return 1
	}

	if err := printJSON(detail); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
