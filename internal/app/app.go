package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "migrate":
		return runMigrate(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "classify":
		return runClassify(args[1:])
	case "articles":
		return runArticles(args[1:])
	case "clips":
		return runClips(args[1:])
	case "rules":
		return runRules(args[1:])
	case "digest":
		return runDigest(args[1:])
	case "indicators":
		return runIndicators(args[1:])
	case "stats":
		return runStats(args[1:])
	case "serve":
		return runServe(args[1:])
	case "daemon":
		return runDaemon(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "recorte CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  recorte <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  migrate     Run schema migrations and exit")
	fmt.Fprintln(os.Stderr, "  fetch       Fetch registered sources into the article store")
	fmt.Fprintln(os.Stderr, "  ingest      Insert article payloads from JSON files or stdin")
	fmt.Fprintln(os.Stderr, "  validate    Validate article payload files against the v1 schema")
	fmt.Fprintln(os.Stderr, "  process     Run dedup + classify for one run date")
	fmt.Fprintln(os.Stderr, "  run-once    Alias for process")
	fmt.Fprintln(os.Stderr, "  dedup       Group pending articles into clips")
	fmt.Fprintln(os.Stderr, "  classify    Classify a run date's clips into sections")
	fmt.Fprintln(os.Stderr, "  articles    List stored articles")
	fmt.Fprintln(os.Stderr, "  clips       List clips or show one clip's members")
	fmt.Fprintln(os.Stderr, "  rules       List or import client keyword rules")
	fmt.Fprintln(os.Stderr, "  digest      Compose the digest for a client and date")
	fmt.Fprintln(os.Stderr, "  indicators  Capture or show daily economic indicators")
	fmt.Fprintln(os.Stderr, "  stats       Show pipeline counters")
	fmt.Fprintln(os.Stderr, "  serve       Start the Echo API server")
	fmt.Fprintln(os.Stderr, "  daemon      Run the weekday scheduler loop")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"recorte <command> -h\" for command-specific flags.")
}
