package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/pipeline"
	"horse.fit/recorte/internal/rules"
	payloadschema "horse.fit/recorte/schema"
)

func runRules(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "rules requires a subcommand: list, import, clients")
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "list":
		return runRulesList(args[1:])
	case "import":
		return runRulesImport(args[1:])
	case "clients":
		return runRulesClients(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown rules subcommand: %s\n", args[0])
		return 2
	}
}

func runRulesList(args []string) int {
	fs := flag.NewFlagSet("rules list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	client := fs.String("client", "", "List only this client's rules")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "rules list does not accept positional arguments")
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

	stored, err := pool.ListRules(ctx, *client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list rules: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stored); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(stored))
	for _, rule := range stored {
		enabled := "yes"
		if !rule.Enabled {
			enabled = "no"
		}
		priority := "-"
		if rule.Priority != nil {
			priority = fmt.Sprintf("%d", *rule.Priority)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rule.RuleID),
			rule.Client,
			rule.Section,
			rule.Topic,
			truncateForTable(rule.Keywords, 60),
			priority,
			enabled,
		})
	}
	if err := writeTable([]string{"id", "client", "section", "topic", "keywords", "priority", "enabled"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	fmt.Printf("\n%d rule(s)\n", len(stored))
	return 0
}

// runRulesImport replaces one client's rule table from a YAML workbook, a
// CSV sheet export, or a JSON payload. The format is inferred from the file
// extension.
func runRulesImport(args []string) int {
	fs := flag.NewFlagSet("rules import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	client := fs.String("client", "", "Client slug to import rules for")
	file := fs.String("file", "", "Rules file (.yaml/.yml workbook, .csv sheet, .json payload)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "rules import does not accept positional arguments")
		return 2
	}

	clientSlug := strings.ToLower(strings.TrimSpace(*client))
	if clientSlug == "" {
		fmt.Fprintln(os.Stderr, "--client is required")
		return 2
	}
	path := strings.TrimSpace(*file)
	if path == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sectionOrder := cfg.SectionList()

	var set pipeline.RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		set, err = rules.LoadWorkbookFile(path, sectionOrder)
	case ".csv":
		set, err = rules.LoadSheetFile(path, clientSlug, sectionOrder)
	case ".json":
		set, err = loadRulesJSON(path, sectionOrder)
	default:
		fmt.Fprintf(os.Stderr, "Unsupported rules file extension: %s\n", filepath.Ext(path))
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules file: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	written, err := rules.ImportToDB(ctx, pool, clientSlug, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		return 1
	}

	fmt.Printf("client=%s rules_written=%d\n", clientSlug, written)
	return 0
}

func runRulesClients(args []string) int {
	fs := flag.NewFlagSet("rules clients", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
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

	clients, err := pool.ListClients(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list clients: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(clients); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{c.Slug, c.Name})
	}
	if err := writeTable([]string{"slug", "name"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

// loadRulesJSON validates a rules import payload and converts it to a rule
// set. Priority defaults to the section's position in the newsletter order.
func loadRulesJSON(path string, sectionOrder []string) (pipeline.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules payload: %w", err)
	}

	payload, err := payloadschema.ValidateRulesImport(json.RawMessage(data))
	if err != nil {
		return nil, err
	}

	loaded := make([]pipeline.Rule, 0, len(payload.Rules))
	for _, item := range payload.Rules {
		rule := pipeline.Rule{
			Client:          strings.ToLower(strings.TrimSpace(payload.Client)),
			Section:         strings.TrimSpace(item.Section),
			Topic:           strings.TrimSpace(item.Topic),
			Keywords:        item.Keywords,
			RequiredMention: strings.TrimSpace(item.RequiredMention),
			SourceWhitelist: rules.SplitMedia(item.Media),
			OfferingGated:   item.OfferingGated,
		}
		if rule.Topic == "" {
			rule.Topic = rule.Section
		}
		if item.Priority != nil {
			rule.Priority = *item.Priority
		} else {
			rule.Priority = rules.DefaultPriority(rule.Section, sectionOrder)
		}
		loaded = append(loaded, rule)
	}

	return pipeline.NewRuleSet(loaded...), nil
}
