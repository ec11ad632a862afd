package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"horse.fit/recorte/internal/pipeline"
)

// workbookFile is the YAML shape of a rule workbook: one or more clients,
// each with a flat list of rule rows.
type workbookFile struct {
	Clients []workbookClient `yaml:"clients"`
}

type workbookClient struct {
	Client string        `yaml:"client"`
	Rules  []workbookRow `yaml:"rules"`
}

type workbookRow struct {
	Section         string   `yaml:"section"`
	Topic           string   `yaml:"topic"`
	Keywords        []string `yaml:"keywords"`
	RequiredMention string   `yaml:"required_mention"`
	Media           string   `yaml:"media"`
	Priority        *int     `yaml:"priority"`
	OfferingGated   bool     `yaml:"offering_gated"`
}

// LoadWorkbook parses a YAML rule workbook into a pipeline rule set.
// Priorities default from the section order when a row carries none.
func LoadWorkbook(r io.Reader, sectionOrder []string) (pipeline.RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	var file workbookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse workbook YAML: %w", err)
	}
	if len(file.Clients) == 0 {
		return nil, fmt.Errorf("workbook has no clients")
	}

	var all []pipeline.Rule
	for _, client := range file.Clients {
		slug := strings.TrimSpace(client.Client)
		if slug == "" {
			return nil, fmt.Errorf("workbook client entry missing client id")
		}
		for i, row := range client.Rules {
			rule, err := rowToRule(slug, row, sectionOrder)
			if err != nil {
				return nil, fmt.Errorf("client %s rule %d: %w", slug, i+1, err)
			}
			all = append(all, rule)
		}
	}

	return pipeline.NewRuleSet(all...), nil
}

// LoadWorkbookFile is LoadWorkbook over a file path.
func LoadWorkbookFile(path string, sectionOrder []string) (pipeline.RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return LoadWorkbook(f, sectionOrder)
}

func rowToRule(client string, row workbookRow, sectionOrder []string) (pipeline.Rule, error) {
	section := strings.TrimSpace(row.Section)
	if section == "" {
		return pipeline.Rule{}, fmt.Errorf("missing section")
	}
	topic := strings.TrimSpace(row.Topic)
	if topic == "" {
		topic = section
	}

	keywords := make([]string, 0, len(row.Keywords))
	for _, kw := range row.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	priority := DefaultPriority(section, sectionOrder)
	if row.Priority != nil {
		priority = *row.Priority
	}

	return pipeline.Rule{
		Client:          client,
		Section:         section,
		Topic:           topic,
		Keywords:        keywords,
		RequiredMention: strings.TrimSpace(row.RequiredMention),
		SourceWhitelist: SplitMedia(row.Media),
		Priority:        priority,
		OfferingGated:   row.OfferingGated,
	}, nil
}
