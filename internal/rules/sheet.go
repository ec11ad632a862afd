package rules

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"horse.fit/recorte/internal/pipeline"
)

// sheetHeaderRows is how many leading rows a spreadsheet export carries
// before data starts (a title row and a column-header row).
const sheetHeaderRows = 2

// LoadSheet parses a spreadsheet CSV export for one client. Expected columns:
// section, topic, keywords (pipe-delimited), media. Extra columns are
// ignored; short rows are an error.
func LoadSheet(r io.Reader, client string, sectionOrder []string) (pipeline.RuleSet, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return nil, fmt.Errorf("client is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse rule sheet CSV: %w", err)
	}
	if len(records) <= sheetHeaderRows {
		return nil, fmt.Errorf("rule sheet has no data rows")
	}

	var all []pipeline.Rule
	for i, record := range records[sheetHeaderRows:] {
		line := i + sheetHeaderRows + 1
		if isBlankRecord(record) {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("rule sheet line %d: expected at least 3 columns, got %d", line, len(record))
		}

		section := strings.TrimSpace(record[0])
		if section == "" {
			return nil, fmt.Errorf("rule sheet line %d: missing section", line)
		}
		topic := strings.TrimSpace(record[1])
		if topic == "" {
			topic = section
		}

		media := ""
		if len(record) > 3 {
			media = record[3]
		}

		all = append(all, pipeline.Rule{
			Client:          client,
			Section:         section,
			Topic:           topic,
			Keywords:        SplitKeywords(record[2]),
			SourceWhitelist: SplitMedia(media),
			Priority:        DefaultPriority(section, sectionOrder),
		})
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("rule sheet has no usable rows")
	}
	return pipeline.NewRuleSet(all...), nil
}

// LoadSheetFile is LoadSheet over a file path.
func LoadSheetFile(path, client string, sectionOrder []string) (pipeline.RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule sheet: %w", err)
	}
	defer f.Close()
	return LoadSheet(f, client, sectionOrder)
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
