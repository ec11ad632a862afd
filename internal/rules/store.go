package rules

import (
	"context"
	"fmt"

	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/pipeline"
)

// LoadFromDB builds the serving rule set from persisted keyword rules.
// An empty client loads every client's rules.
func LoadFromDB(ctx context.Context, pool *db.Pool, client string, sectionOrder []string) (pipeline.RuleSet, error) {
	stored, err := pool.ListRules(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return FromStored(stored, sectionOrder), nil
}

// ImportToDB replaces one client's persisted rules with the given set.
// Returns the number of rows written.
func ImportToDB(ctx context.Context, pool *db.Pool, client string, set pipeline.RuleSet) (int, error) {
	loaded := set.ForClient(client)
	if len(loaded) == 0 {
		return 0, fmt.Errorf("rule set has no rules for client %s", client)
	}
	return pool.ReplaceClientRules(ctx, client, ToStored(client, loaded))
}
