package db

import (
	"context"
	"fmt"
	"strings"
)

// GetSettings returns all stored settings as a key/value map.
func (p *Pool) GetSettings(ctx context.Context) (map[string]string, error) {
	const q = `SELECT s.key, s.value FROM clip.settings s ORDER BY s.key ASC`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setting rows: %w", err)
	}

	return settings, nil
}

// SetSetting stores or overwrites one setting.
func (p *Pool) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("setting key is required")
	}

	const q = `
INSERT INTO clip.settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := p.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
