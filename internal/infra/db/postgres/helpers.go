package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}

// patchColumns maps a Patch onto "col = $n" pairs; n starts at 1.
func patchColumns(p domain.Patch) ([]string, []any) {
	var cols []string
	var args []any
	add := func(col string, v string) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.AudioURL != nil {
		add("audio_url", *p.AudioURL)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	return cols, args
}
