package mysql

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
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql migrate: %w", err)
		}
	}
	return nil
}

func splitStatements(s string) []string {
	var out []string
	for _, stmt := range strings.Split(s, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, strings.TrimSpace(stmt))
		}
	}
	return out
}

// patchColumns maps a Patch onto "col=?" pairs in a stable order.
func patchColumns(p domain.Patch) ([]string, []any) {
	var cols []string
	var args []any
	if p.AudioURL != nil {
		cols = append(cols, "audio_url=?")
		args = append(args, *p.AudioURL)
	}
	if p.ImageURL != nil {
		cols = append(cols, "image_url=?")
		args = append(args, *p.ImageURL)
	}
	return cols, args
}
