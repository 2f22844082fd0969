// Package migrations embeds the goose schema migrations, one directory per
// SQL dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dir returns the migration directory for a goose dialect name.
func Dir(dialect string) string {
	if dialect == "sqlite3" || dialect == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}
