// Package migrations embeds the goose schema migrations for every
// supported storage backend.
package migrations

import "embed"

// Directories inside FS, one per dialect.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

// FS holds the migration files.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
