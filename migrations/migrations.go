package migrations

import "embed"

// Embedded migration files bundled at compile time so a single binary
// can prepare its own result database.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
