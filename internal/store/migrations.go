package store

import "embed"

// EmbeddedMigrations contains all SQL migration files embedded into the
// binary, loaded at compile time from the migrations/ subdirectory.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
