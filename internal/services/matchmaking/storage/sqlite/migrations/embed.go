package migrations

import "embed"

// FS contains embedded SQLite migrations for match result storage.
//
//go:embed *.sql
var FS embed.FS
