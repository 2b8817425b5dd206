// Package migrations embeds the goose migrations for the run history database.
package migrations

import "embed"

// FS holds the SQL migrations.
//
//go:embed *.sql
var FS embed.FS
