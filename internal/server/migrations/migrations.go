// Package migrations embeds the goose SQL migrations for the server schema.
// The SQL is kept portable between SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
