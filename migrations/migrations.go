// Package migrations embeds the SQL schema migrations applied by cmd/migrate.
package migrations

import "embed"

// FS содержит *.up.sql / *.down.sql файлы миграций
//
//go:embed *.sql
var FS embed.FS
