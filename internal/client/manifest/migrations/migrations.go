// Package migrations embeds the goose migrations of the sync manifest.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
