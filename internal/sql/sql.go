// Package sql embeds the schema migrations for the fact store.
package sql

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
