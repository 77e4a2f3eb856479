// Package migrations embeds the goose SQL migrations for every supported
// database. Each dialect has its own directory.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
