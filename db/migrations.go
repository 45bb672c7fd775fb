// Package db holds the SQL schema migrations, embedded into the binary.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
