// Package db carries the embedded schema migrations for the state store,
// one directory per supported dialect.
package db

import "embed"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var Migrations embed.FS
