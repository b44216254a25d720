// Package migrations embeds the schema for each supported SQL store.
package migrations

import "embed"

// Postgres holds the golang-migrate files for the PostgreSQL store.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the golang-migrate files for the SQLite store.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
