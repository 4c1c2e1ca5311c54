// Package db embeds the SQL migration files applied at startup.
package db

import "embed"

// Migrations holds every .sql file under migrations/. Files are applied in
// lexical order, so new migrations take the next numeric prefix.
//
//go:embed migrations/*.sql
var Migrations embed.FS
