package migrations

import "embed"

// Migrations holds the goose migrations for the postgres driver.
//
//go:embed *.sql
var Migrations embed.FS
