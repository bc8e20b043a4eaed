package database

import "embed"

// MigrationsFS содержит SQL миграции схемы, каталог "migrations".
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

const MigrationsPath = "migrations"
