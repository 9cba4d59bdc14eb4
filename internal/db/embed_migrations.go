// Package db holds the schema for employees, devices, app access and the outbox.
package db

import "embed"

//go:embed migrations/*.sql
var MigrationFS embed.FS
