// Package db provides the embedded database schema and catalog seed.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the storefront product catalog in section order.
//
//go:embed seed/catalog.json
var Catalog []byte
