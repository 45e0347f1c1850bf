//go:build cgo_sqlite

// This file links mattn/go-sqlite3 in as a reference oracle for the
// differential tests in comparison_test.go. It does not change Open;
// the engine's own driver (internal/driver) remains the only thing
// this package's public API talks to.
//
// Build with: go build -tags cgo_sqlite (requires CGO_ENABLED=1).
package dbsql

import (
	_ "github.com/mattn/go-sqlite3"
)

const referenceDriverName = "sqlite3"
