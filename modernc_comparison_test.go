//go:build purego_sqlite

package dbsql_test

// These tests compare modernc.org/sqlite (pure Go) vs this module's own
// pure Go implementation. Run with: go test -tags purego_sqlite -v -run Modernc

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // pure Go reference driver

	"github.com/gburd/dbsql-sub001"
)

// setupModerncComparisonDBs creates two temporary databases - one opened
// through modernc.org/sqlite, one through this module's own driver.
func setupModerncComparisonDBs(t *testing.T) (referenceDB, ownDB *sql.DB, cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sqlite-modernc-comparison-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	referencePath := filepath.Join(tempDir, "reference.db")
	referenceDB, err = sql.Open("sqlite", referencePath)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to open reference database: %v", err)
	}

	ownPath := filepath.Join(tempDir, "own.db")
	ownDB, err = dbsql.Open(ownPath)
	if err != nil {
		referenceDB.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("failed to open own database: %v", err)
	}

	cleanup = func() {
		referenceDB.Close()
		ownDB.Close()
		os.RemoveAll(tempDir)
	}

	return referenceDB, ownDB, cleanup
}

func TestModerncComparisonBasicTypes(t *testing.T) {
	referenceDB, ownDB, cleanup := setupModerncComparisonDBs(t)
	defer cleanup()

	for _, db := range []*sql.DB{referenceDB, ownDB} {
		if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`); err != nil {
			t.Fatalf("create table: %v", err)
		}
		if _, err := db.Exec(`INSERT INTO t (v) VALUES (?)`, "hello"); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	var referenceVal, ownVal string
	if err := referenceDB.QueryRow(`SELECT v FROM t WHERE id = 1`).Scan(&referenceVal); err != nil {
		t.Fatalf("reference query: %v", err)
	}
	if err := ownDB.QueryRow(`SELECT v FROM t WHERE id = 1`).Scan(&ownVal); err != nil {
		t.Fatalf("own query: %v", err)
	}

	if referenceVal != ownVal {
		t.Errorf("divergence from modernc.org/sqlite: reference=%q own=%q", referenceVal, ownVal)
	}
}
