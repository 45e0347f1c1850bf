// Package dbsql is an embeddable SQL database engine: a tokenizer and
// grammar-driven parser, a code generator that lowers statements to
// byte-code, a stack-based virtual machine (the VDBE) that executes that
// byte-code, and a storage adapter that maps tables and indices onto a
// transactional key-value backend.
//
// Open returns a *database/sql.DB backed entirely by the engine in
// internal/driver; no cgo and no external SQLite library is involved.
//
// Build modes:
//   - Default: only the engine in internal/driver is linked.
//   - -tags cgo_sqlite: additionally links mattn/go-sqlite3 as a reference
//     oracle, used by the differential tests in comparison_test.go to check
//     that this engine agrees with a mature SQLite implementation on the
//     same inputs. That tag never changes what Open does.
package dbsql

import (
	"database/sql"
	"fmt"

	_ "github.com/gburd/dbsql-sub001/internal/driver"
)

// engineDriverName is the name under which internal/driver registers
// itself with database/sql.
const engineDriverName = "dbsql"

// DriverName returns the database/sql driver name registered by this
// engine. It is always "dbsql".
func DriverName() string {
	return engineDriverName
}

// Open opens a database file using the engine's own driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(engineDriverName, dataSourceName)
}

// OpenReadOnly opens a database file in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open(path + "?mode=ro")
}

// MustOpen opens a database and panics on error. Intended for tests and
// initialization code where a failure to open is unrecoverable.
func MustOpen(dataSourceName string) *sql.DB {
	db, err := Open(dataSourceName)
	if err != nil {
		panic(fmt.Sprintf("dbsql: failed to open %s: %v", dataSourceName, err))
	}
	return db
}

// Info describes the engine build in use.
type Info struct {
	DriverName  string `json:"driver_name"`
	Package     string `json:"package"`
	ReferenceOK bool   `json:"reference_available"`
}

// GetInfo reports the active driver name and whether a reference oracle
// (see ReferenceDriverName) was compiled in for differential testing.
func GetInfo() Info {
	return Info{
		DriverName:  engineDriverName,
		Package:     "github.com/gburd/dbsql-sub001/internal/driver",
		ReferenceOK: referenceDriverName != "",
	}
}

// ReferenceDriverName returns the database/sql driver name of the
// reference oracle used by differential tests, or "" if none is linked
// in this build.
func ReferenceDriverName() string {
	return referenceDriverName
}
