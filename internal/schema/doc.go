// Package schema tracks the catalog of tables, indices, views, and triggers
// for one attached database: what CREATE/DROP statements have built, and
// the type-affinity rules used to interpret declared column types.
//
// # Overview
//
// The package has three parts:
//
//  1. Schema manager (schema.go) - thread-safe tracking of tables and indices
//  2. Master table (master.go) - reading/writing the catalog's persistent row
//  3. Type affinity (affinity.go) - declared-type to affinity determination
//
// # Schema manager
//
//	s := schema.NewSchema()
//
//	// Create a table from a parsed CREATE TABLE statement
//	table, err := s.CreateTable(createTableStmt)
//
//	// Retrieve a table (case-insensitive)
//	table, ok := s.GetTable("users")
//
//	// List all tables
//	tables := s.ListTables()
//
//	// Drop a table and all its indices
//	err = s.DropTable("users")
//
// # Type affinity
//
// Every column has one of five affinities, derived from its declared type
// by the rules in affinity.go:
//
//   - TEXT: string data
//   - NUMERIC: numbers that may carry a fractional part
//   - INTEGER: whole numbers
//   - REAL: floating-point numbers
//   - BLOB: binary data, compared byte-for-byte
//
//	affinity := schema.DetermineAffinity("VARCHAR(100)")  // AffinityText
//	affinity := schema.DetermineAffinity("INTEGER")       // AffinityInteger
//	affinity := schema.DetermineAffinity("DECIMAL(10,2)") // AffinityNumeric
//
// # Master table
//
// Every attached database persists its catalog as rows in a master table
// (type, name, tbl_name, rootpage, sql):
//
//	// Initialize the master table in a new database
//	err := s.InitializeMaster()
//
//	// Load schema from an existing database
//	err = s.LoadFromMaster(btree)
//
//	// Persist current schema to the master table
//	err = s.SaveToMaster(btree)
//
// # Table and column structure
//
//	type Table struct {
//	    Name         string           // Table name
//	    RootPage     uint32           // B-tree root page number
//	    SQL          string           // CREATE TABLE statement
//	    Columns      []*Column        // Column definitions
//	    PrimaryKey   []string         // Primary key column names
//	    WithoutRowID bool             // WITHOUT ROWID table
//	    Strict       bool             // STRICT table
//	}
//
//	type Column struct {
//	    Name     string      // Column name
//	    Type     string      // Declared type (e.g., "INTEGER", "TEXT")
//	    Affinity Affinity    // Computed type affinity
//	    NotNull  bool        // NOT NULL constraint
//	    Default  interface{} // Default value
//
//	    PrimaryKey    bool   // Part of PRIMARY KEY
//	    Unique        bool   // UNIQUE constraint
//	    Autoincrement bool   // AUTOINCREMENT
//	    Generated     bool   // Generated column
//	}
//
// # Index structure
//
//	type Index struct {
//	    Name     string   // Index name
//	    Table    string   // Associated table name
//	    RootPage uint32   // B-tree root page number
//	    SQL      string   // CREATE INDEX statement
//	    Columns  []string // Indexed column names
//	    Unique   bool     // UNIQUE index
//	    Partial  bool     // Partial index (has WHERE clause)
//	    Where    string   // WHERE clause for partial indexes
//	}
//
// # Thread safety
//
// All Schema methods are safe for concurrent use: a sync.RWMutex allows
// multiple concurrent readers or one writer.
//
// # Example
//
//	s := schema.NewSchema()
//	if err := s.InitializeMaster(); err != nil {
//	    log.Fatal(err)
//	}
//
//	p := parser.NewParser("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
//	stmts, err := p.Parse()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	table, err := s.CreateTable(stmts[0].(*parser.CreateTableStmt))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Table: %s\n", table.Name)
//	fmt.Printf("Columns: %d\n", len(table.Columns))
//	for _, col := range table.Columns {
//	    fmt.Printf("  %s %s (affinity: %s)\n", col.Name, col.Type, schema.AffinityName(col.Affinity))
//	}
//
//	indexParser := parser.NewParser("CREATE INDEX idx_users_name ON users(name)")
//	indexStmts, _ := indexParser.Parse()
//	index, err := s.CreateIndex(indexStmts[0].(*parser.CreateIndexStmt))
//
//	indexes := s.GetTableIndexes("users")
//	fmt.Printf("Indexes on users: %d\n", len(indexes))
//
// # Implementation notes
//
// This is a complete in-memory schema manager; master-table serialization
// uses the record encoder/decoder from internal/vdbe. Views, triggers, and
// foreign-key tracking build on the same maps rather than separate stores.
package schema
