/*
Package pager implements the database file's pager: page I/O, an
in-memory page cache, and atomic commit/rollback through journaling.

The pager sits between the B-tree layer and the operating system's file
I/O, providing page-based I/O, caching, atomic commits, and concurrency
control.

# Database file format

Every database file begins with a 100-byte header containing:
  - A magic string identifying the format
  - Page size (512 to 65536 bytes, power of 2)
  - File format versions
  - Database size in pages
  - Schema information
  - Text encoding
  - User-defined metadata

All database access is done in fixed-size pages. The first page contains
the database header followed by the root page of the schema table.

# Page management

Pages are the fundamental unit of database I/O:
  - Each page has a unique page number (1-based)
  - Pages can be clean (unchanged) or dirty (modified)
  - Reference counting prevents premature eviction from cache
  - Dirty pages are tracked for efficient commits

The page cache maintains frequently accessed pages in memory:
  - Hash map for O(1) page lookup
  - Dirty page list for commit operations
  - Eviction of clean, unreferenced pages (in no particular order)
  - Thread-safe with mutex protection

# Transaction management

Write transactions use a rollback journal for atomicity:

  1. Begin: Acquire locks, open journal file
  2. Journal: Record original page content before modification
  3. Modify: Update pages in cache
  4. Commit: Write dirty pages, sync file, delete journal
  5. Rollback: Restore pages from journal, delete journal

This ensures atomic, durable commits even in the event of crashes or
power failures. Nested transactions are supported through savepoints
(see savepoint.go): a savepoint marks a point in the journal that a
later ROLLBACK TO can restore without unwinding the whole transaction.

# Pager states

The pager implements a state machine:

  OPEN -> READER -> WRITER_LOCKED -> WRITER_CACHEMOD ->
  WRITER_DBMOD -> WRITER_FINISHED -> OPEN

Error conditions transition to the ERROR state, requiring rollback.

# Usage

Basic usage pattern:

	// Open database
	p, err := pager.Open("mydb.db", false)
	if err != nil {
	    return err
	}
	defer p.Close()

	// Get page
	page, err := p.Get(1)
	if err != nil {
	    return err
	}
	defer p.Put(page)

	// Modify page
	if err := p.Write(page); err != nil {
	    return err
	}

	data := []byte("Hello, World!")
	if err := page.Write(100, data); err != nil {
	    return err
	}

	// Commit changes
	if err := p.Commit(); err != nil {
	    return err
	}

See the example tests for more usage patterns.

# Thread safety

All public operations are thread-safe:
  - Pager uses RWMutex for state protection
  - Pages use RWMutex for data access
  - Reference counts use atomic operations
  - Cache operations are mutex-protected

# Limitations

This is a simplified pager compared to a full production implementation:
  - No write-ahead logging; only rollback-journal transactions
  - Simplified file locking (OS-specific locking not implemented)
  - No memory-mapped I/O
  - No hot journal recovery after a crash mid-commit

# Performance

Performance considerations:
  - Larger page sizes reduce I/O overhead but use more memory
  - Cache size affects hit rate (default: 2000 pages)
  - File sync operations are expensive but required for durability
  - Page reference counting allows safe concurrent access

# Implementation notes

Errors are returned as values rather than status codes, interfaces keep
the journal and cache swappable, and resources are released with defer.
The page header layout and state machine follow the format package's
on-disk layout rules.
*/
package pager
