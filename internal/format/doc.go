// Package format defines the on-disk database file layout: the fixed
// 100-byte file header, B-tree page header layout, page-type and text-
// encoding constants, and the validation functions the pager and btree
// packages use to parse and write them.
//
// # Database file header
//
// Every database file begins with a 100-byte header describing the file:
//
//   - Magic string identifying the format
//   - Page size (512 to 65536 bytes, must be a power of 2)
//   - File format versions
//   - Text encoding (UTF-8, UTF-16LE, UTF-16BE)
//   - Schema metadata
//   - Freelist information
//   - User-defined metadata
//
// Example usage:
//
//	// Parse an existing database header
//	data := make([]byte, format.HeaderSize)
//	_, err := file.Read(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	header := &format.Header{}
//	if err := header.Parse(data); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Page size: %d\n", header.GetPageSize())
//	fmt.Printf("Text encoding: %d\n", header.TextEncoding)
//
//	// Create a new database header
//	header := format.NewHeader(4096)
//	header.UserVersion = 1
//	header.AppID = 0x12345678
//
//	data := header.Serialize()
//	// Write data to file...
//
// # Page types
//
// Table and index data live in B-tree pages of four kinds:
//
//   - Interior Index (0x02): interior nodes of index B-trees
//   - Interior Table (0x05): interior nodes of table B-trees
//   - Leaf Index (0x0a): leaf nodes of index B-trees
//   - Leaf Table (0x0d): leaf nodes of table B-trees
//
// Each page begins with a page header containing:
//
//   - Page type (1 byte)
//   - First freeblock offset (2 bytes)
//   - Number of cells (2 bytes)
//   - Cell content start (2 bytes)
//   - Fragmented bytes (1 byte)
//   - Right-most pointer (4 bytes, interior pages only)
//
// # Text encoding
//
// Three text encodings are supported:
//
//   - UTF-8 (encoding value 1): default, most common
//   - UTF-16 Little-Endian (encoding value 2)
//   - UTF-16 Big-Endian (encoding value 3)
//
// The text encoding is fixed when the database is created.
//
// # Validation
//
// The package provides validation functions for headers and page sizes:
//
//	if !format.IsValidPageSize(pageSize) {
//	    log.Fatalf("Invalid page size: %d", pageSize)
//	}
//
//	if err := header.Validate(); err != nil {
//	    log.Fatalf("Invalid header: %v", err)
//	}
//
// # Constants
//
// File format constants are defined as package-level constants:
//
//   - Header offsets (OffsetMagic, OffsetPageSize, etc.)
//   - Page type values (PageTypeLeafTable, PageTypeInteriorIndex, etc.)
//   - B-tree header offsets (BtreePageType, BtreeCellCount, etc.)
//   - Text encoding values (EncodingUTF8, EncodingUTF16LE, etc.)
//   - Size limits (MinPageSize, MaxPageSize, HeaderSize, etc.)
//
// # Thread safety
//
// All functions and methods in this package are safe to call concurrently
// from multiple goroutines; none hold mutable package-level state.
package format
