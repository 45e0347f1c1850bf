package btree

import (
	"encoding/binary"
	"fmt"
)

// CellInfo contains parsed information about a B-tree cell
type CellInfo struct {
	Key           int64  // The integer key for table b-trees, or payload size for index b-trees
	Payload       []byte // Pointer to start of payload data
	PayloadSize   uint32 // Total bytes of payload
	LocalPayload  uint16 // Amount of payload stored locally (not in overflow pages)
	CellSize      uint16 // Total size of cell on the page
	OverflowPage  uint32 // First overflow page number (0 if none)
	ChildPage     uint32 // Child page number (interior pages only)
}

// ParseCell parses a cell from a B-tree page
func ParseCell(pageType byte, cellData []byte, usableSize uint32) (*CellInfo, error) {
	info := &CellInfo{}

	switch pageType {
	case PageTypeLeafTable:
		return parseTableLeafCell(cellData, usableSize)
	case PageTypeInteriorTable:
		return parseTableInteriorCell(cellData)
	case PageTypeLeafIndex:
		return parseIndexLeafCell(cellData, usableSize)
	case PageTypeInteriorIndex:
		return parseIndexInteriorCell(cellData, usableSize)
	default:
		return nil, fmt.Errorf("invalid page type: 0x%02x", pageType)
	}

	return info, nil
}

// parseTableLeafCell parses a table leaf cell
// Format: varint(payload_size), varint(rowid), payload
func parseTableLeafCell(cellData []byte, usableSize uint32) (*CellInfo, error) {
	if len(cellData) == 0 {
		return nil, fmt.Errorf("empty cell data")
	}

	info := &CellInfo{}
	offset := 0

	// Read payload size (varint)
	payloadSize64, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read payload size")
	}
	info.PayloadSize = uint32(payloadSize64)
	offset += n

	// Read rowid (varint)
	rowid, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read rowid")
	}
	info.Key = int64(rowid)
	offset += n

	// Calculate local payload size
	maxLocal := calculateMaxLocal(usableSize, true)
	minLocal := calculateMinLocal(usableSize, true)

	if info.PayloadSize <= maxLocal {
		// Entire payload fits locally
		info.LocalPayload = uint16(info.PayloadSize)
		info.CellSize = uint16(offset + int(info.PayloadSize))
		if info.CellSize < 4 {
			info.CellSize = 4
		}
	} else {
		// Payload spills to overflow pages
		info.LocalPayload = calculateLocalPayload(info.PayloadSize, minLocal, maxLocal, usableSize)
		info.CellSize = uint16(offset + int(info.LocalPayload) + 4) // +4 for overflow page number
	}

	// Extract payload pointer
	if offset+int(info.LocalPayload) > len(cellData) {
		return nil, fmt.Errorf("cell data truncated")
	}
	info.Payload = cellData[offset : offset+int(info.LocalPayload)]

	// Read overflow page if present
	if info.PayloadSize > maxLocal {
		overflowOffset := offset + int(info.LocalPayload)
		if overflowOffset+4 > len(cellData) {
			return nil, fmt.Errorf("overflow page number truncated")
		}
		info.OverflowPage = binary.BigEndian.Uint32(cellData[overflowOffset:])
	}

	return info, nil
}

// parseTableInteriorCell parses a table interior cell
// Format: 4-byte child page number, varint(rowid)
func parseTableInteriorCell(cellData []byte) (*CellInfo, error) {
	if len(cellData) < 4 {
		return nil, fmt.Errorf("cell data too small for interior cell")
	}

	info := &CellInfo{}

	// Read child page number (4 bytes, big-endian)
	info.ChildPage = binary.BigEndian.Uint32(cellData[0:4])

	// Read rowid (varint)
	rowid, n := GetVarint(cellData[4:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read rowid")
	}
	info.Key = int64(rowid)
	info.CellSize = uint16(4 + n)

	return info, nil
}

// parseIndexLeafCell parses an index leaf cell
// Format: varint(payload_size), payload
func parseIndexLeafCell(cellData []byte, usableSize uint32) (*CellInfo, error) {
	if len(cellData) == 0 {
		return nil, fmt.Errorf("empty cell data")
	}

	info := &CellInfo{}
	offset := 0

	// Read payload size (varint)
	payloadSize64, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read payload size")
	}
	info.PayloadSize = uint32(payloadSize64)
	info.Key = int64(payloadSize64) // For index pages, key is payload size
	offset += n

	// Calculate local payload size
	maxLocal := calculateMaxLocal(usableSize, false)
	minLocal := calculateMinLocal(usableSize, false)

	if info.PayloadSize <= maxLocal {
		// Entire payload fits locally
		info.LocalPayload = uint16(info.PayloadSize)
		info.CellSize = uint16(offset + int(info.PayloadSize))
		if info.CellSize < 4 {
			info.CellSize = 4
		}
	} else {
		// Payload spills to overflow pages
		info.LocalPayload = calculateLocalPayload(info.PayloadSize, minLocal, maxLocal, usableSize)
		info.CellSize = uint16(offset + int(info.LocalPayload) + 4) // +4 for overflow page number
	}

	// Extract payload pointer
	if offset+int(info.LocalPayload) > len(cellData) {
		return nil, fmt.Errorf("cell data truncated")
	}
	info.Payload = cellData[offset : offset+int(info.LocalPayload)]

	// Read overflow page if present
	if info.PayloadSize > maxLocal {
		overflowOffset := offset + int(info.LocalPayload)
		if overflowOffset+4 > len(cellData) {
			return nil, fmt.Errorf("overflow page number truncated")
		}
		info.OverflowPage = binary.BigEndian.Uint32(cellData[overflowOffset:])
	}

	return info, nil
}

// parseIndexInteriorCell parses an index interior cell
// Format: 4-byte child page number, varint(payload_size), payload
func parseIndexInteriorCell(cellData []byte, usableSize uint32) (*CellInfo, error) {
	if len(cellData) < 4 {
		return nil, fmt.Errorf("cell data too small for interior cell")
	}

	info := &CellInfo{}

	// Read child page number (4 bytes, big-endian)
	info.ChildPage = binary.BigEndian.Uint32(cellData[0:4])
	offset := 4

	// Read payload size (varint)
	payloadSize64, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read payload size")
	}
	info.PayloadSize = uint32(payloadSize64)
	info.Key = int64(payloadSize64)
	offset += n

	// Calculate local payload size
	maxLocal := calculateMaxLocal(usableSize, false)
	minLocal := calculateMinLocal(usableSize, false)

	if info.PayloadSize <= maxLocal {
		// Entire payload fits locally
		info.LocalPayload = uint16(info.PayloadSize)
		info.CellSize = uint16(offset + int(info.PayloadSize))
		if info.CellSize < 4 {
			info.CellSize = 4
		}
	} else {
		// Payload spills to overflow pages
		info.LocalPayload = calculateLocalPayload(info.PayloadSize, minLocal, maxLocal, usableSize)
		info.CellSize = uint16(offset + int(info.LocalPayload) + 4) // +4 for overflow page number
	}

	// Extract payload pointer
	if offset+int(info.LocalPayload) > len(cellData) {
		return nil, fmt.Errorf("cell data truncated")
	}
	info.Payload = cellData[offset : offset+int(info.LocalPayload)]

	// Read overflow page if present
	if info.PayloadSize > maxLocal {
		overflowOffset := offset + int(info.LocalPayload)
		if overflowOffset+4 > len(cellData) {
			return nil, fmt.Errorf("overflow page number truncated")
		}
		info.OverflowPage = binary.BigEndian.Uint32(cellData[overflowOffset:])
	}

	return info, nil
}

// calculateMaxLocal calculates the maximum amount of payload that can be stored locally
// Based on SQLite's usable page size and whether this is a table or index page
func calculateMaxLocal(usableSize uint32, isTable bool) uint32 {
	// Both table and index pages use the same limit, maxLocal = usableSize - 35;
	// no separate embedded-payload fraction is applied for either kind.

	if isTable {
		// Table b-trees
		return (usableSize - 35)
	}
	// Index b-trees
	return usableSize - 35
}

// calculateMinLocal calculates the minimum amount of payload that must be stored locally
func calculateMinLocal(usableSize uint32, isTable bool) uint32 {
	// SQLite uses: minLocal = (usableSize-12)*32/255 - 23
	// Simplified: approximately (usableSize - 12) / 8
	return ((usableSize - 12) * 32 / 255) - 23
}

// calculateLocalPayload calculates how much payload to store locally when it overflows
func calculateLocalPayload(payloadSize uint32, minLocal, maxLocal, usableSize uint32) uint16 {
	surplus := minLocal + (payloadSize-minLocal)%(usableSize-4)
	if surplus <= maxLocal {
		return uint16(surplus)
	}
	return uint16(minLocal)
}

// String returns a string representation of the cell info
func (c *CellInfo) String() string {
	return fmt.Sprintf("CellInfo{key=%d, payloadSize=%d, localPayload=%d, cellSize=%d, overflow=%d, child=%d}",
		c.Key, c.PayloadSize, c.LocalPayload, c.CellSize, c.OverflowPage, c.ChildPage)
}

// EncodeTableLeafCell encodes a table leaf cell with the given rowid and payload
// Format: varint(payload_size), varint(rowid), payload, [overflow_page_number]
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	payloadSize := uint64(len(payload))

	// Calculate buffer size
	// Max varint size is 9 bytes, so allocate enough space
	bufSize := 9 + 9 + len(payload) + 4 // varints + payload + potential overflow page
	buf := make([]byte, bufSize)
	offset := 0

	// Write payload size
	n := PutVarint(buf[offset:], payloadSize)
	offset += n

	// Write rowid
	n = PutVarint(buf[offset:], uint64(rowid))
	offset += n

	// Write payload
	copy(buf[offset:], payload)
	offset += len(payload)

	// Return the actual used portion
	return buf[:offset]
}

// EncodeTableInteriorCell encodes a table interior cell with the given child page and rowid
// Format: 4-byte child page number, varint(rowid)
func EncodeTableInteriorCell(childPage uint32, rowid int64) []byte {
	// Max size: 4 bytes (child page) + 9 bytes (varint rowid)
	buf := make([]byte, 13)
	offset := 0

	// Write child page number (4 bytes, big-endian)
	binary.BigEndian.PutUint32(buf[offset:], childPage)
	offset += 4

	// Write rowid
	n := PutVarint(buf[offset:], uint64(rowid))
	offset += n

	// Return the actual used portion
	return buf[:offset]
}

// EncodeIndexLeafCell encodes an index leaf cell with the given payload
// Format: varint(payload_size), payload, [overflow_page_number]
func EncodeIndexLeafCell(payload []byte) []byte {
	payloadSize := uint64(len(payload))

	// Calculate buffer size
	bufSize := 9 + len(payload) + 4 // varint + payload + potential overflow page
	buf := make([]byte, bufSize)
	offset := 0

	// Write payload size
	n := PutVarint(buf[offset:], payloadSize)
	offset += n

	// Write payload
	copy(buf[offset:], payload)
	offset += len(payload)

	return buf[:offset]
}

// EncodeIndexInteriorCell encodes an index interior cell with the given child page and payload
// Format: 4-byte child page number, varint(payload_size), payload, [overflow_page_number]
func EncodeIndexInteriorCell(childPage uint32, payload []byte) []byte {
	payloadSize := uint64(len(payload))

	// Calculate buffer size
	bufSize := 4 + 9 + len(payload) + 4 // child page + varint + payload + potential overflow
	buf := make([]byte, bufSize)
	offset := 0

	// Write child page number (4 bytes, big-endian)
	binary.BigEndian.PutUint32(buf[offset:], childPage)
	offset += 4

	// Write payload size
	n := PutVarint(buf[offset:], payloadSize)
	offset += n

	// Write payload
	copy(buf[offset:], payload)
	offset += len(payload)

	return buf[:offset]
}
