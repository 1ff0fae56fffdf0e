package smbios

import "github.com/firmcore/fwtables/memory"

// Sub-record header: type, length, handle.
const headerSize = 4

// nextOffset advances over the sub-records of tbl. prev < 0 starts the
// iteration; a negative return ends it. The string heap carries no
// length field, so the only way past it is a byte-by-byte scan for the
// double-NUL terminator.
func nextOffset(tbl []byte, prev int) int {
	end := len(tbl)

	pos := 0
	if prev >= 0 {
		if prev+headerSize > end {
			return -1
		}

		pos = prev + int(tbl[prev+1]) + 2
		for pos < end && (tbl[pos-1] != 0 || tbl[pos-2] != 0) {
			pos++
		}
	}

	if pos >= end || pos+headerSize >= end {
		return -1
	}

	if pos+int(tbl[pos+1]) >= end {
		return -1
	}

	return pos
}

// Next is the restartable iterator over the sub-records of the table
// blob at [start, start+length). prev zero starts the iteration, a
// zero return ends it. It allocates nothing and mutates nothing, so
// independent tables can be walked concurrently.
func Next(mem *memory.Physical, start, length, prev uint32) uint32 {
	if start == 0 {
		return 0
	}

	tbl, err := mem.View(start, length)
	if err != nil {
		return 0
	}

	rel := -1
	if prev != 0 {
		if prev < start {
			return 0
		}

		rel = int(prev - start)
	}

	off := nextOffset(tbl, rel)
	if off < 0 {
		return 0
	}

	return start + uint32(off)
}
