// Package mptable relocates the legacy multiprocessor tables: the
// "_MP_" floating pointer structure plus the configuration table it
// points at. The two are copied contiguously and the embedded physical
// address is rewritten to the new location, which in turn requires the
// floating structure's checksum to be repaired.
package mptable

import (
	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/table"
)

const (
	signature = "_MP_"

	// Floating pointer structure layout.
	floatingSize   = 16
	physAddrOffset = 4
	lengthOffset   = 8
	checksumOffset = 10

	// The configuration table carries its length at offset 4, after
	// its own "PCMP" signature.
	configLengthOffset = 4

	// DefaultMaxSize bounds the combined footprint accepted into the
	// f-segment zone; larger tables are skipped, not truncated.
	DefaultMaxSize = 600
)

// Copier relocates MPTables. Unlike the other families there is no
// singleton guard: every valid offer is copied.
type Copier struct {
	MaxSize uint32
}

// Copy validates the floating structure at pos and, if it passes,
// relocates it together with its configuration table. Returns the new
// location of the floating structure, or a zero Ref.
func (c *Copier) Copy(mem *memory.Physical, zone *memory.Zone, pos uint32) table.Ref {
	fp, err := mem.View(pos, floatingSize)
	if err != nil || string(fp[:4]) != signature {
		return table.Ref{}
	}

	physAddr, err := mem.ReadUint32(pos + physAddrOffset)
	if err != nil || physAddr == 0 {
		return table.Ref{}
	}

	if table.Checksum(fp) != 0 {
		return table.Ref{}
	}

	length := uint32(fp[lengthOffset]) * 16
	if length < floatingSize {
		return table.Ref{}
	}

	// The configuration table length is read through the original,
	// unrelocated physical address.
	configLength, err := mem.ReadUint16(physAddr + configLengthOffset)
	if err != nil {
		return table.Ref{}
	}

	total := length + uint32(configLength)

	maxSize := c.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}

	if total > maxSize {
		log.Debugf("skipping MPTABLE copy due to large size (%d bytes)", total)

		return table.Ref{}
	}

	config, err := mem.View(physAddr, uint32(configLength))
	if err != nil {
		return table.Ref{}
	}

	// Allocate the final location. In theory the configuration table
	// could live in high memory, but old kernels expect both parts in
	// the f-segment.
	addr, ok := zone.Alloc(total)
	if !ok {
		log.Warnf("no space for MPTABLE (%d bytes) in %s zone", total, zone.Name())

		return table.Ref{}
	}

	dst, err := mem.View(addr, total)
	if err != nil {
		return table.Ref{}
	}

	src, err := mem.View(pos, length)
	if err != nil {
		return table.Ref{}
	}

	copy(dst, src)
	log.Debugf("copying MPTABLE from %#x/%#x to %#x", pos, physAddr, addr)

	if err := mem.WriteUint32(addr+physAddrOffset, addr+length); err != nil {
		return table.Ref{}
	}

	// The address rewrite invalidated the checksum; patch the checksum
	// byte so the copy sums to zero again.
	dst[checksumOffset] -= table.Checksum(dst[:floatingSize])

	copy(dst[length:], config)

	return table.Ref{Addr: addr, Size: total}
}
