// Package pir relocates the PCI Interrupt Routing table ("$PIR").
package pir

import (
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/table"
)

const (
	signature = "$PIR"

	// headerSize is the fixed part of the table: signature, version,
	// size, router location, exclusive IRQ bitmap, compatible router,
	// miniport data, 11 reserved bytes and the checksum byte.
	headerSize = 32

	sizeOffset = 6
)

// Table holds the singleton handle for the relocated PIR table. First
// valid offer wins; later offers are silently ignored.
type Table struct {
	ref table.Ref
}

func (t *Table) Ref() table.Ref {
	return t.ref
}

// Offer inspects a raw candidate region. Anything that is not a valid,
// not-yet-installed PIR table is a silent no-op.
func (t *Table) Offer(mem *memory.Physical, zone *memory.Zone, pos uint32) {
	sig, err := mem.View(pos, 4)
	if err != nil || string(sig) != signature {
		return
	}

	if t.ref.Installed() {
		return
	}

	size, err := mem.ReadUint16(pos + sizeOffset)
	if err != nil || uint32(size) < headerSize {
		return
	}

	b, err := mem.View(pos, uint32(size))
	if err != nil || table.Checksum(b) != 0 {
		return
	}

	t.ref = table.Copy("PIR", mem, zone, pos, uint32(size))
}
