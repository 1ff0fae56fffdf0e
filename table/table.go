// Package table holds the primitives shared by every table family:
// byte-sum checksums, the relocated-table handle, and the copy-into-zone
// service. It knows nothing about any table's internal layout.
package table

import (
	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/memory"
)

// Checksum returns the unsigned 8-bit sum of b. A region is valid when
// the sum over its declared length is zero.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum += v
	}

	return sum
}

// Ref is the process-wide handle for one relocated table. The zero
// value means "not installed"; callers treat that as table absent, not
// as a failure.
type Ref struct {
	Addr uint32
	Size uint32
}

func (r Ref) Installed() bool {
	return r.Addr != 0
}

// Copy relocates size bytes at pos into the zone. Allocation failure is
// a handled condition: it logs and returns a zero Ref.
func Copy(name string, mem *memory.Physical, zone *memory.Zone, pos, size uint32) Ref {
	src, err := mem.View(pos, size)
	if err != nil {
		log.Debugf("%s table at %#x overruns memory: %v", name, pos, err)

		return Ref{}
	}

	addr, ok := zone.Alloc(size)
	if !ok {
		log.Warnf("no space for %s table (%d bytes) in %s zone", name, size, zone.Name())

		return Ref{}
	}

	dst, err := mem.View(addr, size)
	if err != nil {
		return Ref{}
	}

	copy(dst, src)
	log.Debugf("copying %s from %#x to %#x", name, pos, addr)

	return Ref{Addr: addr, Size: size}
}

// Place writes a host-built blob into the zone, for tables synthesized
// rather than discovered.
func Place(name string, mem *memory.Physical, zone *memory.Zone, b []byte) Ref {
	addr, ok := zone.Alloc(uint32(len(b)))
	if !ok {
		log.Warnf("no space for %s table (%d bytes) in %s zone", name, len(b), zone.Name())

		return Ref{}
	}

	if err := mem.Write(addr, b); err != nil {
		return Ref{}
	}

	log.Debugf("placing %s at %#x", name, addr)

	return Ref{Addr: addr, Size: uint32(len(b))}
}
