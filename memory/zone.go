package memory

const allocAlign = 16

// Zone is a bump allocator over a fixed range of the physical address
// space. The firmware uses two tiers: a small f-segment zone whose
// capacity is scarce, and a roomier high zone for oversized tables.
// Allocations are permanent; tables are never released individually.
type Zone struct {
	phys  *Physical
	name  string
	start uint32
	cur   uint32
	end   uint32
}

func NewZone(p *Physical, name string, start, end uint32) *Zone {
	if end > p.Size() {
		end = p.Size()
	}

	return &Zone{phys: p, name: name, start: start, cur: start, end: end}
}

func (z *Zone) Name() string {
	return z.name
}

// Range returns the zone's fixed bounds.
func (z *Zone) Range() (start, end uint32) {
	return z.start, z.end
}

// Alloc reserves size bytes, 16-byte aligned. Exhaustion is an expected
// outcome, reported through ok, not an error.
func (z *Zone) Alloc(size uint32) (addr uint32, ok bool) {
	cur := (z.cur + allocAlign - 1) &^ (allocAlign - 1)
	if cur < z.cur { // alignment wrapped
		return 0, false
	}

	// Address zero is the "table absent" sentinel, keep it out of use.
	if cur == 0 {
		cur = allocAlign
	}

	end := uint64(cur) + uint64(size)
	if end > uint64(z.end) {
		return 0, false
	}

	z.cur = uint32(end)

	return cur, true
}

// Avail reports how many bytes remain, ignoring alignment padding.
func (z *Zone) Avail() uint32 {
	if z.cur >= z.end {
		return 0
	}

	return z.end - z.cur
}
