package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errOutOfRange = errors.New("address out of range")

// Physical models the guest-physical address space below 4 GiB as a
// flat byte buffer. Every access is bounds-checked; table handlers must
// never dereference an embedded address without going through here.
type Physical struct {
	buf []byte
}

func New(size uint32) *Physical {
	return &Physical{buf: make([]byte, size)}
}

// NewFromBytes wraps an existing image, e.g. a memory dump loaded from
// disk. The image is used in place, not copied.
func NewFromBytes(b []byte) *Physical {
	return &Physical{buf: b}
}

func (p *Physical) Size() uint32 {
	return uint32(len(p.buf))
}

// View returns a window into the address space. The window aliases the
// underlying buffer, so writes through it are visible to later reads.
func (p *Physical) View(addr, size uint32) ([]byte, error) {
	end := uint64(addr) + uint64(size)
	if end > uint64(len(p.buf)) {
		return nil, fmt.Errorf("%w: %#x+%#x > %#x", errOutOfRange, addr, size, len(p.buf))
	}

	return p.buf[addr:end:end], nil
}

func (p *Physical) ReadUint8(addr uint32) (uint8, error) {
	b, err := p.View(addr, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (p *Physical) ReadUint16(addr uint32) (uint16, error) {
	b, err := p.View(addr, 2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

func (p *Physical) ReadUint32(addr uint32) (uint32, error) {
	b, err := p.View(addr, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (p *Physical) ReadUint64(addr uint32) (uint64, error) {
	b, err := p.View(addr, 8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (p *Physical) WriteUint8(addr uint32, v uint8) error {
	b, err := p.View(addr, 1)
	if err != nil {
		return err
	}

	b[0] = v

	return nil
}

func (p *Physical) WriteUint16(addr uint32, v uint16) error {
	b, err := p.View(addr, 2)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint16(b, v)

	return nil
}

func (p *Physical) WriteUint32(addr uint32, v uint32) error {
	b, err := p.View(addr, 4)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(b, v)

	return nil
}

func (p *Physical) Write(addr uint32, data []byte) error {
	b, err := p.View(addr, uint32(len(data)))
	if err != nil {
		return err
	}

	copy(b, data)

	return nil
}
