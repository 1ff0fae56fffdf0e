package ioport_test

import (
	"testing"

	"github.com/firmcore/fwtables/ioport"
)

// stubDevice covers [base, base+size) and remembers the last write.
type stubDevice struct {
	base uint64
	size uint64

	lastPort uint64
	lastData []byte
	value    []byte
}

func (d *stubDevice) Read(port uint64, data []byte) error {
	copy(data, d.value)

	return nil
}

func (d *stubDevice) Write(port uint64, data []byte) error {
	d.lastPort = port
	d.lastData = append([]byte{}, data...)

	return nil
}

func (d *stubDevice) IOPort() uint64 { return d.base }
func (d *stubDevice) Size() uint64   { return d.size }

func TestBusRouting(t *testing.T) {
	t.Parallel()

	a := &stubDevice{base: 0x600, size: 4}
	b := &stubDevice{base: 0x700, size: 2}

	bus := &ioport.Bus{}
	bus.Register(a)
	bus.Register(b)

	if err := bus.Outb(0x602, 0x55); err != nil {
		t.Fatal(err)
	}

	if a.lastPort != 0x602 || len(a.lastData) != 1 || a.lastData[0] != 0x55 {
		t.Fatalf("device a saw port %#x data %v", a.lastPort, a.lastData)
	}

	if err := bus.Outl(0x700, 0x11223344); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x44, 0x33, 0x22, 0x11}
	for i, v := range want {
		if b.lastData[i] != v {
			t.Fatalf("device b data: %v", b.lastData)
		}
	}
}

func TestBusRead(t *testing.T) {
	t.Parallel()

	d := &stubDevice{base: 0x608, size: 4, value: []byte{0x78, 0x56, 0x34, 0x12}}

	bus := &ioport.Bus{}
	bus.Register(d)

	v8, err := bus.Inb(0x608)
	if err != nil {
		t.Fatal(err)
	}

	if v8 != 0x78 {
		t.Fatalf("Inb: %#x", v8)
	}

	v32, err := bus.Inl(0x608)
	if err != nil {
		t.Fatal(err)
	}

	if v32 != 0x12345678 {
		t.Fatalf("Inl: %#x", v32)
	}
}

func TestBusUnclaimedPorts(t *testing.T) {
	t.Parallel()

	bus := &ioport.Bus{}

	if err := bus.Outb(0x80, 0); err != nil {
		t.Fatal(err)
	}

	v8, err := bus.Inb(0x80)
	if err != nil {
		t.Fatal(err)
	}

	if v8 != 0xff {
		t.Fatalf("floating byte read: %#x", v8)
	}

	v32, err := bus.Inl(0x80)
	if err != nil {
		t.Fatal(err)
	}

	if v32 != 0xffffffff {
		t.Fatalf("floating dword read: %#x", v32)
	}
}
