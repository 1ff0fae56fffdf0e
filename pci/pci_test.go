package pci_test

import (
	"testing"

	"github.com/firmcore/fwtables/pci"
)

func TestBDF(t *testing.T) {
	t.Parallel()

	b := pci.ToBDF(1, 0x1f, 3)

	if b.Bus() != 1 {
		t.Fatalf("bus: %d", b.Bus())
	}

	if b.Device() != 0x1f {
		t.Fatalf("device: %d", b.Device())
	}

	if b.Function() != 3 {
		t.Fatalf("function: %d", b.Function())
	}

	if b.String() != "01:1f.3" {
		t.Fatalf("string: %s", b.String())
	}
}

func TestToBDFMasks(t *testing.T) {
	t.Parallel()

	// Out-of-range device and function bits must not leak into
	// neighboring fields.
	b := pci.ToBDF(0, 0xff, 0xff)

	if b.Bus() != 0 {
		t.Fatalf("bus: %d", b.Bus())
	}

	if b.Device() != 0x1f {
		t.Fatalf("device: %d", b.Device())
	}

	if b.Function() != 7 {
		t.Fatalf("function: %d", b.Function())
	}
}

type recordingPorts struct {
	outb []struct {
		port uint16
		v    uint8
	}
	outl []struct {
		port uint16
		v    uint32
	}
}

func (r *recordingPorts) Outb(port uint16, v uint8) error {
	r.outb = append(r.outb, struct {
		port uint16
		v    uint8
	}{port, v})

	return nil
}

func (r *recordingPorts) Outl(port uint16, v uint32) error {
	r.outl = append(r.outl, struct {
		port uint16
		v    uint32
	}{port, v})

	return nil
}

func TestWriteConfig8(t *testing.T) {
	t.Parallel()

	ports := &recordingPorts{}
	c := pci.Config{Ports: ports}

	bdf := pci.ToBDF(0, 3, 2)

	if err := c.WriteConfig8(bdf, 0x46, 0xaa); err != nil {
		t.Fatal(err)
	}

	if len(ports.outl) != 1 {
		t.Fatalf("address writes: %d", len(ports.outl))
	}

	// Enable bit, BDF in bits 8-23, dword-aligned register.
	wantAddr := uint32(1<<31) | uint32(bdf)<<8 | 0x44
	if ports.outl[0].port != 0xcf8 || ports.outl[0].v != wantAddr {
		t.Fatalf("address write: port %#x value %#x", ports.outl[0].port, ports.outl[0].v)
	}

	if len(ports.outb) != 1 {
		t.Fatalf("data writes: %d", len(ports.outb))
	}

	// The byte lands on the data port shifted by the low two bits.
	if ports.outb[0].port != 0xcfc+2 || ports.outb[0].v != 0xaa {
		t.Fatalf("data write: port %#x value %#x", ports.outb[0].port, ports.outb[0].v)
	}
}
