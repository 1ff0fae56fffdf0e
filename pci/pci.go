// Package pci provides the bus/device/function addressing and the
// Configuration Space Access Mechanism #1 byte write used by the ACPI
// reset path.
//
// refs
// https://wiki.osdev.org/PCI
package pci

import "fmt"

const (
	addrPort = 0xcf8
	dataPort = 0xcfc

	enableBit = 1 << 31
)

// BDF packs a config-space location as bus<<8 | device<<3 | function.
type BDF uint16

func ToBDF(bus, device, function int) BDF {
	return BDF(bus<<8 | (device&0x1f)<<3 | function&0x7)
}

func (b BDF) Bus() int {
	return int(b >> 8)
}

func (b BDF) Device() int {
	return int(b>>3) & 0x1f
}

func (b BDF) Function() int {
	return int(b) & 0x7
}

func (b BDF) String() string {
	return fmt.Sprintf("%02x:%02x.%d", b.Bus(), b.Device(), b.Function())
}

// PortIO is the slice of port-mapped I/O that mechanism #1 needs.
type PortIO interface {
	Outb(port uint16, v uint8) error
	Outl(port uint16, v uint32) error
}

// Config issues config-space accesses through the 0xcf8/0xcfc port
// pair.
type Config struct {
	Ports PortIO
}

// WriteConfig8 writes one byte of config space at (bdf, offset).
func (c *Config) WriteConfig8(bdf BDF, offset uint16, v uint8) error {
	addr := enableBit | uint32(bdf)<<8 | uint32(offset)&0xfc
	if err := c.Ports.Outl(addrPort, addr); err != nil {
		return err
	}

	return c.Ports.Outb(dataPort+offset&0x3, v)
}
