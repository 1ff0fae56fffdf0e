package acpi

import (
	"encoding/binary"

	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/pci"
)

// Address space IDs a reset register may live in. The specification
// defines no others for this use.
const (
	SpaceSystemMemory = 0
	SpaceSystemIO     = 1
	SpacePCIConfig    = 2
)

const gasSize = 12

// GenericAddress is the ACPI generalized address structure.
type GenericAddress struct {
	SpaceID    uint8
	BitWidth   uint8
	BitOffset  uint8
	AccessSize uint8
	Address    uint64
}

func parseGenericAddress(b []byte) GenericAddress {
	return GenericAddress{
		SpaceID:    b[0],
		BitWidth:   b[1],
		BitOffset:  b[2],
		AccessSize: b[3],
		Address:    binary.LittleEndian.Uint64(b[4:12]),
	}
}

// IO is the low-level access the reset path needs: one byte store into
// each of the three address spaces a reset register may target.
type IO interface {
	WriteMem8(addr uint32, v uint8) error
	Outb(port uint16, v uint8) error
	WriteConfig8(bdf pci.BDF, offset uint16, v uint8) error
}

// setResetReg accepts the register only when it passes the sanity
// checks; anything else leaves the reset path unconfigured.
func (d *Discovery) setResetReg(reg GenericAddress, val uint8) {
	if reg.SpaceID > SpacePCIConfig || reg.BitWidth != 8 || reg.BitOffset != 0 {
		return
	}

	d.resetReg = reg
	d.resetVal = val
}

// bdfFromAddress derives the config-space location a PCI reset
// register encodes: device in bits 32-47, function in bits 16-31,
// always bus zero.
func bdfFromAddress(addr uint64) pci.BDF {
	return pci.ToBDF(0, int(addr>>32)&0xffff, int(addr>>16)&0xffff)
}

// Reboot performs the ACPI hard reset if a register was configured,
// and is a no-op otherwise.
func (d *Discovery) Reboot(io IO) error {
	// BitWidth is only ever 8 once setResetReg accepted a register.
	if d.resetReg.BitWidth != 8 {
		return nil
	}

	addr := d.resetReg.Address

	log.Debugf("ACPI hard reset %d:%#x (%#x)", d.resetReg.SpaceID, addr, d.resetVal)

	switch d.resetReg.SpaceID {
	case SpaceSystemMemory:
		return io.WriteMem8(uint32(addr), d.resetVal)
	case SpaceSystemIO:
		return io.Outb(uint16(addr), d.resetVal)
	case SpacePCIConfig:
		return io.WriteConfig8(bdfFromAddress(addr), uint16(addr&0xffff), d.resetVal)
	}

	return nil
}
