// Package smbios validates, relocates and, when necessary, synthesizes
// the SMBIOS entry point and structure table.
package smbios

import (
	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/table"
)

const (
	anchor21             = "_SM_"
	anchor30             = "_SM3_"
	intermediateAnchor   = "_DMI_"
	EntryPoint21Size     = 0x1f
	EntryPoint30Size     = 0x18
	formattedRegion21Len = 0x10

	// 2.1 entry point field offsets.
	ep21ChecksumOffset       = 0x04
	ep21LengthOffset         = 0x05
	ep21MajorOffset          = 0x06
	ep21MinorOffset          = 0x07
	ep21MaxStructSizeOffset  = 0x08
	ep21IntermediateOffset   = 0x10
	ep21IntermediateChecksum = 0x15
	ep21TableLengthOffset    = 0x16
	ep21TableAddressOffset   = 0x18
	ep21NumStructsOffset     = 0x1c

	// 3.0 entry point field offsets.
	ep30ChecksumOffset     = 0x05
	ep30LengthOffset       = 0x06
	ep30MajorOffset        = 0x07
	ep30MinorOffset        = 0x08
	ep30MaxSizeOffset      = 0x0c
	ep30TableAddressOffset = 0x10
)

// DefaultFsegMax is the structure-table size above which the final
// blob is placed in the high zone instead of the f-segment.
const DefaultFsegMax = 600

// State owns the two mutually exclusive entry-point singletons and the
// synthesis configuration. Exactly one of EP21/EP30 becomes populated
// per boot; whichever validates first wins.
type State struct {
	Mem  *memory.Physical
	FSeg *memory.Zone
	High *memory.Zone

	// FsegMax overrides DefaultFsegMax when nonzero.
	FsegMax uint32

	// Identity strings packed into a synthesized type-0 record.
	BIOSVendor  string
	BIOSVersion string
	BIOSDate    string

	ep21 table.Ref
	ep30 table.Ref
}

func (s *State) EntryPoint21() table.Ref {
	return s.ep21
}

func (s *State) EntryPoint30() table.Ref {
	return s.ep30
}

// valid21 checks the 2.1 entry point's signature, both checksum
// regions and the intermediate anchor. b must hold the whole entry
// point.
func valid21(b []byte) bool {
	if len(b) < EntryPoint21Size {
		return false
	}

	if string(b[0:4]) != anchor21 {
		return false
	}

	if table.Checksum(b[:formattedRegion21Len]) != 0 {
		return false
	}

	if string(b[ep21IntermediateOffset:ep21IntermediateOffset+5]) != intermediateAnchor {
		return false
	}

	length := int(b[ep21LengthOffset])
	if length < formattedRegion21Len || length > len(b) {
		return false
	}

	return table.Checksum(b[formattedRegion21Len:length]) == 0
}

// valid30 checks the 3.0 entry point's signature and single checksum.
func valid30(b []byte) bool {
	if len(b) < EntryPoint30Size {
		return false
	}

	if string(b[0:5]) != anchor30 {
		return false
	}

	length := int(b[ep30LengthOffset])
	if length < EntryPoint30Size || length > len(b) {
		return false
	}

	return table.Checksum(b[:length]) == 0
}

// accept21 relocates a validated 2.1 entry point blob and records the
// singleton.
func (s *State) accept21(b []byte) {
	if s.ep21.Installed() {
		return
	}

	if !valid21(b) {
		return
	}

	s.ep21 = table.Place("SMBIOS", s.Mem, s.FSeg, b[:b[ep21LengthOffset]])
}

func (s *State) accept30(b []byte) {
	if s.ep30.Installed() {
		return
	}

	if !valid30(b) {
		return
	}

	s.ep30 = table.Place("SMBIOS 3.0", s.Mem, s.FSeg, b[:b[ep30LengthOffset]])
}

// Offer21 inspects a raw candidate region for a 2.1 entry point.
func (s *State) Offer21(pos uint32) {
	if s.ep21.Installed() {
		return
	}

	b, err := s.Mem.View(pos, EntryPoint21Size)
	if err != nil {
		return
	}

	// The declared length may exceed the fixed 2.1 size; widen the
	// view so the trailing checksum region is covered.
	if l := uint32(b[ep21LengthOffset]); l > EntryPoint21Size {
		if wide, err := s.Mem.View(pos, l); err == nil {
			b = wide
		}
	}

	s.accept21(b)
}

// Offer30 inspects a raw candidate region for a 3.0 entry point.
func (s *State) Offer30(pos uint32) {
	if s.ep30.Installed() {
		return
	}

	b, err := s.Mem.View(pos, EntryPoint30Size)
	if err != nil {
		return
	}

	if l := uint32(b[ep30LengthOffset]); l > EntryPoint30Size {
		if wide, err := s.Mem.View(pos, l); err == nil {
			b = wide
		}
	}

	s.accept30(b)
}

// Tables exposes the structure table uniformly across the two entry
// point formats, preferring 3.0. ok is false when no SMBIOS tables are
// installed or the 3.0 table address does not fit below 4 GiB.
func (s *State) Tables() (addr uint32, length uint32, ok bool) {
	if s.ep30.Installed() {
		addr64, err := s.Mem.ReadUint64(s.ep30.Addr + ep30TableAddressOffset)
		if err == nil && addr64 == uint64(uint32(addr64)) {
			size, err := s.Mem.ReadUint32(s.ep30.Addr + ep30MaxSizeOffset)
			if err == nil {
				return uint32(addr64), size, true
			}
		}
	}

	if s.ep21.Installed() {
		addr, err := s.Mem.ReadUint32(s.ep21.Addr + ep21TableAddressOffset)
		if err != nil {
			return 0, 0, false
		}

		size, err := s.Mem.ReadUint16(s.ep21.Addr + ep21TableLengthOffset)
		if err != nil {
			return 0, 0, false
		}

		return addr, uint32(size), true
	}

	return 0, 0, false
}

func (s *State) majorVersion() int {
	switch {
	case s.ep30.Installed():
		v, _ := s.Mem.ReadUint8(s.ep30.Addr + ep30MajorOffset)

		return int(v)
	case s.ep21.Installed():
		v, _ := s.Mem.ReadUint8(s.ep21.Addr + ep21MajorOffset)

		return int(v)
	}

	return 0
}

func (s *State) minorVersion() int {
	switch {
	case s.ep30.Installed():
		v, _ := s.Mem.ReadUint8(s.ep30.Addr + ep30MinorOffset)

		return int(v)
	case s.ep21.Installed():
		v, _ := s.Mem.ReadUint8(s.ep21.Addr + ep21MinorOffset)

		return int(v)
	}

	return 0
}

func warnInvalidAnchor() {
	log.Debugf("invalid SMBIOS signature at etc/smbios/smbios-anchor")
}
