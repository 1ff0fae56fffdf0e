package smbios

import (
	"encoding/binary"

	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/romfile"
	"github.com/firmcore/fwtables/table"
)

const (
	// Romfile entries carrying the externally supplied entry point and
	// structure table.
	AnchorPath = "etc/smbios/smbios-anchor"
	TablesPath = "etc/smbios/smbios-tables"

	// The 2.1 format stores the structure table length in 16 bits.
	maxTableLength = 0xffff
)

// Setup builds the SMBIOS tables from romfile-supplied fragments,
// synthesizing a type-0 record when the fragment lacks one. It returns
// false when the romfile entries are absent or unusable, in which case
// the caller falls back to its legacy generation path.
func (s *State) Setup(store *romfile.Store) bool {
	anchor := store.Find(AnchorPath)
	tables := store.Find(TablesPath)

	if anchor == nil || tables == nil || anchor.Size() > EntryPoint21Size {
		return false
	}

	ep := make([]byte, anchor.Size())
	anchor.Copy(ep)

	switch {
	case len(ep) == EntryPoint21Size && string(ep[0:4]) == anchor21:
		return s.setup21(tables, ep)
	case len(ep) == EntryPoint30Size && string(ep[0:5]) == anchor30:
		return s.setup30(tables, ep)
	default:
		warnInvalidAnchor()

		return false
	}
}

// buildTables stages the romfile fragment, appends a type-0 record if
// none is present, and writes the final blob into the proper zone.
// address and length are updated in place; maxStructSize and
// numStructs are optional counters only the 2.1 entry point carries.
func (s *State) buildTables(f *romfile.File, address *uint64, length *uint32,
	maxStructSize, numStructs *uint16,
) bool {
	if uint32(f.Size()) != *length {
		return false
	}

	staging := make([]byte, f.Size())
	f.Copy(staging)

	needT0 := true

	for off := nextOffset(staging, -1); off >= 0; off = nextOffset(staging, off) {
		if staging[off] == typeBIOSInformation {
			needT0 = false

			break
		}
	}

	if needT0 {
		t0len := uint32(type0Size(s.BIOSVendor, s.BIOSVersion, s.BIOSDate))
		if t0len > maxTableLength-*length {
			log.Debugf("insufficient space (%d bytes) to add SMBIOS type 0 table (%d bytes)",
				maxTableLength-*length, t0len)

			needT0 = false
		} else {
			*length += t0len

			if maxStructSize != nil && uint16(t0len) > *maxStructSize {
				*maxStructSize = uint16(t0len)
			}

			if numStructs != nil {
				*numStructs++
			}
		}
	}

	fsegMax := s.FsegMax
	if fsegMax == 0 {
		fsegMax = DefaultFsegMax
	}

	zone := s.FSeg
	if *length > fsegMax {
		zone = s.High
	}

	addr, ok := zone.Alloc(*length)
	if !ok {
		log.Warnf("no space for SMBIOS tables (%d bytes) in %s zone", *length, zone.Name())

		return false
	}

	buf, err := s.Mem.View(addr, *length)
	if err != nil {
		return false
	}

	off := 0
	if needT0 {
		off = writeType0(buf, s.BIOSVendor, s.BIOSVersion, s.BIOSDate)
	}

	copy(buf[off:], staging)

	*address = uint64(addr)

	return true
}

func (s *State) setup21(f *romfile.File, ep []byte) bool {
	address := uint64(binary.LittleEndian.Uint32(ep[ep21TableAddressOffset:]))
	length := uint32(binary.LittleEndian.Uint16(ep[ep21TableLengthOffset:]))
	maxStructSize := binary.LittleEndian.Uint16(ep[ep21MaxStructSizeOffset:])
	numStructs := binary.LittleEndian.Uint16(ep[ep21NumStructsOffset:])

	if !s.buildTables(f, &address, &length, &maxStructSize, &numStructs) {
		return false
	}

	// The relocated address and grown length must still fit the 32-bit
	// and 16-bit entry point fields.
	if address != uint64(uint32(address)) || length != uint32(uint16(length)) {
		log.Errorf("SMBIOS tables at %#x (%d bytes) do not fit the 2.1 entry point", address, length)

		return false
	}

	binary.LittleEndian.PutUint16(ep[ep21MaxStructSizeOffset:], maxStructSize)
	binary.LittleEndian.PutUint16(ep[ep21TableLengthOffset:], uint16(length))
	binary.LittleEndian.PutUint32(ep[ep21TableAddressOffset:], uint32(address))
	binary.LittleEndian.PutUint16(ep[ep21NumStructsOffset:], numStructs)

	ep[ep21ChecksumOffset] = 0
	ep[ep21ChecksumOffset] -= table.Checksum(ep[:formattedRegion21Len])

	epLen := int(ep[ep21LengthOffset])
	ep[ep21IntermediateChecksum] = 0
	ep[ep21IntermediateChecksum] -= table.Checksum(ep[formattedRegion21Len:epLen])

	s.accept21(ep)

	return true
}

func (s *State) setup30(f *romfile.File, ep []byte) bool {
	address := binary.LittleEndian.Uint64(ep[ep30TableAddressOffset:])
	length := binary.LittleEndian.Uint32(ep[ep30MaxSizeOffset:])

	if !s.buildTables(f, &address, &length, nil, nil) {
		return false
	}

	binary.LittleEndian.PutUint32(ep[ep30MaxSizeOffset:], length)
	binary.LittleEndian.PutUint64(ep[ep30TableAddressOffset:], address)

	ep[ep30ChecksumOffset] = 0
	ep[ep30ChecksumOffset] -= table.Checksum(ep[:EntryPoint30Size])

	s.accept30(ep)

	return true
}
