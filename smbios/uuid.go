package smbios

import (
	"bytes"
	"fmt"
	"io"
)

const (
	uuidOffset = 8
	uuidSize   = 16

	type1MinLength = uuidOffset + uuidSize
)

// DisplayUUID prints the machine UUID from the first system
// information (type 1) sub-record that carries one. An all-zero UUID
// means "not set" and prints nothing.
func (s *State) DisplayUUID(w io.Writer) {
	addr, length, ok := s.Tables()
	if !ok {
		return
	}

	for ptr := Next(s.Mem, addr, length, 0); ptr != 0; ptr = Next(s.Mem, addr, length, ptr) {
		hdr, err := s.Mem.View(ptr, headerSize)
		if err != nil {
			return
		}

		if hdr[0] != typeSystemInformation || int(hdr[1]) < type1MinLength {
			continue
		}

		uuid, err := s.Mem.View(ptr+uuidOffset, uuidSize)
		if err != nil {
			return
		}

		if bytes.Equal(uuid, make([]byte, uuidSize)) {
			return
		}

		fmt.Fprintf(w, "Machine UUID %s\n", s.formatUUID(uuid))

		return
	}
}

// formatUUID renders the 16 UUID bytes. SMBIOS 2.6 declared the first
// three fields little-endian; earlier versions left the encoding
// unspecified, and like dmidecode we assume big-endian for those.
func (s *State) formatUUID(uuid []byte) string {
	major := s.majorVersion()
	minor := s.minorVersion()

	if major > 2 || (major == 2 && minor >= 6) {
		return fmt.Sprintf(
			"%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
			uuid[3], uuid[2], uuid[1], uuid[0],
			uuid[5], uuid[4],
			uuid[7], uuid[6],
			uuid[8], uuid[9],
			uuid[10], uuid[11], uuid[12],
			uuid[13], uuid[14], uuid[15])
	}

	return fmt.Sprintf(
		"%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		uuid[0], uuid[1], uuid[2], uuid[3],
		uuid[4], uuid[5],
		uuid[6], uuid[7],
		uuid[8], uuid[9],
		uuid[10], uuid[11], uuid[12],
		uuid[13], uuid[14], uuid[15])
}
