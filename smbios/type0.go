package smbios

// Sub-record types this package cares about.
const (
	typeBIOSInformation   = 0
	typeSystemInformation = 1
)

// Type-0 fixed-part layout.
const (
	type0FixedSize = 24

	type0VendorOffset       = 4
	type0VersionOffset      = 5
	type0StartSegmentOffset = 6
	type0DateOffset         = 8
	type0ROMSizeOffset      = 9
	type0CharsOffset        = 10
	type0CharsExtOffset     = 18
	type0BIOSMajorOffset    = 20
	type0BIOSMinorOffset    = 21
	type0ECMajorOffset      = 22
	type0ECMinorOffset      = 23

	biosStartSegment = 0xe800

	// bit 3 of characteristics byte 0: characteristics not supported.
	charsNotSupported = 0x08

	// bit 2 of extension byte 2: targeted content distribution,
	// needed for SVVP.
	charsTargetedContent = 0x04
)

// type0Size returns the exact footprint of a synthesized type-0
// record: fixed part, one NUL-terminated heap entry per non-empty
// string, and the heap terminator (two bytes when the heap is empty).
func type0Size(vendor, version, date string) int {
	size := type0FixedSize
	strings := 0

	for _, s := range []string{vendor, version, date} {
		if s != "" {
			size += len(s) + 1
			strings++
		}
	}

	size++
	if strings == 0 {
		size++
	}

	return size
}

// writeType0 packs a type-0 record into dst and returns the bytes
// written. Non-empty strings are appended to the heap in field order
// and referenced by 1-based index; an empty field stores index zero.
func writeType0(dst []byte, vendor, version, date string) int {
	end := type0FixedSize
	strIndex := byte(0)

	setString := func(fieldOffset int, s string) {
		if s == "" {
			dst[fieldOffset] = 0

			return
		}

		copy(dst[end:], s)
		dst[end+len(s)] = 0
		end += len(s) + 1
		strIndex++
		dst[fieldOffset] = strIndex
	}

	dst[0] = typeBIOSInformation
	dst[1] = type0FixedSize
	dst[2] = 0 // handle
	dst[3] = 0

	setString(type0VendorOffset, vendor)
	setString(type0VersionOffset, version)

	dst[type0StartSegmentOffset] = byte(biosStartSegment & 0xff)
	dst[type0StartSegmentOffset+1] = byte(biosStartSegment >> 8)

	setString(type0DateOffset, date)

	dst[type0ROMSizeOffset] = 0

	for i := 0; i < 8; i++ {
		dst[type0CharsOffset+i] = 0
	}
	dst[type0CharsOffset] = charsNotSupported

	dst[type0CharsExtOffset] = 0
	dst[type0CharsExtOffset+1] = charsTargetedContent

	// 0/0 and 0xff/0xff are the "no meaningful release version"
	// sentinels for the system BIOS and embedded controller.
	dst[type0BIOSMajorOffset] = 0
	dst[type0BIOSMinorOffset] = 0
	dst[type0ECMajorOffset] = 0xff
	dst[type0ECMinorOffset] = 0xff

	dst[end] = 0
	end++

	if strIndex == 0 {
		dst[end] = 0
		end++
	}

	return end
}
