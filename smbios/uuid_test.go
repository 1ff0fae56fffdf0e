package smbios_test

import (
	"bytes"
	"testing"
)

var uuidBytes = []byte{
	0x33, 0x22, 0x11, 0x00,
	0x55, 0x44,
	0x77, 0x66,
	0x88, 0x99,
	0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

// uuidRec builds a type-1 record long enough to carry a UUID.
func uuidRec(uuid []byte) []byte {
	formatted := make([]byte, 23)
	copy(formatted[4:], uuid)

	return rec(1, formatted, "Acme")
}

func TestDisplayUUIDLittleEndian(t *testing.T) {
	t.Parallel()

	s, mem := newState(t)

	blob := uuidRec(uuidBytes)
	if err := mem.Write(0x7000, blob); err != nil {
		t.Fatal(err)
	}

	if err := mem.Write(0x1000, buildEP21(0x7000, uint16(len(blob)), 32, 1, 2, 8)); err != nil {
		t.Fatal(err)
	}

	s.Offer21(0x1000)

	var out bytes.Buffer

	s.DisplayUUID(&out)

	want := "Machine UUID 00112233-4455-6677-8899-aabbccddeeff\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestDisplayUUIDPre26(t *testing.T) {
	t.Parallel()

	s, mem := newState(t)

	blob := uuidRec(uuidBytes)
	if err := mem.Write(0x7000, blob); err != nil {
		t.Fatal(err)
	}

	// Version 2.4 predates the little-endian mandate; the bytes print
	// in wire order.
	if err := mem.Write(0x1000, buildEP21(0x7000, uint16(len(blob)), 32, 1, 2, 4)); err != nil {
		t.Fatal(err)
	}

	s.Offer21(0x1000)

	var out bytes.Buffer

	s.DisplayUUID(&out)

	want := "Machine UUID 33221100-5544-7766-8899-aabbccddeeff\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestDisplayUUIDUnset(t *testing.T) {
	t.Parallel()

	s, mem := newState(t)

	blob := uuidRec(make([]byte, 16))
	if err := mem.Write(0x7000, blob); err != nil {
		t.Fatal(err)
	}

	if err := mem.Write(0x1000, buildEP21(0x7000, uint16(len(blob)), 32, 1, 2, 8)); err != nil {
		t.Fatal(err)
	}

	s.Offer21(0x1000)

	var out bytes.Buffer

	s.DisplayUUID(&out)

	if out.Len() != 0 {
		t.Fatalf("all-zero UUID printed: %q", out.String())
	}
}

func TestDisplayUUIDNoSystemRecord(t *testing.T) {
	t.Parallel()

	s, mem := newState(t)

	blob := rec(4, make([]byte, 28))
	if err := mem.Write(0x7000, blob); err != nil {
		t.Fatal(err)
	}

	if err := mem.Write(0x1000, buildEP21(0x7000, uint16(len(blob)), 32, 1, 2, 8)); err != nil {
		t.Fatal(err)
	}

	s.Offer21(0x1000)

	var out bytes.Buffer

	s.DisplayUUID(&out)

	if out.Len() != 0 {
		t.Fatalf("UUID printed without a system record: %q", out.String())
	}
}
