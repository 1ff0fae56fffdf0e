package mptable_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/mptable"
	"github.com/firmcore/fwtables/table"
)

// plantMPTable writes a floating pointer at fpPos and a configuration
// table of configLen bytes at configPos.
func plantMPTable(t *testing.T, mem *memory.Physical, fpPos, configPos uint32, configLen uint16) {
	t.Helper()

	fp := make([]byte, 16)
	copy(fp, "_MP_")
	binary.LittleEndian.PutUint32(fp[4:], configPos)
	fp[8] = 1 // length in 16-byte units
	fp[9] = 4 // spec revision
	fp[10] = -table.Checksum(fp)

	if err := mem.Write(fpPos, fp); err != nil {
		t.Fatal(err)
	}

	config := make([]byte, configLen)
	copy(config, "PCMP")
	binary.LittleEndian.PutUint16(config[4:], configLen)

	for i := 8; i < len(config); i++ {
		config[i] = byte(i)
	}

	if err := mem.Write(configPos, config); err != nil {
		t.Fatal(err)
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	mem := memory.New(0x100000)
	zone := memory.NewZone(mem, "fseg", 0xe0000, 0xf0000)

	plantMPTable(t, mem, 0x9fc00, 0x8000, 0x80)

	var c mptable.Copier

	ref := c.Copy(mem, zone, 0x9fc00)
	if !ref.Installed() {
		t.Fatal("valid table not copied")
	}

	if ref.Size != 16+0x80 {
		t.Fatalf("size: %d", ref.Size)
	}

	dst, err := mem.View(ref.Addr, ref.Size)
	if err != nil {
		t.Fatal(err)
	}

	// The embedded physical address must point at the relocated
	// configuration table, immediately after the floating pointer.
	if got := binary.LittleEndian.Uint32(dst[4:]); got != ref.Addr+16 {
		t.Fatalf("physical address not rewritten: %#x", got)
	}

	// The rewrite must leave the floating pointer checksummed.
	if table.Checksum(dst[:16]) != 0 {
		t.Fatal("floating pointer checksum not repaired")
	}

	orig, err := mem.View(0x8000, 0x80)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(dst[16:], orig) {
		t.Fatal("configuration table bytes differ")
	}
}

func TestCopySkipsLarge(t *testing.T) {
	t.Parallel()

	mem := memory.New(0x100000)
	zone := memory.NewZone(mem, "fseg", 0xe0000, 0xf0000)

	plantMPTable(t, mem, 0x9fc00, 0x8000, 0x1000)

	var c mptable.Copier

	if ref := c.Copy(mem, zone, 0x9fc00); ref.Installed() {
		t.Fatal("oversized table must be skipped")
	}

	// A raised ceiling admits the same table.
	c.MaxSize = 0x2000

	if ref := c.Copy(mem, zone, 0x9fc00); !ref.Installed() {
		t.Fatal("table under the raised ceiling must be copied")
	}
}

func TestCopyRejects(t *testing.T) {
	t.Parallel()

	mem := memory.New(0x100000)
	zone := memory.NewZone(mem, "fseg", 0xe0000, 0xf0000)

	var c mptable.Copier

	// No signature at all.
	if ref := c.Copy(mem, zone, 0x1000); ref.Installed() {
		t.Fatal("empty region accepted")
	}

	// Zero physical address.
	fp := make([]byte, 16)
	copy(fp, "_MP_")
	fp[8] = 1
	fp[10] = -table.Checksum(fp)

	if err := mem.Write(0x2000, fp); err != nil {
		t.Fatal(err)
	}

	if ref := c.Copy(mem, zone, 0x2000); ref.Installed() {
		t.Fatal("zero physical address accepted")
	}

	// Corrupted checksum.
	plantMPTable(t, mem, 0x3000, 0x8000, 0x40)

	b, err := mem.View(0x3000, 16)
	if err != nil {
		t.Fatal(err)
	}

	b[10]++

	if ref := c.Copy(mem, zone, 0x3000); ref.Installed() {
		t.Fatal("corrupted checksum accepted")
	}

	// Zero-length floating pointer.
	plantMPTable(t, mem, 0x4000, 0x8000, 0x40)

	b, err = mem.View(0x4000, 16)
	if err != nil {
		t.Fatal(err)
	}

	b[8] = 0
	b[10] = 0
	b[10] = -table.Checksum(b)

	if ref := c.Copy(mem, zone, 0x4000); ref.Installed() {
		t.Fatal("zero-length floating pointer accepted")
	}
}
