// Package acpi discovers the ACPI root pointer, resolves tables by
// signature through the root indices, and derives power-management and
// reset information from the FADT/FACS pair.
package acpi

import (
	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/table"
)

const (
	rsdpSignature = "RSD PTR "

	// RSDP layout: the ACPI 1.0 part is 20 bytes ending in the RSDT
	// address; revision >1 appends a length, the XSDT address and a
	// second checksum.
	rsdpRevisionOffset = 15
	rsdpRsdtOffset     = 16
	rsdpLengthOffset   = 20
	rsdpXsdtOffset     = 24
	rsdpLegacySize     = 20
	rsdpExtendedSize   = 36

	// Common system description table header.
	headerLengthOffset = 4
	headerSize         = 36

	// FADT field offsets (rev1 layout; the reset register fields are
	// gated on the declared length).
	fadtFirmwareCtrlOffset = 36
	fadtPM1aCntOffset      = 64
	fadtPMTmrOffset        = 76
	fadtResetRegOffset     = 116
	fadtResetValueOffset   = 128
	fadtResetMinLength     = 129

	// FACS: signature then length, the waking vector at offset 12.
	facsWakingVectorOffset = 12

	above4G = 1 << 32
)

// Signatures looked up through FindTable.
const (
	SigFACP = "FACP"
	SigFACS = "FACS"
	SigRSDT = "RSDT"
	SigXSDT = "XSDT"
)

// Discovery owns the RSDP singleton and everything derived from it.
// Construct one per boot and thread it through the offer pipeline.
type Discovery struct {
	Mem  *memory.Physical
	Zone *memory.Zone

	// PMTimer receives the power-management timer port when the FADT
	// declares one.
	PMTimer func(port uint32)

	// ParseDSDT is invoked after feature extraction so the platform
	// can walk the DSDT for devices. Optional.
	ParseDSDT func()

	rsdp table.Ref

	pm1aCnt  uint32
	resetReg GenericAddress
	resetVal uint8
}

// RSDP returns the handle of the relocated root pointer.
func (d *Discovery) RSDP() table.Ref {
	return d.rsdp
}

// PM1aControl returns the PM1a control port from the FADT, zero when
// the platform does not declare one.
func (d *Discovery) PM1aControl() uint32 {
	return d.pm1aCnt
}

// rsdpLength validates the candidate at pos and returns the region
// size its checksum covers, or ok=false.
func (d *Discovery) rsdpLength(pos uint32, avail uint32) (uint32, bool) {
	sig, err := d.Mem.View(pos, 8)
	if err != nil || string(sig) != rsdpSignature {
		return 0, false
	}

	length := uint32(rsdpLegacySize)
	if length > avail {
		return 0, false
	}

	b, err := d.Mem.View(pos, length)
	if err != nil || table.Checksum(b) != 0 {
		return 0, false
	}

	rev, err := d.Mem.ReadUint8(pos + rsdpRevisionOffset)
	if err != nil {
		return 0, false
	}

	if rev > 1 {
		length, err = d.Mem.ReadUint32(pos + rsdpLengthOffset)
		if err != nil || length > avail {
			return 0, false
		}

		b, err = d.Mem.View(pos, length)
		if err != nil || table.Checksum(b) != 0 {
			return 0, false
		}
	}

	return length, true
}

// LocateRSDP probes [start, end) at 16-byte alignment for a valid root
// pointer and returns the first hit.
func (d *Discovery) LocateRSDP(start, end uint32) (uint32, bool) {
	for pos := (start + 0xf) &^ 0xf; pos <= end&^0xf && pos < end; pos += 0x10 {
		if _, ok := d.rsdpLength(pos, end-pos); ok {
			return pos, true
		}
	}

	return 0, false
}

// InstallRSDP validates the candidate at pos and relocates it. Only the
// first valid root pointer per boot is kept.
func (d *Discovery) InstallRSDP(pos uint32) {
	if d.rsdp.Installed() {
		return
	}

	length, ok := d.rsdpLength(pos, d.Mem.Size()-pos)
	if !ok {
		return
	}

	d.rsdp = table.Copy("ACPI RSDP", d.Mem, d.Zone, pos, length)
}

// matchTable reports whether the table at addr carries sig.
func (d *Discovery) matchTable(addr uint32, sig string) bool {
	b, err := d.Mem.View(addr, 4)

	return err == nil && string(b) == sig
}

// scanRoot walks the address array of the root table at root, whose
// entries are entrySize bytes wide, looking for sig.
func (d *Discovery) scanRoot(root uint32, entrySize uint32, sig string) uint32 {
	length, err := d.Mem.ReadUint32(root + headerLengthOffset)
	if err != nil {
		return 0
	}

	end := uint64(root) + uint64(length)

	for entry := uint64(root) + headerSize; entry < end; entry += uint64(entrySize) {
		var addr64 uint64

		if entrySize == 8 {
			addr64, err = d.Mem.ReadUint64(uint32(entry))
		} else {
			var v uint32
			v, err = d.Mem.ReadUint32(uint32(entry))
			addr64 = uint64(v)
		}

		if err != nil {
			return 0
		}

		if addr64 == 0 || addr64 >= above4G {
			continue
		}

		addr := uint32(addr64)
		if d.matchTable(addr, sig) {
			return addr
		}
	}

	return 0
}

// FindTable resolves a table by signature, preferring the XSDT over
// the RSDT. A zero return means "no such table", which is a legitimate
// outcome for optional tables.
func (d *Discovery) FindTable(sig string) uint32 {
	if !d.rsdp.Installed() {
		return 0
	}

	rsdpSig, err := d.Mem.View(d.rsdp.Addr, 8)
	if err != nil || string(rsdpSig) != rsdpSignature {
		return 0
	}

	rsdt, err := d.Mem.ReadUint32(d.rsdp.Addr + rsdpRsdtOffset)
	if err != nil {
		return 0
	}

	var xsdt uint32

	if d.rsdp.Size >= rsdpExtendedSize {
		xsdt64, err := d.Mem.ReadUint64(d.rsdp.Addr + rsdpXsdtOffset)
		if err == nil && xsdt64 < above4G {
			xsdt = uint32(xsdt64)
		}
	}

	if xsdt != 0 && d.matchTable(xsdt, SigXSDT) {
		if addr := d.scanRoot(xsdt, 8, sig); addr != 0 {
			log.Debugf("table(%s)=%#x (via xsdt)", sig, addr)

			return addr
		}
	}

	if rsdt != 0 && d.matchTable(rsdt, SigRSDT) {
		if addr := d.scanRoot(rsdt, 4, sig); addr != 0 {
			log.Debugf("table(%s)=%#x (via rsdt)", sig, addr)

			return addr
		}
	}

	log.Debugf("no table %s found", sig)

	return 0
}

// FindResumeVector returns the S3 waking vector from the FACS, or zero
// when the platform has no resume capability.
func (d *Discovery) FindResumeVector() uint32 {
	fadt := d.FindTable(SigFACP)
	if fadt == 0 {
		return 0
	}

	facs, err := d.Mem.ReadUint32(fadt + fadtFirmwareCtrlOffset)
	if err != nil || facs == 0 {
		return 0
	}

	if !d.matchTable(facs, SigFACS) {
		return 0
	}

	vector, err := d.Mem.ReadUint32(facs + facsWakingVectorOffset)
	if err != nil {
		return 0
	}

	log.Debugf("resume addr=%d", vector)

	return vector
}

// FindFeatures extracts the power-management ports and, when the FADT
// is long enough to carry them, the reset register fields.
func (d *Discovery) FindFeatures() {
	fadt := d.FindTable(SigFACP)
	if fadt == 0 {
		return
	}

	pmTmr, err := d.Mem.ReadUint32(fadt + fadtPMTmrOffset)
	if err != nil {
		return
	}

	pm1aCnt, err := d.Mem.ReadUint32(fadt + fadtPM1aCntOffset)
	if err != nil {
		return
	}

	log.Debugf("pm_tmr_blk=%#x", pmTmr)

	if pmTmr != 0 && d.PMTimer != nil {
		d.PMTimer(pmTmr)
	}

	if pm1aCnt != 0 {
		d.pm1aCnt = pm1aCnt
	}

	// Nobody sets the reset_reg_sup flag in practice, so do not check
	// it: if the table is long enough to carry the register, the
	// sanity checks in setResetReg decide.
	length, err := d.Mem.ReadUint32(fadt + headerLengthOffset)
	if err == nil && length >= fadtResetMinLength {
		gas, err := d.Mem.View(fadt+fadtResetRegOffset, gasSize)
		if err == nil {
			val, err := d.Mem.ReadUint8(fadt + fadtResetValueOffset)
			if err == nil {
				d.setResetReg(parseGenericAddress(gas), val)
			}
		}
	}

	if d.ParseDSDT != nil {
		d.ParseDSDT()
	}
}
