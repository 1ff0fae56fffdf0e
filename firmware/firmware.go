// Package firmware wires the table subsystem together: the physical
// address space, the two allocator zones, the romfile store, and one
// handler per table family. It is the context object the discovery
// pipeline threads its singletons through.
package firmware

import (
	"github.com/firmcore/fwtables/acpi"
	"github.com/firmcore/fwtables/ioport"
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/mptable"
	"github.com/firmcore/fwtables/pci"
	"github.com/firmcore/fwtables/pir"
	"github.com/firmcore/fwtables/pmtimer"
	"github.com/firmcore/fwtables/romfile"
	"github.com/firmcore/fwtables/smbios"
)

type Config struct {
	// MemSize bounds the modeled physical address space. Zero selects
	// 16 MiB.
	MemSize uint32

	// Mem supplies an existing image instead of a fresh space. MemSize
	// is ignored when set.
	Mem *memory.Physical

	// F-segment zone range. Zero values select 0xe0000-0x100000.
	FSegStart, FSegEnd uint32

	// High zone range. Zero values select the top quarter of memory.
	HighStart, HighEnd uint32

	// MaxMPTableSize and SMBIOSFsegMax override the package defaults
	// when nonzero.
	MaxMPTableSize uint32
	SMBIOSFsegMax  uint32

	// Identity strings for a synthesized SMBIOS type-0 record.
	BIOSVendor  string
	BIOSVersion string
	BIOSDate    string
}

const (
	defaultMemSize   = 16 << 20
	defaultFSegStart = 0xe0000
	defaultFSegEnd   = 0x100000

	defaultBIOSVendor = "fwtables"
	defaultBIOSDate   = "01/01/2024"
)

type Firmware struct {
	Mem  *memory.Physical
	FSeg *memory.Zone
	High *memory.Zone

	Store *romfile.Store
	Ports *ioport.Bus

	PIR     *pir.Table
	MPTable *mptable.Copier
	ACPI    *acpi.Discovery
	SMBIOS  *smbios.State
	PMTimer *pmtimer.Timer

	// LegacySMBIOS runs when no usable romfile-supplied SMBIOS
	// fragments exist. Optional.
	LegacySMBIOS func()

	pciConf pci.Config
}

func New(cfg Config) *Firmware {
	mem := cfg.Mem
	if mem == nil {
		size := cfg.MemSize
		if size == 0 {
			size = defaultMemSize
		}

		mem = memory.New(size)
	}

	fsegStart, fsegEnd := cfg.FSegStart, cfg.FSegEnd
	if fsegEnd == 0 {
		fsegStart, fsegEnd = defaultFSegStart, defaultFSegEnd
	}

	highStart, highEnd := cfg.HighStart, cfg.HighEnd
	if highEnd == 0 {
		highStart, highEnd = mem.Size()/4*3, mem.Size()
	}

	vendor := cfg.BIOSVendor
	if vendor == "" {
		vendor = defaultBIOSVendor
	}

	date := cfg.BIOSDate
	if date == "" {
		date = defaultBIOSDate
	}

	f := &Firmware{
		Mem:   mem,
		FSeg:  memory.NewZone(mem, "fseg", fsegStart, fsegEnd),
		High:  memory.NewZone(mem, "high", highStart, highEnd),
		Store: romfile.NewStore(),
		Ports: &ioport.Bus{},

		PIR:     &pir.Table{},
		MPTable: &mptable.Copier{MaxSize: cfg.MaxMPTableSize},
		PMTimer: pmtimer.New(),
	}

	f.ACPI = &acpi.Discovery{
		Mem:     mem,
		Zone:    f.FSeg,
		PMTimer: f.setupPMTimer,
	}

	f.SMBIOS = &smbios.State{
		Mem:         mem,
		FSeg:        f.FSeg,
		High:        f.High,
		FsegMax:     cfg.SMBIOSFsegMax,
		BIOSVendor:  vendor,
		BIOSVersion: cfg.BIOSVersion,
		BIOSDate:    date,
	}

	f.pciConf = pci.Config{Ports: f.Ports}

	return f
}

func (f *Firmware) setupPMTimer(port uint32) {
	f.PMTimer.Setup(port)
	f.Ports.Register(f.PMTimer)
}

// OfferTable hands the raw region at pos to every table family. Each
// handler decides for itself whether the bytes are its table.
func (f *Firmware) OfferTable(pos uint32) {
	f.PIR.Offer(f.Mem, f.FSeg, pos)
	f.MPTable.Copy(f.Mem, f.FSeg, pos)
	f.ACPI.InstallRSDP(pos)
	f.SMBIOS.Offer21(pos)
	f.SMBIOS.Offer30(pos)
}

// ScanRegion offers every 16-byte-aligned position in [start, end) to
// the table families, the way firmware sweeps vendor-provided zones.
func (f *Firmware) ScanRegion(start, end uint32) {
	if end > f.Mem.Size() {
		end = f.Mem.Size()
	}

	for pos := (start + 0xf) &^ 0xf; pos < end; pos += 0x10 {
		f.OfferTable(pos)
	}
}

// SetupSMBIOS prefers romfile-supplied fragments and falls back to the
// injected legacy path.
func (f *Firmware) SetupSMBIOS() {
	if f.SMBIOS.Setup(f.Store) {
		return
	}

	if f.LegacySMBIOS != nil {
		f.LegacySMBIOS()
	}
}

// Reboot executes the ACPI reset, if one was configured by
// ACPI.FindFeatures.
func (f *Firmware) Reboot() error {
	return f.ACPI.Reboot(f)
}

// WriteMem8 implements acpi.IO.
func (f *Firmware) WriteMem8(addr uint32, v uint8) error {
	return f.Mem.WriteUint8(addr, v)
}

// Outb implements acpi.IO.
func (f *Firmware) Outb(port uint16, v uint8) error {
	return f.Ports.Outb(port, v)
}

// WriteConfig8 implements acpi.IO.
func (f *Firmware) WriteConfig8(bdf pci.BDF, offset uint16, v uint8) error {
	return f.pciConf.WriteConfig8(bdf, offset, v)
}
