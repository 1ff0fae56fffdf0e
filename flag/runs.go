package flag

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/firmcore/fwtables/firmware"
	"github.com/firmcore/fwtables/log"
	"github.com/firmcore/fwtables/memory"
	"github.com/firmcore/fwtables/table"
)

type CLI struct {
	Debug      bool `help:"Log table-level debug detail." short:"d"`
	CPUProfile bool `help:"Write a CPU profile to the current directory."`

	Inspect InspectCMD `cmd:"" help:"Scan raw memory images for firmware tables."`
	Build   BuildCMD   `cmd:"" help:"Build SMBIOS tables from a romfile directory."`
}

func Parse() error {
	c := CLI{}

	programName := "fwtables"
	programDesc := "fwtables discovers, validates, relocates and synthesizes legacy firmware description tables"

	ctx := kong.Parse(&c,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if c.Debug {
		log.SetLevel(log.LevelDebug)
	}

	if c.CPUProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	return ctx.Run()
}

type InspectCMD struct {
	Images []string `arg:"" type:"existingfile" help:"Raw guest-memory images to scan."`
}

func (c *InspectCMD) Run() error {
	outs := make([]bytes.Buffer, len(c.Images))

	g := new(errgroup.Group)

	for i, path := range c.Images {
		i, path := i, path

		g.Go(func() error {
			return inspectImage(path, &outs[i])
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i := range outs {
		fmt.Print(outs[i].String())
	}

	return nil
}

func inspectImage(path string, out *bytes.Buffer) error {
	img, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fw := firmware.New(firmware.Config{Mem: memory.NewFromBytes(img)})
	fw.ScanRegion(0, fw.Mem.Size())
	fw.ACPI.FindFeatures()

	fmt.Fprintf(out, "%s:\n", path)

	printRef := func(name string, ref table.Ref) {
		if ref.Installed() {
			fmt.Fprintf(out, "  %-12s %#x (%d bytes)\n", name, ref.Addr, ref.Size)
		}
	}

	printRef("PIR", fw.PIR.Ref())
	printRef("ACPI RSDP", fw.ACPI.RSDP())
	printRef("SMBIOS 2.1", fw.SMBIOS.EntryPoint21())
	printRef("SMBIOS 3.0", fw.SMBIOS.EntryPoint30())

	if v := fw.ACPI.FindResumeVector(); v != 0 {
		fmt.Fprintf(out, "  resume vector %#x\n", v)
	}

	if p := fw.ACPI.PM1aControl(); p != 0 {
		fmt.Fprintf(out, "  pm1a control %#x\n", p)
	}

	fw.SMBIOS.DisplayUUID(out)

	return nil
}

type BuildCMD struct {
	Romfiles string `arg:"" type:"existingdir" help:"Directory of named configuration blobs."`
	Out      string `help:"Write the populated f-segment to this file." short:"o"`
	MemSize  string `help:"Memory size: as number[gGmMkK], defaults to M." default:"16M"`
	Vendor   string `help:"BIOS vendor string for a synthesized type-0 record."`
	Version  string `help:"BIOS version string for a synthesized type-0 record."`
	Date     string `help:"BIOS release date for a synthesized type-0 record."`
}

func (c *BuildCMD) Run() error {
	memSize, err := ParseSize(c.MemSize, "m")
	if err != nil {
		return err
	}

	fw := firmware.New(firmware.Config{
		MemSize:     uint32(memSize),
		BIOSVendor:  c.Vendor,
		BIOSVersion: c.Version,
		BIOSDate:    c.Date,
	})

	if err := fw.Store.LoadDir(c.Romfiles); err != nil {
		return err
	}

	fw.SetupSMBIOS()

	if ref := fw.SMBIOS.EntryPoint21(); ref.Installed() {
		fmt.Printf("SMBIOS 2.1 entry point at %#x (%d bytes)\n", ref.Addr, ref.Size)
	}

	if ref := fw.SMBIOS.EntryPoint30(); ref.Installed() {
		fmt.Printf("SMBIOS 3.0 entry point at %#x (%d bytes)\n", ref.Addr, ref.Size)
	}

	if addr, length, ok := fw.SMBIOS.Tables(); ok {
		fmt.Printf("SMBIOS tables at %#x (%d bytes)\n", addr, length)
	}

	if c.Out == "" {
		return nil
	}

	start, end := fw.FSeg.Range()

	fseg, err := fw.Mem.View(start, end-start)
	if err != nil {
		return err
	}

	return os.WriteFile(c.Out, fseg, 0o644)
}
