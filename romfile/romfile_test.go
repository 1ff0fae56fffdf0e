package romfile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/firmcore/fwtables/romfile"
)

func TestAddFind(t *testing.T) {
	t.Parallel()

	s := romfile.NewStore()
	s.Add("etc/anchor", []byte{1, 2, 3})

	f := s.Find("etc/anchor")
	if f == nil {
		t.Fatal("added file not found")
	}

	if f.Size() != 3 {
		t.Fatalf("size: %d", f.Size())
	}

	dst := make([]byte, 3)
	if n := f.Copy(dst); n != 3 {
		t.Fatalf("copied %d bytes", n)
	}

	if !bytes.Equal(dst, []byte{1, 2, 3}) {
		t.Fatalf("copied bytes differ: %v", dst)
	}

	if s.Find("etc/missing") != nil {
		t.Fatal("missing name must return nil")
	}
}

func TestAddReplaces(t *testing.T) {
	t.Parallel()

	s := romfile.NewStore()
	s.Add("name", []byte{1})
	s.Add("name", []byte{2, 3})

	if f := s.Find("name"); f.Size() != 2 {
		t.Fatalf("size after replace: %d", f.Size())
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	sub := filepath.Join(dir, "etc", "smbios")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	want := []byte("anchor contents")
	if err := os.WriteFile(filepath.Join(sub, "smbios-anchor"), want, 0o644); err != nil {
		t.Fatal(err)
	}

	s := romfile.NewStore()
	if err := s.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	f := s.Find("etc/smbios/smbios-anchor")
	if f == nil {
		t.Fatal("loaded file not found")
	}

	dst := make([]byte, f.Size())
	f.Copy(dst)

	if !bytes.Equal(dst, want) {
		t.Fatalf("contents differ: %q", dst)
	}
}

func TestLoadDirDecompresses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	want := bytes.Repeat([]byte("table data "), 100)

	var buf bytes.Buffer

	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "tables.xz"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s := romfile.NewStore()
	if err := s.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	// The suffix is stripped on registration.
	if s.Find("tables.xz") != nil {
		t.Fatal("compressed name must not be registered")
	}

	f := s.Find("tables")
	if f == nil {
		t.Fatal("decompressed file not found")
	}

	dst := make([]byte, f.Size())
	f.Copy(dst)

	if !bytes.Equal(dst, want) {
		t.Fatal("decompressed contents differ")
	}
}

func TestLoadDirMissing(t *testing.T) {
	t.Parallel()

	s := romfile.NewStore()

	if err := s.LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("missing directory must fail")
	}
}
