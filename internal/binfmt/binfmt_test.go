package binfmt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"vmforge/internal/cpuabi"
	"vmforge/internal/geom"
	"vmforge/internal/reloc"
)

func writeAndRead(t *testing.T, c *Container) *Container {
	t.Helper()
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.vmf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	got, err := ReadContainer(path)
	if err != nil {
		t.Fatalf("ReadContainer failed: %v", err)
	}
	return got
}

func TestExecutableContainerRoundTrips(t *testing.T) {
	c := &Container{
		Header: Header{
			IsLibrary:     false,
			Arch:          cpuabi.Arch64,
			SystemVersion: "1.0.0",
			BuildDate:     "2026-07-30",
			BuildTime:     "12:00:00",
			MemMgr:        MemManagerConfig{MemUnitSize: 64, StartingMemUnits: 16, ChunkMemUnits: 8, BlockMax: 4096},
			SuperInitAddr: 128,
		},
		Glob: []byte{0, 1, 2, 3},
		Code: []byte{0xAA, 0xBB, 0xCC},
		Farr: []geom.FixGeom{{}, {Dims: []int{4}, CellSize: 8}},
		Blk:  nil,
	}
	got := writeAndRead(t, c)

	if got.Header.IsLibrary {
		t.Fatalf("expected executable container, got library")
	}
	if got.Header.SystemVersion != "1.0.0" || got.Header.SuperInitAddr != 128 {
		t.Fatalf("header fields did not round-trip: %+v", got.Header)
	}
	if !bytes.Equal(got.Glob, c.Glob) || !bytes.Equal(got.Code, c.Code) {
		t.Fatalf("buffers did not round-trip")
	}
	if len(got.Farr) != 2 || got.Farr[1].CellSize != 8 {
		t.Fatalf("fix-geometry table did not round-trip: %+v", got.Farr)
	}
}

func TestLibraryContainerRoundTripsSymbolAndRelocTables(t *testing.T) {
	c := &Container{
		Header: Header{
			IsLibrary:     true,
			Arch:          cpuabi.Arch32,
			SystemVersion: "2.1.0",
			LibVersion:    [3]int{1, 2, 3},
			SuperInitAddr: 64,
		},
		Glob: []byte{0},
		Code: []byte{1, 2, 3, 4},
		Deps: []Dependency{{Module: "stdio", LibVersion: [3]int{1, 0, 0}}},
		Urefs: []UndefinedRef{
			{Module: "m", Kind: reloc.GlobalAddress, CodeAddr: 10, Name: "x"},
		},
		Relocs: []reloc.Entry{
			{Kind: reloc.FunctionAddress, LocAddr: 20, Module: "m", ObjName: "f", CopyCount: 1},
		},
		Funcs: []SymFunc{
			{Name: "f", MangledID: "m.f", CodeAddr: 20, RetTypIdx: 0, ParmLow: 0, ParmHigh: 1},
		},
		Params: []SymParam{{Name: "a", TypIdx: 0, Order: 0, FunIdx: 0}},
	}
	got := writeAndRead(t, c)

	if !got.Header.IsLibrary {
		t.Fatalf("expected library container")
	}
	if got.Header.LibVersion != [3]int{1, 2, 3} {
		t.Fatalf("library version did not round-trip: %v", got.Header.LibVersion)
	}
	if len(got.Deps) != 1 || got.Deps[0].Module != "stdio" {
		t.Fatalf("dependency table did not round-trip: %+v", got.Deps)
	}
	if len(got.Urefs) != 1 || got.Urefs[0].Name != "x" {
		t.Fatalf("unresolved-reference table did not round-trip: %+v", got.Urefs)
	}
	if len(got.Relocs) != 1 || got.Relocs[0].ObjName != "f" || got.Relocs[0].CopyCount != 1 {
		t.Fatalf("relocation table did not round-trip: %+v", got.Relocs)
	}
	if len(got.Funcs) != 1 || got.Funcs[0].MangledID != "m.f" {
		t.Fatalf("function symbol table did not round-trip: %+v", got.Funcs)
	}
}

func TestContainerShiftCodeAddressesMovesOnlyAtOrAboveThreshold(t *testing.T) {
	c := &Container{
		Urefs:  []UndefinedRef{{CodeAddr: 10}, {CodeAddr: 100}},
		Funcs:  []SymFunc{{CodeAddr: 5}, {CodeAddr: 200}},
		Relocs: []reloc.Entry{{Kind: reloc.FunctionAddress, LocAddr: 100}, {Kind: reloc.GlobalAddress, LocAddr: 100}},
	}
	c.ShiftCodeAddresses(50, 16)

	if c.Urefs[0].CodeAddr != 10 || c.Urefs[1].CodeAddr != 116 {
		t.Fatalf("Urefs did not shift correctly: %+v", c.Urefs)
	}
	if c.Funcs[0].CodeAddr != 5 || c.Funcs[1].CodeAddr != 216 {
		t.Fatalf("Funcs did not shift correctly: %+v", c.Funcs)
	}
	if c.Relocs[0].LocAddr != 116 {
		t.Fatalf("expected FunctionAddress reloc to shift, got %d", c.Relocs[0].LocAddr)
	}
	if c.Relocs[1].LocAddr != 116 {
		t.Fatalf("expected GlobalAddress reloc's code-buffer site to shift too, got %d", c.Relocs[1].LocAddr)
	}
}
