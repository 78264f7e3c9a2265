// Package binfmt implements BinaryIO: the on-disk container format a
// compiled module or library is serialized to (spec §4.10, §6.1). The
// container is a fixed header followed by order-fixed sections; reads are
// backed by a memory-mapped file (mmap-go) rather than a full ioutil.ReadAll,
// the way saferwall-pe maps a PE file before walking its section table.
package binfmt

import (
	"fmt"

	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/geom"
	"vmforge/internal/reloc"
)

const formatVersion uint16 = 1

const (
	fileMarkExecutable = "EXE0"
	fileMarkLibrary    = "LIB0"
)

// MemManagerConfig is the executable-only runtime memory-manager
// configuration the header carries (spec §6.1).
type MemManagerConfig struct {
	MemUnitSize      int64
	StartingMemUnits int64
	ChunkMemUnits    int64
	BlockMax         int64
}

// Header is the container's fixed-size preamble.
type Header struct {
	IsLibrary       bool
	FormatVersion   uint16
	Arch            cpuabi.Arch
	SystemVersion   string
	BuildDate       string
	BuildTime       string
	HasDebugSymbols bool
	MemMgr          MemManagerConfig
	LibVersion      [3]int
	SuperInitAddr   int64
}

func (h Header) fileMark() string {
	if h.IsLibrary {
		return fileMarkLibrary
	}
	return fileMarkExecutable
}

// Dependency is one DEPN entry: another library this library requires.
type Dependency struct {
	Module     string
	LibVersion [3]int
}

// DlCallRecord is one DLCA entry.
type DlCallRecord struct {
	LibraryName  string
	FunctionName string
}

// UndefinedRef is one UREF entry: a code address that still needs a
// relocated value supplied by whatever finally links this library in.
type UndefinedRef struct {
	Module   string
	Kind     reloc.Kind
	CodeAddr int
	Name     string
}

// Linker symbol tables (SDIM/STYP/SVAR/SFLD/SFUN/SPAR), minimal enough for a
// re-importer to resolve names and shapes without the full MasterTable.
type (
	SymDim struct {
		DimSizes []int
		GeomIdx  int
		TypIdx   int
	}
	SymType struct {
		Name       string
		Master     cpuabi.MasterType
		ByteLen    int64
		ElemTypIdx int
		DimIdx     int
	}
	SymVar struct {
		Name    string
		TypIdx  int
		Address int64
		Global  bool
	}
	SymField struct {
		Name      string
		SupTypIdx int
		TypIdx    int
		Offset    int64
	}
	SymFunc struct {
		Name      string
		MangledID string
		CodeAddr  int64
		RetTypIdx int
		ParmLow   int
		ParmHigh  int
	}
	SymParam struct {
		Name    string
		TypIdx  int
		Order   int
		FunIdx  int
	}
)

// Debug symbol tables (DMOD/DTYP/DVAR/DFLD/DFUN/DPAR/DLIN), populated only
// when Header.HasDebugSymbols is set (spec §5 supplemented feature).
type (
	DbgModule struct {
		Name       string
		SourcePath string
	}
	DbgType struct {
		ModIdx int
		Name   string
	}
	DbgVar struct {
		ModIdx  int
		Name    string
		Address int64
	}
	DbgField struct {
		TypIdx int
		Name   string
	}
	DbgFunc struct {
		ModIdx    int
		Name      string
		BeginAddr int64
		EndAddr   int64
	}
	DbgParam struct {
		FunIdx int
		Name   string
	}
	DbgLine struct {
		FunIdx     int
		SourceLine int
		BeginAddr  int64
		EndAddr    int64
	}
)

// Container is the full in-memory model of a binary file: everything
// BinaryIO reads or writes, in section order (spec §6.1).
type Container struct {
	Header Header

	Glob []byte
	Code []byte
	Farr []geom.FixGeom
	Darr []geom.DynGeom
	Blk  []buffer.Block
	Dlca []DlCallRecord

	Deps   []Dependency
	Urefs  []UndefinedRef
	Relocs []reloc.Entry

	Dims   []SymDim
	Types  []SymType
	Vars   []SymVar
	Fields []SymField
	Funcs  []SymFunc
	Params []SymParam

	DbgModules []DbgModule
	DbgTypes   []DbgType
	DbgVars    []DbgVar
	DbgFields  []DbgField
	DbgFuncs   []DbgFunc
	DbgParams  []DbgParam
	DbgLines   []DbgLine
}

// ShiftCodeAddresses implements resolve.CodeShifter: the undefined-reference
// table, linker-symbol function addresses, and debug-symbol function/line
// ranges all carry raw code addresses and must shift during init-merge
// (spec §4.7 step 2).
func (c *Container) ShiftCodeAddresses(threshold, delta int) {
	for i := range c.Urefs {
		if c.Urefs[i].CodeAddr >= threshold {
			c.Urefs[i].CodeAddr += delta
		}
	}
	for i := range c.Funcs {
		if int(c.Funcs[i].CodeAddr) >= threshold {
			c.Funcs[i].CodeAddr += int64(delta)
		}
	}
	for i := range c.DbgFuncs {
		if int(c.DbgFuncs[i].BeginAddr) >= threshold {
			c.DbgFuncs[i].BeginAddr += int64(delta)
		}
		if int(c.DbgFuncs[i].EndAddr) >= threshold {
			c.DbgFuncs[i].EndAddr += int64(delta)
		}
	}
	for i := range c.DbgLines {
		if int(c.DbgLines[i].BeginAddr) >= threshold {
			c.DbgLines[i].BeginAddr += int64(delta)
		}
		if int(c.DbgLines[i].EndAddr) >= threshold {
			c.DbgLines[i].EndAddr += int64(delta)
		}
	}
	for i := range c.Relocs {
		switch c.Relocs[i].Kind {
		case reloc.FunctionAddress, reloc.GlobalAddress, reloc.FixArrayGeometry, reloc.DynLibCallID:
			if c.Relocs[i].LocAddr >= threshold {
				c.Relocs[i].LocAddr += delta
			}
		}
	}
}

type writeErr struct {
	fileMark string
	section  string
	index    int
	pos      int64
	err      error
}

func (e *writeErr) Error() string {
	return fmt.Sprintf("binfmt: %s write failed in section %s at index %d (stream position %d): %v", e.fileMark, e.section, e.index, e.pos, e.err)
}

func (e *writeErr) Unwrap() error { return e.err }
