// Package reloc implements RelocTable: per-binary relocation records that
// let a library be re-homed when it is linked into another binary (spec
// §4.6 "RelocTable", §6.2).
package reloc

// Kind is one of the six relocation kinds spec.md §6.2 names.
type Kind int

const (
	FunctionAddress Kind = iota
	GlobalAddress
	FixArrayGeometry
	DynLibCallID
	BlockInGlobal
	BlockInBlock
)

func (k Kind) String() string {
	switch k {
	case FunctionAddress:
		return "FunctionAddress"
	case GlobalAddress:
		return "GlobalAddress"
	case FixArrayGeometry:
		return "FixArrayGeometry"
	case DynLibCallID:
		return "DynLibCallId"
	case BlockInGlobal:
		return "BlockInGlobal"
	case BlockInBlock:
		return "BlockInBlock"
	default:
		return "unknown"
	}
}

// Entry is a single relocation site. LocBlock is only meaningful for
// BlockInBlock (the location address is itself inside a block, not the
// global buffer or code buffer); CopyCount starts at 0 and is incremented
// every time the entry is copied forward by a library import (spec §4.8
// step 6).
type Entry struct {
	Kind      Kind
	LocBlock  int // valid only when Kind == BlockInBlock
	LocAddr   int
	Module    string
	ObjName   string
	CopyCount int
}

// Table is an append-only list of relocation entries.
type Table struct {
	entries []Entry
}

func NewTable() *Table { return &Table{} }

// Add records a new relocation entry with CopyCount 0.
func (t *Table) Add(kind Kind, locAddr int, module, objName string) {
	t.entries = append(t.entries, Entry{Kind: kind, LocAddr: locAddr, Module: module, ObjName: objName})
}

// AddBlockInBlock records a relocation whose location is an address inside
// another block (spec §6.2, BlockInBlock).
func (t *Table) AddBlockInBlock(locBlock, locAddr int, module, objName string) {
	t.entries = append(t.entries, Entry{Kind: BlockInBlock, LocBlock: locBlock, LocAddr: locAddr, Module: module, ObjName: objName})
}

// All returns every relocation entry, in insertion order.
func (t *Table) All() []Entry { return t.entries }

// Len returns the number of relocation entries.
func (t *Table) Len() int { return len(t.entries) }

// AppendForeign copies another table's entries in, incrementing CopyCount on
// each (spec §4.8 step 6: "Copy library's relocation table ... into the
// current relocation table so that downstream links continue to work").
// The caller is responsible for relocating LocAddr/LocBlock of each entry
// against the importer's state before calling this.
func (t *Table) AppendForeign(foreign []Entry) {
	for _, e := range foreign {
		e.CopyCount++
		t.entries = append(t.entries, e)
	}
}

// ShiftCodeAddresses adds delta to every relocation whose LocAddr is a code
// address at or beyond threshold. FunctionAddress, GlobalAddress,
// FixArrayGeometry, and DynLibCallID entries all record the code-buffer site
// of an operand (the value they carry points elsewhere — the code buffer,
// the global buffer, a geometry table, a dynamic-library call slot — but the
// LocAddr itself is always where the operand's encoded bytes live, in code).
// BlockInGlobal's LocAddr sits inside the global buffer and BlockInBlock's
// inside a block, so neither moves during a code-buffer splice.
func (t *Table) ShiftCodeAddresses(threshold, delta int) {
	for i := range t.entries {
		e := &t.entries[i]
		switch e.Kind {
		case FunctionAddress, GlobalAddress, FixArrayGeometry, DynLibCallID:
			if e.LocAddr >= threshold {
				e.LocAddr += delta
			}
		}
	}
}

// RelocateForImport applies the "+= current length" rewrite spec §4.8 step 1
// describes, turning a library's own relocation table into one valid against
// the importer's current state. codeBase/globBase/geomBase/blockBase/dlBase
// are the importer's pre-append buffer lengths / table counts. LocAddr shifts
// by codeBase for every kind whose site lives in the code buffer
// (FunctionAddress, GlobalAddress, FixArrayGeometry, DynLibCallID); only
// BlockInGlobal's LocAddr (inside the global buffer) and BlockInBlock's
// LocBlock (a block index) use the other bases.
func RelocateForImport(entries []Entry, codeBase, globBase, geomBase, blockBase, dlBase int) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		switch e.Kind {
		case FunctionAddress, GlobalAddress, FixArrayGeometry, DynLibCallID:
			e.LocAddr += codeBase
		case BlockInGlobal:
			e.LocAddr += globBase
		case BlockInBlock:
			e.LocBlock += blockBase
		}
		out[i] = e
	}
	return out
}
