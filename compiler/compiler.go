// Package compiler wires every internal package into the single top-level
// context the front end (parser) drives: MasterTable, ScopeStack,
// GeometryTable, BufferStore, RelocTable, LitPromoter, the jump/call
// resolvers, the dynamic-library cache, the diagnostic sink, and the
// assembler listing. It plays the role the teacher's cmd/compile/internal/gc
// plays for the toolchain: thearch, Ctxt, Debug all collapse into fields of
// one context struct here (Design Notes §9, "Global singletons become
// fields of a top-level compilation context").
package compiler

import (
	"vmforge/internal/asmlist"
	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/diag"
	"vmforge/internal/dlib"
	"vmforge/internal/emitter"
	"vmforge/internal/geom"
	"vmforge/internal/linker"
	"vmforge/internal/litpromote"
	"vmforge/internal/reloc"
	"vmforge/internal/resolve"
	"vmforge/internal/symtab"
)

// Options configures a Compilation (spec §6, "configuration").
type Options struct {
	Arch            cpuabi.Arch
	LibVersion      [3]int
	IsLibrary       bool
	DebugSymbols    bool
	EmitListing     bool
	MemMgr          MemManagerConfig
	SystemVersion   string
}

// MemManagerConfig mirrors binfmt.MemManagerConfig; compiler doesn't import
// binfmt directly (that wiring happens at serialization time), so Options
// stays a pure configuration value with no dependency on the container
// format.
type MemManagerConfig struct {
	MemUnitSize      int64
	StartingMemUnits int64
	ChunkMemUnits    int64
	BlockMax         int64
}

// Compilation is the single context a parser drives through Emit/Declare*/
// OpenScope/CloseScope calls.
type Compilation struct {
	Opts Options

	MT    *symtab.MasterTable
	SS    *symtab.ScopeStack
	Geom  *geom.Table
	Buf   *buffer.Store
	Reloc *reloc.Table
	Lit   *litpromote.Promoter
	Jumps *resolve.JumpResolver
	Calls *resolve.CallResolver
	Dl    *dlib.Cache
	Diag  *diag.Sink
	Asm   *asmlist.Listing
	Em    *emitter.Emitter
	Link  *linker.LibraryLinker
}

// New builds a fresh Compilation with every table wired together, matching
// the control flow spec §4 describes: "parser drives MasterTable to declare
// entities, then requests the emitter to write instructions; the emitter
// consults MasterTable for operand encodings and pushes records into
// JumpResolver/CallResolver/LitPromoter."
func New(opts Options, loader dlib.Loader) *Compilation {
	mt := symtab.NewMasterTable()
	ss := symtab.NewScopeStack()
	gt := geom.NewTable()
	buf := buffer.NewStore()
	rt := reloc.NewTable()
	lit := litpromote.NewPromoter()
	jumps := resolve.NewJumpResolver()
	calls := resolve.NewCallResolver()
	sink := diag.NewSink()

	var asm *asmlist.Listing
	if opts.EmitListing {
		asm = asmlist.NewListing()
	}

	em := emitter.New(buf, mt, ss, lit, jumps, calls, rt, asm, sink, opts.Arch)
	lk := linker.New(buf, gt, rt, opts.Arch)

	return &Compilation{
		Opts: opts, MT: mt, SS: ss, Geom: gt, Buf: buf, Reloc: rt, Lit: lit,
		Jumps: jumps, Calls: calls, Dl: dlib.NewCache(loader), Diag: sink, Asm: asm, Em: em, Link: lk,
	}
}
