package emitter

import (
	"vmforge/internal/asmlist"
	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/diag"
	"vmforge/internal/litpromote"
	"vmforge/internal/reloc"
	"vmforge/internal/resolve"
	"vmforge/internal/symtab"
)

// Emitter is the component parser code drives to write VM instructions. It
// wires the buffer store, the literal promoter, the jump/call resolvers,
// the relocation table and the assembler listing together so that a single
// Emit/EmitInit call performs every step spec §4.4 describes.
type Emitter struct {
	Buf   *buffer.Store
	MT    *symtab.MasterTable
	SS    *symtab.ScopeStack
	Lit   *litpromote.Promoter
	Jumps *resolve.JumpResolver
	Calls *resolve.CallResolver
	Reloc *reloc.Table
	Asm   *asmlist.Listing
	Diag  *diag.Sink
	Arch  cpuabi.Arch

	Module string
	File   string
	Line   int
}

func New(buf *buffer.Store, mt *symtab.MasterTable, ss *symtab.ScopeStack, lit *litpromote.Promoter,
	jumps *resolve.JumpResolver, calls *resolve.CallResolver, rt *reloc.Table, asm *asmlist.Listing,
	dg *diag.Sink, arch cpuabi.Arch) *Emitter {
	return &Emitter{Buf: buf, MT: mt, SS: ss, Lit: lit, Jumps: jumps, Calls: calls, Reloc: rt, Asm: asm, Diag: dg, Arch: arch}
}

// Emit writes op into the code buffer (BODY section).
func (e *Emitter) Emit(op cpuabi.Opcode, args ...Arg) bool {
	return e.emitCore(op, asmlist.Body, args, false)
}

// EmitInit writes op into the scratch init buffer (INIT section). Init-
// buffer addresses are relative to the buffer's own start and only become
// final code addresses once the owning scope's init block is merged into
// the code buffer (spec §4.7).
func (e *Emitter) EmitInit(op cpuabi.Opcode, args ...Arg) bool {
	return e.emitCore(op, asmlist.Init, args, true)
}

// EmitMeta resolves meta to a concrete opcode using the master type of
// args[driverIdx] and emits it (spec §4.4, emit_meta).
func (e *Emitter) EmitMeta(meta cpuabi.MetaOp, driverIdx int, args ...Arg) bool {
	if driverIdx < 0 || driverIdx >= len(args) {
		e.Diag.Fatalf("emitter: meta instruction %d driver index %d out of range", meta, driverIdx)
		return false
	}
	op, err := cpuabi.ResolveMeta(meta, args[driverIdx].MasterType)
	if err != nil {
		e.Diag.Fatalf("%s", err)
		return false
	}
	return e.Emit(op, args...)
}

func (e *Emitter) isInLocalScope() bool {
	return e.SS.Depth() > 0 && e.SS.Top().Scope.Kind == symtab.Local
}

func (e *Emitter) bufLen(toInit bool) int {
	if toInit {
		return e.Buf.InitLen()
	}
	return e.Buf.CodeLen()
}

func (e *Emitter) appendBytes(toInit bool, b []byte) int {
	if toInit {
		return e.Buf.AppendInit(b)
	}
	return e.Buf.AppendCode(b)
}

func (e *Emitter) patchBytes(toInit bool, addr int, b []byte) {
	if toInit {
		e.Buf.PatchInit(addr, b)
		return
	}
	e.Buf.PatchCode(addr, b)
}

// appendDecoder writes a bare decg/deci instruction (no operands: the
// decoder program reads whatever address the preceding step left on the
// argument cursor) ahead of the instruction it serves.
func (e *Emitter) appendDecoder(op cpuabi.Opcode, toInit bool) {
	start := e.bufLen(toInit)
	e.appendBytes(toInit, encodeUint16(uint16(op)))
	lenAddr := e.appendBytes(toInit, make([]byte, 4))
	e.patchBytes(toInit, lenAddr, encodeUint32(uint32(e.bufLen(toInit)-start)))
}

type encArg struct {
	a              Arg
	needsPromotion bool
}

// emitCore performs the ordered steps spec §4.4 describes: opcode
// rewriting, literal promotion, decoder-program insertion, signature
// validation, jump-label attachment, argument encoding with jump/call/
// relocation bookkeeping, and assembler-line emission.
func (e *Emitter) emitCore(op cpuabi.Opcode, section asmlist.Section, args []Arg, toInit bool) bool {
	depth := e.SS.Depth()

	// step 1: a move whose source is a literal is really a load.
	if op == cpuabi.OpMove && len(args) == 2 && args[1].Kind == ArgLiteral && !args[1].IsJumpLabel {
		op = cpuabi.OpLoad
	}

	sig, ok := cpuabi.Signature(op)
	if !ok {
		e.Diag.Fatalf("emitter: unknown opcode %d", uint16(op))
		return false
	}
	if len(args) != len(sig.Args) {
		e.Diag.Fatalf("emitter: %s expects %d argument(s), got %d", sig.Mnemonic, len(sig.Args), len(args))
		return false
	}

	enc := make([]encArg, len(args))
	for i, a := range args {
		spec := sig.Args[i]
		switch {
		case a.IsJumpLabel, a.IsFuncAddr, a.IsGeomIndex:
			// carry custom operand kinds through unvalidated against spec;
			// their shape is fixed by the constructor that built them.
			enc[i] = encArg{a: a}

		case a.Kind == ArgLiteral && !spec.AllowLiteral:
			enc[i] = encArg{a: a, needsPromotion: true}

		default:
			// step 4: validate the chosen addressing mode against the slot
			switch a.Kind {
			case ArgLiteral:
				if !spec.AllowLiteral {
					e.Diag.Fatalf("emitter: %s argument %d does not accept a literal", sig.Mnemonic, i)
					return false
				}
			case ArgAbsolute:
				if !spec.AllowAbsolute {
					e.Diag.Fatalf("emitter: %s argument %d does not accept an absolute address", sig.Mnemonic, i)
					return false
				}
			case ArgIndirect:
				if !spec.AllowIndirect {
					e.Diag.Fatalf("emitter: %s argument %d does not accept an indirect address", sig.Mnemonic, i)
					return false
				}
			}
			enc[i] = encArg{a: a}
		}
	}

	// step 3: decoder-program insertion ahead of the instruction proper, one
	// per global or indirect operand (spec §4.4 "operands that read through
	// the global buffer or a pointer are preceded by a decoder instruction").
	for i := range enc {
		a := enc[i].a
		switch {
		case enc[i].needsPromotion:
			if !e.isInLocalScope() {
				e.appendDecoder(cpuabi.OpDecodeGlobal, toInit)
			}
		case a.Kind == ArgAbsolute && a.Global && !a.IsFuncAddr:
			e.appendDecoder(cpuabi.OpDecodeGlobal, toInit)
		case a.Kind == ArgIndirect:
			op := cpuabi.OpDecodeIndirect
			if a.Global {
				op = cpuabi.OpDecodeGlobal
			}
			e.appendDecoder(op, toInit)
		}
	}

	// step 5: record the instruction's own address, attach any destination
	// labels landing here (BODY section only: init-buffer addresses aren't
	// final until merge).
	instAddr := e.bufLen(toInit)
	var labels []string
	if !toInit {
		labels = e.Jumps.LabelsAt(instAddr)
	}

	// step 6: append opcode, length placeholder, then every argument.
	e.appendBytes(toInit, encodeUint16(uint16(op)))
	lenAddr := e.appendBytes(toInit, make([]byte, 4))

	argTexts := make([]string, len(enc))
	var tagSites []struct {
		idx int
		tag string
	}
	w := cpuabi.WidthsFor(e.Arch)

	for i := range enc {
		a := &enc[i].a
		switch {
		case a.IsJumpLabel:
			e.appendBytes(toInit, []byte{tagLiteral})
			codeAddr := e.appendBytes(toInit, make([]byte, 2))
			if !toInit {
				e.Jumps.StoreOrigin(depth, a.Label, codeAddr, instAddr, e.File, e.Line)
			}
			argTexts[i] = a.Label

		case a.IsFuncAddr:
			tag := tagAbsolute(true)
			e.appendBytes(toInit, []byte{tag})
			codeAddr := e.appendBytes(toInit, encodeAddr(w.Adr, a.Address))
			if a.Address == 0 {
				e.Calls.StoreForwardCall(depth, a.FuncMangledID, a.FuncFullName, codeAddr, e.File, e.Line, 0)
			}
			if a.ObjName != "" {
				e.Reloc.Add(reloc.FunctionAddress, codeAddr, e.Module, a.ObjName)
			}
			argTexts[i] = a.FuncFullName

		case a.IsGeomIndex:
			e.appendBytes(toInit, []byte{tagLiteral})
			codeAddr := e.appendBytes(toInit, encodeAddr(w.Agx, int64(a.GeomIndex)))
			if a.GeomIndex == 0 {
				e.Reloc.Add(reloc.FixArrayGeometry, codeAddr, e.Module, a.ObjName)
			}
			argTexts[i] = itoa(int64(a.GeomIndex))

		case enc[i].needsPromotion:
			global := !e.isInLocalScope()
			e.appendBytes(toInit, []byte{tagAbsolute(global)})
			codeAddr := e.appendBytes(toInit, make([]byte, w.Adr))
			tag := e.Lit.Promote(depth, global, a.LiteralBytes, a.MasterType, a.LiteralText, codeAddr)
			tagSites = append(tagSites, struct {
				idx int
				tag string
			}{i, tag})
			argTexts[i] = tag

		case a.Kind == ArgLiteral:
			e.appendBytes(toInit, []byte{tagLiteral})
			e.appendBytes(toInit, []byte{byte(a.MasterType)})
			e.appendBytes(toInit, a.LiteralBytes)
			argTexts[i] = a.LiteralText

		case a.Kind == ArgAbsolute:
			e.appendBytes(toInit, []byte{tagAbsolute(a.Global)})
			codeAddr := e.appendBytes(toInit, encodeAddr(w.Adr, a.Address))
			if a.Global && a.ObjName != "" {
				e.Reloc.Add(reloc.GlobalAddress, codeAddr, e.Module, a.ObjName)
			}
			argTexts[i] = addrText(a.Global, a.Address)

		case a.Kind == ArgIndirect:
			e.appendBytes(toInit, []byte{tagIndirect(a.Global)})
			e.appendBytes(toInit, encodeAddr(w.Adr, a.Address))
			argTexts[i] = "*" + addrText(a.Global, a.Address)
		}
	}

	totalLen := e.bufLen(toInit) - instAddr
	e.patchBytes(toInit, lenAddr, encodeUint32(uint32(totalLen)))

	if e.Asm != nil {
		ln := e.Asm.AppendInstruction(section, instAddr, labels, sig.Mnemonic, argTexts, "")
		for _, site := range tagSites {
			ln.TagArg(site.idx, site.tag)
		}
	}
	return true
}

func addrText(global bool, addr int64) string {
	if global {
		return "g[" + itoa(addr) + "]"
	}
	return "l[" + itoa(addr) + "]"
}
