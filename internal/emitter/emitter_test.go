package emitter

import (
	"testing"

	"vmforge/internal/asmlist"
	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/diag"
	"vmforge/internal/litpromote"
	"vmforge/internal/reloc"
	"vmforge/internal/resolve"
	"vmforge/internal/symtab"
)

func newTestEmitter() (*Emitter, *symtab.MasterTable, *symtab.ScopeStack) {
	mt := symtab.NewMasterTable()
	ss := symtab.NewScopeStack()
	ss.OpenPublic(0)
	e := New(
		buffer.NewStore(),
		mt,
		ss,
		litpromote.NewPromoter(),
		resolve.NewJumpResolver(),
		resolve.NewCallResolver(),
		reloc.NewTable(),
		asmlist.NewListing(),
		diag.NewSink(),
		cpuabi.Arch64,
	)
	return e, mt, ss
}

func TestEmitRewritesLiteralMoveToLoad(t *testing.T) {
	e, _, _ := newTestEmitter()
	ok := e.Emit(cpuabi.OpMove, Absolute(false, 0, cpuabi.Int), LitInt(42))
	if !ok {
		t.Fatalf("emit failed: %v", e.Diag.Diagnostics())
	}
	if len(e.Buf.Code) < 2 {
		t.Fatalf("expected bytes written")
	}
	gotOp := cpuabi.Opcode(e.Buf.Code[0]) | cpuabi.Opcode(e.Buf.Code[1])<<8
	if gotOp != cpuabi.OpLoad {
		t.Fatalf("expected move-with-literal rewritten to OpLoad, got opcode %d", gotOp)
	}
}

func TestEmitPromotesLiteralWhereSlotDisallowsIt(t *testing.T) {
	e, _, ss := newTestEmitter()
	ss.OpenLocal(e.MT, nil, 0, registerDummyFunc(e.MT, ss))
	if ok := e.Emit(cpuabi.OpAddString, Absolute(false, 8, cpuabi.String), Absolute(false, 16, cpuabi.String), LitStr(5, e.Arch)); ok {
		// OpAddString's third slot is addrOnly: the literal must be promoted,
		// not rejected outright.
	}
	if e.Lit.Pending() != 1 {
		t.Fatalf("expected exactly one promoted literal pending, got %d", e.Lit.Pending())
	}
}

func TestEmitRejectsArgumentCountMismatch(t *testing.T) {
	e, _, _ := newTestEmitter()
	if ok := e.Emit(cpuabi.OpRet, LitInt(1)); ok {
		t.Fatalf("expected emit to fail on argument-count mismatch")
	}
	if !e.Diag.Fatal() {
		t.Fatalf("expected a fatal diagnostic to be recorded")
	}
}

func TestEmitAttachesJumpOriginAndForwardCall(t *testing.T) {
	e, _, _ := newTestEmitter()
	if ok := e.Emit(cpuabi.OpJump, JumpLabel("loop")); !ok {
		t.Fatalf("emit failed: %v", e.Diag.Diagnostics())
	}
	if ok := e.Emit(cpuabi.OpCall, FuncAddr("F$1", "foo", 0)); !ok {
		t.Fatalf("emit failed: %v", e.Diag.Diagnostics())
	}

	resolvedJumps := 0
	e.Jumps.StoreDestination(1, "loop", e.Buf.CodeLen())
	unresolved := e.Jumps.Resolve(1, func(addr int, disp int16) { resolvedJumps++ })
	if len(unresolved) != 0 {
		t.Fatalf("expected the jump to resolve, got unresolved: %v", unresolved)
	}
	if resolvedJumps != 1 {
		t.Fatalf("expected exactly one patch, got %d", resolvedJumps)
	}

	e.Calls.StoreFunctionAddress(1, "F$1", 4096, false)
	var patchedAddr int64
	footer, failed := e.Calls.Resolve(1, func(codeAddr int, addr int64) { patchedAddr = addr })
	if len(failed) != 0 {
		t.Fatalf("expected the call to resolve, got failures: %v", failed)
	}
	if len(footer) != 1 || patchedAddr != 4096 {
		t.Fatalf("expected the call patched to address 4096, got footer=%v patched=%d", footer, patchedAddr)
	}
}

func TestEmitMetaResolvesByDriverType(t *testing.T) {
	e, _, _ := newTestEmitter()
	dst := Absolute(false, 0, cpuabi.Float)
	lhs := Absolute(false, 8, cpuabi.Float)
	rhs := LitFloat(1.5)
	if ok := e.EmitMeta(cpuabi.MetaAdd, 1, dst, lhs, rhs); !ok {
		t.Fatalf("meta emit failed: %v", e.Diag.Diagnostics())
	}
}

func registerDummyFunc(mt *symtab.MasterTable, ss *symtab.ScopeStack) int {
	return mt.StoreFunction(symtab.Function{Name: "f", ParmLow: 0, ParmHigh: 0})
}
