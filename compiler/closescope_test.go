package compiler

import (
	"encoding/binary"
	"strings"
	"testing"

	"vmforge/internal/cpuabi"
	"vmforge/internal/emitter"
	"vmforge/internal/symtab"
)

// TestCloseScopeEndToEnd drives a Compilation through a single function
// body carrying a forward jump, a literal that needs promotion, and a
// forward call, then closes the local scope and checks every step of
// spec §4.3's close sequence actually ran: the prologue got merged, the
// jump displacement and the call's target address both patched, and the
// literal resolved to exactly one backing variable.
func TestCloseScopeEndToEnd(t *testing.T) {
	c := New(Options{Arch: cpuabi.Arch64, EmitListing: true}, nil)

	c.SS.OpenPublic(0)
	funIdx := c.MT.StoreFunction(symtab.Function{
		Name: "f", FullName: "mod.f", MangledID: "mod.f", IsVoid: true, IsDefined: true,
	})

	frame, err := c.SS.OpenLocal(c.MT, c.Geom, 0, funIdx)
	if err != nil {
		t.Fatalf("OpenLocal failed: %v", err)
	}
	frame.CodeStart = c.Buf.CodeLen()
	depth := c.SS.Depth()

	jumpInstAddr := c.Buf.CodeLen()
	if !c.Em.Emit(cpuabi.OpJump, emitter.JumpLabel("after")) {
		t.Fatalf("expected the forward jump to emit cleanly")
	}
	jumpDispAddr := jumpInstAddr + 7 // opcode(2) + length(4) + tag(1), then the 2-byte displacement slot

	destAddr := c.Buf.CodeLen()
	c.Jumps.StoreDestination(depth, "after", destAddr)
	wantDisp := int16(destAddr - jumpInstAddr)

	if !c.Em.Emit(cpuabi.OpNegInt, emitter.Absolute(false, 0, cpuabi.Int), emitter.LitInt(5)) {
		t.Fatalf("expected the literal-fed negation to emit cleanly (it should be promoted)")
	}

	callInstAddr := c.Buf.CodeLen()
	if !c.Em.Emit(cpuabi.OpCall, emitter.FuncAddr("mod.g", "mod.g", 0)) {
		t.Fatalf("expected the forward call to emit cleanly")
	}
	callAddrSlot := callInstAddr + 7 // opcode(2) + length(4) + tag(1), then the 8-byte address slot
	c.Calls.StoreFunctionAddress(depth, "mod.g", 999, false)

	codeLenBeforeClose := c.Buf.CodeLen()

	result := c.CloseScope(0)

	if errs, _ := c.Diag.Counts(); errs != 0 {
		t.Fatalf("expected no diagnostics, got %d errors: %+v", errs, c.Diag.Diagnostics())
	}
	if result.Scope.Kind != symtab.Local {
		t.Fatalf("expected CloseScope to return the closed Local frame, got %v", result.Scope.Kind)
	}
	if c.SS.Depth() != 1 {
		t.Fatalf("expected the Public scope to still be open at depth 1, got depth %d", c.SS.Depth())
	}

	if c.Buf.InitLen() != 0 {
		t.Fatalf("expected the init buffer to be fully merged, got %d bytes left", c.Buf.InitLen())
	}
	delta := c.Buf.CodeLen() - codeLenBeforeClose
	if delta <= 0 {
		t.Fatalf("expected the stack-reservation prologue to merge bytes into the code buffer, delta=%d", delta)
	}

	gotDisp := int16(binary.LittleEndian.Uint16(c.Buf.Code[jumpDispAddr+delta : jumpDispAddr+delta+2]))
	if gotDisp != wantDisp {
		t.Fatalf("expected jump displacement %d, got %d", wantDisp, gotDisp)
	}

	gotCallAddr := binary.LittleEndian.Uint64(c.Buf.Code[callAddrSlot+delta : callAddrSlot+delta+8])
	// The stored function address 999 lies past the merge point, so the
	// init-merge fan-out shifts it by delta before the call is resolved.
	if gotCallAddr != uint64(999+delta) {
		t.Fatalf("expected the forward call patched to the shifted address %d, got %d", 999+delta, gotCallAddr)
	}

	if c.Lit.Pending() != 0 {
		t.Fatalf("expected the promoted literal to be fully resolved, got %d still pending", c.Lit.Pending())
	}
	// The backing variable lives in the Local scope and is purged with it, so
	// count the load initializers instead: one per synthesized variable.
	listing := c.Asm.Flush()
	if n := strings.Count(listing, "  ld "); n != 1 {
		t.Fatalf("expected exactly one backing variable synthesized for the literal, got %d load initializers:\n%s", n, listing)
	}

	if !strings.Contains(listing, "mod.g") {
		t.Fatalf("expected the resolved call to appear in the assembler listing footer, got:\n%s", listing)
	}
}
