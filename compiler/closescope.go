package compiler

import (
	"fmt"

	"vmforge/internal/asmlist"
	"vmforge/internal/cpuabi"
	"vmforge/internal/diag"
	"vmforge/internal/emitter"
	"vmforge/internal/symtab"
)

// grantFromResolves checks the "from" side of a grant — the granting
// class/function/operator named on the grant — actually resolves in scope,
// the only thing left to verify at close time (spec §4.3: "the to side is
// validated at grant time").
func (c *Compilation) grantFromResolves(g symtab.Grant) bool {
	switch g.FromKind {
	case symtab.GrantClass:
		_, ok := c.SS.LookupType(c.MT, g.FromSelector)
		return ok
	case symtab.GrantFunction, symtab.GrantOperator:
		return len(c.SS.LookupFunctionByName(c.MT, g.FromSelector)) > 0
	default:
		return true
	}
}

// CloseScope runs the full six-step sequence spec §4.3 describes for
// closing a scope, in order, and finally pops the frame. stackReservation
// is the number of bytes CumulStackSize accumulated for the local frame
// being closed (callers pass 0 for Public/Private closes).
func (c *Compilation) CloseScope(stackReservation int64) *symtab.Frame {
	depth := c.SS.Depth()
	top := c.SS.Top()

	// step 1: validate grants declared at this depth.
	failed := c.MT.ValidateGrants(depth, c.grantFromResolves)
	for _, gi := range failed {
		g := c.MT.Grants[gi]
		c.Diag.Errorf(diag.ClassSemantic, diag.Location{}, "grant from %q does not resolve", g.FromSelector)
	}

	// step 2: run JumpResolver for this depth.
	unresolvedJumps := c.Jumps.Resolve(depth, func(addr int, disp int16) {
		c.Buf.PatchCode(addr, emitter.EncodeDisplacement(disp))
	})
	for _, u := range unresolvedJumps {
		c.Diag.Errorf(diag.ClassSemantic, diag.Location{File: u.Origin.File, Line: u.Origin.Line}, "undefined label %q", u.Origin.Label)
	}

	// step 3: outermost local-scope close emits the prologue, resolves
	// local literal promotions, and merges InitBuffer into CodeBuffer.
	if top.Scope.Kind == symtab.Local && !c.SS.AnyOpenLocalBelowTop() {
		c.emitStackPrologue(stackReservation)
		c.resolveLocalLiterals(depth)
		c.Link.MergeInit(top.CodeStart, c.shiftersForMerge()...)
	}

	// step 4: run CallResolver for this depth.
	footer, unresolvedCalls := c.Calls.Resolve(depth, func(addr int, target int64) {
		w := cpuabi.WidthsFor(c.Opts.Arch)
		b := make([]byte, w.Adr)
		putLE(b, uint64(target))
		c.Buf.PatchCode(addr, b)
	})
	for _, u := range unresolvedCalls {
		c.Diag.Errorf(diag.ClassSemantic, diag.Location{File: u.Call.File, Line: u.Call.Line}, "undefined function %q", u.Call.FullName)
	}
	if c.Asm != nil {
		for _, f := range footer {
			c.Asm.AppendDirective(asmlist.Foot, fmt.Sprintf("%s -> %08x", f.ID, f.Address))
		}
	}

	// step 5: on Public close, optionally copy indices up to the enclosing
	// Public scope.
	if top.Scope.Kind == symtab.Public && depth > 1 {
		parent := c.SS.TopN(1)
		if parent.Scope.Kind == symtab.Public {
			c.SS.CopyPublicUp(top, parent)
		}
	}

	// step 6: pop, purging Private/Local entities.
	return c.SS.Close(c.MT)
}

func putLE(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}
