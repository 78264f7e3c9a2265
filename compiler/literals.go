package compiler

import (
	"fmt"

	"vmforge/internal/cpuabi"
	"vmforge/internal/emitter"
	"vmforge/internal/litpromote"
	"vmforge/internal/resolve"
	"vmforge/internal/symtab"
)

// systemTypeIndex returns the index of the system-defined Type record for
// mtype, declaring one in the root Public scope the first time it is
// needed. Promoted literals are typed by their cpuabi.MasterType alone, so
// one shared system type per master type is enough (spec §4.5).
func (c *Compilation) systemTypeIndex(mtype cpuabi.MasterType) int {
	for i, t := range c.MT.Types {
		if t.SystemDefined && t.Master == mtype {
			return i
		}
	}
	return c.MT.StoreType(symtab.Type{
		Name:          mtype.String(),
		Master:        mtype,
		SystemDefined: true,
		ByteLen:       int64(cpuabi.ByteLen(c.Opts.Arch, mtype)),
	})
}

// emitStackPrologue writes the local frame's stack-reservation instruction
// into InitBuffer (spec §4.3 step 3). It is always emitted, even for a
// zero-size frame, so the init-merge splice point stays the first
// instruction of every compiled function.
func (c *Compilation) emitStackPrologue(stackReservation int64) {
	c.Em.EmitInit(cpuabi.OpReserveStack, emitter.LitLong(stackReservation))
}

// resolveLocalLiterals allocates backing variables for every literal
// promoted at this local scope's depth and back-patches the sites that
// referenced them (spec §4.5, spec §4.3 step 3 "resolve literal-value
// variables").
func (c *Compilation) resolveLocalLiterals(depth int) {
	c.Lit.Resolve(false, depth, litpromote.Hooks{
		Alloc: func(rec litpromote.Record) litpromote.Allocation {
			typIdx := c.systemTypeIndex(rec.MasterType)
			addr := c.SS.CumulStackSize(int64(cpuabi.ByteLen(c.Opts.Arch, rec.MasterType)))
			varIdx := c.MT.StoreVariable(symtab.Variable{
				Name:    fmt.Sprintf("_lit_%s", rec.ReplTag[1:]),
				Scope:   c.SS.Top().Scope,
				TypIdx:  typIdx,
				Address: addr,
				Flags:   symtab.FlagLiteralConstant | symtab.FlagConst,
			})
			return litpromote.Allocation{VarIndex: varIdx, Address: addr}
		},
		EmitInit: func(alloc litpromote.Allocation, rec litpromote.Record) {
			c.Em.EmitInit(cpuabi.OpLoad,
				emitter.Absolute(false, alloc.Address, rec.MasterType),
				emitter.Arg{Kind: emitter.ArgLiteral, MasterType: rec.MasterType, LiteralBytes: rec.Payload, LiteralText: rec.Text},
			)
		},
		Patch: func(codeAddr int, addr int64) {
			w := cpuabi.WidthsFor(c.Opts.Arch)
			b := make([]byte, w.Adr)
			for i := range b {
				b[i] = byte(addr >> (8 * i))
			}
			c.Buf.PatchCode(codeAddr, b)
		},
		AsmSubst: func(replTag, varName string) {
			if c.Asm != nil {
				c.Asm.Subst(replTag, varName)
			}
		},
		VarName: func(varIndex int) string {
			return c.MT.Variables[varIndex].Name
		},
	})
}

// shiftersForMerge lists every code-address-bearing table besides c.Reloc
// (which linker.MergeInit shifts on its own) that must fan out the
// init-merge splice correction (spec §4.7).
func (c *Compilation) shiftersForMerge() []resolve.CodeShifter {
	shifters := []resolve.CodeShifter{c.Jumps, c.Calls}
	if c.Asm != nil {
		shifters = append(shifters, c.Asm)
	}
	return shifters
}
