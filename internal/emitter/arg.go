// Package emitter is the instruction emitter: the component parser code
// drives to write VM instructions (spec §4.4). It performs, for every
// write: opcode rewriting, literal promotion, decoder-program insertion,
// signature validation, jump/call/relocation bookkeeping, and assembler
// listing emission — in that order.
package emitter

import (
	"encoding/binary"
	"math"
	"strconv"

	"vmforge/internal/cpuabi"
)

// ArgKind is the addressing mode an instruction argument carries (spec
// §4.4 "Argument encoding distinguishes literal values ... addresses ...
// and indirection").
type ArgKind int

const (
	ArgLiteral ArgKind = iota
	ArgAbsolute
	ArgIndirect
)

// Arg is one instruction argument, built by one of the Lit*/Absolute/
// Indirect/JumpLabel/FuncAddr/GeomRef constructors below.
type Arg struct {
	Kind       ArgKind
	MasterType cpuabi.MasterType

	// Absolute/Indirect
	Global  bool // true: address is into GlobBuffer; false: stack/local offset
	Address int64

	// Literal
	LiteralBytes []byte
	LiteralText  string

	// Jump-label operand (Kind stays ArgLiteral; IsJumpLabel distinguishes it)
	IsJumpLabel bool
	Label       string

	// Forward function-call operand
	IsFuncAddr    bool
	FuncMangledID string
	FuncFullName  string

	// Fixed-array geometry operand
	IsGeomIndex bool
	GeomIndex   int

	// ObjName names the symbol a relocation/undefined-reference entry
	// should carry (spec §6.2); empty when the operand needs none.
	ObjName string
}

func leBytes(n int, v uint64) []byte {
	b := make([]byte, n)
	switch n {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
	return b
}

func LitBool(v bool) Arg {
	var b byte
	if v {
		b = 1
	}
	text := "false"
	if v {
		text = "true"
	}
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Bool, LiteralBytes: []byte{b}, LiteralText: text}
}

func LitChar(v byte) Arg {
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Char, LiteralBytes: []byte{v}, LiteralText: string(rune(v))}
}

func LitShort(v int16) Arg {
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Short, LiteralBytes: leBytes(2, uint64(uint16(v))), LiteralText: itoa(int64(v))}
}

func LitInt(v int32) Arg {
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Int, LiteralBytes: leBytes(4, uint64(uint32(v))), LiteralText: itoa(int64(v))}
}

func LitLong(v int64) Arg {
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Long, LiteralBytes: leBytes(8, uint64(v)), LiteralText: itoa(v)}
}

func LitFloat(v float64) Arg {
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.Float, LiteralBytes: leBytes(8, math.Float64bits(v)), LiteralText: ftoa(v)}
}

// LitStr wraps a block handle: global-scope literal strings are stored in
// the block table (spec §3.1), and the handle number is what gets written
// wherever the string value is referenced.
func LitStr(handle int64, arch cpuabi.Arch) Arg {
	w := cpuabi.WidthsFor(arch)
	return Arg{Kind: ArgLiteral, MasterType: cpuabi.String, LiteralBytes: leBytes(w.Mbl, uint64(handle)), LiteralText: itoa(handle)}
}

// Absolute builds an address operand: global selects the global buffer,
// otherwise a stack/local offset.
func Absolute(global bool, addr int64, mtype cpuabi.MasterType) Arg {
	return Arg{Kind: ArgAbsolute, Global: global, Address: addr, MasterType: mtype}
}

// Indirect builds a pointer operand.
func Indirect(global bool, addr int64, mtype cpuabi.MasterType) Arg {
	return Arg{Kind: ArgIndirect, Global: global, Address: addr, MasterType: mtype}
}

// JumpLabel builds a jump-target operand. Its value is resolved by
// JumpResolver at scope close, not written as a literal displacement here.
func JumpLabel(label string) Arg {
	return Arg{Kind: ArgLiteral, IsJumpLabel: true, Label: label}
}

// FuncAddr builds a function-address operand. When the function's final
// code address is not yet known, address is 0 and the emitter records a
// forward-call entry (spec §4.4 step 6).
func FuncAddr(mangledID, fullName string, address int64) Arg {
	return Arg{Kind: ArgAbsolute, IsFuncAddr: true, FuncMangledID: mangledID, FuncFullName: fullName, Address: address, Global: true}
}

// GeomRef builds a fixed-array-geometry operand.
func GeomRef(idx int) Arg {
	return Arg{Kind: ArgLiteral, IsGeomIndex: true, GeomIndex: idx}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
