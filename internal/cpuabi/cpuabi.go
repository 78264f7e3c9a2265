// Package cpuabi describes the architecture-dependent widths, master-type
// tags, and opcode/mnemonic tables shared by every layer of the emitter.
// It has no dependencies on the rest of the module so that symtab, buffer
// and emitter can all import it without a cycle.
package cpuabi

import "fmt"

// MasterType is the master type variant every declared entity carries.
type MasterType uint8

const (
	Bool MasterType = iota
	Char
	Short
	Int
	Long
	Float
	String
	Class
	Enum
	FixArray
	DynArray
)

func (t MasterType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case String:
		return "string"
	case Class:
		return "class"
	case Enum:
		return "enum"
	case FixArray:
		return "fixarray"
	case DynArray:
		return "dynarray"
	default:
		return fmt.Sprintf("masterType(%d)", uint8(t))
	}
}

// IsNumeric reports whether t collapses to the single "numeric" placeholder
// used during convertible-signature overload resolution (symtab search).
func (t MasterType) IsNumeric() bool {
	switch t {
	case Char, Short, Int, Long, Float:
		return true
	default:
		return false
	}
}

// Arch is the target machine word width: 32 or 64 bits. A binary container
// is only valid for the architecture it was produced on (spec §6.1).
type Arch struct {
	Bits int
}

// Arch32 and Arch64 are the two supported architectures.
var (
	Arch32 = Arch{Bits: 32}
	Arch64 = Arch{Bits: 64}
)

// Widths holds the byte length of each architecture-dependent CPU type.
type Widths struct {
	Int int // CpuInt: fixed 4-byte signed integer, independent of arch
	Lon int // CpuLon: fixed 8-byte signed long, independent of arch
	Adr int // CpuAdr: memory address, matches machine word width
	Agx int // CpuAgx: array geometry index, matches machine word width
	Mbl int // CpuMbl: memory block handle, matches machine word width
}

// WidthsFor returns the widths table for the given architecture.
func WidthsFor(a Arch) Widths {
	word := 4
	if a.Bits == 64 {
		word = 8
	}
	return Widths{Int: 4, Lon: 8, Adr: word, Agx: word, Mbl: word}
}

// ByteLen returns the storage width of a scalar master type under the given
// architecture. Class/Enum/FixArray/DynArray have no fixed scalar width here;
// their length is carried on the owning Type record instead.
func ByteLen(a Arch, t MasterType) int {
	w := WidthsFor(a)
	switch t {
	case Bool, Char:
		return 1
	case Short:
		return 2
	case Int:
		return w.Int
	case Long:
		return w.Lon
	case Float:
		return 8
	case String:
		return w.Mbl // strings are stored as a block handle
	default:
		return 0
	}
}
