// Package resolve implements JumpResolver and CallResolver: the two tables
// that record pending code-address fixups keyed by (label or mangled id,
// scope depth) and back-patch the code buffer when the owning scope closes
// (spec §4.6).
package resolve

// CodeShifter is implemented by every table that stores a raw code-buffer
// address. linker.MergeInit (spec §4.7) calls ShiftCodeAddresses on each
// shifter passed to it right after splicing the init buffer, so every
// table keeps pointing at the same instruction it did before the splice.
type CodeShifter interface {
	ShiftCodeAddresses(threshold, delta int)
}
