package linker

import "vmforge/internal/resolve"

// MergeInit splices the init buffer into the code buffer at fromAddr and
// shifts every registered code-address-bearing table in lockstep (spec
// §4.7). shifters is every table besides l.Reloc that stores a raw code
// address — the compiler passes JumpResolver, CallResolver and the
// assembler listing; binfmt.Container also implements CodeShifter but is
// not passed by any caller. Missing one here is exactly the "silent miscompile" spec
// §4.7 warns about, so this is the single place that performs the splice;
// nothing else may call buffer.Store.MergeInitIntoCode directly.
func (l *LibraryLinker) MergeInit(fromAddr int, shifters ...resolve.CodeShifter) int {
	n := l.Buf.MergeInitIntoCode(fromAddr)
	if n == 0 {
		return 0
	}
	l.Reloc.ShiftCodeAddresses(fromAddr, n)
	for _, s := range shifters {
		s.ShiftCodeAddresses(fromAddr, n)
	}
	return n
}
