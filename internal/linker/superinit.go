package linker

import (
	"vmforge/internal/cpuabi"
	"vmforge/internal/emitter"
)

// BuildSuperInit emits the super-init routine's body: one call to every
// registered per-module/per-library initializer, in registration order
// (spec §4.9). It returns the code address the routine starts at, which
// the program entry point calls before main.
func (l *LibraryLinker) BuildSuperInit(em *emitter.Emitter) int64 {
	addr := int64(em.Buf.CodeLen())
	for _, e := range l.SuperInits {
		em.Emit(cpuabi.OpCall, emitter.FuncAddr(e.Name, e.Name, e.Addr))
	}
	em.Emit(cpuabi.OpRet)
	return addr
}
