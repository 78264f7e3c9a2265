// Package buffer implements BufferStore: the four append-only byte streams
// the emitter writes into (spec §4.1). Every append returns a stable address;
// patch overwrites bytes already written; rewind truncates the global buffer
// for compile-time-folded constants whose storage was reserved early.
//
// MergeInitIntoCode only performs the splice itself. The fan-out of address
// corrections across every other table that stores a code address (spec
// §4.7) is deliberately not done here — Store has no knowledge of the
// resolver, relocation, or symbol tables. Callers that own those tables
// register a resolve.CodeShifter (see internal/resolve) and invoke it after
// the splice; internal/linker.MergeInit is the orchestrator that does this.
package buffer

// Block is one entry of the block table: a variable-length payload backing
// a literal string or a literal/dynamic array value.
type Block struct {
	HasDynGeom bool
	DynGeom    int // dynamic array geometry index, valid when HasDynGeom
	Data       []byte
}

// Store holds the four buffers plus the block table.
type Store struct {
	Code []byte
	Glob []byte
	Init []byte
	Blk  []Block
}

// NewStore returns a Store with the zero-convention padding already applied:
// global-buffer byte 0 and block-table slot 0 are reserved so that address 0
// and handle 0 can mean "unresolved" (spec §3.2).
func NewStore() *Store {
	s := &Store{
		Glob: make([]byte, 1),
		Blk:  make([]Block, 1),
	}
	return s
}

// AppendCode appends to the code buffer and returns the address the bytes
// were written at.
func (s *Store) AppendCode(b []byte) int {
	addr := len(s.Code)
	s.Code = append(s.Code, b...)
	return addr
}

// AppendGlob appends to the global buffer and returns the address.
func (s *Store) AppendGlob(b []byte) int {
	addr := len(s.Glob)
	s.Glob = append(s.Glob, b...)
	return addr
}

// AppendInit appends to the scratch init buffer and returns the address
// relative to the start of the init buffer (not the final code address,
// which is only known once MergeInitIntoCode runs).
func (s *Store) AppendInit(b []byte) int {
	addr := len(s.Init)
	s.Init = append(s.Init, b...)
	return addr
}

// AppendBlock appends a new block and returns its handle. Handle 0 is the
// reserved "unresolved" value and is never reissued.
func (s *Store) AppendBlock(data []byte) int {
	handle := len(s.Blk)
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Blk = append(s.Blk, Block{Data: cp})
	return handle
}

// AppendDynBlock appends a block backing a dynamic-array literal, recording
// the geometry index it was shaped with.
func (s *Store) AppendDynBlock(data []byte, dynGeom int) int {
	handle := s.AppendBlock(data)
	s.Blk[handle].HasDynGeom = true
	s.Blk[handle].DynGeom = dynGeom
	return handle
}

// PatchCode overwrites code-buffer bytes in place, e.g. to back-patch a jump
// displacement or a literal's backing address.
func (s *Store) PatchCode(addr int, b []byte) {
	copy(s.Code[addr:addr+len(b)], b)
}

// PatchGlob overwrites global-buffer bytes in place.
func (s *Store) PatchGlob(addr int, b []byte) {
	copy(s.Glob[addr:addr+len(b)], b)
}

// PatchInit overwrites init-buffer bytes in place.
func (s *Store) PatchInit(addr int, b []byte) {
	copy(s.Init[addr:addr+len(b)], b)
}

// RewindGlob truncates the global buffer by n bytes. Used when a variable's
// storage was reserved at declaration time but its value turned out to be a
// compile-time-computed constant that is folded into the symbol table
// instead (spec §4.1).
func (s *Store) RewindGlob(n int) {
	s.Glob = s.Glob[:len(s.Glob)-n]
}

// MergeInitIntoCode splices Init into Code at fromAddr and clears Init,
// returning the number of bytes inserted so the caller can shift every
// other code-address-bearing table (spec §4.7). fromAddr must be a valid
// splice point inside (or at the end of) Code.
func (s *Store) MergeInitIntoCode(fromAddr int) int {
	n := len(s.Init)
	if n == 0 {
		return 0
	}
	merged := make([]byte, 0, len(s.Code)+n)
	merged = append(merged, s.Code[:fromAddr]...)
	merged = append(merged, s.Init...)
	merged = append(merged, s.Code[fromAddr:]...)
	s.Code = merged
	s.Init = s.Init[:0]
	return n
}

func (s *Store) CodeLen() int    { return len(s.Code) }
func (s *Store) GlobLen() int    { return len(s.Glob) }
func (s *Store) InitLen() int    { return len(s.Init) }
func (s *Store) BlockCount() int { return len(s.Blk) }

// Block returns the block table entry for handle.
func (s *Store) Block(handle int) Block { return s.Blk[handle] }
