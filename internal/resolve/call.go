package resolve

// callKey identifies a function address record by its mangled id and the
// scope depth it was declared at.
type callKey struct {
	Depth int
	ID    string
}

// ForwardCall is a pending forward call: the call instruction's function-
// address operand at CodeAddr must be patched once the target's address is
// known.
type ForwardCall struct {
	ScopeDepth int
	ID         string
	FullName   string
	CodeAddr   int
	File       string
	Line       int
	Col        int
}

// CallResolver mirrors JumpResolver for function forward calls (spec §4.6).
// It additionally tracks which function addresses belong to nested local
// functions, whose recorded address is relative to the enclosing function
// and must shift whenever the enclosing function's init buffer merges
// (spec §4.6 "Nested local functions").
type CallResolver struct {
	addrByKey map[callKey]int64
	nested    map[callKey]bool
	calls     []ForwardCall
}

func NewCallResolver() *CallResolver {
	return &CallResolver{
		addrByKey: map[callKey]int64{},
		nested:    map[callKey]bool{},
	}
}

// StoreFunctionAddress records id's resolved address at depth.
func (r *CallResolver) StoreFunctionAddress(depth int, id string, addr int64, nested bool) {
	k := callKey{Depth: depth, ID: id}
	r.addrByKey[k] = addr
	r.nested[k] = nested
}

// StoreForwardCall records a pending call site.
func (r *CallResolver) StoreForwardCall(depth int, id, fullName string, codeAddr int, file string, line, col int) {
	r.calls = append(r.calls, ForwardCall{
		ScopeDepth: depth, ID: id, FullName: fullName, CodeAddr: codeAddr, File: file, Line: line, Col: col,
	})
}

// UnresolvedCall is a forward call whose target never registered an address
// at the closing depth.
type UnresolvedCall struct {
	Call ForwardCall
}

// FooterEntry is one resolved-call line contributed to the assembler
// listing's Foot section (spec §4.6 "emits the resolved addresses to a
// footer section of the assembler listing").
type FooterEntry struct {
	ID      string
	Address int64
}

// Resolve patches every pending call recorded at depth with the final
// address of its target (testable property #6). A target stored at depth is
// used first; otherwise a nested function's address kept from a deeper,
// already closed scope is used. Every call recorded at depth is then dropped,
// resolved or not, and so are the non-nested address records for that depth.
func (r *CallResolver) Resolve(depth int, patch func(codeAddr int, addr int64)) ([]FooterEntry, []UnresolvedCall) {
	var remaining []ForwardCall
	var failed []UnresolvedCall
	var footer []FooterEntry
	for _, c := range r.calls {
		if c.ScopeDepth != depth {
			remaining = append(remaining, c)
			continue
		}
		addr, ok := r.addrByKey[callKey{Depth: depth, ID: c.ID}]
		if !ok {
			for k, a := range r.addrByKey {
				if k.ID == c.ID && r.nested[k] {
					addr, ok = a, true
					break
				}
			}
		}
		if !ok {
			failed = append(failed, UnresolvedCall{Call: c})
			continue
		}
		patch(c.CodeAddr, addr)
		footer = append(footer, FooterEntry{ID: c.ID, Address: addr})
	}
	r.calls = remaining

	for k := range r.addrByKey {
		if k.Depth == depth && !r.nested[k] {
			delete(r.addrByKey, k)
			delete(r.nested, k)
		}
	}
	return footer, failed
}

// ShiftCodeAddresses implements CodeShifter. Nested-function addresses
// above threshold shift just like any other code address; the "nested"
// bookkeeping only controls when StoreFunctionAddress entries survive a
// Resolve call, not whether they participate in shifting.
func (r *CallResolver) ShiftCodeAddresses(threshold, delta int) {
	for k, addr := range r.addrByKey {
		if int(addr) >= threshold {
			r.addrByKey[k] = addr + int64(delta)
		}
	}
	for i := range r.calls {
		if r.calls[i].CodeAddr >= threshold {
			r.calls[i].CodeAddr += delta
		}
	}
}
