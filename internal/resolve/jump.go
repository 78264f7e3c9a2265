package resolve

// destKey identifies a jump destination by the label name and the scope
// depth it was declared at (labels are not unique across scopes).
type destKey struct {
	Depth int
	Label string
}

// JumpOrigin is a pending jump awaiting resolution: CodeAddr is where the
// displacement must be patched, InstAddr is the address of the jump
// instruction itself (displacements are relative to it).
type JumpOrigin struct {
	ScopeDepth int
	Label      string
	CodeAddr   int
	InstAddr   int
	File       string
	Line       int
}

// JumpResolver records destinations and origins and resolves them at scope
// close (spec §4.6). Two destination indices are kept in parallel: one by
// label (origin lookup) and one by address (so multiple labels landing on
// the same instruction can all be attached to it during emission).
type JumpResolver struct {
	destByKey  map[destKey]int
	destByAddr map[int][]destKey
	origins    []JumpOrigin
}

func NewJumpResolver() *JumpResolver {
	return &JumpResolver{
		destByKey:  map[destKey]int{},
		destByAddr: map[int][]destKey{},
	}
}

// StoreDestination records that label, at scope depth, resolves to addr.
func (r *JumpResolver) StoreDestination(depth int, label string, addr int) {
	k := destKey{Depth: depth, Label: label}
	r.destByKey[k] = addr
	r.destByAddr[addr] = append(r.destByAddr[addr], k)
}

// LabelsAt returns every label (across all open depths) currently pointing
// at addr, used by the emitter to attach destination labels to the
// instruction it is about to append (spec §4.4 step 5).
func (r *JumpResolver) LabelsAt(addr int) []string {
	keys := r.destByAddr[addr]
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Label
	}
	return out
}

// StoreOrigin records a pending jump: the instruction at instAddr targets
// label, and the two-byte displacement slot to patch sits at codeAddr.
func (r *JumpResolver) StoreOrigin(depth int, label string, codeAddr, instAddr int, file string, line int) {
	r.origins = append(r.origins, JumpOrigin{
		ScopeDepth: depth, Label: label, CodeAddr: codeAddr, InstAddr: instAddr, File: file, Line: line,
	})
}

// Unresolved is returned by Resolve for every origin whose label never
// received a destination at the closing depth (spec §4.6: "Unresolved
// origins raise a diagnostic").
type Unresolved struct {
	Origin JumpOrigin
}

// Resolve patches every origin recorded at depth with the signed
// displacement to its destination (testable property #5), then purges both
// origins and destinations for that depth. patch receives the code address
// to write at and the two-byte little-endian displacement value.
func (r *JumpResolver) Resolve(depth int, patch func(codeAddr int, displacement int16)) []Unresolved {
	var remainingOrigins []JumpOrigin
	var failed []Unresolved
	for _, o := range r.origins {
		if o.ScopeDepth != depth {
			remainingOrigins = append(remainingOrigins, o)
			continue
		}
		destAddr, ok := r.destByKey[destKey{Depth: depth, Label: o.Label}]
		if !ok {
			failed = append(failed, Unresolved{Origin: o})
			continue
		}
		disp := int16(destAddr - o.InstAddr)
		patch(o.CodeAddr, disp)
	}
	r.origins = remainingOrigins

	for k := range r.destByKey {
		if k.Depth == depth {
			delete(r.destByKey, k)
		}
	}
	for addr, keys := range r.destByAddr {
		kept := keys[:0]
		for _, k := range keys {
			if k.Depth != depth {
				kept = append(kept, k)
			}
		}
		if len(kept) == 0 {
			delete(r.destByAddr, addr)
		} else {
			r.destByAddr[addr] = kept
		}
	}
	return failed
}

// ShiftCodeAddresses implements CodeShifter: every destination address,
// origin code/instruction address at or beyond threshold moves by delta.
func (r *JumpResolver) ShiftCodeAddresses(threshold, delta int) {
	for k, addr := range r.destByKey {
		if addr >= threshold {
			r.destByKey[k] = addr + delta
		}
	}
	newByAddr := make(map[int][]destKey, len(r.destByAddr))
	for addr, keys := range r.destByAddr {
		na := addr
		if addr >= threshold {
			na += delta
		}
		newByAddr[na] = append(newByAddr[na], keys...)
	}
	r.destByAddr = newByAddr

	for i := range r.origins {
		if r.origins[i].CodeAddr >= threshold {
			r.origins[i].CodeAddr += delta
		}
		if r.origins[i].InstAddr >= threshold {
			r.origins[i].InstAddr += delta
		}
	}
}
