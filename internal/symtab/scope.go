package symtab

import (
	"fmt"
	"strconv"
	"strings"

	"vmforge/internal/geom"
)

// Frame is one lexical scope stack entry (spec §4.3). Search indices are
// keyed by name (or signature) and hold every matching entity index
// declared while this frame was the top of stack.
type Frame struct {
	Scope    ScopeRef
	SubScope SubScopeRef
	// CodeStart is the code-buffer address this frame's function began
	// emitting at, set by the caller right after OpenLocal returns. It is
	// the splice point for this frame's init-merge (spec §4.7).
	CodeStart int
	snap      snapshot

	typesByName     map[string][]int
	varsByName      map[string][]int
	funcsByName     map[string][]int
	funcsByConvName map[string][]int
	trackersByName  map[string][]int
	fieldsByKey     map[string][]int

	stackSize    int64
	labelCounter int
	tempCounters map[string]int
}

func newFrame(scope ScopeRef) *Frame {
	return &Frame{
		Scope:           scope,
		typesByName:     map[string][]int{},
		varsByName:      map[string][]int{},
		funcsByName:     map[string][]int{},
		funcsByConvName: map[string][]int{},
		trackersByName:  map[string][]int{},
		fieldsByKey:     map[string][]int{},
		tempCounters:    map[string]int{},
	}
}

// ScopeStack is the stack of open lexical scopes.
type ScopeStack struct {
	frames []*Frame
	depth  int
}

func NewScopeStack() *ScopeStack { return &ScopeStack{} }

// Depth returns the current nesting depth (0 for an empty stack).
func (s *ScopeStack) Depth() int { return s.depth }

// Top returns the currently open frame. Panics on an empty stack, matching
// the teacher's unchecked Stack.Top() usage pattern in parser-driven code.
func (s *ScopeStack) Top() *Frame { return s.frames[len(s.frames)-1] }

// TopN returns the frame n levels below the top (0 == Top()).
func (s *ScopeStack) TopN(n int) *Frame { return s.frames[len(s.frames)-1-n] }

// OpenPublic pushes a fresh Public scope for module modIdx.
func (s *ScopeStack) OpenPublic(modIdx int) *Frame {
	s.depth++
	f := newFrame(ScopeRef{Kind: Public, ModIndex: modIdx, FuncIndex: none, Depth: s.depth})
	s.frames = append(s.frames, f)
	return f
}

// OpenPrivate pushes a fresh Private scope for module modIdx.
func (s *ScopeStack) OpenPrivate(mt *MasterTable, modIdx int) *Frame {
	s.depth++
	f := newFrame(ScopeRef{Kind: Private, ModIndex: modIdx, FuncIndex: none, Depth: s.depth})
	f.snap = mt.snapshot()
	s.frames = append(s.frames, f)
	return f
}

// OpenLocal pushes a fresh Local scope for a call to function funIdx, resets
// the stack-size counter, the label generator and the temp-variable pool
// (spec §4.3), and binds one Variable per declared Parameter of funIdx.
func (s *ScopeStack) OpenLocal(mt *MasterTable, gt *geom.Table, modIdx, funIdx int) (*Frame, error) {
	s.depth++
	f := newFrame(ScopeRef{Kind: Local, ModIndex: modIdx, FuncIndex: funIdx, Depth: s.depth})
	f.snap = mt.snapshot()
	s.frames = append(s.frames, f)

	if gt != nil {
		gt.ResetLocal()
	}

	fn := mt.Functions[funIdx]
	var addr int64
	for i := fn.ParmLow; i < fn.ParmHigh; i++ {
		p := mt.Parameters[i]
		flags := FlagParameter
		if p.Const {
			flags |= FlagConst
		}
		if p.Reference {
			flags |= FlagReference
		}
		vIdx := mt.StoreVariable(Variable{
			Name:    p.Name,
			Scope:   f.Scope,
			TypIdx:  p.TypIdx,
			Address: addr,
			Flags:   flags,
		})
		f.varsByName[p.Name] = append(f.varsByName[p.Name], vIdx)
		addr += 8 // stack slots are word-sized placeholders; real width comes from cpuabi.ByteLen at emission time
	}
	return f, nil
}

// AnyOpenLocalBelowTop reports whether any frame other than the current top
// is an open Local scope — used when closing a Local scope to decide
// whether this is the outermost local frame and so owns the init-merge
// step (spec §4.3 "if closing a local scope and no parent local is open").
func (s *ScopeStack) AnyOpenLocalBelowTop() bool {
	for i := 0; i < len(s.frames)-1; i++ {
		if s.frames[i].Scope.Kind == Local {
			return true
		}
	}
	return false
}

// Close pops the top frame. For a Private or Local frame it purges every
// MasterTable entity declared since the frame opened (spec §4.3 step 6);
// Public frames are never purged (module-level declarations persist).
// The caller is responsible for running grant validation and the jump/call
// resolvers against Depth() *before* calling Close (spec §4.3 "Closing a
// scope" steps 1-5) — Close only performs step 6.
func (s *ScopeStack) Close(mt *MasterTable) *Frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	s.depth--
	if f.Scope.Kind != Public {
		mt.purge(f.snap)
	}
	return f
}

// CopyPublicUp re-exports every type/function/variable declared in a
// closing Public frame into the parent Public frame's search indices (spec
// §3.2 "the entities of a public scope can be copied up ... so nested
// modules expose their publics"). It must be called before the child frame
// is discarded.
func (s *ScopeStack) CopyPublicUp(child *Frame, parent *Frame) {
	for name, idxs := range child.typesByName {
		parent.typesByName[name] = append(parent.typesByName[name], idxs...)
	}
	for name, idxs := range child.varsByName {
		parent.varsByName[name] = append(parent.varsByName[name], idxs...)
	}
	for name, idxs := range child.funcsByName {
		parent.funcsByName[name] = append(parent.funcsByName[name], idxs...)
	}
	for name, idxs := range child.funcsByConvName {
		parent.funcsByConvName[name] = append(parent.funcsByConvName[name], idxs...)
	}
}

// --- declaration helpers: store into MasterTable and register search keys ---

// DeclareType stores t at the current scope/sub-scope and indexes it by name.
func (s *ScopeStack) DeclareType(mt *MasterTable, t Type) int {
	f := s.Top()
	t.Scope = f.Scope
	t.SubScope = f.SubScope
	idx := mt.StoreType(t)
	f.typesByName[t.Name] = append(f.typesByName[t.Name], idx)
	return idx
}

// DeclareVariable stores v at the current scope and indexes it by name.
func (s *ScopeStack) DeclareVariable(mt *MasterTable, v Variable) int {
	f := s.Top()
	v.Scope = f.Scope
	idx := mt.StoreVariable(v)
	f.varsByName[v.Name] = append(f.varsByName[v.Name], idx)
	return idx
}

// DeclareTracker stores t at the current Public scope and indexes it by name.
func (s *ScopeStack) DeclareTracker(mt *MasterTable, t Tracker) int {
	f := s.Top()
	t.Scope = f.Scope
	idx := mt.StoreTracker(t)
	f.trackersByName[t.Name] = append(f.trackersByName[t.Name], idx)
	return idx
}

// DeclareField stores fd on the class currently open as sub-scope.
func (s *ScopeStack) DeclareField(mt *MasterTable, fd Field) int {
	idx := mt.StoreField(fd)
	key := fieldKey(fd.SupTypIdx, fd.Name)
	s.Top().fieldsByKey[key] = append(s.Top().fieldsByKey[key], idx)
	return idx
}

func fieldKey(typIdx int, name string) string {
	return strconv.Itoa(typIdx) + ":" + name
}

// DeclareFunction stores fn at the current scope, indexing it both by its
// literal parameter-type signature and by its convertible signature (spec
// §4.3 "Index invariant").
func (s *ScopeStack) DeclareFunction(mt *MasterTable, fn Function, paramTypes []int) int {
	f := s.Top()
	fn.Scope = f.Scope
	fn.SubScope = f.SubScope
	idx := mt.StoreFunction(fn)
	litKey := signatureKey(mt, fn.Name, paramTypes, false)
	convKey := signatureKey(mt, fn.Name, paramTypes, true)
	f.funcsByName[litKey] = append(f.funcsByName[litKey], idx)
	f.funcsByConvName[convKey] = append(f.funcsByConvName[convKey], idx)
	return idx
}

// DeclareParameter stores p, owned by funIdx.
func (s *ScopeStack) DeclareParameter(mt *MasterTable, p Parameter) int {
	return mt.StoreParameter(p)
}

// DeclareGrant stores g at the current scope; it is validated later, when
// the defining scope closes (spec §4.3 "Visibility and grants").
func (s *ScopeStack) DeclareGrant(mt *MasterTable, g Grant) int {
	g.Scope = s.Top().Scope
	return mt.StoreGrant(g)
}

// DeclareDimension stores d at the current scope.
func (s *ScopeStack) DeclareDimension(mt *MasterTable, d Dimension) int {
	d.Scope = s.Top().Scope
	return mt.StoreDimension(d)
}

// signatureKey builds the search key for a function's name + parameter
// types; when convertible is true, numeric types collapse to one
// placeholder and strings collapse to their own placeholder (spec §4.3).
func signatureKey(mt *MasterTable, name string, paramTypes []int, convertible bool) string {
	var b strings.Builder
	b.WriteString(name)
	for _, ti := range paramTypes {
		b.WriteByte('/')
		if !convertible {
			b.WriteString(strconv.Itoa(ti))
			continue
		}
		mtyp := mt.Types[ti].Master
		switch {
		case mtyp.IsNumeric():
			b.WriteString("#num")
		case mtyp.String() == "string":
			b.WriteString("#str")
		default:
			b.WriteString(strconv.Itoa(ti))
		}
	}
	return b.String()
}

// --- label generator and temp-variable pool (per local scope) ---

// NextLabel returns a fresh jump-target label name, unique within the
// current local scope's lifetime.
func (s *ScopeStack) NextLabel() string {
	f := s.Top()
	f.labelCounter++
	return fmt.Sprintf("_L%d", f.labelCounter)
}

// CumulStackSize adds n bytes to the running local stack-frame size and
// returns the address the caller's variable was assigned.
func (s *ScopeStack) CumulStackSize(n int64) int64 {
	f := s.Top()
	addr := f.stackSize
	f.stackSize += n
	return addr
}

// StackSize returns the current local scope's accumulated frame size.
func (s *ScopeStack) StackSize() int64 { return s.Top().stackSize }

// AcquireTemp returns an existing unlocked temp variable of the requested
// shape in the current local scope if one exists, re-locking it; otherwise
// it synthesizes a fresh one (spec §4.3 "Temp-variable pool").
func (s *ScopeStack) AcquireTemp(mt *MasterTable, typIdx int, isRef bool, category string) int {
	f := s.Top()
	for _, idx := range f.varsByName {
		for _, vi := range idx {
			v := &mt.Variables[vi]
			if !v.Flags.Has(FlagTemporary) || v.Flags.Has(FlagTempLocked) {
				continue
			}
			if v.TypIdx != typIdx || v.Category != category {
				continue
			}
			if v.Flags.Has(FlagReference) != isRef {
				continue
			}
			v.Flags |= FlagTempLocked
			return vi
		}
	}
	f.tempCounters[category]++
	name := fmt.Sprintf("_t_%s_%d", category, f.tempCounters[category])
	flags := FlagTemporary | FlagTempLocked
	if isRef {
		flags |= FlagReference
	}
	return s.DeclareVariable(mt, Variable{
		Name:     name,
		TypIdx:   typIdx,
		Category: category,
		Flags:    flags,
	})
}

// ReleaseTemp unlocks a temp variable at an expression boundary so later
// subexpressions may reuse it; it is not destroyed.
func ReleaseTemp(mt *MasterTable, idx int) {
	mt.Variables[idx].Flags &^= FlagTempLocked
}
