package symtab

// searchFrames returns the frames to traverse for a lookup: from the top of
// the stack down to, and including, the first Public frame (spec §4.3
// "Lookups traverse from top of stack downward, stopping at the first
// Public frame").
func (s *ScopeStack) searchFrames() []*Frame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Scope.Kind == Public {
			return s.frames[i:]
		}
	}
	return s.frames
}

// rootPublic returns the bottom-most (outermost) frame, which is always the
// root Public frame created for the main module.
func (s *ScopeStack) rootPublic() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

// LookupType searches by name, local-to-global, then falls back to
// system-defined types in the root Public frame.
func (s *ScopeStack) LookupType(mt *MasterTable, name string) (int, bool) {
	frames := s.searchFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].typesByName[name]; ok && len(idxs) > 0 {
			return idxs[len(idxs)-1], true
		}
	}
	if root := s.rootPublic(); root != nil {
		if idxs, ok := root.typesByName[name]; ok {
			for _, idx := range idxs {
				if mt.Types[idx].SystemDefined {
					return idx, true
				}
			}
		}
	}
	return 0, false
}

// LookupVariable searches by name, local-to-global.
func (s *ScopeStack) LookupVariable(mt *MasterTable, name string) (int, bool) {
	frames := s.searchFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].varsByName[name]; ok && len(idxs) > 0 {
			return idxs[len(idxs)-1], true
		}
	}
	if root := s.rootPublic(); root != nil {
		if idxs, ok := root.varsByName[name]; ok {
			for _, idx := range idxs {
				if mt.Variables[idx].Flags.Has(FlagSystemDefined) {
					return idx, true
				}
			}
		}
	}
	return 0, false
}

// LookupTracker searches the current Public scope chain only (trackers are
// private to the public scope that declared them).
func (s *ScopeStack) LookupTracker(name string) (int, bool) {
	frames := s.searchFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].trackersByName[name]; ok && len(idxs) > 0 {
			return idxs[len(idxs)-1], true
		}
	}
	return 0, false
}

// LookupField finds a field of typIdx by name.
func (s *ScopeStack) LookupField(mt *MasterTable, typIdx int, name string) (int, bool) {
	key := fieldKey(typIdx, name)
	frames := s.searchFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].fieldsByKey[key]; ok && len(idxs) > 0 {
			return idxs[len(idxs)-1], true
		}
	}
	return 0, false
}

// FuncLookupResult is the outcome of a by-signature function search (spec
// §4.3 and testable property #9).
type FuncLookupResult struct {
	Index      int
	Found      bool
	Ambiguous  bool
	Candidates []int // populated only when Ambiguous
}

// LookupFunctionBySignature looks for an exact match on (name, paramTypes)
// first; if none is found, it falls back to the convertible-signature index
// and only accepts the result when there is exactly one match (spec §4.3).
func (s *ScopeStack) LookupFunctionBySignature(mt *MasterTable, name string, paramTypes []int) FuncLookupResult {
	frames := s.searchFrames()
	litKey := signatureKey(mt, name, paramTypes, false)
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].funcsByName[litKey]; ok && len(idxs) > 0 {
			return FuncLookupResult{Index: idxs[len(idxs)-1], Found: true}
		}
	}
	convKey := signatureKey(mt, name, paramTypes, true)
	var all []int
	for i := len(frames) - 1; i >= 0; i-- {
		if idxs, ok := frames[i].funcsByConvName[convKey]; ok {
			all = append(all, idxs...)
		}
	}
	switch len(all) {
	case 0:
		return FuncLookupResult{}
	case 1:
		return FuncLookupResult{Index: all[0], Found: true}
	default:
		return FuncLookupResult{Ambiguous: true, Candidates: all}
	}
}

// LookupFunctionByName returns the index of every function in mt named
// name, in table order (used for diagnostics and for the "by name" mode
// alongside "by signature"). The result is not restricted to the frames
// open on s, and no local-to-global order is applied.
func (s *ScopeStack) LookupFunctionByName(mt *MasterTable, name string) []int {
	var out []int
	for i := range mt.Functions {
		if mt.Functions[i].Name == name {
			out = append(out, i)
		}
	}
	return out
}
