package symtab

// AccessContext names the accessing side of a member-visibility check: the
// enclosing class, function, or operator the current scope is inside of.
type AccessContext struct {
	FromKind GrantEntityKind
	FromName string
}

// MatchesGrant reports whether g unlocks access from "from" to an entity of
// kind toKind named toName. An empty selector on either side of the grant
// record means "any" (spec §4.3: "optional field/function selectors").
func MatchesGrant(g Grant, from AccessContext, toKind GrantEntityKind, toName string) bool {
	if g.FromKind != from.FromKind {
		return false
	}
	if g.FromSelector != "" && g.FromSelector != from.FromName {
		return false
	}
	if g.ToKind != toKind {
		return false
	}
	if g.ToSelector != "" && g.ToSelector != toName {
		return false
	}
	return true
}

// HasGrant reports whether any validated grant unlocks access from "from" to
// an entity of kind toKind named toName (spec §4.3 rule 3).
func (mt *MasterTable) HasGrant(from AccessContext, toKind GrantEntityKind, toName string) bool {
	for _, g := range mt.Grants {
		if g.Validated && MatchesGrant(g, from, toKind, toName) {
			return true
		}
	}
	return false
}

// CanAccessField implements the field-visibility priority rules of spec
// §4.3 "Visibility and grants": public fields of a publicly-scoped class are
// visible everywhere; private fields are visible from methods of the same
// class; otherwise a matching grant is required.
func CanAccessField(mt *MasterTable, ss *ScopeStack, targetTypIdx, fieldIdx int, from AccessContext) bool {
	field := mt.Fields[fieldIdx]
	if field.Visibility == FieldPublic && mt.Types[targetTypIdx].Scope.Kind == Public {
		return true
	}
	if cur := ss.Top().SubScope; cur.Kind != SubScopeNone && cur.ClassTypIdx == targetTypIdx {
		return true
	}
	return mt.HasGrant(from, GrantMember, field.Name)
}

// CanAccessMethod applies the same priority rules to a member method.
func CanAccessMethod(mt *MasterTable, ss *ScopeStack, fn Function, from AccessContext) bool {
	if fn.SubScope.Kind == PublicClassBody && mt.Types[fn.SubScope.ClassTypIdx].Scope.Kind == Public {
		return true
	}
	if cur := ss.Top().SubScope; cur.Kind != SubScopeNone && cur.ClassTypIdx == fn.SubScope.ClassTypIdx {
		return true
	}
	return mt.HasGrant(from, GrantMember, fn.Name)
}

// ValidateGrants walks every grant declared at exactly the given scope
// depth and marks it Validated once fromResolves confirms its granting side
// (the class/function/operator named on the "from" side) actually resolves
// in scope. The "to" side was already checked to exist when the grant was
// declared (spec §4.3: "the to side is validated at grant time"). It
// returns the indices of grants whose from-side failed to resolve, for the
// caller to report as diagnostics.
func (mt *MasterTable) ValidateGrants(depth int, fromResolves func(Grant) bool) []int {
	var failed []int
	for i := range mt.Grants {
		g := &mt.Grants[i]
		if g.Scope.Depth != depth {
			continue
		}
		if fromResolves(*g) {
			g.Validated = true
		} else {
			failed = append(failed, i)
		}
	}
	return failed
}
