package symtab

import "testing"

func TestValidateGrantsMarksResolvableOnes(t *testing.T) {
	mt := NewMasterTable()
	ss := NewScopeStack()
	ss.OpenPublic(0)
	ss.DeclareGrant(mt, Grant{FromKind: GrantClass, FromSelector: "Friend", ToKind: GrantMember, ToSelector: "secret"})
	ss.DeclareGrant(mt, Grant{FromKind: GrantClass, FromSelector: "Ghost", ToKind: GrantMember, ToSelector: "secret"})

	resolvable := map[string]bool{"Friend": true}
	failed := mt.ValidateGrants(1, func(g Grant) bool { return resolvable[g.FromSelector] })

	if len(failed) != 1 {
		t.Fatalf("expected exactly one failed grant, got %d", len(failed))
	}
	if !mt.Grants[0].Validated {
		t.Fatalf("expected the Friend grant to be validated")
	}
	if mt.Grants[1].Validated {
		t.Fatalf("expected the Ghost grant to stay unvalidated")
	}
}

func TestHasGrantRequiresValidated(t *testing.T) {
	mt := NewMasterTable()
	g := Grant{FromKind: GrantClass, FromSelector: "Friend", ToKind: GrantMember, ToSelector: "secret"}
	mt.StoreGrant(g)
	from := AccessContext{FromKind: GrantClass, FromName: "Friend"}
	if mt.HasGrant(from, GrantMember, "secret") {
		t.Fatalf("expected an unvalidated grant to not unlock access")
	}
	mt.Grants[0].Validated = true
	if !mt.HasGrant(from, GrantMember, "secret") {
		t.Fatalf("expected a validated matching grant to unlock access")
	}
}

func TestCanAccessFieldPublicClassIsAlwaysVisible(t *testing.T) {
	mt := NewMasterTable()
	ss := NewScopeStack()
	ss.OpenPublic(0)
	typIdx := ss.DeclareType(mt, Type{Name: "Point", Scope: ScopeRef{Kind: Public}})
	fieldIdx := mt.StoreField(Field{Name: "x", SupTypIdx: typIdx, Visibility: FieldPublic})

	if !CanAccessField(mt, ss, typIdx, fieldIdx, AccessContext{}) {
		t.Fatalf("expected a public field of a public class to be visible from anywhere")
	}
}

func TestCanAccessFieldPrivateRequiresGrantOrSameClass(t *testing.T) {
	mt := NewMasterTable()
	ss := NewScopeStack()
	ss.OpenPublic(0)
	typIdx := mt.StoreType(Type{Name: "Point", Scope: ScopeRef{Kind: Public}})
	fieldIdx := mt.StoreField(Field{Name: "y", SupTypIdx: typIdx, Visibility: FieldPrivate})

	if CanAccessField(mt, ss, typIdx, fieldIdx, AccessContext{}) {
		t.Fatalf("expected a private field to be inaccessible without a grant or same-class context")
	}

	mt.StoreGrant(Grant{FromKind: GrantClass, FromSelector: "Other", ToKind: GrantMember, ToSelector: "y", Validated: true})
	from := AccessContext{FromKind: GrantClass, FromName: "Other"}
	if !CanAccessField(mt, ss, typIdx, fieldIdx, from) {
		t.Fatalf("expected a validated grant to unlock the private field")
	}
}
