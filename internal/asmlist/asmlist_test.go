package asmlist

import "testing"

func TestAppendInstructionAndFlushOrdersSections(t *testing.T) {
	l := NewListing()
	l.AppendDirective(Head, "module demo")
	l.AppendInstruction(Body, 0, []string{"start"}, "ld", []string{"l[0]", "42"}, "")
	out := l.Flush()
	if !containsInOrder(out, "---- HEAD ----", "module demo", "---- BODY ----", "start:", "ld") {
		t.Fatalf("expected sections in fixed order with rendered lines, got:\n%s", out)
	}
}

func TestPushPopNestGroupsBodyLines(t *testing.T) {
	l := NewListing()
	l.AppendInstruction(Body, 0, nil, "ld", nil, "")
	l.PushNest()
	l.AppendInstruction(Body, 4, nil, "ret", nil, "")
	l.PopNest()
	l.AppendInstruction(Body, 8, nil, "ret", nil, "")

	out := l.Flush()
	if !containsInOrder(out, "; -- nest 1 --") {
		t.Fatalf("expected a nest banner for the nested function's lines, got:\n%s", out)
	}
}

func TestSubstRewritesTaggedArgument(t *testing.T) {
	l := NewListing()
	ln := l.AppendInstruction(Body, 0, nil, "ld", []string{"l[0]", "$L1"}, "")
	ln.TagArg(1, "$L1")
	l.Subst("$L1", "_lit_1")
	if ln.Args[1] != "_lit_1" {
		t.Fatalf("expected tagged argument substituted, got %q", ln.Args[1])
	}
}

func TestShiftCodeAddressesMovesBodyAndInitNotOthers(t *testing.T) {
	l := NewListing()
	body := l.AppendInstruction(Body, 100, nil, "nop", nil, "")
	init := l.AppendInstruction(Init, 100, nil, "rsrv", nil, "")
	l.AppendDirective(Head, "untouched")

	l.ShiftCodeAddresses(50, 16)

	if body.Addr != 116 {
		t.Fatalf("expected BODY line shifted to 116, got %d", body.Addr)
	}
	if init.Addr != 116 {
		t.Fatalf("expected INIT line shifted to 116, got %d", init.Addr)
	}
}

func containsInOrder(s string, parts ...string) bool {
	for _, p := range parts {
		idx := indexOf(s, p)
		if idx < 0 {
			return false
		}
		s = s[idx+len(p):]
	}
	return true
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
