package litpromote

import (
	"testing"

	"vmforge/internal/cpuabi"
)

func TestPromoteReturnsIncreasingTags(t *testing.T) {
	p := NewPromoter()
	t1 := p.Promote(1, false, []byte{1, 2, 3, 4}, cpuabi.Int, "1", 10)
	t2 := p.Promote(1, false, []byte{5, 6, 7, 8}, cpuabi.Int, "2", 20)
	if t1 == t2 {
		t.Fatalf("expected distinct replacement tags, got %q twice", t1)
	}
	if p.Pending() != 2 {
		t.Fatalf("expected 2 pending records, got %d", p.Pending())
	}
}

func TestResolveDeduplicatesByFingerprint(t *testing.T) {
	p := NewPromoter()
	payload := []byte{1, 2, 3, 4}
	p.Promote(1, false, payload, cpuabi.Int, "7", 10)
	p.Promote(1, false, payload, cpuabi.Int, "7", 40)

	var allocs, patches, substs int
	p.Resolve(false, 1, Hooks{
		Alloc: func(rec Record) Allocation {
			allocs++
			return Allocation{VarIndex: 0, Address: 1000}
		},
		EmitInit: func(alloc Allocation, rec Record) {},
		Patch: func(codeAddr int, addr int64) {
			patches++
			if addr != 1000 {
				t.Fatalf("expected patched address 1000, got %d", addr)
			}
		},
		AsmSubst: func(replTag, varName string) { substs++ },
		VarName:  func(varIndex int) string { return "v0" },
	})

	if allocs != 1 {
		t.Fatalf("expected exactly one allocation for the duplicate payload, got %d", allocs)
	}
	if patches != 2 {
		t.Fatalf("expected both occurrences patched, got %d", patches)
	}
	if substs != 2 {
		t.Fatalf("expected both occurrences substituted in the listing, got %d", substs)
	}
	if p.Pending() != 0 {
		t.Fatalf("expected no pending records after resolve, got %d", p.Pending())
	}
}

func TestResolveOnlyMatchesRequestedScope(t *testing.T) {
	p := NewPromoter()
	p.Promote(1, false, []byte{1}, cpuabi.Bool, "a", 1)
	p.Promote(2, false, []byte{1}, cpuabi.Bool, "b", 2)
	p.Promote(0, true, []byte{1}, cpuabi.Bool, "c", 3)

	p.Resolve(false, 1, Hooks{
		Alloc:    func(rec Record) Allocation { return Allocation{} },
		EmitInit: func(Allocation, Record) {},
		Patch:    func(int, int64) {},
		AsmSubst: func(string, string) {},
		VarName:  func(int) string { return "" },
	})
	if p.Pending() != 2 {
		t.Fatalf("expected the depth-2 and global records to remain pending, got %d", p.Pending())
	}
}
