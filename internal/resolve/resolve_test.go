package resolve

import "testing"

func TestJumpResolverResolvesBackwardLabel(t *testing.T) {
	r := NewJumpResolver()
	r.StoreDestination(1, "top", 0)
	codeAddr := 10
	r.StoreOrigin(1, "top", codeAddr, 12, "f.go", 3)

	var patched int16
	failed := r.Resolve(1, func(addr int, disp int16) {
		if addr != codeAddr {
			t.Fatalf("expected patch at %d, got %d", codeAddr, addr)
		}
		patched = disp
	})
	if len(failed) != 0 {
		t.Fatalf("expected no unresolved jumps, got %v", failed)
	}
	if patched != -12 {
		t.Fatalf("expected displacement -12 (dest 0 - instAddr 12), got %d", patched)
	}
}

func TestJumpResolverReportsUnresolvedLabel(t *testing.T) {
	r := NewJumpResolver()
	r.StoreOrigin(1, "nowhere", 5, 5, "f.go", 1)
	failed := r.Resolve(1, func(int, int16) {})
	if len(failed) != 1 || failed[0].Origin.Label != "nowhere" {
		t.Fatalf("expected one unresolved origin for %q, got %v", "nowhere", failed)
	}
}

func TestJumpResolverShiftCodeAddresses(t *testing.T) {
	r := NewJumpResolver()
	r.StoreDestination(1, "L", 100)
	r.StoreOrigin(1, "L", 100, 90, "f.go", 1)
	r.ShiftCodeAddresses(50, 16)
	if addr := r.LabelsAt(116); len(addr) != 1 {
		t.Fatalf("expected destination shifted to 116, got labels at 116: %v", addr)
	}
}

func TestCallResolverResolvesAndReportsFooter(t *testing.T) {
	r := NewCallResolver()
	r.StoreFunctionAddress(1, "F$1", 4096, false)
	r.StoreForwardCall(1, "F$1", "foo", 20, "f.go", 1, 0)

	footer, failed := r.Resolve(1, func(addr int, target int64) {
		if target != 4096 {
			t.Fatalf("expected patched target 4096, got %d", target)
		}
	})
	if len(failed) != 0 {
		t.Fatalf("expected no unresolved calls, got %v", failed)
	}
	if len(footer) != 1 || footer[0].ID != "F$1" {
		t.Fatalf("expected one footer entry for F$1, got %v", footer)
	}
}

func TestCallResolverReportsUnresolvedCall(t *testing.T) {
	r := NewCallResolver()
	r.StoreForwardCall(1, "F$missing", "bar", 20, "f.go", 2, 0)
	_, failed := r.Resolve(1, func(int, int64) {})
	if len(failed) != 1 || failed[0].Call.FullName != "bar" {
		t.Fatalf("expected one unresolved call for bar, got %v", failed)
	}
}

func TestCallResolverNestedAddressSurvivesOwnDepthResolve(t *testing.T) {
	r := NewCallResolver()
	r.StoreFunctionAddress(2, "N$1", 200, true)
	r.Resolve(2, func(int, int64) {})
	r.StoreForwardCall(1, "N$1", "nested", 30, "f.go", 1, 0)
	footer, failed := r.Resolve(1, func(int, int64) {})
	if len(failed) != 0 {
		t.Fatalf("expected the nested function's address to still resolve from the outer depth, got failures: %v", failed)
	}
	if len(footer) != 1 || footer[0].Address != 200 {
		t.Fatalf("expected nested call resolved to address 200, got %v", footer)
	}
}

func TestCallResolverShiftCodeAddresses(t *testing.T) {
	r := NewCallResolver()
	r.StoreFunctionAddress(1, "F$1", 100, false)
	r.StoreForwardCall(1, "F$1", "foo", 120, "f.go", 1, 0)
	r.ShiftCodeAddresses(50, 16)

	footer, _ := r.Resolve(1, func(int, int64) {})
	if len(footer) != 1 || footer[0].Address != 116 {
		t.Fatalf("expected shifted function address 116, got %v", footer)
	}
}
