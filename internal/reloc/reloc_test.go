package reloc

import "testing"

func TestAddAndAll(t *testing.T) {
	rt := NewTable()
	rt.Add(FunctionAddress, 10, "mod", "foo")
	rt.Add(GlobalAddress, 20, "mod", "bar")
	if rt.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", rt.Len())
	}
	all := rt.All()
	if all[0].Kind != FunctionAddress || all[1].Kind != GlobalAddress {
		t.Fatalf("unexpected entry kinds: %+v", all)
	}
}

func TestAppendForeignIncrementsCopyCount(t *testing.T) {
	rt := NewTable()
	foreign := []Entry{{Kind: FunctionAddress, LocAddr: 5, ObjName: "f"}}
	rt.AppendForeign(foreign)
	rt.AppendForeign(rt.All())
	got := rt.All()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after two appends, got %d", len(got))
	}
	if got[0].CopyCount != 1 {
		t.Fatalf("expected first copy to have CopyCount 1, got %d", got[0].CopyCount)
	}
}

func TestShiftCodeAddressesShiftsEveryCodeSiteKind(t *testing.T) {
	rt := NewTable()
	rt.Add(FunctionAddress, 100, "mod", "f")
	rt.Add(GlobalAddress, 100, "mod", "g")
	rt.Add(FixArrayGeometry, 100, "mod", "h")
	rt.Add(DynLibCallID, 100, "mod", "i")
	rt.Add(BlockInGlobal, 100, "mod", "j")
	rt.ShiftCodeAddresses(50, 16)
	all := rt.All()
	for i, k := range []Kind{FunctionAddress, GlobalAddress, FixArrayGeometry, DynLibCallID} {
		if all[i].LocAddr != 116 {
			t.Fatalf("expected %s entry shifted to 116, got %d", k, all[i].LocAddr)
		}
	}
	if all[4].LocAddr != 100 {
		t.Fatalf("expected BlockInGlobal entry untouched by a code-buffer splice, got %d", all[4].LocAddr)
	}
}

func TestRelocateForImportAddsBasesByKind(t *testing.T) {
	entries := []Entry{
		{Kind: FunctionAddress, LocAddr: 1},
		{Kind: GlobalAddress, LocAddr: 2},
		{Kind: FixArrayGeometry, LocAddr: 3},
		{Kind: DynLibCallID, LocAddr: 4},
		{Kind: BlockInGlobal, LocAddr: 5},
		{Kind: BlockInBlock, LocBlock: 6, LocAddr: 7},
	}
	out := RelocateForImport(entries, 100, 200, 300, 400, 500)
	// FunctionAddress/GlobalAddress/FixArrayGeometry/DynLibCallID all carry a
	// code-buffer site, so all four shift by codeBase (100); only
	// BlockInGlobal's LocAddr lives in the global buffer.
	want := []int{101, 102, 103, 104, 205}
	for i, w := range want {
		if out[i].LocAddr != w {
			t.Fatalf("entry %d: got LocAddr %d want %d", i, out[i].LocAddr, w)
		}
	}
	if out[5].LocBlock != 406 {
		t.Fatalf("expected BlockInBlock LocBlock shifted by blockBase, got %d", out[5].LocBlock)
	}
}
