package cpuabi

import "testing"

func TestIsNumeric(t *testing.T) {
	for _, mt := range []MasterType{Char, Short, Int, Long, Float} {
		if !mt.IsNumeric() {
			t.Fatalf("expected %s to be numeric", mt)
		}
	}
	for _, mt := range []MasterType{Bool, String, Class, Enum, FixArray, DynArray} {
		if mt.IsNumeric() {
			t.Fatalf("expected %s to not be numeric", mt)
		}
	}
}

func TestWidthsForTracksWordSize(t *testing.T) {
	w32 := WidthsFor(Arch32)
	w64 := WidthsFor(Arch64)
	if w32.Adr != 4 || w32.Agx != 4 || w32.Mbl != 4 {
		t.Fatalf("expected 32-bit word-sized fields to be 4 bytes, got %+v", w32)
	}
	if w64.Adr != 8 || w64.Agx != 8 || w64.Mbl != 8 {
		t.Fatalf("expected 64-bit word-sized fields to be 8 bytes, got %+v", w64)
	}
	if w32.Int != 4 || w64.Int != 4 || w32.Lon != 8 || w64.Lon != 8 {
		t.Fatalf("expected Int/Long widths to be architecture-independent, got 32=%+v 64=%+v", w32, w64)
	}
}

func TestByteLenStringIsAWordSizedBlockHandle(t *testing.T) {
	if got := ByteLen(Arch64, String); got != 8 {
		t.Fatalf("expected a 64-bit string handle to be 8 bytes, got %d", got)
	}
	if got := ByteLen(Arch32, String); got != 4 {
		t.Fatalf("expected a 32-bit string handle to be 4 bytes, got %d", got)
	}
}

func TestSignatureAndMnemonicRoundTrip(t *testing.T) {
	sig, ok := Signature(OpAddInt)
	if !ok {
		t.Fatalf("expected OpAddInt to have a declared signature")
	}
	if sig.Mnemonic != "addi" {
		t.Fatalf("expected mnemonic addi, got %q", sig.Mnemonic)
	}
	op, ok := SearchMnemonic("addi")
	if !ok || op != OpAddInt {
		t.Fatalf("expected SearchMnemonic to resolve addi back to OpAddInt, got %v ok=%v", op, ok)
	}
}

func TestResolveMetaByDrivingType(t *testing.T) {
	op, err := ResolveMeta(MetaAdd, Float)
	if err != nil || op != OpAddFloat {
		t.Fatalf("expected MetaAdd/Float to resolve to OpAddFloat, got %v err=%v", op, err)
	}
	if _, err := ResolveMeta(MetaAdd, Bool); err == nil {
		t.Fatalf("expected MetaAdd/Bool to be an error (no concrete resolution)")
	}
}

func TestIsJumpAndIsCall(t *testing.T) {
	for _, op := range []Opcode{OpJump, OpJumpIfZero, OpJumpIfNotZero} {
		if !IsJump(op) {
			t.Fatalf("expected %s to be a jump", Mnemonic(op))
		}
	}
	if IsJump(OpCall) {
		t.Fatalf("expected OpCall to not be a jump")
	}
	if !IsCall(OpCall) || IsCall(OpJump) {
		t.Fatalf("expected IsCall to only accept OpCall")
	}
}
