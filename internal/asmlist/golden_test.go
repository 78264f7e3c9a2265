package asmlist

import (
	"testing"

	"golang.org/x/tools/txtar"
)

// goldenArchive holds the expected rendering for a small fixed listing as a
// txtar file so the golden text lives next to the test that checks it
// instead of a second file on disk.
const goldenArchive = `-- listing --
; ---- BODY ----
00000000  ld l[0], 42
; ---- FOOT ----
00000000  mod.g -> 00000064
`

func goldenFile(t *testing.T, name string) string {
	t.Helper()
	ar := txtar.Parse([]byte(goldenArchive))
	for _, f := range ar.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	t.Fatalf("golden archive has no file named %q", name)
	return ""
}

func TestFlushMatchesGoldenListing(t *testing.T) {
	l := NewListing()
	l.AppendInstruction(Body, 0, nil, "ld", []string{"l[0]", "42"}, "")
	l.AppendDirective(Foot, "mod.g -> 00000064")

	want := goldenFile(t, "listing")
	if got := l.Flush(); got != want {
		t.Fatalf("listing mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
