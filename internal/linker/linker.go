// Package linker implements LibraryLinker: hard/soft library import (spec
// §4.8), the super-init routine builder (spec §4.9), and MergeInit, the
// orchestrator that fans an init-buffer splice out across every table that
// stores a code address (spec §4.7). It plays the role the teacher's
// cmd/link/internal/ld plays for the toolchain: the one package that
// mutates every other table in lockstep when binaries are combined.
package linker

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"vmforge/internal/binfmt"
	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/geom"
	"vmforge/internal/reloc"
)

// SuperInitEntry is one registered per-module or per-library initializer
// the super-init routine must call (spec §4.9).
type SuperInitEntry struct {
	Name string
	Addr int64
}

// LibraryLinker owns the importer-side state ImportLibrary mutates: the
// buffer store, geometry table, relocation table, and the dl-call and
// super-init bookkeeping that don't live in internal/buffer itself.
type LibraryLinker struct {
	Buf   *buffer.Store
	Geom  *geom.Table
	Reloc *reloc.Table
	Arch  cpuabi.Arch

	DlCalls    []binfmt.DlCallRecord
	SuperInits []SuperInitEntry

	dbgModuleCount int
	dbgTypeCount   int
	dbgFuncCount   int
}

func New(buf *buffer.Store, gt *geom.Table, rt *reloc.Table, arch cpuabi.Arch) *LibraryLinker {
	return &LibraryLinker{Buf: buf, Geom: gt, Reloc: rt, Arch: arch}
}

// RegisterModuleInit records a compiled module's own initializer as a
// super-init call target (spec §4.9: "each compiled module registers one").
func (l *LibraryLinker) RegisterModuleInit(name string, addr int64) {
	l.SuperInits = append(l.SuperInits, SuperInitEntry{Name: name, Addr: addr})
}

// ImportResult is what ImportLibrary hands back to the caller.
type ImportResult struct {
	SuperInitAddr int64
	Dependencies  []binfmt.Dependency
}

func libVersionString(v [3]int) string {
	return fmt.Sprintf("v%d.%d.%d", v[0], v[1], v[2])
}

// ImportLibrary reads the binary at path and links it in, hard or soft
// (spec §4.8).
func (l *LibraryLinker) ImportLibrary(path string, hardLink bool, versionRequirement string) (ImportResult, error) {
	c, err := binfmt.ReadContainer(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("linker: reading %s: %w", path, err)
	}
	if !c.Header.IsLibrary {
		return ImportResult{}, fmt.Errorf("linker: %s is not a library binary", path)
	}
	if c.Header.Arch.Bits != l.Arch.Bits {
		return ImportResult{}, fmt.Errorf("linker: %s targets %d-bit, importer is %d-bit", path, c.Header.Arch.Bits, l.Arch.Bits)
	}
	if versionRequirement != "" {
		have := libVersionString(c.Header.LibVersion)
		if !semver.IsValid(have) || !semver.IsValid(versionRequirement) {
			return ImportResult{}, fmt.Errorf("linker: %s: malformed version (have %s, want >= %s)", path, have, versionRequirement)
		}
		if semver.Compare(have, versionRequirement) < 0 {
			return ImportResult{}, fmt.Errorf("linker: %s: version %s does not satisfy >= %s", path, have, versionRequirement)
		}
	}

	if hardLink {
		addr := l.hardLink(c)
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		l.SuperInits = append(l.SuperInits, SuperInitEntry{Name: name, Addr: addr})
		return ImportResult{SuperInitAddr: addr, Dependencies: c.Deps}, nil
	}

	l.softLink(c)
	return ImportResult{Dependencies: c.Deps}, nil
}
