package linker

import (
	"encoding/binary"

	"vmforge/internal/binfmt"
	"vmforge/internal/reloc"
)

func getAddr(buf []byte, addr, width int) int64 {
	switch width {
	case 4:
		return int64(binary.LittleEndian.Uint32(buf[addr : addr+4]))
	case 8:
		return int64(binary.LittleEndian.Uint64(buf[addr : addr+8]))
	}
	return 0
}

func putAddr(buf []byte, addr, width int, v int64) {
	switch width {
	case 4:
		binary.LittleEndian.PutUint32(buf[addr:addr+4], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[addr:addr+8], uint64(v))
	}
}

// applyOwnRelocations patches every value the library's own relocation
// table points at, adding the importer's current base for that value's
// kind (spec §4.8 step 1, first sentence: "every code address gets +=
// current_code_length" etc, applied against the library's own buffers
// before they are appended).
func applyOwnRelocations(c *binfmt.Container, codeBase, globBase, geomBase, blockBase, dlBase int) {
	w := wordWidth(c)
	for _, e := range c.Relocs {
		switch e.Kind {
		case reloc.FunctionAddress:
			v := getAddr(c.Code, e.LocAddr, w)
			putAddr(c.Code, e.LocAddr, w, v+int64(codeBase))
		case reloc.GlobalAddress:
			v := getAddr(c.Code, e.LocAddr, w)
			putAddr(c.Code, e.LocAddr, w, v+int64(globBase))
		case reloc.FixArrayGeometry:
			v := getAddr(c.Code, e.LocAddr, w)
			putAddr(c.Code, e.LocAddr, w, v+int64(geomBase))
		case reloc.DynLibCallID:
			v := getAddr(c.Code, e.LocAddr, w)
			putAddr(c.Code, e.LocAddr, w, v+int64(dlBase))
		case reloc.BlockInGlobal:
			v := getAddr(c.Glob, e.LocAddr, w)
			putAddr(c.Glob, e.LocAddr, w, v+int64(blockBase))
		case reloc.BlockInBlock:
			blk := &c.Blk[e.LocBlock]
			v := getAddr(blk.Data, e.LocAddr, w)
			putAddr(blk.Data, e.LocAddr, w, v+int64(blockBase))
		}
	}
}

func wordWidth(c *binfmt.Container) int {
	if c.Header.Arch.Bits == 64 {
		return 8
	}
	return 4
}

// hardLink performs the full relocate-and-append import (spec §4.8,
// "Hard link"). It returns the library's relocated super-init address.
func (l *LibraryLinker) hardLink(c *binfmt.Container) int64 {
	codeBase := l.Buf.CodeLen()
	globBase := l.Buf.GlobLen()
	geomBase := l.Geom.GlobalFixCount()
	dynBase := l.Geom.DynCount()
	blockBase := l.Buf.BlockCount()
	dlBase := len(l.DlCalls)
	modBase := l.dbgModuleCount
	typBase := l.dbgTypeCount
	funcBase := l.dbgFuncCount

	// step 1: relocate the library's own stored values, then rewrite its
	// relocation table so it stays valid for a later re-import.
	applyOwnRelocations(c, codeBase, globBase, geomBase, blockBase, dlBase)
	relocated := reloc.RelocateForImport(c.Relocs, codeBase, globBase, geomBase, blockBase, dlBase)

	// step 2: relocate linker-symbol and debug-symbol addresses.
	for i := range c.Vars {
		c.Vars[i].Address += int64(globBase)
	}
	for i := range c.Funcs {
		c.Funcs[i].CodeAddr += int64(codeBase)
	}
	for i := range c.Dims {
		c.Dims[i].GeomIdx += geomBase
	}
	for i := range c.Urefs {
		c.Urefs[i].CodeAddr += codeBase
	}
	for i := range c.DbgVars {
		c.DbgVars[i].Address += int64(globBase)
	}
	for i := range c.DbgFuncs {
		c.DbgFuncs[i].BeginAddr += int64(codeBase)
		c.DbgFuncs[i].EndAddr += int64(codeBase)
	}
	for i := range c.DbgLines {
		c.DbgLines[i].BeginAddr += int64(codeBase)
		c.DbgLines[i].EndAddr += int64(codeBase)
	}

	// step 3: shift dynamic-array indices inside imported global blocks.
	for i := range c.Blk {
		if c.Blk[i].HasDynGeom {
			c.Blk[i].DynGeom += dynBase
		}
	}

	// step 4: shift cross-table indices inside imported debug symbols.
	for i := range c.DbgTypes {
		c.DbgTypes[i].ModIdx += modBase
	}
	for i := range c.DbgVars {
		c.DbgVars[i].ModIdx += modBase
	}
	for i := range c.DbgFuncs {
		c.DbgFuncs[i].ModIdx += modBase
	}
	for i := range c.DbgFields {
		c.DbgFields[i].TypIdx += typBase
	}
	for i := range c.DbgParams {
		c.DbgParams[i].FunIdx += funcBase
	}
	for i := range c.DbgLines {
		c.DbgLines[i].FunIdx += funcBase
	}

	// step 5: append library buffers.
	l.Buf.AppendGlob(c.Glob)
	l.Buf.AppendCode(c.Code)
	for _, g := range c.Farr {
		l.Geom.NewGlobalFixGeom(g)
	}
	for _, g := range c.Darr {
		l.Geom.NewDynGeom(g)
	}
	for _, blk := range c.Blk {
		if blk.HasDynGeom {
			l.Buf.AppendDynBlock(blk.Data, blk.DynGeom)
		} else {
			l.Buf.AppendBlock(blk.Data)
		}
	}
	l.DlCalls = append(l.DlCalls, c.Dlca...)
	l.dbgModuleCount += len(c.DbgModules)
	l.dbgTypeCount += len(c.DbgTypes)
	l.dbgFuncCount += len(c.DbgFuncs)

	// step 6: copy the library's relocation table forward.
	l.Reloc.AppendForeign(relocated)

	// step 7: hand back the relocated super-init address.
	return c.Header.SuperInitAddr + int64(codeBase)
}

// softLink performs the declaration-only import (spec §4.8, "Soft link"):
// every address and geometry index in the imported symbol tables and
// undefined-reference list is zeroed, and no code/data/blocks are appended.
func (l *LibraryLinker) softLink(c *binfmt.Container) {
	for i := range c.Vars {
		c.Vars[i].Address = 0
	}
	for i := range c.Funcs {
		c.Funcs[i].CodeAddr = 0
	}
	for i := range c.Dims {
		c.Dims[i].GeomIdx = 0
	}
	for i := range c.Urefs {
		c.Urefs[i].CodeAddr = 0
	}
}
