package binfmt

import (
	"encoding/binary"
	"io"

	"vmforge/internal/geom"
)

type binWriter struct {
	w        io.Writer
	pos      int64
	fileMark string
	section  string
	index    int
	err      error
}

func (bw *binWriter) fail(err error) {
	if bw.err == nil {
		bw.err = &writeErr{fileMark: bw.fileMark, section: bw.section, index: bw.index, pos: bw.pos, err: err}
	}
}

func (bw *binWriter) raw(b []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(b)
	bw.pos += int64(n)
	if err != nil {
		bw.fail(err)
	}
}

func (bw *binWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	bw.raw(b[:])
}

func (bw *binWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	bw.raw(b[:])
}

func (bw *binWriter) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	bw.raw(b[:])
}

func (bw *binWriter) boolean(v bool) {
	if v {
		bw.raw([]byte{1})
	} else {
		bw.raw([]byte{0})
	}
}

func (bw *binWriter) str(s string) {
	bw.u32(uint32(len(s)))
	bw.raw([]byte(s))
}

func (bw *binWriter) ints(v []int) {
	bw.u32(uint32(len(v)))
	for _, n := range v {
		bw.i64(int64(n))
	}
}

// WriteTo serializes c in the strict section order spec §6.1 fixes. Every
// write failure is reported with the file-mark tag, the section name, the
// offending record index, and the stream position (spec §4.10).
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	bw := &binWriter{w: w, fileMark: c.Header.fileMark(), section: "HEAD", index: -1}

	bw.raw([]byte(c.Header.fileMark()))
	bw.u16(formatVersion)
	bw.u16(uint16(c.Header.Arch.Bits))
	bw.str(c.Header.SystemVersion)
	bw.str(c.Header.BuildDate)
	bw.str(c.Header.BuildTime)
	bw.boolean(c.Header.IsLibrary)
	bw.boolean(c.Header.HasDebugSymbols)

	counts := []int{
		len(c.Glob), len(c.Code), len(c.Farr), len(c.Darr), len(c.Blk), len(c.Dlca),
		len(c.Deps), len(c.Urefs), len(c.Relocs),
		len(c.Dims), len(c.Types), len(c.Vars), len(c.Fields), len(c.Funcs), len(c.Params),
		len(c.DbgModules), len(c.DbgTypes), len(c.DbgVars), len(c.DbgFields), len(c.DbgFuncs), len(c.DbgParams), len(c.DbgLines),
	}
	for _, n := range counts {
		bw.u32(uint32(n))
	}

	if !c.Header.IsLibrary {
		bw.section = "MEMMGR"
		bw.i64(c.Header.MemMgr.MemUnitSize)
		bw.i64(c.Header.MemMgr.StartingMemUnits)
		bw.i64(c.Header.MemMgr.ChunkMemUnits)
		bw.i64(c.Header.MemMgr.BlockMax)
	}
	for _, v := range c.Header.LibVersion {
		bw.u32(uint32(v))
	}
	bw.i64(c.Header.SuperInitAddr)

	bw.section = "GLOB"
	bw.raw(c.Glob)
	bw.section = "CODE"
	bw.raw(c.Code)

	bw.section = "FARR"
	for i, g := range c.Farr {
		bw.index = i
		writeFixGeom(bw, g)
	}
	bw.section = "DARR"
	for i, g := range c.Darr {
		bw.index = i
		bw.ints(g.Dims)
		bw.u32(uint32(g.CellSize))
	}
	bw.section = "BLCK"
	for i, blk := range c.Blk {
		bw.index = i
		bw.boolean(blk.HasDynGeom)
		bw.u32(uint32(blk.DynGeom))
		bw.str(string(blk.Data))
	}
	bw.section = "DLCA"
	for i, d := range c.Dlca {
		bw.index = i
		bw.str(d.LibraryName)
		bw.str(d.FunctionName)
	}

	if c.Header.IsLibrary {
		bw.section = "DEPN"
		for i, d := range c.Deps {
			bw.index = i
			bw.str(d.Module)
			for _, v := range d.LibVersion {
				bw.u32(uint32(v))
			}
		}
		bw.section = "UREF"
		for i, u := range c.Urefs {
			bw.index = i
			bw.str(u.Module)
			bw.u32(uint32(u.Kind))
			bw.u32(uint32(u.CodeAddr))
			bw.str(u.Name)
		}
		bw.section = "RELO"
		for i, r := range c.Relocs {
			bw.index = i
			bw.u32(uint32(r.Kind))
			bw.u32(uint32(r.LocBlock))
			bw.u32(uint32(r.LocAddr))
			bw.str(r.Module)
			bw.str(r.ObjName)
			bw.u32(uint32(r.CopyCount))
		}

		bw.section = "SDIM"
		for i, d := range c.Dims {
			bw.index = i
			bw.ints(d.DimSizes)
			bw.u32(uint32(d.GeomIdx))
			bw.u32(uint32(d.TypIdx))
		}
		bw.section = "STYP"
		for i, t := range c.Types {
			bw.index = i
			bw.str(t.Name)
			bw.raw([]byte{byte(t.Master)})
			bw.i64(t.ByteLen)
			bw.u32(uint32(t.ElemTypIdx))
			bw.u32(uint32(t.DimIdx))
		}
		bw.section = "SVAR"
		for i, v := range c.Vars {
			bw.index = i
			bw.str(v.Name)
			bw.u32(uint32(v.TypIdx))
			bw.i64(v.Address)
			bw.boolean(v.Global)
		}
		bw.section = "SFLD"
		for i, f := range c.Fields {
			bw.index = i
			bw.str(f.Name)
			bw.u32(uint32(f.SupTypIdx))
			bw.u32(uint32(f.TypIdx))
			bw.i64(f.Offset)
		}
		bw.section = "SFUN"
		for i, f := range c.Funcs {
			bw.index = i
			bw.str(f.Name)
			bw.str(f.MangledID)
			bw.i64(f.CodeAddr)
			bw.u32(uint32(f.RetTypIdx))
			bw.u32(uint32(f.ParmLow))
			bw.u32(uint32(f.ParmHigh))
		}
		bw.section = "SPAR"
		for i, p := range c.Params {
			bw.index = i
			bw.str(p.Name)
			bw.u32(uint32(p.TypIdx))
			bw.u32(uint32(p.Order))
			bw.u32(uint32(p.FunIdx))
		}
	}

	if c.Header.HasDebugSymbols {
		bw.section = "DMOD"
		for i, m := range c.DbgModules {
			bw.index = i
			bw.str(m.Name)
			bw.str(m.SourcePath)
		}
		bw.section = "DTYP"
		for i, t := range c.DbgTypes {
			bw.index = i
			bw.u32(uint32(t.ModIdx))
			bw.str(t.Name)
		}
		bw.section = "DVAR"
		for i, v := range c.DbgVars {
			bw.index = i
			bw.u32(uint32(v.ModIdx))
			bw.str(v.Name)
			bw.i64(v.Address)
		}
		bw.section = "DFLD"
		for i, f := range c.DbgFields {
			bw.index = i
			bw.u32(uint32(f.TypIdx))
			bw.str(f.Name)
		}
		bw.section = "DFUN"
		for i, f := range c.DbgFuncs {
			bw.index = i
			bw.u32(uint32(f.ModIdx))
			bw.str(f.Name)
			bw.i64(f.BeginAddr)
			bw.i64(f.EndAddr)
		}
		bw.section = "DPAR"
		for i, p := range c.DbgParams {
			bw.index = i
			bw.u32(uint32(p.FunIdx))
			bw.str(p.Name)
		}
		bw.section = "DLIN"
		for i, l := range c.DbgLines {
			bw.index = i
			bw.u32(uint32(l.FunIdx))
			bw.u32(uint32(l.SourceLine))
			bw.i64(l.BeginAddr)
			bw.i64(l.EndAddr)
		}
	}

	return bw.pos, bw.err
}

func writeFixGeom(bw *binWriter, g geom.FixGeom) {
	bw.ints(g.Dims)
	bw.u32(uint32(g.CellSize))
}
