package binfmt

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/geom"
	"vmforge/internal/reloc"
)

type binReader struct {
	buf []byte
	pos int
	err error
}

func (br *binReader) fail(format string, args ...interface{}) {
	if br.err == nil {
		br.err = fmt.Errorf("binfmt: %s (stream position %d)", fmt.Sprintf(format, args...), br.pos)
	}
}

func (br *binReader) raw(n int) []byte {
	if br.err != nil {
		return nil
	}
	if br.pos+n > len(br.buf) {
		br.fail("unexpected end of container reading %d bytes", n)
		return make([]byte, n)
	}
	b := br.buf[br.pos : br.pos+n]
	br.pos += n
	return b
}

func (br *binReader) u16() uint16 { return binary.LittleEndian.Uint16(br.raw(2)) }
func (br *binReader) u32() uint32 { return binary.LittleEndian.Uint32(br.raw(4)) }
func (br *binReader) i64() int64  { return int64(binary.LittleEndian.Uint64(br.raw(8))) }
func (br *binReader) boolean() bool {
	return br.raw(1)[0] != 0
}
func (br *binReader) str() string {
	n := int(br.u32())
	return string(br.raw(n))
}
func (br *binReader) ints() []int {
	n := int(br.u32())
	out := make([]int, n)
	for i := range out {
		out[i] = int(br.i64())
	}
	return out
}

// ReadContainer memory-maps path read-only and parses its full contents
// (spec §4.10), mirroring saferwall-pe's mmap-backed binary-file reads.
func ReadContainer(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	data := make([]byte, len(m))
	copy(data, m)
	return parseContainer(data)
}

func parseContainer(data []byte) (*Container, error) {
	br := &binReader{buf: data}
	c := &Container{}

	mark := string(br.raw(4))
	switch mark {
	case fileMarkExecutable:
		c.Header.IsLibrary = false
	case fileMarkLibrary:
		c.Header.IsLibrary = true
	default:
		return nil, fmt.Errorf("binfmt: unrecognized file-mark %q", mark)
	}
	c.Header.FormatVersion = br.u16()
	c.Header.Arch = cpuabi.Arch{Bits: int(br.u16())}
	c.Header.SystemVersion = br.str()
	c.Header.BuildDate = br.str()
	c.Header.BuildTime = br.str()
	c.Header.IsLibrary = br.boolean()
	c.Header.HasDebugSymbols = br.boolean()

	var counts [22]int
	for i := range counts {
		counts[i] = int(br.u32())
	}

	if !c.Header.IsLibrary {
		c.Header.MemMgr.MemUnitSize = br.i64()
		c.Header.MemMgr.StartingMemUnits = br.i64()
		c.Header.MemMgr.ChunkMemUnits = br.i64()
		c.Header.MemMgr.BlockMax = br.i64()
	}
	for i := range c.Header.LibVersion {
		c.Header.LibVersion[i] = int(br.u32())
	}
	c.Header.SuperInitAddr = br.i64()

	c.Glob = append([]byte(nil), br.raw(counts[0])...)
	c.Code = append([]byte(nil), br.raw(counts[1])...)

	c.Farr = make([]geom.FixGeom, counts[2])
	for i := range c.Farr {
		c.Farr[i] = geom.FixGeom{Dims: br.ints(), CellSize: int(br.u32())}
	}
	c.Darr = make([]geom.DynGeom, counts[3])
	for i := range c.Darr {
		c.Darr[i] = geom.DynGeom{Dims: br.ints(), CellSize: int(br.u32())}
	}
	c.Blk = make([]buffer.Block, counts[4])
	for i := range c.Blk {
		has := br.boolean()
		dyn := int(br.u32())
		payload := br.str()
		c.Blk[i] = buffer.Block{HasDynGeom: has, DynGeom: dyn, Data: []byte(payload)}
	}
	c.Dlca = make([]DlCallRecord, counts[5])
	for i := range c.Dlca {
		c.Dlca[i] = DlCallRecord{LibraryName: br.str(), FunctionName: br.str()}
	}

	if c.Header.IsLibrary {
		c.Deps = make([]Dependency, counts[6])
		for i := range c.Deps {
			d := Dependency{Module: br.str()}
			for j := range d.LibVersion {
				d.LibVersion[j] = int(br.u32())
			}
			c.Deps[i] = d
		}
		c.Urefs = make([]UndefinedRef, counts[7])
		for i := range c.Urefs {
			c.Urefs[i] = UndefinedRef{Module: br.str(), Kind: reloc.Kind(br.u32()), CodeAddr: int(br.u32()), Name: br.str()}
		}
		c.Relocs = make([]reloc.Entry, counts[8])
		for i := range c.Relocs {
			c.Relocs[i] = reloc.Entry{
				Kind:      reloc.Kind(br.u32()),
				LocBlock:  int(br.u32()),
				LocAddr:   int(br.u32()),
				Module:    br.str(),
				ObjName:   br.str(),
				CopyCount: int(br.u32()),
			}
		}

		c.Dims = make([]SymDim, counts[9])
		for i := range c.Dims {
			c.Dims[i] = SymDim{DimSizes: br.ints(), GeomIdx: int(br.u32()), TypIdx: int(br.u32())}
		}
		c.Types = make([]SymType, counts[10])
		for i := range c.Types {
			c.Types[i] = SymType{Name: br.str(), Master: cpuabi.MasterType(br.raw(1)[0]), ByteLen: br.i64(), ElemTypIdx: int(br.u32()), DimIdx: int(br.u32())}
		}
		c.Vars = make([]SymVar, counts[11])
		for i := range c.Vars {
			c.Vars[i] = SymVar{Name: br.str(), TypIdx: int(br.u32()), Address: br.i64(), Global: br.boolean()}
		}
		c.Fields = make([]SymField, counts[12])
		for i := range c.Fields {
			c.Fields[i] = SymField{Name: br.str(), SupTypIdx: int(br.u32()), TypIdx: int(br.u32()), Offset: br.i64()}
		}
		c.Funcs = make([]SymFunc, counts[13])
		for i := range c.Funcs {
			c.Funcs[i] = SymFunc{Name: br.str(), MangledID: br.str(), CodeAddr: br.i64(), RetTypIdx: int(br.u32()), ParmLow: int(br.u32()), ParmHigh: int(br.u32())}
		}
		c.Params = make([]SymParam, counts[14])
		for i := range c.Params {
			c.Params[i] = SymParam{Name: br.str(), TypIdx: int(br.u32()), Order: int(br.u32()), FunIdx: int(br.u32())}
		}
	}

	if c.Header.HasDebugSymbols {
		c.DbgModules = make([]DbgModule, counts[15])
		for i := range c.DbgModules {
			c.DbgModules[i] = DbgModule{Name: br.str(), SourcePath: br.str()}
		}
		c.DbgTypes = make([]DbgType, counts[16])
		for i := range c.DbgTypes {
			c.DbgTypes[i] = DbgType{ModIdx: int(br.u32()), Name: br.str()}
		}
		c.DbgVars = make([]DbgVar, counts[17])
		for i := range c.DbgVars {
			c.DbgVars[i] = DbgVar{ModIdx: int(br.u32()), Name: br.str(), Address: br.i64()}
		}
		c.DbgFields = make([]DbgField, counts[18])
		for i := range c.DbgFields {
			c.DbgFields[i] = DbgField{TypIdx: int(br.u32()), Name: br.str()}
		}
		c.DbgFuncs = make([]DbgFunc, counts[19])
		for i := range c.DbgFuncs {
			c.DbgFuncs[i] = DbgFunc{ModIdx: int(br.u32()), Name: br.str(), BeginAddr: br.i64(), EndAddr: br.i64()}
		}
		c.DbgParams = make([]DbgParam, counts[20])
		for i := range c.DbgParams {
			c.DbgParams[i] = DbgParam{FunIdx: int(br.u32()), Name: br.str()}
		}
		c.DbgLines = make([]DbgLine, counts[21])
		for i := range c.DbgLines {
			c.DbgLines[i] = DbgLine{FunIdx: int(br.u32()), SourceLine: int(br.u32()), BeginAddr: br.i64(), EndAddr: br.i64()}
		}
	}

	if br.err != nil {
		return nil, br.err
	}
	return c, nil
}
