// Package geom implements GeometryTable: fixed and dynamic array shape
// records, each identified by a stable geometry index (spec §4.2). Index 0
// is reserved to mean "unresolved" in both sub-tables.
package geom

// FixGeom is a fixed-array shape: dimension count, per-dimension sizes, and
// the size of one cell, known entirely at compile time.
type FixGeom struct {
	Dims     []int
	CellSize int
}

// DynGeom is a dynamic-array shape attached to a literal array value; it
// additionally carries the cell size needed to decode block storage.
type DynGeom struct {
	Dims     []int
	CellSize int
}

// Table holds both sub-tables, split into global and local index spaces: a
// local scope's geometry counter resets on scope entry (spec §4.3) while the
// global counter only grows.
type Table struct {
	globalFix []FixGeom
	localFix  []FixGeom
	dyn       []DynGeom
}

// NewTable returns a Table with index 0 reserved in every sub-table.
func NewTable() *Table {
	return &Table{
		globalFix: make([]FixGeom, 1),
		localFix:  make([]FixGeom, 1),
		dyn:       make([]DynGeom, 1),
	}
}

// NewGlobalFixGeom hands out a new global fixed-geometry index.
func (t *Table) NewGlobalFixGeom(g FixGeom) int {
	idx := len(t.globalFix)
	t.globalFix = append(t.globalFix, g)
	return idx
}

// NewLocalFixGeom hands out a new local fixed-geometry index.
func (t *Table) NewLocalFixGeom(g FixGeom) int {
	idx := len(t.localFix)
	t.localFix = append(t.localFix, g)
	return idx
}

// NewDynGeom hands out a new dynamic-geometry index, used for literal array
// constants backed by a block.
func (t *Table) NewDynGeom(g DynGeom) int {
	idx := len(t.dyn)
	t.dyn = append(t.dyn, g)
	return idx
}

// ResetLocal drops every local fixed geometry back to the reserved slot,
// called when a local scope opens (spec §4.3: "Opening a Local scope resets
// ... the local geometry counter").
func (t *Table) ResetLocal() {
	t.localFix = t.localFix[:1]
}

func (t *Table) GlobalFixGeom(idx int) FixGeom { return t.globalFix[idx] }
func (t *Table) LocalFixGeom(idx int) FixGeom  { return t.localFix[idx] }
func (t *Table) DynGeom(idx int) DynGeom       { return t.dyn[idx] }

func (t *Table) GlobalFixCount() int { return len(t.globalFix) }
func (t *Table) LocalFixCount() int  { return len(t.localFix) }
func (t *Table) DynCount() int       { return len(t.dyn) }

// AllGlobalFix returns every global fixed geometry in index order, used when
// serializing the FARR section of the binary container.
func (t *Table) AllGlobalFix() []FixGeom { return t.globalFix }

// AllDyn returns every dynamic geometry in index order (DARR section).
func (t *Table) AllDyn() []DynGeom { return t.dyn }

// ShiftDynIndex returns idx plus delta when idx is greater than or equal to
// base, and idx unchanged otherwise; used by the library linker when appending an imported
// geometry table onto the current one (spec §4.8 step 5 analog — geometry
// indices themselves are appended, but referencing tables must be shifted
// by the importer's existing geometry count before the append).
func ShiftDynIndex(idx, base, delta int) int {
	if idx >= base {
		return idx + delta
	}
	return idx
}
