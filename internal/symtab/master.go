package symtab

// MasterTable owns every entity slice. Entities are referenced elsewhere by
// their dense index; nothing but MasterTable holds the entity value itself
// (Design Notes §9).
type MasterTable struct {
	Modules    []Module
	Trackers   []Tracker
	Types      []Type
	Variables  []Variable
	Fields     []Field
	Functions  []Function
	Parameters []Parameter
	Grants     []Grant
	Dimensions []Dimension
}

// NewMasterTable returns an empty table. Index 0 is not reserved here (spec
// reserves 0 for geometry indices and block handles, not for symbol-table
// entities), so the first stored entity of each kind gets index 0.
func NewMasterTable() *MasterTable {
	return &MasterTable{}
}

func (mt *MasterTable) StoreModule(m Module) int {
	mt.Modules = append(mt.Modules, m)
	return len(mt.Modules) - 1
}

func (mt *MasterTable) StoreTracker(t Tracker) int {
	mt.Trackers = append(mt.Trackers, t)
	return len(mt.Trackers) - 1
}

func (mt *MasterTable) StoreType(t Type) int {
	mt.Types = append(mt.Types, t)
	return len(mt.Types) - 1
}

func (mt *MasterTable) StoreVariable(v Variable) int {
	mt.Variables = append(mt.Variables, v)
	return len(mt.Variables) - 1
}

func (mt *MasterTable) StoreField(f Field) int {
	mt.Fields = append(mt.Fields, f)
	return len(mt.Fields) - 1
}

func (mt *MasterTable) StoreFunction(f Function) int {
	mt.Functions = append(mt.Functions, f)
	return len(mt.Functions) - 1
}

func (mt *MasterTable) StoreParameter(p Parameter) int {
	mt.Parameters = append(mt.Parameters, p)
	return len(mt.Parameters) - 1
}

func (mt *MasterTable) StoreGrant(g Grant) int {
	mt.Grants = append(mt.Grants, g)
	return len(mt.Grants) - 1
}

func (mt *MasterTable) StoreDimension(d Dimension) int {
	mt.Dimensions = append(mt.Dimensions, d)
	return len(mt.Dimensions) - 1
}

// snapshot captures every purgeable table's length, taken when a Private or
// Local scope opens (scope-cohesion guarantees every entity stored after
// this point, until the matching close, belongs to this frame or one nested
// inside it — spec §4.3 "Closing a scope").
type snapshot struct {
	grants, fields, dims, parms, funcs, vars, types, trackers int
}

func (mt *MasterTable) snapshot() snapshot {
	return snapshot{
		grants:   len(mt.Grants),
		fields:   len(mt.Fields),
		dims:     len(mt.Dimensions),
		parms:    len(mt.Parameters),
		funcs:    len(mt.Functions),
		vars:     len(mt.Variables),
		types:    len(mt.Types),
		trackers: len(mt.Trackers),
	}
}

// purge truncates every table back to s, in the strict reverse-insertion
// order spec §4.3 specifies: grants, fields, dimensions, parameters,
// functions, variables, types, trackers.
func (mt *MasterTable) purge(s snapshot) {
	mt.Grants = mt.Grants[:s.grants]
	mt.Fields = mt.Fields[:s.fields]
	mt.Dimensions = mt.Dimensions[:s.dims]
	mt.Parameters = mt.Parameters[:s.parms]
	mt.Functions = mt.Functions[:s.funcs]
	mt.Variables = mt.Variables[:s.vars]
	mt.Types = mt.Types[:s.types]
	mt.Trackers = mt.Trackers[:s.trackers]
}

// NoScopeHasDepth reports that no entity in any purgeable table still claims
// depth as its owning scope depth; used by tests asserting testable property
// #3 (scope purge completeness).
func (mt *MasterTable) NoScopeHasDepth(depth int) bool {
	for _, t := range mt.Types {
		if t.Scope.Kind != Public && t.Scope.Depth == depth {
			return false
		}
	}
	for _, v := range mt.Variables {
		if v.Scope.Kind != Public && v.Scope.Depth == depth {
			return false
		}
	}
	for _, f := range mt.Functions {
		if f.Scope.Kind != Public && f.Scope.Depth == depth {
			return false
		}
	}
	return true
}
