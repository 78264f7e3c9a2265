// Package symtab implements MasterTable and ScopeStack: the multi-scope
// symbol table of modules, types, variables, fields, functions, parameters
// and grants, with the search and visibility semantics spec §3–4.3 define.
//
// Every entity is identified by its dense index into the owning slice; no
// entity holds a pointer to another (Design Notes §9) — cross-references
// are plain ints, resolved by indexing MasterTable's entity slices.
package symtab

import "vmforge/internal/cpuabi"

const none = -1

// ScopeKind is a lexical scope's kind.
type ScopeKind uint8

const (
	Public ScopeKind = iota
	Private
	Local
)

// SubScopeKind is the secondary within-class visibility inside a scope.
type SubScopeKind uint8

const (
	SubScopeNone SubScopeKind = iota
	PublicClassBody
	PrivateClassBody
)

// ScopeRef names the lexical scope an entity was declared in.
type ScopeRef struct {
	Kind      ScopeKind
	ModIndex  int // owning module, or none
	FuncIndex int // owning function, valid only when Kind == Local
	Depth     int
}

// SubScopeRef is the class-body visibility layered on top of a ScopeRef.
type SubScopeRef struct {
	Kind         SubScopeKind
	ClassTypIdx  int
}

// Module is a named compilation unit.
type Module struct {
	Name       string
	SourcePath string
	IsLibrary  bool
	DbgSymIdx  int
}

// Tracker is an import alias mapping a local name to a module, private to
// the public scope it was declared in.
type Tracker struct {
	Name      string
	ModIndex  int
	Scope     ScopeRef
}

// Type is a declared or implicitly-created type record (spec §3.1).
type Type struct {
	Name          string
	Master        cpuabi.MasterType
	Scope         ScopeRef
	SubScope      SubScopeRef
	TypedefOrigin int // original type index, or none
	SystemDefined bool
	ByteLen       int64
	DimNr         int
	ElemTypIdx    int // element type, for Fix/DynArray
	DimIdx        int // index into the Dimensions table
	FieldLow      int
	FieldHigh     int
	MemberLow     int
	MemberHigh    int
	MetaName      int // global address of the printable type-name literal
	MetaStNames   int // global address of the field-names literal array block
	MetaStTypes   int // global address of the field-types literal array block
	DlName        string
	DlAlias       string
}

// VarFlags is the bitmask of storage/usage flags a Variable carries.
type VarFlags uint16

const (
	FlagConst VarFlags = 1 << iota
	FlagComputed
	FlagStatic
	FlagParameter
	FlagReference
	FlagTemporary
	FlagLiteralConstant
	FlagSystemDefined
	FlagTempLocked
	FlagSourceUsed
	FlagInitialized
	FlagHidden
)

func (f VarFlags) Has(bit VarFlags) bool { return f&bit != 0 }

// Variable is a declared or synthesized variable (spec §3.1).
type Variable struct {
	Name       string
	Scope      ScopeRef
	CodeBlkID  int64 // block-scoped local tag, for if/for-body locals; 0 if n/a
	FlowLabel  string
	TypIdx     int
	Address    int64
	Flags      VarFlags
	MetaName   int // global address of the printable name literal
	Category   string // temp-pool category, empty for non-temps
}

// FieldVisibility is a class/enum field's sub-scope visibility.
type FieldVisibility uint8

const (
	FieldPublic FieldVisibility = iota
	FieldPrivate
)

// Field is a class or enum member.
type Field struct {
	Name       string
	SupTypIdx  int // owning class/enum type
	Visibility FieldVisibility
	TypIdx     int
	Offset     int64
	Static     bool
	EnumValue  int
}

// FuncKind is the variant a Function record carries.
type FuncKind uint8

const (
	KindFunction FuncKind = iota
	KindMasterMethod
	KindMemberMethod
	KindSystemCall
	KindSystemInstruction
	KindDynamicLibFn
	KindOperator
)

// Function is a declared function/method/syscall/operator (spec §3.1).
type Function struct {
	Kind          FuncKind
	Name          string
	FullName      string
	MangledID     string
	Scope         ScopeRef
	SubScope      SubScopeRef
	CodeAddr      int64
	RetTypIdx     int
	IsVoid        bool
	Nested        bool
	IsDefined     bool
	IsInitializer bool
	IsMetaMethod  bool
	ParmNr        int
	ParmLow       int
	ParmHigh      int

	SysCallNr  int
	InstCode   cpuabi.Opcode
	DlLibrary  string
	DlFunction string
	MstType    cpuabi.MasterType
	MstMethod  int
}

// Parameter is a function-owned formal argument.
type Parameter struct {
	Name      string
	FunIndex  int
	TypIdx    int
	Const     bool
	Reference bool
	Order     int
	Address   int64
}

// GrantEntityKind names what side of a grant record (from or to) an entity
// plays: classes, functions, member fields/methods, or operators.
type GrantEntityKind uint8

const (
	GrantClass GrantEntityKind = iota
	GrantFunction
	GrantMember
	GrantOperator
)

// Grant is an explicit visibility exception (spec §4.3 "Visibility and
// grants"). FromSelector/ToSelector name the specific class/function/member
// the grant applies to; empty means "any" for that side.
type Grant struct {
	FromKind     GrantEntityKind
	FromSelector string
	ToKind       GrantEntityKind
	ToSelector   string
	Scope        ScopeRef
	Validated    bool
}

// Dimension is a (dimension sizes, geometry index) record referenced by
// FixArray types (spec §3.1).
type Dimension struct {
	DimSizes []int
	GeomIdx  int
	TypIdx   int
	Scope    ScopeRef
}
