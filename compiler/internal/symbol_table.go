package internal

// Kind is the storage category of a declared name.
type Kind int

const (
	StaticKind Kind = iota
	FieldKind
	ArgKind
	VarKind
)

func (kind Kind) String() string {
	switch kind {
	case StaticKind:
		return "static"
	case FieldKind:
		return "field"
	case ArgKind:
		return "argument"
	case VarKind:
		return "local"
	}
	return "unknown"
}

func (kind Kind) isClassScope() bool {
	return kind == StaticKind || kind == FieldKind
}

// NoType is returned by TypeOf for a name declared in neither scope.
const NoType = ""

type SymbolDesc struct {
	name         string
	variableType string // A primitive type name or a class name.
	kind         Kind
	index        int
}

func (desc *SymbolDesc) Name() string {
	return desc.name
}

func (desc *SymbolDesc) Type() string {
	return desc.variableType
}

func (desc *SymbolDesc) Kind() Kind {
	return desc.kind
}

func (desc *SymbolDesc) Index() int {
	return desc.index
}

type InsertResult int

const (
	Inserted InsertResult = iota
	AlreadyExists
)

type scopeTable map[string]*SymbolDesc

// insertIfAbsent adds desc unless its name is already declared in this table.
func (table scopeTable) insertIfAbsent(desc *SymbolDesc) InsertResult {
	if _, ok := table[desc.name]; ok {
		return AlreadyExists
	}
	table[desc.name] = desc
	return Inserted
}

func (table scopeTable) count(kind Kind) int {
	ret := 0
	for _, desc := range table {
		if desc.kind == kind {
			ret++
		}
	}
	return ret
}

// SymbolTable holds the class scope (static, field) for the whole class and the
// subroutine scope (argument, local) of the subroutine being compiled.
type SymbolTable struct {
	classTable      scopeTable
	subroutineTable scopeTable
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		classTable:      scopeTable{},
		subroutineTable: scopeTable{},
	}
}

// StartSubroutine discards the subroutine scope.
func (symbolTable *SymbolTable) StartSubroutine() {
	symbolTable.subroutineTable = scopeTable{}
}

func (symbolTable *SymbolTable) tableOf(kind Kind) scopeTable {
	if kind.isClassScope() {
		return symbolTable.classTable
	}
	return symbolTable.subroutineTable
}

// Define declares name with the next free slot of kind. Redeclaring a name in the
// same scope is an ErrName failure.
func (symbolTable *SymbolTable) Define(name, variableType string, kind Kind) error {
	desc := &SymbolDesc{
		name:         name,
		variableType: variableType,
		kind:         kind,
		index:        symbolTable.VarCount(kind),
	}
	if symbolTable.tableOf(kind).insertIfAbsent(desc) == AlreadyExists {
		return makeCompileError(ErrName, nil, -1, "duplicate %s variable name: %s", kind, name)
	}
	return nil
}

func (symbolTable *SymbolTable) VarCount(kind Kind) int {
	return symbolTable.tableOf(kind).count(kind)
}

// lookUp checks the subroutine scope first, then the class scope.
func (symbolTable *SymbolTable) lookUp(name string) (*SymbolDesc, bool) {
	if desc, ok := symbolTable.subroutineTable[name]; ok {
		return desc, true
	}
	desc, ok := symbolTable.classTable[name]
	return desc, ok
}

func (symbolTable *SymbolTable) KindOf(name string) (Kind, error) {
	desc, ok := symbolTable.lookUp(name)
	if !ok {
		return 0, makeCompileError(ErrName, nil, -1, "var %s not found", name)
	}
	return desc.kind, nil
}

// TypeOf returns NoType for an undeclared name.
func (symbolTable *SymbolTable) TypeOf(name string) string {
	desc, ok := symbolTable.lookUp(name)
	if !ok {
		return NoType
	}
	return desc.variableType
}

// IndexOf returns -1 for an undeclared name.
func (symbolTable *SymbolTable) IndexOf(name string) int {
	desc, ok := symbolTable.lookUp(name)
	if !ok {
		return -1
	}
	return desc.index
}
