// Package cdecl is the declaration tree produced by the front-end and consumed
// by the extractor. It is a small, clang-shaped model: declarations live in
// contexts, carry a process-local ID and one kind-specific body.
package cdecl

import "fmt"

// DeclID identifies a declaration within one process. IDs are not stable
// across runs or translation units.
type DeclID int64

func (id DeclID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// Kind is the tag of a declaration's body.
type Kind int

const (
	KindOther Kind = iota
	KindTypedef
	KindRecord
	KindEnum
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindTypedef:
		return "Typedef"
	case KindRecord:
		return "Record"
	case KindEnum:
		return "Enum"
	case KindFunction:
		return "Function"
	default:
		return "Other"
	}
}

// TagKind distinguishes the keyword a record was declared with.
type TagKind int

const (
	TagStruct TagKind = iota
	TagUnion
	TagClass
)

// Keyword returns the C/C++ keyword for the tag kind.
func (t TagKind) Keyword() string {
	switch t {
	case TagUnion:
		return "union"
	case TagClass:
		return "class"
	default:
		return "struct"
	}
}

// Location is where a declaration was written.
type Location struct {
	// File is the file name as the front-end spelled it (may be relative).
	File string
	// RealPath is the absolute path of the file backing the location.
	RealPath string
	// HasEntry is false for locations with no backing file (builtins).
	HasEntry bool
	Line     int
	Column   int
}

// Valid reports whether the location points into a file.
func (l Location) Valid() bool {
	return l.File != "" || l.HasEntry
}

func (l Location) String() string {
	if !l.Valid() {
		return "<invalid loc>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Decl is a named declaration.
type Decl struct {
	ID      DeclID
	Name    string
	Loc     Location
	Context *Context

	// Inner is the context a namespace, linkage specification or record opens.
	Inner *Context

	Templated bool
	Implicit  bool
	Invalid   bool
	// Method is set for member functions, including out-of-line definitions.
	Method bool
	// TypedefName names an unnamed tag declared in a typedef, for spelling.
	TypedefName string

	Body Body
}

// Kind returns the kind tag of the declaration's body.
func (d *Decl) Kind() Kind {
	if d.Body == nil {
		return KindOther
	}
	return d.Body.Kind()
}

func (d *Decl) String() string {
	name := d.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s %s #%d", d.Kind(), name, d.ID)
}

// Body holds the kind-specific part of a declaration.
type Body interface {
	Kind() Kind
}

// TypedefBody is a typedef-name declaration.
type TypedefBody struct {
	Underlying QualType
}

func (*TypedefBody) Kind() Kind { return KindTypedef }

// RecordBody is a struct, union or class.
type RecordBody struct {
	Tag TagKind
	// Complete is true for the declaration that carries the definition.
	Complete bool
	// AnonymousMember is true for an unnamed struct/union used as a member.
	AnonymousMember bool
	Symbol          *TagSymbol
	Fields          []*Field

	SizeBits  int64
	AlignBits int64
}

func (*RecordBody) Kind() Kind { return KindRecord }

// Field is a data member with its computed layout.
type Field struct {
	Name string
	Type QualType
	// BitWidth is -1 for ordinary members.
	BitWidth   int64
	OffsetBits int64
	// SizeBits is the size of the declared type, also for bit-fields.
	SizeBits int64
}

// IsBitField reports whether the field was declared with a width.
func (f *Field) IsBitField() bool {
	return f.BitWidth >= 0
}

// EnumBody is an enumeration.
type EnumBody struct {
	IntegerType QualType
	Scoped      bool
	Fixed       bool
	Complete    bool
	Symbol      *TagSymbol
	Enumerators []Enumerator
}

func (*EnumBody) Kind() Kind { return KindEnum }

// Enumerator is one enumeration constant. Value is already truncated to the
// width of the enumeration's integer type.
type Enumerator struct {
	Name  string
	Value int64
}

// FunctionBody is a function declaration or definition.
type FunctionBody struct {
	Result     QualType
	Params     []Param
	Variadic   bool
	Prototyped bool
	Definition bool
}

func (*FunctionBody) Kind() Kind { return KindFunction }

// Param is a function parameter after type adjustment.
type Param struct {
	Name string
	Type QualType
}

// OtherBody covers declarations the extractor never emits: namespaces,
// linkage specifications and type aliases.
type OtherBody struct {
	What string
	// Aliased is set for C++ alias declarations.
	Aliased *QualType
}

func (*OtherBody) Kind() Kind { return KindOther }

// TagSymbol groups every redeclaration of one struct, union, class or enum.
type TagSymbol struct {
	Name       string
	Decls      []*Decl
	Definition *Decl
}

// Decl returns the definition if there is one, else the latest declaration.
func (s *TagSymbol) Decl() *Decl {
	if s == nil {
		return nil
	}
	if s.Definition != nil {
		return s.Definition
	}
	if len(s.Decls) == 0 {
		return nil
	}
	return s.Decls[len(s.Decls)-1]
}
