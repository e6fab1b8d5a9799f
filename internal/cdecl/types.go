package cdecl

// Type is one node of the type graph. Qualifiers live on QualType.
type Type interface {
	typeNode()
}

// QualType is a possibly cv-qualified type.
type QualType struct {
	Type     Type
	Const    bool
	Volatile bool
	Restrict bool
}

// Q wraps an unqualified type.
func Q(t Type) QualType {
	return QualType{Type: t}
}

// IsNull reports whether no type is set.
func (q QualType) IsNull() bool {
	return q.Type == nil
}

// WithQuals returns q with the qualifiers of other added.
func (q QualType) WithQuals(other QualType) QualType {
	q.Const = q.Const || other.Const
	q.Volatile = q.Volatile || other.Volatile
	q.Restrict = q.Restrict || other.Restrict
	return q
}

// Unqualified drops cv qualifiers.
func (q QualType) Unqualified() QualType {
	return QualType{Type: q.Type}
}

// BuiltinType is a fundamental arithmetic type, void, or a target-specific
// opaque builtin such as __builtin_va_list storage.
type BuiltinType struct {
	Name      string
	SizeBits  int64
	AlignBits int64
	Integer   bool
	Signed    bool
	Void      bool
}

// PointerType is T *.
type PointerType struct {
	Pointee QualType
}

// ReferenceType is T & or T &&.
type ReferenceType struct {
	Pointee QualType
	RValue  bool
}

// ArrayType is T[N] or T[] when Incomplete.
type ArrayType struct {
	Elem       QualType
	Len        int64
	Incomplete bool
}

// FunctionType is a function signature.
type FunctionType struct {
	Result     QualType
	Params     []QualType
	Variadic   bool
	Prototyped bool
}

// RecordType names a struct, union or class.
type RecordType struct {
	Symbol *TagSymbol
	Tag    TagKind
	// Elaborated is set when the type was written with its keyword.
	Elaborated bool
	// Qualifier is the nested-name-specifier the type was written with,
	// such as "ns::".
	Qualifier string
}

// Decl returns the record declaration the type currently resolves to.
func (t *RecordType) Decl() *Decl {
	return t.Symbol.Decl()
}

// EnumType names an enumeration.
type EnumType struct {
	Symbol     *TagSymbol
	Elaborated bool
	Qualifier  string
}

// Decl returns the enum declaration the type currently resolves to.
func (t *EnumType) Decl() *Decl {
	return t.Symbol.Decl()
}

// TypedefType refers to a typedef or alias declaration.
type TypedefType struct {
	Decl      *Decl
	Qualifier string
}

// DependentType is a template parameter or a type that depends on one.
type DependentType struct {
	Name string
}

func (*BuiltinType) typeNode()   {}
func (*PointerType) typeNode()   {}
func (*ReferenceType) typeNode() {}
func (*ArrayType) typeNode()     {}
func (*FunctionType) typeNode()  {}
func (*RecordType) typeNode()    {}
func (*EnumType) typeNode()      {}
func (*TypedefType) typeNode()   {}
func (*DependentType) typeNode() {}

// Underlying returns the type a typedef or alias declaration names.
func (t *TypedefType) Underlying() QualType {
	switch b := t.Decl.Body.(type) {
	case *TypedefBody:
		return b.Underlying
	case *OtherBody:
		if b.Aliased != nil {
			return *b.Aliased
		}
	}
	return QualType{}
}

// Desugar strips typedef and alias sugar, accumulating qualifiers.
func (q QualType) Desugar() QualType {
	for i := 0; i < 64; i++ {
		td, ok := q.Type.(*TypedefType)
		if !ok {
			return q
		}
		q = td.Underlying().WithQuals(q)
	}
	return q
}

// AsRecordDecl returns the record q names after desugaring, or nil.
func (q QualType) AsRecordDecl() *Decl {
	if rt, ok := q.Desugar().Type.(*RecordType); ok {
		return rt.Decl()
	}
	return nil
}

// AsTagDecl returns the record or enum q names after desugaring, or nil.
func (q QualType) AsTagDecl() *Decl {
	switch t := q.Desugar().Type.(type) {
	case *RecordType:
		return t.Decl()
	case *EnumType:
		return t.Decl()
	}
	return nil
}

// Decay applies the parameter adjustments of arrays and functions to
// pointers, looking through typedefs.
func (q QualType) Decay() QualType {
	d := q.Desugar()
	switch t := d.Type.(type) {
	case *ArrayType:
		// Qualifiers on an array type apply to its elements.
		return Q(&PointerType{Pointee: t.Elem.WithQuals(d)})
	case *FunctionType:
		return Q(&PointerType{Pointee: q})
	}
	return q
}
