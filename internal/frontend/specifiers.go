package frontend

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

// specMode says where a declaration specifier sequence appears. It decides
// how a tag without a body is treated.
type specMode int

const (
	specDeclaration specMode = iota
	specTypedef
	specStandalone
	specField
	specParam
)

type specInfo struct {
	typ cdecl.QualType
	// defined is the tag declaration the specifiers defined, if any.
	defined   *cdecl.Decl
	invalid   bool
	static    bool
	constexpr bool
	friend    bool
	virtual   bool
}

// specifiers resolves the type and the qualifiers of a declaration. n is
// the node holding the specifiers, typeNode its type child.
func (s *sema) specifiers(n, typeNode *sitter.Node, mode specMode) specInfo {
	var spec specInfo
	switch {
	case typeNode != nil:
		spec.typ, spec.defined, spec.invalid = s.typeSpecifier(typeNode, mode)
	case s.cxx:
		// Constructors, destructors and conversion functions.
		spec.typ = cdecl.Q(s.target.Builtin("void"))
	default:
		s.errorf(n, "type specifier missing, defaults to 'int'; ISO C99 and later do not support implicit int")
		spec.typ = cdecl.Q(s.target.Builtin("int"))
		spec.invalid = true
	}
	if typeNode != nil && treesitter.SameNode(n, typeNode) {
		return spec
	}
	for _, c := range treesitter.Children(n) {
		switch c.Kind() {
		case "type_qualifier":
			s.applyQualifier(&spec, c)
		case "storage_class_specifier":
			if s.text(c) == "static" {
				spec.static = true
			}
		case "virtual":
			spec.virtual = true
		case "friend":
			spec.friend = true
		}
	}
	return spec
}

func (s *sema) applyQualifier(spec *specInfo, c *sitter.Node) {
	switch strings.TrimSpace(s.text(c)) {
	case "const":
		spec.typ.Const = true
	case "constexpr":
		spec.typ.Const = true
		spec.constexpr = true
	case "volatile":
		spec.typ.Volatile = true
	case "restrict", "__restrict__":
		spec.typ.Restrict = true
	}
}

// pointerQualifiers applies the qualifiers written after a '*'.
func (s *sema) pointerQualifiers(q cdecl.QualType, n *sitter.Node) cdecl.QualType {
	for _, c := range treesitter.ChildrenOfKind(n, "type_qualifier") {
		switch strings.TrimSpace(s.text(c)) {
		case "const":
			q.Const = true
		case "volatile":
			q.Volatile = true
		case "restrict", "__restrict__":
			q.Restrict = true
		}
	}
	return q
}

func (s *sema) typeSpecifier(t *sitter.Node, mode specMode) (cdecl.QualType, *cdecl.Decl, bool) {
	switch t.Kind() {
	case "primitive_type", "type_identifier":
		q, ok := s.namedType(t, s.text(t))
		return q, nil, !ok
	case "sized_type_specifier":
		q, ok := s.sizedType(t)
		return q, nil, !ok
	case "struct_specifier", "union_specifier", "class_specifier":
		return s.recordSpecifier(t, mode)
	case "enum_specifier":
		return s.enumSpecifier(t, mode)
	case "qualified_identifier":
		q, ok := s.qualifiedType(t)
		return q, nil, !ok
	case "template_type", "dependent_type", "decltype", "placeholder_type_specifier", "auto":
		return cdecl.Q(&cdecl.DependentType{Name: compactSpelling(s.text(t))}), nil, false
	case "macro_type_specifier":
		name := s.text(t.ChildByFieldName("name"))
		if td := t.ChildByFieldName("type"); td != nil && (name == "typeof" || name == "typeof_unqual") {
			q := s.typeDescriptor(td)
			if name == "typeof_unqual" {
				q = q.Unqualified()
			}
			return q, nil, false
		}
		s.errorf(t, "unknown type name '%s'", name)
		return cdecl.Q(s.target.Builtin("int")), nil, true
	}
	s.errorf(t, "expected a type")
	return cdecl.Q(s.target.Builtin("int")), nil, true
}

// namedType resolves a single identifier used as a type.
func (s *sema) namedType(n *sitter.Node, name string) (cdecl.QualType, bool) {
	sym, tag := s.lookupType(name)
	switch {
	case sym != nil && sym.kind == symTypedef:
		return cdecl.Q(&cdecl.TypedefType{Decl: sym.decl}), true
	case sym != nil && sym.kind == symDependent:
		return cdecl.Q(&cdecl.DependentType{Name: name}), true
	case tag != nil:
		return s.tagType(tag, "", false), true
	}
	if b := s.builtinKeyword(name); b != nil {
		return cdecl.Q(b), true
	}
	if !s.cxx {
		if t := s.lookupTag(name); t != nil {
			kw := "struct"
			switch b := t.Decl().Body.(type) {
			case *cdecl.RecordBody:
				kw = b.Tag.Keyword()
			case *cdecl.EnumBody:
				kw = "enum"
			}
			s.errorf(n, "must use '%s' tag to refer to type '%s'", kw, name)
			return s.tagType(t, "", true), false
		}
	}
	s.errorf(n, "unknown type name '%s'", name)
	return cdecl.Q(s.target.Builtin("int")), false
}

func (s *sema) isC23() bool {
	switch strings.ToLower(s.opts.Std) {
	case "c23", "c2x", "gnu23", "gnu2x":
		return true
	}
	return false
}

// builtinKeyword returns the builtin type a keyword-like type name spells
// in the current language.
func (s *sema) builtinKeyword(name string) *cdecl.BuiltinType {
	switch name {
	case "char", "int", "float", "double", "void", "short", "long",
		"__int128", "_Float16", "__fp16", "__float128":
	case "_Bool":
		if s.cxx {
			return nil
		}
	case "bool":
		if !s.cxx && !s.isC23() {
			return nil
		}
	case "wchar_t", "char16_t", "char32_t", "char8_t":
		if !s.cxx {
			return nil
		}
	default:
		return nil
	}
	return s.target.Builtin(name)
}

// sizedType canonicalizes combinations such as "unsigned long int".
func (s *sema) sizedType(n *sitter.Node) (cdecl.QualType, bool) {
	var (
		unsigned, signed bool
		longs, shorts    int
		base             string
	)
	for _, c := range treesitter.Children(n) {
		switch text := s.text(c); text {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "long":
			longs++
		case "short":
			shorts++
		default:
			if c.IsNamed() {
				base = text
			}
		}
	}

	var name string
	switch base {
	case "", "int":
		switch {
		case shorts > 0:
			name = "short"
		case longs == 1:
			name = "long"
		case longs == 2:
			name = "long long"
		case longs > 2:
			s.errorf(n, "'long long long' is too long for GCC")
			return cdecl.Q(s.target.Builtin("long long")), false
		default:
			name = "int"
		}
		if unsigned {
			name = "unsigned " + name
		}
	case "char":
		switch {
		case unsigned:
			name = "unsigned char"
		case signed:
			name = "signed char"
		default:
			name = "char"
		}
	case "double":
		name = "double"
		if longs > 0 {
			name = "long double"
		}
	case "__int128":
		name = "__int128"
		if unsigned {
			name = "unsigned __int128"
		}
	default:
		s.errorf(n, "'%s' cannot be signed or unsigned", base)
		return cdecl.Q(s.target.Builtin("int")), false
	}
	b := s.target.Builtin(name)
	if b == nil {
		s.errorf(n, "'%s' is not supported on this target", name)
		return cdecl.Q(s.target.Builtin("int")), false
	}
	return cdecl.Q(b), true
}

// qualifiedType resolves ns::T and Outer::Inner.
func (s *sema) qualifiedType(n *sitter.Node) (cdecl.QualType, bool) {
	text := compactSpelling(s.text(n))
	if strings.ContainsAny(text, "<>") {
		return cdecl.Q(&cdecl.DependentType{Name: text}), true
	}
	first := strings.Split(strings.TrimPrefix(text, "::"), "::")[0]
	if sym := s.lookupName(first); sym != nil && sym.kind == symDependent {
		return cdecl.Q(&cdecl.DependentType{Name: text}), true
	}
	sc, last, ok := s.resolveQualifier(text)
	if ok && sc != nil {
		qualifier := text[:len(text)-len(last)]
		if sym := sc.findName(last, map[*scope]bool{}); sym != nil && sym.kind == symTypedef {
			return cdecl.Q(&cdecl.TypedefType{Decl: sym.decl, Qualifier: qualifier}), true
		}
		if t := sc.findTag(last, map[*scope]bool{}); t != nil {
			return s.tagType(t, qualifier, false), true
		}
	}
	s.errorf(n, "no type named '%s'", text)
	return cdecl.Q(s.target.Builtin("int")), false
}

// tagType is the type naming a struct, union, class or enum.
func (s *sema) tagType(sym *cdecl.TagSymbol, qualifier string, elaborated bool) cdecl.QualType {
	if d := sym.Decl(); d != nil {
		switch b := d.Body.(type) {
		case *cdecl.RecordBody:
			return cdecl.Q(&cdecl.RecordType{Symbol: sym, Tag: b.Tag, Elaborated: elaborated, Qualifier: qualifier})
		case *cdecl.EnumBody:
			return cdecl.Q(&cdecl.EnumType{Symbol: sym, Elaborated: elaborated, Qualifier: qualifier})
		}
	}
	return cdecl.Q(s.target.Builtin("int"))
}

// typeDescriptor resolves a type-id such as the operand of sizeof.
func (s *sema) typeDescriptor(td *sitter.Node) cdecl.QualType {
	if td.Kind() != "type_descriptor" {
		q, _, _ := s.typeSpecifier(td, specParam)
		return q
	}
	spec := s.specifiers(td, td.ChildByFieldName("type"), specParam)
	if d := td.ChildByFieldName("declarator"); d != nil {
		return s.declarator(spec.typ, declaratorNode{node: d}).typ
	}
	return spec.typ
}

// compactSpelling normalizes the whitespace of a written type name.
func compactSpelling(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	for _, r := range []struct{ from, to string }{
		{" ::", "::"}, {":: ", "::"},
		{"< ", "<"}, {" >", ">"}, {" ,", ","},
	} {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}
