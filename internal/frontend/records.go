package frontend

import (
	"math/bits"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

// recordBuilder collects what the layout of a record needs while its body
// is analyzed.
type recordBuilder struct {
	decl        *cdecl.Decl
	body        *cdecl.RecordBody
	polymorphic bool
	nonPOD      bool
	public      bool
	bases       []*cdecl.Decl
	fieldAttrs  map[*cdecl.Field]attrSet
	invalid     bool
}

// attrSet is the subset of GNU and standard attributes that affect layout.
type attrSet struct {
	packed bool
	// aligned is in bits, zero when absent.
	aligned int64
}

func (a attrSet) merge(o attrSet) attrSet {
	a.packed = a.packed || o.packed
	a.aligned = max(a.aligned, o.aligned)
	return a
}

func tagKindOf(kind string) cdecl.TagKind {
	switch kind {
	case "union_specifier":
		return cdecl.TagUnion
	case "class_specifier":
		return cdecl.TagClass
	}
	return cdecl.TagStruct
}

func tagKeyword(b cdecl.Body) string {
	switch b := b.(type) {
	case *cdecl.RecordBody:
		return b.Tag.Keyword()
	case *cdecl.EnumBody:
		return "enum"
	}
	return ""
}

// tagMatches reports whether a tag may be redeclared with keyword. struct
// and class are interchangeable.
func tagMatches(sym *cdecl.TagSymbol, keyword string) bool {
	d := sym.Decl()
	if d == nil {
		return true
	}
	have := tagKeyword(d.Body)
	if have == keyword {
		return true
	}
	return (have == "struct" || have == "class") && (keyword == "struct" || keyword == "class")
}

// tagName splits the name of a tag specifier.
func (s *sema) tagName(nameNode *sitter.Node) (name, qualifier string, specialization bool) {
	if nameNode == nil {
		return "", "", false
	}
	switch nameNode.Kind() {
	case "template_type":
		return s.text(nameNode.ChildByFieldName("name")), "", true
	case "qualified_identifier":
		q, n := qualifiedOwner(compactSpelling(s.text(nameNode)))
		return n, q + "::", false
	}
	return s.text(nameNode), "", false
}

func (s *sema) newTagBody(sym *cdecl.TagSymbol, keyword string) cdecl.Body {
	switch keyword {
	case "enum":
		return &cdecl.EnumBody{Symbol: sym, IntegerType: cdecl.Q(s.target.Builtin("int"))}
	case "union":
		return &cdecl.RecordBody{Tag: cdecl.TagUnion, Symbol: sym}
	case "class":
		return &cdecl.RecordBody{Tag: cdecl.TagClass, Symbol: sym}
	}
	return &cdecl.RecordBody{Tag: cdecl.TagStruct, Symbol: sym}
}

func (s *sema) tagDecl(ctx *cdecl.Context, n, nameNode *sitter.Node, sym *cdecl.TagSymbol, body cdecl.Body) *cdecl.Decl {
	locNode := nameNode
	if locNode == nil {
		locNode = n
	}
	d := s.newDeclIn(ctx, sym.Name, locNode, body)
	sym.Decls = append(sym.Decls, d)
	return d
}

// tagReference handles a tag written without a body: a forward declaration
// when it stands alone, otherwise a use that declares the tag if needed.
func (s *sema) tagReference(n, nameNode *sitter.Node, name, qualifier, keyword string, mode specMode) cdecl.QualType {
	if qualifier != "" {
		if sc, _, ok := s.resolveQualifier(qualifier + name); ok && sc != nil {
			if sym := sc.findTag(name, map[*scope]bool{}); sym != nil {
				return s.tagType(sym, qualifier, true)
			}
		}
		s.errorf(nameNode, "no %s named '%s' in '%s'", keyword, name, strings.TrimSuffix(qualifier, "::"))
		return cdecl.Q(s.target.Builtin("int"))
	}

	if mode == specStandalone {
		sc := s.tagScope()
		sym := sc.tags[name]
		switch {
		case sym == nil:
			sym = &cdecl.TagSymbol{Name: name}
			sc.tags[name] = sym
		case !tagMatches(sym, keyword):
			s.errorf(nameNode, "use of '%s' with tag type that does not match previous declaration", name)
			return s.tagType(sym, "", true)
		}
		d := s.tagDecl(s.ctx, n, nameNode, sym, s.newTagBody(sym, keyword))
		if hasDeclError(n) {
			d.Invalid = true
		}
		return s.tagType(sym, "", true)
	}

	if sym := s.lookupTag(name); sym != nil {
		if !tagMatches(sym, keyword) {
			s.errorf(nameNode, "use of '%s' with tag type that does not match previous declaration", name)
		}
		return s.tagType(sym, "", true)
	}
	sym := &cdecl.TagSymbol{Name: name}
	s.injectionScope().tags[name] = sym
	s.tagDecl(s.fileContext(), n, nameNode, sym, s.newTagBody(sym, keyword))
	return s.tagType(sym, "", true)
}

// beginDefinition finds or creates the symbol a tag definition attaches to.
// A second definition in the same scope is an error; the new declaration
// then gets a symbol of its own and is marked invalid.
func (s *sema) beginDefinition(nameNode *sitter.Node, name, keyword string, specialization bool) (*cdecl.TagSymbol, bool) {
	if name == "" || specialization {
		return &cdecl.TagSymbol{Name: name}, true
	}
	sc := s.tagScope()
	sym := sc.tags[name]
	switch {
	case sym == nil:
		sym = &cdecl.TagSymbol{Name: name}
		sc.tags[name] = sym
	case !tagMatches(sym, keyword):
		s.errorf(nameNode, "use of '%s' with tag type that does not match previous declaration", name)
		return &cdecl.TagSymbol{Name: name}, false
	case sym.Definition != nil:
		s.errorf(nameNode, "redefinition of '%s'", name)
		return &cdecl.TagSymbol{Name: name}, false
	}
	return sym, true
}

func (s *sema) recordSpecifier(n *sitter.Node, mode specMode) (cdecl.QualType, *cdecl.Decl, bool) {
	tag := tagKindOf(n.Kind())
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	name, qualifier, specialization := s.tagName(nameNode)

	if specialization && body == nil {
		return cdecl.Q(&cdecl.DependentType{Name: compactSpelling(s.text(nameNode))}), nil, false
	}
	if body == nil {
		if name == "" {
			s.errorf(n, "declaration of anonymous %s must be a definition", tag.Keyword())
			return cdecl.Q(s.target.Builtin("int")), nil, true
		}
		return s.tagReference(n, nameNode, name, qualifier, tag.Keyword(), mode), nil, false
	}

	if specialization {
		// Explicit and partial specializations are treated as templates.
		s.templated++
		defer func() { s.templated-- }()
	}
	sym, ok := s.beginDefinition(nameNode, name, tag.Keyword(), specialization)
	d := s.tagDecl(s.ctx, n, nameNode, sym, &cdecl.RecordBody{Tag: tag, Symbol: sym})
	if !ok {
		d.Invalid = true
	}
	s.defineRecord(n, body, d, sym)
	return cdecl.Q(&cdecl.RecordType{Symbol: sym, Tag: tag, Elaborated: true}), d, false
}

func (s *sema) defineRecord(n, body *sitter.Node, d *cdecl.Decl, sym *cdecl.TagSymbol) {
	rb := d.Body.(*cdecl.RecordBody)
	sym.Definition = d
	rb.Complete = true

	ctx := cdecl.NewContext(cdecl.ContextRecord, d.Name, s.ctx, d)
	d.Inner = ctx
	rs := newScope(s.scope)
	rs.record = true
	if s.cxx {
		s.recordScopes[sym] = rs
		if d.Name != "" {
			rs.tags[d.Name] = sym
		}
	}

	rec := &recordBuilder{
		decl:       d,
		body:       rb,
		public:     rb.Tag != cdecl.TagClass,
		fieldAttrs: make(map[*cdecl.Field]attrSet),
	}
	for _, clause := range treesitter.ChildrenOfKind(n, "base_class_clause") {
		s.baseClasses(rec, clause)
	}

	savedCtx, savedScope, savedRec := s.ctx, s.scope, s.rec
	s.ctx, s.scope, s.rec = ctx, rs, rec
	s.defining[d] = true
	s.items(body)
	delete(s.defining, d)
	s.ctx, s.scope, s.rec = savedCtx, savedScope, savedRec

	if rec.invalid || hasDeclError(n) {
		d.Invalid = true
	}
	attrs := recordAttrs{attrSet: s.attributes(n), pack: s.exp.PackAt(n.StartPosition().Row) * 8}
	s.layouts.layoutRecord(d, rec, attrs)
}

func (s *sema) baseClasses(rec *recordBuilder, clause *sitter.Node) {
	virtual := false
	for _, c := range treesitter.Children(clause) {
		switch {
		case c.Kind() == "virtual":
			virtual = true
			continue
		case c.Kind() == ",":
			virtual = false
			continue
		case !c.IsNamed() || c.Kind() == "access_specifier" || c.Kind() == "attribute_declaration":
			continue
		}
		q, _, invalid := s.typeSpecifier(c, specParam)
		rec.nonPOD = true
		if invalid {
			rec.invalid = true
			continue
		}
		if _, dep := q.Desugar().Type.(*cdecl.DependentType); dep {
			if s.templated == 0 {
				s.warnf(c, "base class '%s' depends on a template instantiation; layout not computed", q.Spelling(s.policy))
				rec.invalid = true
			}
			continue
		}
		base := q.AsRecordDecl()
		if base == nil || !s.complete(q) {
			s.errorf(c, "base class has incomplete type '%s'", q.Spelling(s.policy))
			rec.invalid = true
			continue
		}
		if virtual {
			s.warnf(c, "virtual base class '%s' is not supported; layout not computed", q.Spelling(s.policy))
			rec.invalid = true
		}
		rec.bases = append(rec.bases, base)
		virtual = false
	}
}

func (s *sema) accessSpecifier(n *sitter.Node) {
	if s.rec != nil {
		s.rec.public = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s.text(n)), ":")) == "public"
	}
}

// fieldDeclaration handles one member declaration of a record body.
func (s *sema) fieldDeclaration(n *sitter.Node) {
	rec := s.rec
	if rec == nil {
		return
	}
	typeNode := n.ChildByFieldName("type")
	spec := s.specifiers(n, typeNode, specField)
	attrs := s.attributes(n)
	if spec.invalid {
		rec.invalid = true
	}

	decls := declaratorChildren(n, typeNode, true)
	if len(decls) == 0 {
		if spec.defined != nil && spec.defined.Name == "" {
			if rb, ok := spec.defined.Body.(*cdecl.RecordBody); ok {
				rb.AnonymousMember = true
				s.addField(rec, n, declInfo{typ: spec.typ}, attrs)
			}
		}
		return
	}

	for _, dn := range decls {
		info := s.declarator(spec.typ, dn)
		if _, ok := info.typ.Desugar().Type.(*cdecl.FunctionType); ok && info.bitfield == nil {
			d := s.functionDecl(info, spec, false)
			if d != nil && hasDeclError(n) {
				d.Invalid = true
			}
			continue
		}
		if spec.static || spec.friend {
			continue
		}
		fattrs := attrs
		if dn.node != nil {
			fattrs = fattrs.merge(s.attributes(dn.node))
		}
		locNode := info.nameNode
		if locNode == nil {
			locNode = n
		}
		s.addField(rec, locNode, info, fattrs)
	}
}

// noteMethod records what a member function implies for the layout.
func (s *sema) noteMethod(d *cdecl.Decl, spec specInfo) {
	rec := s.rec
	if rec == nil || d.Context != rec.decl.Inner {
		return
	}
	if spec.virtual {
		rec.polymorphic = true
	}
	if d.Name == rec.decl.Name || strings.HasPrefix(d.Name, "~") || strings.HasPrefix(d.Name, "operator=") {
		rec.nonPOD = true
	}
}

func (s *sema) addField(rec *recordBuilder, n *sitter.Node, info declInfo, attrs attrSet) {
	f := &cdecl.Field{Name: info.name, Type: info.typ, BitWidth: -1}
	if info.invalid {
		rec.invalid = true
	}

	switch t := info.typ.Desugar().Type.(type) {
	case *cdecl.DependentType:
		if s.templated == 0 {
			s.warnf(n, "field '%s' has type '%s' that depends on a template instantiation; layout not computed", info.name, t.Name)
			rec.invalid = true
		}
	case *cdecl.FunctionType:
		s.errorf(n, "field '%s' declared as a function", info.name)
		rec.invalid = true
		return
	default:
		if arr, ok := t.(*cdecl.ArrayType); ok && arr.Incomplete {
			if !s.complete(arr.Elem) {
				s.errorf(n, "array has incomplete element type '%s'", arr.Elem.Spelling(s.policy))
				rec.invalid = true
				return
			}
			break
		}
		if !s.complete(info.typ) {
			s.errorf(n, "field has incomplete type '%s'", info.typ.Spelling(s.policy))
			rec.invalid = true
			return
		}
	}

	if info.bitfield != nil && !s.bitfieldWidth(rec, n, f, info.bitfield) {
		rec.invalid = true
		return
	}

	if !rec.public {
		rec.nonPOD = true
	}
	if rd := info.typ.AsRecordDecl(); rd != nil {
		if l := s.layouts.records[rd]; l != nil && !l.pod {
			rec.nonPOD = true
		}
	}
	rec.body.Fields = append(rec.body.Fields, f)
	rec.fieldAttrs[f] = attrs
}

func (s *sema) bitfieldWidth(rec *recordBuilder, n *sitter.Node, f *cdecl.Field, clause *sitter.Node) bool {
	label := "bit-field"
	if f.Name != "" {
		label = "bit-field '" + f.Name + "'"
	}
	if !s.isInteger(f.Type) {
		s.errorf(n, "%s has non-integral type '%s'", label, f.Type.Spelling(s.policy))
		return false
	}
	expr := clause.NamedChild(0)
	v, ok := s.evalConst(expr)
	if !ok {
		s.errorf(clause, "integer constant expression required for %s width", label)
		return false
	}
	if v.v < 0 && !v.unsigned {
		s.errorf(clause, "%s has negative width (%d)", label, v.v)
		return false
	}
	if v.v == 0 && f.Name != "" {
		s.errorf(clause, "named bit-field '%s' has zero width", f.Name)
		return false
	}
	if size, ok := s.layouts.sizeOf(f.Type); ok && v.v > size {
		s.errorf(clause, "width of %s (%d bits) exceeds the width of its type (%d bits)", label, v.v, size)
		return false
	}
	f.BitWidth = v.v
	return true
}

func (s *sema) isInteger(q cdecl.QualType) bool {
	switch t := q.Desugar().Type.(type) {
	case *cdecl.BuiltinType:
		return t.Integer
	case *cdecl.EnumType:
		return true
	}
	return false
}

// complete reports whether objects of type q can be laid out.
func (s *sema) complete(q cdecl.QualType) bool {
	switch t := q.Desugar().Type.(type) {
	case *cdecl.BuiltinType:
		return !t.Void
	case *cdecl.RecordType:
		d := t.Decl()
		rb, ok := d.Body.(*cdecl.RecordBody)
		return ok && rb.Complete && !s.defining[d]
	case *cdecl.EnumType:
		eb, ok := t.Decl().Body.(*cdecl.EnumBody)
		return ok && (eb.Complete || eb.Fixed)
	case *cdecl.ArrayType:
		return !t.Incomplete && s.complete(t.Elem)
	case *cdecl.FunctionType:
		return false
	}
	return true
}

// attributes collects the layout attributes written as direct children of
// n, in GNU, standard and alignas form.
func (s *sema) attributes(n *sitter.Node) attrSet {
	var a attrSet
	for _, c := range treesitter.Children(n) {
		switch c.Kind() {
		case "attribute_specifier":
			for _, args := range treesitter.NamedChildren(c) {
				for _, e := range treesitter.NamedChildren(args) {
					s.gnuAttribute(&a, e)
				}
			}
		case "attribute_declaration":
			for _, attr := range treesitter.ChildrenOfKind(c, "attribute") {
				s.standardAttribute(&a, attr)
			}
		case "alignas_qualifier", "alignas_specifier":
			s.alignas(&a, c)
		case "type_qualifier":
			for _, q := range treesitter.NamedChildren(c) {
				if q.Kind() == "alignas_qualifier" || q.Kind() == "alignas_specifier" {
					s.alignas(&a, q)
				}
			}
		}
	}
	return a
}

// alignAttribute is the alignment an aligned attribute on n requests.
func (s *sema) alignAttribute(n *sitter.Node) int64 {
	return s.attributes(n).aligned
}

func trimUnderscores(name string) string {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4 {
		return name[2 : len(name)-2]
	}
	return name
}

func (s *sema) gnuAttribute(a *attrSet, e *sitter.Node) {
	switch e.Kind() {
	case "identifier":
		switch trimUnderscores(s.text(e)) {
		case "packed":
			a.packed = true
		case "aligned":
			a.aligned = max(a.aligned, s.target.BiggestAlign())
		}
	case "call_expression":
		if trimUnderscores(s.text(e.ChildByFieldName("function"))) != "aligned" {
			return
		}
		args := treesitter.NamedChildren(e.ChildByFieldName("arguments"))
		if len(args) == 0 {
			a.aligned = max(a.aligned, s.target.BiggestAlign())
			return
		}
		s.alignValue(a, args[0])
	}
}

func (s *sema) standardAttribute(a *attrSet, attr *sitter.Node) {
	name := trimUnderscores(s.text(attr.ChildByFieldName("name")))
	switch name {
	case "packed":
		a.packed = true
	case "aligned":
		args := treesitter.ChildrenOfKind(attr, "argument_list")
		if len(args) == 0 || args[0].NamedChildCount() == 0 {
			a.aligned = max(a.aligned, s.target.BiggestAlign())
			return
		}
		s.alignValue(a, args[0].NamedChild(0))
	}
}

func (s *sema) alignas(a *attrSet, n *sitter.Node) {
	if n.NamedChildCount() == 0 {
		return
	}
	arg := n.NamedChild(n.NamedChildCount() - 1)
	if arg.Kind() == "type_descriptor" {
		a.aligned = max(a.aligned, s.layouts.alignOf(s.typeDescriptor(arg)))
		return
	}
	s.alignValue(a, arg)
}

func (s *sema) alignValue(a *attrSet, e *sitter.Node) {
	v, ok := s.evalConst(e)
	if !ok {
		s.errorf(e, "'aligned' attribute requires an integer constant")
		return
	}
	if v.v <= 0 || v.v&(v.v-1) != 0 {
		s.errorf(e, "requested alignment is not a power of 2")
		return
	}
	a.aligned = max(a.aligned, v.v*8)
}

// enumSpecifier declares or defines an enumeration.
func (s *sema) enumSpecifier(n *sitter.Node, mode specMode) (cdecl.QualType, *cdecl.Decl, bool) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	base := n.ChildByFieldName("base")
	if base == nil {
		base = n.ChildByFieldName("underlying_type")
	}
	scoped := treesitter.HasChildKind(n, "class") || treesitter.HasChildKind(n, "struct")
	name, qualifier, _ := s.tagName(nameNode)

	if body == nil && base == nil && !scoped {
		if name == "" {
			s.errorf(n, "declaration of anonymous enum must be a definition")
			return cdecl.Q(s.target.Builtin("int")), nil, true
		}
		return s.tagReference(n, nameNode, name, qualifier, "enum", mode), nil, false
	}

	fixed, invalid := s.enumFixedType(base, scoped)

	if body == nil {
		// Opaque declaration with a fixed underlying type.
		sc := s.tagScope()
		sym := sc.tags[name]
		if sym == nil {
			sym = &cdecl.TagSymbol{Name: name}
			sc.tags[name] = sym
		}
		eb := &cdecl.EnumBody{Symbol: sym, Scoped: scoped, Fixed: true, IntegerType: fixed}
		d := s.tagDecl(s.ctx, n, nameNode, sym, eb)
		d.Invalid = invalid
		return s.tagType(sym, "", true), nil, invalid
	}

	sym, ok := s.beginDefinition(nameNode, name, "enum", false)
	eb := &cdecl.EnumBody{Symbol: sym, Scoped: scoped, Complete: true}
	d := s.tagDecl(s.ctx, n, nameNode, sym, eb)
	sym.Definition = d
	if !ok || invalid || hasDeclError(n) {
		d.Invalid = true
	}
	ctx := cdecl.NewContext(cdecl.ContextEnum, name, s.ctx, d)
	ctx.Scoped = scoped
	d.Inner = ctx

	outer := s.tagScope()
	es := newScope(s.scope)
	if s.cxx {
		s.recordScopes[sym] = es
	}
	saved := s.scope
	s.scope = es
	defer func() { s.scope = saved }()

	var values []ppValue
	var prev ppValue
	for i, e := range treesitter.ChildrenOfKind(body, "enumerator") {
		en := e.ChildByFieldName("name")
		var v ppValue
		switch ve := e.ChildByFieldName("value"); {
		case ve != nil:
			var ok bool
			if v, ok = s.evalConst(ve); !ok {
				s.errorf(ve, "expression is not an integer constant expression")
				d.Invalid = true
				v = ppValue{v: prev.v + 1, unsigned: prev.unsigned}
			}
		case i > 0:
			v = ppValue{v: prev.v + 1, unsigned: prev.unsigned}
		}
		prev = v
		values = append(values, v)
		eb.Enumerators = append(eb.Enumerators, cdecl.Enumerator{Name: s.text(en)})
		sym := &symbol{kind: symEnumerator, value: v}
		es.names[s.text(en)] = sym
		if !scoped {
			outer.names[s.text(en)] = sym
		}
	}

	switch {
	case !fixed.IsNull():
		eb.Fixed = true
		eb.IntegerType = fixed
	default:
		eb.IntegerType = cdecl.Q(s.enumIntegerType(values, s.attributes(n).packed))
	}
	width, signed := s.integerShape(eb.IntegerType)
	for i := range eb.Enumerators {
		eb.Enumerators[i].Value = truncate(values[i].v, width, signed)
	}
	return cdecl.Q(&cdecl.EnumType{Symbol: sym, Elaborated: true}), d, false
}

// enumFixedType is the underlying type an enum declares, or the implicit
// int of a C++ scoped enum. It is null when the type is chosen from the
// enumerator values.
func (s *sema) enumFixedType(base *sitter.Node, scoped bool) (cdecl.QualType, bool) {
	if base == nil {
		if scoped {
			return cdecl.Q(s.target.Builtin("int")), false
		}
		return cdecl.QualType{}, false
	}
	q, _, invalid := s.typeSpecifier(base, specParam)
	if !invalid && !s.isInteger(q) {
		s.errorf(base, "non-integral type '%s' is an invalid underlying type", q.Spelling(s.policy))
		return cdecl.Q(s.target.Builtin("int")), true
	}
	return q, invalid
}

// enumIntegerType picks the integer type of an enum without a fixed type:
// the smallest of int, long and long long that holds every value, using
// the unsigned variants when no value is negative. Packed enums may also
// use char or short.
func (s *sema) enumIntegerType(values []ppValue, packed bool) *cdecl.BuiltinType {
	var pos, neg int
	for _, v := range values {
		if v.unsigned || v.v >= 0 {
			pos = max(pos, bits.Len64(uint64(v.v)))
		} else {
			neg = max(neg, bits.Len64(uint64(^v.v))+1)
		}
	}
	long := int(s.target.LongBits)
	if s.target.OS == "windows" && neg <= 32 && pos < 32 {
		return s.target.Builtin("int")
	}

	var name string
	if neg > 0 {
		switch {
		case packed && neg <= 8 && pos < 8:
			name = "signed char"
		case packed && neg <= 16 && pos < 16:
			name = "short"
		case neg <= 32 && pos < 32:
			name = "int"
		case neg <= long && pos < long:
			name = "long"
		default:
			name = "long long"
		}
	} else {
		switch {
		case packed && pos <= 8:
			name = "unsigned char"
		case packed && pos <= 16:
			name = "unsigned short"
		case pos <= 32:
			name = "unsigned int"
		case pos <= long:
			name = "unsigned long"
		default:
			name = "unsigned long long"
		}
	}
	return s.target.Builtin(name)
}

// integerShape returns the width and signedness of an integer type.
func (s *sema) integerShape(q cdecl.QualType) (int64, bool) {
	switch t := q.Desugar().Type.(type) {
	case *cdecl.BuiltinType:
		return t.SizeBits, t.Signed
	case *cdecl.EnumType:
		if eb, ok := t.Decl().Body.(*cdecl.EnumBody); ok {
			return s.integerShape(eb.IntegerType)
		}
	}
	return 64, true
}

func truncate(v int64, width int64, signed bool) int64 {
	if width <= 0 || width >= 64 {
		return v
	}
	mask := uint64(1)<<uint(width) - 1
	u := uint64(v) & mask
	if signed && u&(uint64(1)<<uint(width-1)) != 0 {
		u |= ^mask
	}
	return int64(u)
}

// hasDeclError reports syntax errors inside n, ignoring function bodies.
func hasDeclError(n *sitter.Node) bool {
	if n == nil || !n.HasError() {
		return false
	}
	if n.IsError() || n.IsMissing() {
		return true
	}
	for _, c := range treesitter.Children(n) {
		if c.Kind() == "compound_statement" {
			continue
		}
		if hasDeclError(c) {
			return true
		}
	}
	return false
}
