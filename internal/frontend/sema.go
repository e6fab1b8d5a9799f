package frontend

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

type symbolKind int

const (
	symTypedef symbolKind = iota
	symDependent
	symEnumerator
	symConstant
	symValue
)

// symbol is an entry in the ordinary name space.
type symbol struct {
	kind  symbolKind
	decl  *cdecl.Decl
	value ppValue
	typ   cdecl.QualType
}

// scope is a lexical scope. Template parameter scopes hold only the
// parameters; declarations made inside them land in the enclosing scope.
type scope struct {
	parent   *scope
	record   bool
	template bool
	names    map[string]*symbol
	tags     map[string]*cdecl.TagSymbol
	spaces   map[string]*namespaceInfo
	// usings are scopes searched after this one: using-directives, inline
	// and anonymous namespaces.
	usings []*scope
}

func newScope(parent *scope) *scope {
	return &scope{
		parent: parent,
		names:  make(map[string]*symbol),
		tags:   make(map[string]*cdecl.TagSymbol),
		spaces: make(map[string]*namespaceInfo),
	}
}

// declaring returns the scope that receives new names.
func (sc *scope) declaring() *scope {
	for sc.template && sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

type namespaceInfo struct {
	name  string
	scope *scope
	first *cdecl.Context
}

// sema builds the declaration tree from a syntax tree.
type sema struct {
	opts   *Options
	target *Target
	diags  *Diagnostics
	logger *logrus.Logger

	src    []byte
	exp    *Expansion
	cxx    bool
	policy cdecl.Policy

	tu     *cdecl.TranslationUnit
	ctx    *cdecl.Context
	scope  *scope
	global *scope
	nextID cdecl.DeclID

	templated    int
	rec          *recordBuilder
	recordScopes map[*cdecl.TagSymbol]*scope
	typedefAlign map[*cdecl.Decl]int64
	defining     map[*cdecl.Decl]bool
	layouts      *layoutEngine
}

func newSema(opts *Options, target *Target, diags *Diagnostics, logger *logrus.Logger, exp *Expansion, mainFile string) *sema {
	cxx := opts.Language == LangCXX
	policy := cdecl.Policy{CPlusPlus: cxx}
	tu := cdecl.NewTranslationUnit(mainFile, policy)
	global := newScope(nil)
	s := &sema{
		opts:         opts,
		target:       target,
		diags:        diags,
		logger:       logger,
		src:          exp.Text,
		exp:          exp,
		cxx:          cxx,
		policy:       policy,
		tu:           tu,
		ctx:          tu.Context,
		scope:        global,
		global:       global,
		recordScopes: make(map[*cdecl.TagSymbol]*scope),
		typedefAlign: make(map[*cdecl.Decl]int64),
		defining:     make(map[*cdecl.Decl]bool),
	}
	s.layouts = newLayoutEngine(s)
	return s
}

// analyze walks the syntax tree and returns the translation unit.
func (s *sema) analyze(root *sitter.Node) *cdecl.TranslationUnit {
	s.declareImplicit()
	s.reportSyntaxErrors(root)
	s.items(root)
	return s.tu
}

func (s *sema) text(n *sitter.Node) string {
	return treesitter.NodeText(n, s.src)
}

func (s *sema) locOf(n *sitter.Node) cdecl.Location {
	if n == nil {
		return cdecl.Location{}
	}
	p := n.StartPosition()
	return s.exp.Locate(p.Row, p.Column)
}

func (s *sema) errorf(n *sitter.Node, format string, args ...any) {
	s.diags.Errorf(s.locOf(n), format, args...)
}

func (s *sema) warnf(n *sitter.Node, format string, args ...any) {
	s.diags.Warnf(s.locOf(n), format, args...)
}

// newDecl creates a declaration in the current context.
func (s *sema) newDecl(name string, n *sitter.Node, body cdecl.Body) *cdecl.Decl {
	return s.newDeclIn(s.ctx, name, n, body)
}

func (s *sema) newDeclIn(ctx *cdecl.Context, name string, n *sitter.Node, body cdecl.Body) *cdecl.Decl {
	s.nextID++
	d := &cdecl.Decl{
		ID:        s.nextID,
		Name:      name,
		Loc:       s.locOf(n),
		Body:      body,
		Templated: s.templated > 0,
	}
	ctx.Add(d)
	return d
}

// fileContext is the nearest translation unit or namespace context.
func (s *sema) fileContext() *cdecl.Context {
	c := s.ctx
	for c.Parent != nil && !c.IsFileContext() {
		c = c.Parent
	}
	return c
}

// tagScope is where a tag name declared here becomes visible. C has no
// member scopes, so tags escape struct bodies.
func (s *sema) tagScope() *scope {
	sc := s.scope.declaring()
	if !s.cxx {
		for sc.record && sc.parent != nil {
			sc = sc.parent
		}
	}
	return sc
}

// injectionScope is where an elaborated reference to an unknown tag
// declares it.
func (s *sema) injectionScope() *scope {
	sc := s.scope.declaring()
	for sc.record && sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

func (sc *scope) findName(name string, seen map[*scope]bool) *symbol {
	if seen[sc] {
		return nil
	}
	seen[sc] = true
	if sym, ok := sc.names[name]; ok {
		return sym
	}
	for _, u := range sc.usings {
		if sym := u.findName(name, seen); sym != nil {
			return sym
		}
	}
	return nil
}

func (sc *scope) findTag(name string, seen map[*scope]bool) *cdecl.TagSymbol {
	if seen[sc] {
		return nil
	}
	seen[sc] = true
	if t, ok := sc.tags[name]; ok {
		return t
	}
	for _, u := range sc.usings {
		if t := u.findTag(name, seen); t != nil {
			return t
		}
	}
	return nil
}

func (sc *scope) findSpace(name string, seen map[*scope]bool) *namespaceInfo {
	if seen[sc] {
		return nil
	}
	seen[sc] = true
	if ns, ok := sc.spaces[name]; ok {
		return ns
	}
	for _, u := range sc.usings {
		if ns := u.findSpace(name, seen); ns != nil {
			return ns
		}
	}
	return nil
}

// lookupName finds an ordinary identifier from the current scope outward.
func (s *sema) lookupName(name string) *symbol {
	for sc := s.scope; sc != nil; sc = sc.parent {
		if sym := sc.findName(name, map[*scope]bool{}); sym != nil {
			return sym
		}
	}
	return nil
}

func (s *sema) lookupTag(name string) *cdecl.TagSymbol {
	for sc := s.scope; sc != nil; sc = sc.parent {
		if t := sc.findTag(name, map[*scope]bool{}); t != nil {
			return t
		}
	}
	return nil
}

// lookupType resolves a type name. In C++ a tag name is also a type name
// unless an ordinary name in a nearer scope hides it.
func (s *sema) lookupType(name string) (*symbol, *cdecl.TagSymbol) {
	var hidden *symbol
	for sc := s.scope; sc != nil; sc = sc.parent {
		sym := sc.findName(name, map[*scope]bool{})
		if sym != nil && (sym.kind == symTypedef || sym.kind == symDependent) {
			return sym, nil
		}
		if s.cxx {
			if t := sc.findTag(name, map[*scope]bool{}); t != nil {
				return nil, t
			}
		}
		if sym != nil && hidden == nil {
			hidden = sym
		}
	}
	return hidden, nil
}

func (s *sema) lookupSpace(name string) *namespaceInfo {
	for sc := s.scope; sc != nil; sc = sc.parent {
		if ns := sc.findSpace(name, map[*scope]bool{}); ns != nil {
			return ns
		}
	}
	return nil
}

func (s *sema) declareName(name string, sym *symbol) {
	if name == "" {
		return
	}
	s.scope.declaring().names[name] = sym
}

// declareImplicit adds the builtin typedefs every translation unit starts
// with.
func (s *sema) declareImplicit() {
	implicitTypedef := func(name string, q cdecl.QualType) {
		d := s.newDecl(name, nil, &cdecl.TypedefBody{Underlying: q})
		d.Implicit = true
		s.declareName(name, &symbol{kind: symTypedef, decl: d})
	}
	implicitRecord := func(name string, fields ...[2]any) *cdecl.Decl {
		sym := &cdecl.TagSymbol{Name: name}
		rb := &cdecl.RecordBody{Tag: cdecl.TagStruct, Complete: true, Symbol: sym}
		d := s.newDecl(name, nil, rb)
		d.Implicit = true
		sym.Decls = append(sym.Decls, d)
		sym.Definition = d
		for _, f := range fields {
			rb.Fields = append(rb.Fields, &cdecl.Field{Name: f[0].(string), Type: f[1].(cdecl.QualType), BitWidth: -1})
		}
		s.layouts.layoutRecord(d, nil, recordAttrs{})
		s.tagScope().tags[name] = sym
		return d
	}

	if s.target.HasInt128 {
		implicitTypedef("__int128_t", cdecl.Q(s.target.Builtin("__int128")))
		implicitTypedef("__uint128_t", cdecl.Q(s.target.Builtin("unsigned __int128")))
	}

	voidPtr := cdecl.Q(&cdecl.PointerType{Pointee: cdecl.Q(s.target.Builtin("void"))})
	uintT := cdecl.Q(s.target.Builtin("unsigned int"))
	intT := cdecl.Q(s.target.Builtin("int"))
	record := func(d *cdecl.Decl) cdecl.QualType {
		return cdecl.Q(&cdecl.RecordType{Symbol: d.Body.(*cdecl.RecordBody).Symbol, Tag: cdecl.TagStruct, Elaborated: true})
	}

	var vaList cdecl.QualType
	switch s.target.VaList {
	case VaListSysV:
		tag := implicitRecord("__va_list_tag",
			[2]any{"gp_offset", uintT},
			[2]any{"fp_offset", uintT},
			[2]any{"overflow_arg_area", voidPtr},
			[2]any{"reg_save_area", voidPtr},
		)
		vaList = cdecl.Q(&cdecl.ArrayType{Elem: record(tag), Len: 1})
	case VaListAAPCS64:
		tag := implicitRecord("__va_list",
			[2]any{"__stack", voidPtr},
			[2]any{"__gr_top", voidPtr},
			[2]any{"__vr_top", voidPtr},
			[2]any{"__gr_offs", intT},
			[2]any{"__vr_offs", intT},
		)
		vaList = record(tag)
	case VaListAAPCS:
		vaList = record(implicitRecord("__va_list", [2]any{"__ap", voidPtr}))
	default:
		vaList = cdecl.Q(&cdecl.PointerType{Pointee: cdecl.Q(s.target.Builtin("char"))})
	}
	implicitTypedef("__builtin_va_list", vaList)
}

// reportSyntaxErrors turns ERROR and MISSING nodes into diagnostics.
// Function bodies are never analyzed, so errors inside them are only
// logged.
func (s *sema) reportSyntaxErrors(root *sitter.Node) {
	for _, e := range treesitter.FindSyntaxErrors(root) {
		if insideBody(e.Node) {
			if s.logger != nil {
				s.logger.WithField("location", s.locOf(e.Node).String()).Debug("ignoring syntax error in function body")
			}
			continue
		}
		if e.Missing {
			s.errorf(e.Node, "expected '%s'", e.Expected)
			continue
		}
		text := strings.Join(strings.Fields(s.text(e.Node)), " ")
		if len(text) > 32 {
			text = text[:32] + "..."
		}
		s.errorf(e.Node, "expected declaration near '%s'", text)
	}
}

func insideBody(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "compound_statement" {
			return true
		}
	}
	return false
}

func (s *sema) items(n *sitter.Node) {
	for _, c := range treesitter.NamedChildren(n) {
		s.item(c)
	}
}

// item handles one declaration-level node.
func (s *sema) item(n *sitter.Node) {
	switch n.Kind() {
	case "declaration":
		s.declaration(n)
	case "type_definition":
		s.typeDefinition(n)
	case "function_definition":
		s.functionDefinition(n)
	case "struct_specifier", "union_specifier", "class_specifier", "enum_specifier":
		s.standaloneSpecifier(n)
	case "linkage_specification":
		s.linkageSpecification(n)
	case "namespace_definition":
		s.namespaceDefinition(n)
	case "template_declaration":
		s.templateDeclaration(n)
	case "template_instantiation":
		// Explicit instantiations add no new declarations.
	case "alias_declaration":
		s.aliasDeclaration(n)
	case "using_declaration":
		s.usingDeclaration(n)
	case "namespace_alias_definition":
		s.namespaceAlias(n)
	case "declaration_list", "field_declaration_list":
		s.items(n)
	case "field_declaration":
		s.fieldDeclaration(n)
	case "access_specifier":
		s.accessSpecifier(n)
	case "attributed_statement", "attribute_declaration":
		for _, c := range treesitter.NamedChildren(n) {
			if c.Kind() != "attribute_declaration" && c.Kind() != "attribute" {
				s.item(c)
			}
		}
	case "ERROR", "comment", "static_assert_declaration", "concept_definition", "friend_declaration",
		"expression_statement":
	default:
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"kind":     n.Kind(),
				"location": s.locOf(n).String(),
			}).Trace("ignoring top-level node")
		}
	}
}

// standaloneSpecifier handles "struct S;", "struct S { ... };" and
// "enum E { ... };" with no declarators.
func (s *sema) standaloneSpecifier(n *sitter.Node) {
	spec := s.specifiers(n, n, specStandalone)
	if rb, ok := anonymousCandidate(spec.typ); ok && !s.scope.declaring().record {
		if rb.Complete {
			s.warnf(n, "declaration does not declare anything")
		}
	}
}

func anonymousCandidate(q cdecl.QualType) (*cdecl.RecordBody, bool) {
	rt, ok := q.Type.(*cdecl.RecordType)
	if !ok {
		return nil, false
	}
	d := rt.Decl()
	rb, ok := d.Body.(*cdecl.RecordBody)
	if !ok || d.Name != "" {
		return nil, false
	}
	return rb, true
}

func (s *sema) linkageSpecification(n *sitter.Node) {
	d := s.newDecl("", n, &cdecl.OtherBody{What: "linkage"})
	ctx := cdecl.NewContext(cdecl.ContextLinkageSpec, "", s.ctx, d)
	d.Inner = ctx

	saved := s.ctx
	s.ctx = ctx
	defer func() { s.ctx = saved }()

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Kind() == "declaration_list" {
		s.items(body)
		return
	}
	s.item(body)
}

func (s *sema) namespaceDefinition(n *sitter.Node) {
	var names []string
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		for _, part := range strings.Split(s.text(nameNode), "::") {
			part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "inline"))
			if part != "" {
				names = append(names, part)
			}
		}
	}
	if len(names) == 0 {
		names = []string{""}
	}
	inline := treesitter.HasChildKind(n, "inline")

	savedCtx, savedScope := s.ctx, s.scope
	defer func() { s.ctx, s.scope = savedCtx, savedScope }()

	for i, name := range names {
		s.openNamespace(name, nameNode, n, inline && i == len(names)-1)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		s.items(body)
	}
}

func (s *sema) openNamespace(name string, nameNode, n *sitter.Node, inline bool) {
	parent := s.scope.declaring()
	info := parent.spaces[name]
	if info == nil {
		info = &namespaceInfo{name: name, scope: newScope(parent)}
		parent.spaces[name] = info
		if name == "" || inline {
			parent.usings = append(parent.usings, info.scope)
		}
	}
	locNode := nameNode
	if locNode == nil {
		locNode = n
	}
	d := s.newDecl(name, locNode, &cdecl.OtherBody{What: "namespace"})
	ctx := cdecl.NewContext(cdecl.ContextNamespace, name, s.ctx, d)
	d.Inner = ctx
	if info.first == nil {
		info.first = ctx
	}
	s.ctx, s.scope = ctx, info.scope
}

func (s *sema) namespaceAlias(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	var target *sitter.Node
	for _, c := range treesitter.NamedChildren(n) {
		if !treesitter.SameNode(c, nameNode) {
			target = c
		}
	}
	if nameNode == nil || target == nil {
		return
	}
	info := s.resolveNamespacePath(s.text(target))
	if info == nil {
		s.errorf(target, "expected namespace name")
		return
	}
	s.scope.declaring().spaces[s.text(nameNode)] = info
}

func (s *sema) usingDeclaration(n *sitter.Node) {
	text := s.text(n)
	target := n.NamedChild(n.NamedChildCount() - 1)
	if target == nil {
		return
	}
	path := s.text(target)
	if strings.Contains(text, "namespace") {
		info := s.resolveNamespacePath(path)
		if info == nil {
			s.errorf(target, "expected namespace name")
			return
		}
		sc := s.scope.declaring()
		sc.usings = append(sc.usings, info.scope)
		return
	}
	// using ns::name: bring the named type into this scope.
	sc, last, ok := s.resolveQualifier(path)
	if !ok || sc == nil {
		return
	}
	if sym := sc.findName(last, map[*scope]bool{}); sym != nil {
		s.declareName(last, sym)
	}
	if t := sc.findTag(last, map[*scope]bool{}); t != nil {
		s.tagScope().tags[last] = t
	}
}

// resolveNamespacePath resolves "a::b::c" or "::a" to a namespace.
func (s *sema) resolveNamespacePath(path string) *namespaceInfo {
	parts := strings.Split(strings.ReplaceAll(path, " ", ""), "::")
	var info *namespaceInfo
	start := 0
	if parts[0] == "" {
		start = 1
		if len(parts) < 2 {
			return nil
		}
		info = s.global.findSpace(parts[1], map[*scope]bool{})
		start = 2
	} else {
		info = s.lookupSpace(parts[0])
		start = 1
	}
	for _, p := range parts[start:] {
		if info == nil {
			return nil
		}
		info = info.scope.findSpace(p, map[*scope]bool{})
	}
	return info
}

// resolveQualifier resolves every segment of "a::b::name" but the last.
// It returns the scope to look the last segment up in.
func (s *sema) resolveQualifier(path string) (*scope, string, bool) {
	parts := strings.Split(strings.ReplaceAll(path, " ", ""), "::")
	last := parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	if len(parts) == 0 {
		return nil, last, true
	}

	var sc *scope
	i := 0
	if parts[0] == "" {
		sc = s.global
		i = 1
	}
	for ; i < len(parts); i++ {
		p := parts[i]
		if strings.ContainsAny(p, "<>") {
			return nil, last, false
		}
		var found *scope
		if sc == nil {
			if ns := s.lookupSpace(p); ns != nil {
				found = ns.scope
			} else if _, t := s.lookupTypeOrTag(p); t != nil {
				found = s.recordScopes[t]
			}
		} else {
			if ns := sc.findSpace(p, map[*scope]bool{}); ns != nil {
				found = ns.scope
			} else if t := sc.findTag(p, map[*scope]bool{}); t != nil {
				found = s.recordScopes[t]
			}
		}
		if found == nil {
			return nil, last, false
		}
		sc = found
	}
	return sc, last, true
}

func (s *sema) lookupTypeOrTag(name string) (*symbol, *cdecl.TagSymbol) {
	sym, tag := s.lookupType(name)
	if sym == nil && tag == nil {
		tag = s.lookupTag(name)
	}
	if sym != nil && sym.kind == symTypedef {
		if d := cdecl.Q(&cdecl.TypedefType{Decl: sym.decl}).AsTagDecl(); d != nil {
			switch b := d.Body.(type) {
			case *cdecl.RecordBody:
				return sym, b.Symbol
			case *cdecl.EnumBody:
				return sym, b.Symbol
			}
		}
	}
	return sym, tag
}

func (s *sema) templateDeclaration(n *sitter.Node) {
	params := n.ChildByFieldName("parameters")
	sc := newScope(s.scope)
	sc.template = true
	for _, p := range treesitter.NamedChildren(params) {
		if name := templateParamName(p, s.src); name != "" {
			sc.names[name] = &symbol{kind: symDependent}
		}
	}

	savedScope := s.scope
	s.scope = sc
	s.templated++
	defer func() {
		s.scope = savedScope
		s.templated--
	}()

	for _, c := range treesitter.NamedChildren(n) {
		if params != nil && treesitter.SameNode(c, params) {
			continue
		}
		if c.Kind() == "requires_clause" {
			continue
		}
		s.item(c)
	}
}

func templateParamName(p *sitter.Node, src []byte) string {
	switch p.Kind() {
	case "type_parameter_declaration", "variadic_type_parameter_declaration", "optional_type_parameter_declaration",
		"template_template_parameter_declaration":
		for _, c := range treesitter.NamedChildren(p) {
			if c.Kind() == "type_identifier" {
				return treesitter.NodeText(c, src)
			}
		}
	case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		if d := p.ChildByFieldName("declarator"); d != nil {
			return treesitter.NodeText(innermostName(d), src)
		}
	}
	return ""
}

func (s *sema) aliasDeclaration(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	td := n.ChildByFieldName("type")
	if nameNode == nil || td == nil {
		return
	}
	q := s.typeDescriptor(td)
	aliased := q
	d := s.newDecl(s.text(nameNode), nameNode, &cdecl.OtherBody{What: "alias", Aliased: &aliased})
	if hasDeclError(n) {
		d.Invalid = true
	}
	s.declareName(d.Name, &symbol{kind: symTypedef, decl: d})
}

// typeDefinition handles typedef declarations, one Typedef per declarator.
func (s *sema) typeDefinition(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	spec := s.specifiers(n, typeNode, specTypedef)
	for _, dn := range declaratorChildren(n, typeNode, false) {
		info := s.declarator(spec.typ, dn)
		if info.name == "" {
			continue
		}
		d := s.newDecl(info.name, info.nameNode, &cdecl.TypedefBody{Underlying: info.typ})
		d.Invalid = spec.invalid || info.invalid || hasDeclError(n)
		if prev := s.scope.declaring().names[info.name]; prev != nil && prev.kind == symTypedef {
			was := cdecl.Q(&cdecl.TypedefType{Decl: prev.decl}).Desugar()
			if was.Spelling(s.policy) != info.typ.Desugar().Spelling(s.policy) {
				s.errorf(info.nameNode, "typedef redefinition with different types ('%s' vs '%s')",
					info.typ.Spelling(s.policy), was.Spelling(s.policy))
				d.Invalid = true
			}
		}
		if align := s.alignAttribute(n); align > 0 {
			s.typedefAlign[d] = align
		}
		s.nameAnonymousTag(info.typ, spec, d.Name)
		s.declareName(d.Name, &symbol{kind: symTypedef, decl: d})
	}
}

// nameAnonymousTag gives an unnamed tag defined in a typedef the typedef's
// name for printing, as in "typedef struct { ... } T;".
func (s *sema) nameAnonymousTag(q cdecl.QualType, spec specInfo, name string) {
	if spec.defined == nil || spec.defined.Name != "" || spec.defined.TypedefName != "" {
		return
	}
	if q.Type == spec.typ.Type {
		spec.defined.TypedefName = name
	}
}

// declaration handles variables and function declarations.
func (s *sema) declaration(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	spec := s.specifiers(n, typeNode, specDeclaration)
	for _, dn := range declaratorChildren(n, typeNode, false) {
		info := s.declarator(spec.typ, dn)
		if info.name == "" {
			continue
		}
		if _, ok := info.typ.Desugar().Type.(*cdecl.FunctionType); ok {
			d := s.functionDecl(info, spec, false)
			if d != nil && (spec.invalid || hasDeclError(n)) {
				d.Invalid = true
			}
			continue
		}
		s.variable(info, spec)
	}
}

func (s *sema) variable(info declInfo, spec specInfo) {
	if strings.Contains(info.name, "::") {
		return
	}
	sym := &symbol{kind: symValue, typ: info.typ}
	if s.cxx && (info.typ.Const || spec.constexpr) && info.init != nil {
		if v, ok := s.evalConst(info.init); ok {
			sym = &symbol{kind: symConstant, value: v, typ: info.typ}
		}
	}
	s.declareName(info.name, sym)
}

func (s *sema) functionDefinition(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	spec := s.specifiers(n, typeNode, specDeclaration)
	dn := n.ChildByFieldName("declarator")
	if dn == nil {
		return
	}
	info := s.declarator(spec.typ, declaratorNode{node: dn})
	if info.name == "" {
		return
	}
	if _, ok := info.typ.Desugar().Type.(*cdecl.FunctionType); !ok {
		s.errorf(dn, "expected function declarator")
		return
	}
	d := s.functionDecl(info, spec, true)
	if d != nil && (spec.invalid || hasDeclError(n) || (typeNode != nil && hasDeclError(typeNode))) {
		d.Invalid = true
	}
}

// functionDecl creates a Function declaration. Qualified names are
// out-of-line definitions of members or namespace functions.
func (s *sema) functionDecl(info declInfo, spec specInfo, definition bool) *cdecl.Decl {
	ft := info.typ.Desugar().Type.(*cdecl.FunctionType)
	body := &cdecl.FunctionBody{
		Result:     ft.Result,
		Variadic:   ft.Variadic,
		Prototyped: ft.Prototyped,
		Definition: definition,
	}
	for i, p := range ft.Params {
		name := ""
		if i < len(info.paramNames) {
			name = info.paramNames[i]
		}
		body.Params = append(body.Params, cdecl.Param{Name: name, Type: p})
	}

	ctx := s.ctx
	method := s.scope.declaring().record && !spec.friend
	qual, name := qualifiedOwner(info.name)
	if qual != "" {
		if ns := s.resolveNamespacePath(qual); ns != nil && ns.first != nil {
			ctx = ns.first
		} else {
			method = true
		}
	}
	if spec.friend {
		ctx = s.fileContext()
	}

	d := s.newDeclIn(ctx, name, info.nameNode, body)
	d.Method = method
	d.Invalid = info.invalid
	if method {
		s.noteMethod(d, spec)
	}
	if !method && !strings.Contains(info.name, "::") {
		s.declareName(name, &symbol{kind: symValue, decl: d, typ: info.typ})
	}
	return d
}
