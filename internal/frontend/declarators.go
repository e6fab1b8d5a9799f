package frontend

import (
	"math"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

// declInfo is the result of applying one declarator to a base type.
type declInfo struct {
	name     string
	nameNode *sitter.Node
	typ      cdecl.QualType
	// paramNames are the parameter names of the function the declarator
	// declares, by position.
	paramNames []string
	init       *sitter.Node
	bitfield   *sitter.Node
	invalid    bool
}

var declaratorKinds = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
	"attributed_declarator":    true,
	"qualified_identifier":     true,
	"operator_name":            true,
	"destructor_name":          true,
	"template_function":        true,
	"type_identifier":          true,
	"primitive_type":           true,
}

// declaratorNode is a declarator with the bit-field clause that follows it.
type declaratorNode struct {
	node     *sitter.Node
	bitfield *sitter.Node
}

// declaratorChildren returns the declarators of a declaration, in order.
func declaratorChildren(n, typeNode *sitter.Node, field bool) []declaratorNode {
	var out []declaratorNode
	typedef := n.Kind() == "type_definition"
	for _, c := range treesitter.Children(n) {
		if field && c.Kind() == "=" {
			break
		}
		if c.Kind() == "bitfield_clause" {
			if len(out) > 0 && out[len(out)-1].bitfield == nil {
				out[len(out)-1].bitfield = c
			} else {
				out = append(out, declaratorNode{bitfield: c})
			}
			continue
		}
		if !c.IsNamed() || !declaratorKinds[c.Kind()] || treesitter.SameNode(c, typeNode) {
			continue
		}
		if field && c.Kind() == "identifier" {
			continue
		}
		if !typedef && (c.Kind() == "type_identifier" || c.Kind() == "primitive_type") {
			continue
		}
		out = append(out, declaratorNode{node: c})
	}
	return out
}

// declarator applies dn to base, outermost declarator first.
func (s *sema) declarator(base cdecl.QualType, dn declaratorNode) declInfo {
	info := declInfo{typ: base, bitfield: dn.bitfield}
	if dn.node != nil {
		s.applyDeclarator(&info, dn.node)
	}
	return info
}

func (s *sema) applyDeclarator(info *declInfo, n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "init_declarator":
		info.init = n.ChildByFieldName("value")
		s.applyDeclarator(info, n.ChildByFieldName("declarator"))

	case "pointer_declarator", "abstract_pointer_declarator":
		info.typ = s.pointerQualifiers(cdecl.Q(&cdecl.PointerType{Pointee: info.typ}), n)
		s.applyDeclarator(info, n.ChildByFieldName("declarator"))

	case "reference_declarator", "abstract_reference_declarator":
		rvalue := false
		var inner *sitter.Node
		for _, c := range treesitter.Children(n) {
			switch {
			case c.Kind() == "&&":
				rvalue = true
			case c.IsNamed():
				inner = c
			}
		}
		info.typ = cdecl.Q(&cdecl.ReferenceType{Pointee: info.typ, RValue: rvalue})
		s.applyDeclarator(info, inner)

	case "array_declarator", "abstract_array_declarator":
		arr := &cdecl.ArrayType{Elem: info.typ}
		if size := n.ChildByFieldName("size"); size == nil {
			arr.Incomplete = true
		} else if v, ok := s.evalConst(size); !ok {
			s.errorf(size, "array size is not an integer constant expression")
			info.invalid = true
		} else if v.v < 0 && !v.unsigned {
			s.errorf(size, "array has negative size")
			info.invalid = true
		} else if s.arrayTooLarge(info.typ, v) {
			s.errorf(size, "array is too large (%s elements)", strconv.FormatUint(uint64(v.v), 10))
			info.invalid = true
		} else {
			arr.Len = v.v
		}
		info.typ = cdecl.Q(arr)
		s.applyDeclarator(info, n.ChildByFieldName("declarator"))

	case "function_declarator", "abstract_function_declarator":
		ft, names := s.parameters(n.ChildByFieldName("parameters"))
		ft.Result = info.typ
		for _, c := range treesitter.NamedChildren(n) {
			if c.Kind() == "trailing_return_type" {
				for _, td := range treesitter.NamedChildren(c) {
					if td.Kind() == "type_descriptor" {
						ft.Result = s.typeDescriptor(td)
					}
				}
			}
		}
		info.typ = cdecl.Q(ft)
		inner := n.ChildByFieldName("declarator")
		if isNameDeclarator(unwrapDeclarator(inner)) {
			info.paramNames = names
		}
		s.applyDeclarator(info, inner)

	case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
		for _, c := range treesitter.NamedChildren(n) {
			if c.Kind() != "attribute_declaration" && c.Kind() != "attribute_specifier" {
				s.applyDeclarator(info, c)
				return
			}
		}

	case "identifier", "field_identifier", "type_identifier", "primitive_type",
		"operator_name", "destructor_name", "template_function":
		info.name = s.text(n)
		info.nameNode = n

	case "qualified_identifier":
		info.name = compactSpelling(s.text(n))
		info.nameNode = innermostName(n)

	case "structured_binding_declarator":
		// Structured bindings declare no types.
	}
}

func unwrapDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil && (n.Kind() == "parenthesized_declarator" || n.Kind() == "attributed_declarator") {
		n = n.NamedChild(0)
	}
	return n
}

func isNameDeclarator(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "identifier", "field_identifier", "qualified_identifier", "operator_name",
		"destructor_name", "template_function", "type_identifier":
		return true
	}
	return false
}

// innermostName returns the node naming what a declarator declares.
func innermostName(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Kind() {
		case "identifier", "field_identifier", "type_identifier", "operator_name", "destructor_name":
			return n
		case "qualified_identifier":
			if name := n.ChildByFieldName("name"); name != nil {
				n = name
				continue
			}
			return n
		}
		if d := n.ChildByFieldName("declarator"); d != nil {
			n = d
			continue
		}
		if n.NamedChildCount() == 0 {
			return n
		}
		n = n.NamedChild(n.NamedChildCount() - 1)
	}
	return nil
}

// parameters builds a function type from a parameter list and returns the
// parameter names alongside it.
func (s *sema) parameters(plist *sitter.Node) (*cdecl.FunctionType, []string) {
	ft := &cdecl.FunctionType{Prototyped: true}
	var names []string
	var params []*sitter.Node
	for _, c := range treesitter.NamedChildren(plist) {
		if c.Kind() != "comment" {
			params = append(params, c)
		}
	}
	if len(params) == 0 {
		ft.Prototyped = s.cxx || s.isC23()
		return ft, nil
	}

	for _, p := range params {
		switch p.Kind() {
		case "variadic_parameter":
			ft.Variadic = true
			continue
		case "identifier":
			// K&R identifier list.
			ft.Prototyped = false
			ft.Params = append(ft.Params, cdecl.Q(s.target.Builtin("int")))
			names = append(names, s.text(p))
			continue
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		default:
			continue
		}
		typeNode := p.ChildByFieldName("type")
		spec := s.specifiers(p, typeNode, specParam)
		q, name := spec.typ, ""
		if d := p.ChildByFieldName("declarator"); d != nil {
			info := s.declarator(spec.typ, declaratorNode{node: d})
			q, name = info.typ, info.name
		}
		if len(params) == 1 && name == "" && isVoid(q) {
			return ft, nil
		}
		ft.Params = append(ft.Params, q.Decay())
		names = append(names, name)
	}
	if treesitter.HasChildKind(plist, "...") {
		ft.Variadic = true
	}
	return ft, names
}

func isVoid(q cdecl.QualType) bool {
	b, ok := q.Desugar().Type.(*cdecl.BuiltinType)
	return ok && b.Void && !q.Const && !q.Volatile
}

// qualifiedOwner splits "A::B::f" into "A::B" and "f".
func qualifiedOwner(name string) (string, string) {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[:i], name[i+2:]
	}
	return "", name
}

// arrayTooLarge reports whether n elements of elem overflow the bit sizes
// the layout engine works in.
func (s *sema) arrayTooLarge(elem cdecl.QualType, n ppValue) bool {
	if n.v < 0 {
		return true
	}
	es, ok := s.layouts.sizeOf(elem)
	return ok && es > 0 && n.v > math.MaxInt64/es
}
