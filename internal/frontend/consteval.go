package frontend

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

// alternativeTokens maps the C++ operator keywords to their symbols.
var alternativeTokens = map[string]string{
	"and": "&&", "or": "||", "not": "!", "xor": "^",
	"bitand": "&", "bitor": "|", "compl": "~", "not_eq": "!=",
}

// evalConst evaluates an integer constant expression as used in array
// bounds, bit-field widths, enumerators and alignments.
func (s *sema) evalConst(n *sitter.Node) (ppValue, bool) {
	c := &constEval{s: s, ops: &ppExpr{}}
	v := c.eval(n)
	if c.failed || c.ops.err != nil {
		return ppValue{}, false
	}
	return v, true
}

type constEval struct {
	s      *sema
	ops    *ppExpr
	failed bool
}

func (c *constEval) fail() ppValue {
	c.failed = true
	return ppValue{}
}

func opText(n *sitter.Node, src []byte) string {
	op := strings.TrimSpace(treesitter.NodeText(n.ChildByFieldName("operator"), src))
	if alt, ok := alternativeTokens[op]; ok {
		return alt
	}
	return op
}

func (c *constEval) eval(n *sitter.Node) ppValue {
	if n == nil || c.failed {
		return c.fail()
	}
	s := c.s
	switch n.Kind() {
	case "number_literal":
		// The grammar may fold a leading sign into the literal.
		text := s.text(n)
		neg := strings.HasPrefix(text, "-")
		lit, err := ParseIntLiteral(strings.TrimLeft(text, "+-"))
		if err != nil {
			return c.fail()
		}
		v := ppValue{v: int64(lit.Value), unsigned: lit.Unsigned || lit.Value > 1<<63-1}
		if neg {
			v.v = -v.v
		}
		return v

	case "char_literal":
		v, err := ParseCharLiteral(s.text(n))
		if err != nil {
			return c.fail()
		}
		return ppValue{v: v}

	case "true":
		return ppValue{v: 1}
	case "false", "null", "nullptr":
		return ppValue{}

	case "identifier":
		if sym := s.lookupName(s.text(n)); sym != nil && (sym.kind == symEnumerator || sym.kind == symConstant) {
			return sym.value
		}
		return c.fail()

	case "qualified_identifier":
		if sc, last, ok := s.resolveQualifier(compactSpelling(s.text(n))); ok && sc != nil {
			if sym := sc.findName(last, map[*scope]bool{}); sym != nil && (sym.kind == symEnumerator || sym.kind == symConstant) {
				return sym.value
			}
		}
		return c.fail()

	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return c.fail()
		}
		return c.eval(n.NamedChild(0))

	case "comma_expression":
		c.eval(n.ChildByFieldName("left"))
		return c.eval(n.ChildByFieldName("right"))

	case "unary_expression":
		v := c.eval(n.ChildByFieldName("argument"))
		switch opText(n, s.src) {
		case "-":
			return ppValue{v: -v.v, unsigned: v.unsigned}
		case "+":
			return v
		case "~":
			return ppValue{v: ^v.v, unsigned: v.unsigned}
		case "!":
			return boolValue(!v.truthy())
		}
		return c.fail()

	case "binary_expression":
		op := opText(n, s.src)
		lhs := c.eval(n.ChildByFieldName("left"))
		short := (op == "&&" && !lhs.truthy()) || (op == "||" && lhs.truthy())
		if short {
			c.ops.skip++
		}
		rhs := c.eval(n.ChildByFieldName("right"))
		if short {
			c.ops.skip--
		}
		if _, ok := ppPrecedence[op]; !ok {
			return c.fail()
		}
		return c.ops.apply(op, lhs, rhs)

	case "conditional_expression":
		cond := c.eval(n.ChildByFieldName("condition"))
		taken, other := n.ChildByFieldName("consequence"), n.ChildByFieldName("alternative")
		if !cond.truthy() {
			taken, other = other, taken
		}
		v := c.eval(taken)
		c.ops.skip++
		c.eval(other)
		c.ops.skip--
		return v

	case "cast_expression":
		q := s.typeDescriptor(n.ChildByFieldName("type"))
		return c.convert(c.eval(n.ChildByFieldName("value")), q)

	case "sizeof_expression":
		var q cdecl.QualType
		if td := n.ChildByFieldName("type"); td != nil {
			q = s.typeDescriptor(td)
		} else {
			var ok bool
			if q, ok = c.typeOf(n.ChildByFieldName("value")); !ok {
				return c.fail()
			}
		}
		size, ok := s.layouts.sizeOf(q)
		if !ok {
			s.errorf(n, "invalid application of 'sizeof' to an incomplete type '%s'", q.Spelling(s.policy))
			return c.fail()
		}
		return ppValue{v: size / 8, unsigned: true}

	case "alignof_expression":
		td := n.ChildByFieldName("type")
		if td == nil {
			return c.fail()
		}
		return ppValue{v: s.layouts.alignOf(s.typeDescriptor(td)) / 8, unsigned: true}

	case "offsetof_expression":
		return c.offsetOf(s.typeDescriptor(n.ChildByFieldName("type")), s.text(n.ChildByFieldName("member")))

	case "call_expression":
		switch s.text(n.ChildByFieldName("function")) {
		case "offsetof":
			args := treesitter.NamedChildren(n.ChildByFieldName("arguments"))
			if len(args) != 2 {
				return c.fail()
			}
			q, ok := c.typeOf(args[0])
			if !ok {
				return c.fail()
			}
			return c.offsetOf(q, compactSpelling(s.text(args[1])))
		}
		return c.fail()
	}
	return c.fail()
}

// convert applies a cast to an integer type.
func (c *constEval) convert(v ppValue, q cdecl.QualType) ppValue {
	if !c.s.isInteger(q) {
		return c.fail()
	}
	if b, ok := q.Desugar().Type.(*cdecl.BuiltinType); ok && (b.Name == "_Bool" || b.Name == "bool") {
		return boolValue(v.truthy())
	}
	width, signed := c.s.integerShape(q)
	return ppValue{v: truncate(v.v, width, signed), unsigned: !signed && width >= 64}
}

// typeOf resolves the operand of sizeof when it is written as an
// expression, or as a type name the grammar parsed as one.
func (c *constEval) typeOf(n *sitter.Node) (cdecl.QualType, bool) {
	s := c.s
	if n == nil {
		return cdecl.QualType{}, false
	}
	switch n.Kind() {
	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return cdecl.QualType{}, false
		}
		return c.typeOf(n.NamedChild(0))
	case "type_descriptor":
		return s.typeDescriptor(n), true
	case "identifier", "type_identifier", "primitive_type":
		name := s.text(n)
		sym, tag := s.lookupType(name)
		switch {
		case sym != nil && sym.kind == symTypedef:
			return cdecl.Q(&cdecl.TypedefType{Decl: sym.decl}), true
		case tag != nil:
			return s.tagType(tag, "", false), true
		case sym != nil && sym.kind == symValue && !sym.typ.IsNull():
			return sym.typ, true
		case sym != nil && (sym.kind == symEnumerator || sym.kind == symConstant):
			return cdecl.Q(s.target.Builtin("int")), true
		}
		if b := s.builtinKeyword(name); b != nil {
			return cdecl.Q(b), true
		}
	case "subscript_expression":
		q, ok := c.typeOf(n.ChildByFieldName("argument"))
		if !ok {
			return q, false
		}
		switch t := q.Desugar().Type.(type) {
		case *cdecl.ArrayType:
			return t.Elem, true
		case *cdecl.PointerType:
			return t.Pointee, true
		}
	case "pointer_expression":
		if opText(n, s.src) != "*" {
			return cdecl.Q(&cdecl.PointerType{}), true
		}
		q, ok := c.typeOf(n.ChildByFieldName("argument"))
		if !ok {
			return q, false
		}
		switch t := q.Desugar().Type.(type) {
		case *cdecl.ArrayType:
			return t.Elem, true
		case *cdecl.PointerType:
			return t.Pointee, true
		}
	case "number_literal":
		lit, err := ParseIntLiteral(strings.TrimLeft(s.text(n), "+-"))
		if err != nil {
			return cdecl.QualType{}, false
		}
		name := "int"
		switch {
		case lit.Longs >= 2:
			name = "long long"
		case lit.Longs == 1:
			name = "long"
		}
		if lit.Unsigned {
			name = "unsigned " + name
		}
		return cdecl.Q(s.target.Builtin(name)), true
	case "char_literal":
		if s.cxx {
			return cdecl.Q(s.target.Builtin("char")), true
		}
		return cdecl.Q(s.target.Builtin("int")), true
	case "string_literal":
		text := s.text(n)
		return cdecl.Q(&cdecl.ArrayType{Elem: cdecl.Q(s.target.Builtin("char")), Len: int64(stringLength(text)) + 1}), true
	case "cast_expression":
		return s.typeDescriptor(n.ChildByFieldName("type")), true
	case "sizeof_expression", "alignof_expression", "offsetof_expression":
		return cdecl.Q(s.target.Builtin("unsigned long")), true
	}
	return cdecl.QualType{}, false
}

// stringLength counts the characters of a plain string literal.
func stringLength(lit string) int {
	i := strings.IndexByte(lit, '"')
	if i < 0 || len(lit) < i+2 {
		return 0
	}
	body := lit[i+1 : len(lit)-1]
	n := 0
	for j := 0; j < len(body); j++ {
		if body[j] == '\\' && j+1 < len(body) {
			j++
			switch body[j] {
			case 'x':
				for j+1 < len(body) && strings.IndexByte("0123456789abcdefABCDEF", body[j+1]) >= 0 {
					j++
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				for k := 0; k < 2 && j+1 < len(body) && body[j+1] >= '0' && body[j+1] <= '7'; k++ {
					j++
				}
			}
		}
		n++
	}
	return n
}

// offsetOf evaluates offsetof(type, a.b) in bytes.
func (c *constEval) offsetOf(q cdecl.QualType, member string) ppValue {
	var total int64
	for _, part := range strings.Split(member, ".") {
		d := q.AsRecordDecl()
		if d == nil {
			return c.fail()
		}
		rb, ok := d.Body.(*cdecl.RecordBody)
		if !ok || !rb.Complete {
			return c.fail()
		}
		f, off, ok := findField(rb, strings.TrimSpace(part))
		if !ok {
			c.s.diags.Errorf(d.Loc, "no member named '%s' in '%s'", part, q.Spelling(c.s.policy))
			return c.fail()
		}
		if f.IsBitField() {
			c.s.diags.Errorf(d.Loc, "cannot compute offset of bit-field '%s'", f.Name)
			return c.fail()
		}
		total += off
		q = f.Type
	}
	return ppValue{v: total / 8, unsigned: true}
}

// findField looks a member up by name, descending into anonymous members.
func findField(rb *cdecl.RecordBody, name string) (*cdecl.Field, int64, bool) {
	for _, f := range rb.Fields {
		if f.Name == name {
			return f, f.OffsetBits, true
		}
		if f.Name != "" {
			continue
		}
		if d := f.Type.AsRecordDecl(); d != nil {
			if inner, ok := d.Body.(*cdecl.RecordBody); ok && inner.AnonymousMember {
				if g, off, ok := findField(inner, name); ok {
					return g, f.OffsetBits + off, true
				}
			}
		}
	}
	return nil, 0, false
}
