package cdecl

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy controls how type spellings are printed.
type Policy struct {
	CPlusPlus bool
}

// Spelling renders q the way a C compiler prints a type in diagnostics:
// "const char *", "int[4]", "int (*)(int, char)", "struct S".
func (q QualType) Spelling(p Policy) string {
	if q.Type == nil {
		return "<null type>"
	}
	return strings.TrimSpace(declarator(q, "", p))
}

func quals(q QualType) string {
	var parts []string
	if q.Const {
		parts = append(parts, "const")
	}
	if q.Volatile {
		parts = append(parts, "volatile")
	}
	if q.Restrict {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}

// declarator prints q around inner, the text that occupies the declarator
// position (empty for an abstract type).
func declarator(q QualType, inner string, p Policy) string {
	switch t := q.Type.(type) {
	case *PointerType:
		return declarator(t.Pointee, pointerPart("*", q, inner, t.Pointee), p)
	case *ReferenceType:
		op := "&"
		if t.RValue {
			op = "&&"
		}
		return declarator(t.Pointee, pointerPart(op, q, inner, t.Pointee), p)
	case *ArrayType:
		size := ""
		if !t.Incomplete {
			size = strconv.FormatInt(t.Len, 10)
		}
		return declarator(t.Elem, inner+"["+size+"]", p)
	case *FunctionType:
		return declarator(t.Result, inner+"("+paramList(t, p)+")", p)
	default:
		base := baseName(q.Type, p)
		if qs := quals(q); qs != "" {
			base = qs + " " + base
		}
		if inner == "" || strings.HasPrefix(inner, "[") {
			return base + inner
		}
		return base + " " + inner
	}
}

func pointerPart(op string, q QualType, inner string, pointee QualType) string {
	s := op
	if qs := quals(q); qs != "" {
		s += qs
		if inner != "" {
			s += " "
		}
	}
	s += inner
	switch pointee.Type.(type) {
	case *ArrayType, *FunctionType:
		s = "(" + s + ")"
	}
	return s
}

func paramList(t *FunctionType, p Policy) string {
	if len(t.Params) == 0 {
		if t.Variadic {
			return "..."
		}
		if t.Prototyped && !p.CPlusPlus {
			return "void"
		}
		return ""
	}
	parts := make([]string, 0, len(t.Params)+1)
	for _, param := range t.Params {
		parts = append(parts, param.Spelling(p))
	}
	if t.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func baseName(t Type, p Policy) string {
	switch t := t.(type) {
	case *BuiltinType:
		return t.Name
	case *TypedefType:
		return written(t.Qualifier, t.Decl.Name, p)
	case *DependentType:
		return t.Name
	case *RecordType:
		d := t.Decl()
		tag := t.Tag
		if rb, ok := d.Body.(*RecordBody); ok {
			tag = rb.Tag
		}
		return tagName(d, tag.Keyword(), t.Elaborated, t.Qualifier, p)
	case *EnumType:
		return tagName(t.Decl(), "enum", t.Elaborated, t.Qualifier, p)
	}
	return fmt.Sprintf("<%T>", t)
}

// written prefixes name with the nested-name-specifier it was written with.
// C has no such specifiers.
func written(qualifier, name string, p Policy) string {
	if !p.CPlusPlus {
		return name
	}
	return qualifier + name
}

func tagName(d *Decl, keyword string, elaborated bool, qualifier string, p Policy) string {
	name := d.Name
	if name == "" {
		name = d.TypedefName
	}
	if name == "" {
		what := "unnamed"
		if rb, ok := d.Body.(*RecordBody); ok && rb.AnonymousMember {
			what = "anonymous"
		}
		return fmt.Sprintf("(%s %s at %s)", what, keyword, d.Loc)
	}
	name = written(qualifier, name, p)
	if elaborated || !p.CPlusPlus {
		return keyword + " " + name
	}
	return name
}
