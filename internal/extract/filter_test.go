package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

func TestEligible(t *testing.T) {
	b := newTreeBuilder("/src/a.h")
	tu := b.root()

	named := b.namespace(tu, "ns")
	anon := b.namespace(tu, "")
	nestedInAnon := b.namespace(anon, "inner")

	linkDecl := b.add(tu, "", &cdecl.OtherBody{What: "linkage specification"})
	linkDecl.Inner = cdecl.NewContext(cdecl.ContextLinkageSpec, "", tu, linkDecl)

	outer := b.record(tu, "Outer", cdecl.TagStruct, true)

	fileScope := b.add(tu, "T", &cdecl.TypedefBody{Underlying: cdecl.Q(intType)})
	inNamed := b.add(named, "N", &cdecl.TypedefBody{Underlying: cdecl.Q(intType)})
	inAnon := b.add(anon, "A", &cdecl.TypedefBody{Underlying: cdecl.Q(intType)})
	inNestedNamed := b.add(nestedInAnon, "I", &cdecl.TypedefBody{Underlying: cdecl.Q(intType)})
	inLinkage := b.add(linkDecl.Inner, "f", &cdecl.FunctionBody{Result: cdecl.Q(intType)})
	inRecord := b.record(outer.Inner, "Inner", cdecl.TagStruct, true)

	templated := b.add(tu, "X", &cdecl.RecordBody{Complete: true})
	templated.Templated = true
	method := b.add(tu, "m", &cdecl.FunctionBody{Result: cdecl.Q(voidType)})
	method.Method = true
	implicit := b.add(tu, "__builtin_va_list", &cdecl.TypedefBody{Underlying: cdecl.Q(charType)})
	implicit.Implicit = true
	invalid := b.add(tu, "bad", &cdecl.TypedefBody{Underlying: cdecl.Q(intType)})
	invalid.Invalid = true

	tests := []struct {
		name string
		decl *cdecl.Decl
		want bool
	}{
		{"file scope", fileScope, true},
		{"named namespace", inNamed, false},
		{"anonymous namespace", inAnon, true},
		{"named namespace inside anonymous", inNestedNamed, false},
		{"extern C block", inLinkage, true},
		{"nested record", inRecord, false},
		{"templated", templated, false},
		{"member function", method, false},
		{"implicit", implicit, false},
		{"invalid", invalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Eligible(tt.decl)
			assert.Equal(t, tt.want, got)
			if got {
				assert.Empty(t, reason)
			} else {
				assert.NotEmpty(t, reason)
			}
		})
	}
}
