package frontend

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

func TestEnumIntegerType(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		args     []string
		integer  string
		values   []int64
		complete bool
	}{
		{
			name:     "negative values use int",
			src:      "enum E { A, B = 5, C, NEG = -1 };",
			integer:  "int",
			values:   []int64{0, 5, 6, -1},
			complete: true,
		},
		{
			name:     "non-negative values use unsigned int",
			src:      "enum E { A = 1, B = 2 };",
			integer:  "unsigned int",
			values:   []int64{1, 2},
			complete: true,
		},
		{
			name:     "value beyond int",
			src:      "enum E { BIG = 0x80000000 };",
			integer:  "unsigned int",
			values:   []int64{0x80000000},
			complete: true,
		},
		{
			name:     "value beyond unsigned int",
			src:      "enum E { HUGE = 0x100000000 };",
			integer:  "unsigned long",
			values:   []int64{0x100000000},
			complete: true,
		},
		{
			name:     "negative value beyond int",
			src:      "enum E { LOW = -2147483649 };",
			integer:  "long",
			values:   []int64{-2147483649},
			complete: true,
		},
		{
			name:     "packed enum",
			src:      "enum E { P1 = 1, P2 = 200 } __attribute__((packed));",
			integer:  "unsigned char",
			values:   []int64{1, 200},
			complete: true,
		},
		{
			name:     "packed enum with negative value",
			src:      "enum E { M = -1, N = 1000 } __attribute__((packed));",
			integer:  "short",
			values:   []int64{-1, 1000},
			complete: true,
		},
		{
			name:     "windows keeps int",
			src:      "enum E { W = 1 };",
			args:     []string{"-target", "x86_64-pc-windows-msvc"},
			integer:  "int",
			values:   []int64{1},
			complete: true,
		},
		{
			name:     "enumerators refer to earlier ones",
			src:      "enum E { X = 2, Y = X << 3, Z = Y | 1 };",
			integer:  "unsigned int",
			values:   []int64{2, 16, 17},
			complete: true,
		},
		{
			name:     "sizeof alignof and offsetof",
			src:      "#include <stddef.h>\nstruct OS { char a; int b; };\nenum E { SP = sizeof(void *), SL = sizeof(long double), AD = _Alignof(double), OFF = offsetof(struct OS, b) };",
			integer:  "unsigned int",
			values:   []int64{8, 16, 8, 4},
			complete: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu := mustCompile(t, tt.src, tt.args...)
			eb := enumBody(t, tu, "E")
			assert.Equal(t, tt.integer, eb.IntegerType.Spelling(tu.Policy))
			assert.False(t, eb.Fixed)
			assert.Equal(t, tt.complete, eb.Complete)
			values := make([]int64, 0, len(eb.Enumerators))
			for _, e := range eb.Enumerators {
				values = append(values, e.Value)
			}
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestFunctionDeclarations(t *testing.T) {
	src := "int f(int a[4], char *s, ...);\nvoid g(void);\nint h();\nstatic inline int sq(int x) { return x * x; }\n"
	tu := mustCompile(t, src)

	f := findDecl(t, tu, "f", cdecl.KindFunction)
	fb := f.Body.(*cdecl.FunctionBody)
	require.Len(t, fb.Params, 2)
	assert.Equal(t, "a", fb.Params[0].Name)
	assert.Equal(t, "int *", fb.Params[0].Type.Spelling(tu.Policy))
	assert.Equal(t, "char *", fb.Params[1].Type.Spelling(tu.Policy))
	assert.True(t, fb.Variadic)
	assert.True(t, fb.Prototyped)
	assert.False(t, fb.Definition)
	assert.False(t, f.Method)

	g := findDecl(t, tu, "g", cdecl.KindFunction).Body.(*cdecl.FunctionBody)
	assert.Empty(t, g.Params)
	assert.True(t, g.Prototyped)
	assert.Equal(t, "void", g.Result.Spelling(tu.Policy))

	h := findDecl(t, tu, "h", cdecl.KindFunction).Body.(*cdecl.FunctionBody)
	assert.False(t, h.Prototyped)

	sq := findDecl(t, tu, "sq", cdecl.KindFunction).Body.(*cdecl.FunctionBody)
	assert.True(t, sq.Definition)
}

func TestTypedefs(t *testing.T) {
	src := "typedef struct { int x; } T;\ntypedef unsigned long size_type, *size_ptr;\ntypedef int U;\ntypedef int U;\n"
	tu := mustCompile(t, src)

	rec := findDecl(t, tu, "", cdecl.KindRecord)
	assert.Equal(t, "T", rec.TypedefName)

	sp := findDecl(t, tu, "size_ptr", cdecl.KindTypedef)
	assert.Equal(t, "size_type *", sp.Body.(*cdecl.TypedefBody).Underlying.Spelling(tu.Policy))
	st := findDecl(t, tu, "size_type", cdecl.KindTypedef)
	assert.Equal(t, "unsigned long", st.Body.(*cdecl.TypedefBody).Underlying.Spelling(tu.Policy))
}

func TestImplicitTagDeclarations(t *testing.T) {
	tu := mustCompile(t, "struct Later *p;\nstruct Outer { struct Inner { int x; } in; };\nstruct Inner again;\n")

	later := findDecl(t, tu, "Later", cdecl.KindRecord)
	assert.False(t, later.Body.(*cdecl.RecordBody).Complete)
	assert.Equal(t, cdecl.ContextTranslationUnit, later.Context.Kind)

	var inners int
	cdecl.Walk(tu.Context, func(d *cdecl.Decl) bool {
		if d.Name == "Inner" && d.Kind() == cdecl.KindRecord {
			inners++
		}
		return true
	})
	assert.Equal(t, 1, inners)
}

func TestDeclarationIDsAndLocations(t *testing.T) {
	src := "\nstruct A { int a; };\nstruct B { int b; };\n"
	first := mustCompile(t, src)
	second := mustCompile(t, src)

	a := findDecl(t, first, "A", cdecl.KindRecord)
	b := findDecl(t, first, "B", cdecl.KindRecord)
	assert.Equal(t, cdecl.DeclID(5), a.ID)
	assert.Equal(t, cdecl.DeclID(6), b.ID)
	assert.Equal(t, a.ID, findDecl(t, second, "A", cdecl.KindRecord).ID)

	assert.Equal(t, StdinFileName, a.Loc.File)
	assert.Equal(t, 2, a.Loc.Line)
	assert.Equal(t, 3, b.Loc.Line)
}

func TestIncludedDeclarations(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/work/inc/lib.h", []byte("#pragma once\nstruct Lib { int v; };\n"), 0o644))

	res := compileIn(t, fsys, "#include <stddef.h>\n#include \"lib.h\"\n#include \"lib.h\"\nstruct Use { struct Lib l; size_t n; };\n", "-I/work/inc")
	require.NoError(t, res.err, res.stderr)

	lib := findDecl(t, res.tu, "Lib", cdecl.KindRecord)
	assert.Equal(t, "/work/inc/lib.h", lib.Loc.File)
	assert.Equal(t, 2, lib.Loc.Line)

	rb := recordBody(t, res.tu, "Use")
	assert.Equal(t, []fieldLayout{{"l", 0, 32}, {"n", 64, 64}}, layoutOf(rb))
}

func TestSemanticDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		invalid string
	}{
		{
			name:    "incomplete field",
			src:     "struct Inc;\nstruct Bad { struct Inc x; };",
			want:    "header.h:2:25: error: field has incomplete type 'struct Inc'",
			invalid: "Bad",
		},
		{
			name: "unknown type name",
			src:  "foo_t x;",
			want: "header.h:1:1: error: unknown type name 'foo_t'",
		},
		{
			name:    "flexible array not at end",
			src:     "struct G { char d[]; int n; };",
			want:    "error: flexible array member 'd' with type 'char[]' is not at the end of struct",
			invalid: "G",
		},
		{
			name: "bit-field wider than its type",
			src:  "struct BW { char c : 9; };",
			want: "error: width of bit-field 'c' (9 bits) exceeds the width of its type (8 bits)",
		},
		{
			name: "typedef redefinition",
			src:  "typedef int T;\ntypedef long T;",
			want: "header.h:2:14: error: typedef redefinition with different types ('long' vs 'int')",
		},
		{
			name: "negative array size",
			src:  "struct N { int a[-1]; };",
			want: "error: array has negative size",
		},
		{
			name:    "array size overflows",
			src:     "struct S { int a[0x7fffffffffffffff]; };",
			want:    "header.h:1:18: error: array is too large (9223372036854775807 elements)",
			invalid: "S",
		},
		{
			name:    "array size above int64",
			src:     "struct U { char a[0xffffffffffffffff]; };",
			want:    "error: array is too large (18446744073709551615 elements)",
			invalid: "U",
		},
		{
			name: "missing semicolon",
			src:  "struct Broken { int a; }\nint after",
			want: "error: expected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileSource(t, tt.src)
			var ce *CompileError
			require.ErrorAs(t, res.err, &ce)
			assert.False(t, ce.Fatal)
			assert.Contains(t, res.stderr, tt.want)
			require.NotNil(t, res.tu, "consumers still run after errors")
			if tt.invalid != "" {
				assert.True(t, findDecl(t, res.tu, tt.invalid, cdecl.KindRecord).Invalid)
			}
		})
	}
}

func TestAnonymousStructWarning(t *testing.T) {
	res := compileSource(t, "struct { int x; };\n")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "header.h:1:1: warning: declaration does not declare anything")
	assert.Contains(t, res.stderr, "1 warning generated.")
}

func TestFunctionBodiesAreSkipped(t *testing.T) {
	tu := mustCompile(t, "int f(void) {\n  struct Local { int a; } l;\n  return sizeof l;\n}\nstruct After { int b; };\n")
	rb := recordBody(t, tu, "After")
	assert.Equal(t, int64(32), rb.SizeBits)
	assert.Equal(t, cdecl.ContextTranslationUnit, findDecl(t, tu, "After", cdecl.KindRecord).Context.Kind)
}
