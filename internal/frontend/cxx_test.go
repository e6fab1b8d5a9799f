package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

func compileCXX(t *testing.T, src string) *cdecl.TranslationUnit {
	t.Helper()
	return mustCompile(t, src, "-x", "c++")
}

func TestScopedEnums(t *testing.T) {
	tu := compileCXX(t, "enum class Color : unsigned char { Red, Green = 4 };\nenum class K { A, B };\nenum Plain { P = -3 };\n")

	d := findDecl(t, tu, "Color", cdecl.KindEnum)
	eb := d.Body.(*cdecl.EnumBody)
	assert.True(t, eb.Fixed)
	assert.True(t, eb.Scoped)
	assert.Equal(t, "unsigned char", eb.IntegerType.Spelling(tu.Policy))
	assert.Equal(t, []cdecl.Enumerator{{Name: "Red", Value: 0}, {Name: "Green", Value: 4}}, eb.Enumerators)
	require.NotNil(t, d.Inner)
	assert.Equal(t, cdecl.ContextEnum, d.Inner.Kind)
	assert.True(t, d.Inner.Scoped)

	k := enumBody(t, tu, "K")
	assert.True(t, k.Fixed)
	assert.Equal(t, "int", k.IntegerType.Spelling(tu.Policy))

	plain := enumBody(t, tu, "Plain")
	assert.False(t, plain.Fixed)
	assert.False(t, plain.Scoped)
	assert.Equal(t, "int", plain.IntegerType.Spelling(tu.Policy))
}

func TestNamespacesAndQualifiedNames(t *testing.T) {
	src := `namespace ns { struct A { int v; }; }
namespace lib { struct P { short x; }; }
using namespace lib;
struct Outer { struct In { char c; }; };
struct B { ns::A a; P p; Outer::In in; };
`
	tu := compileCXX(t, src)

	a := findDecl(t, tu, "A", cdecl.KindRecord)
	assert.Equal(t, cdecl.ContextNamespace, a.Context.Kind)
	assert.Equal(t, "ns", a.Context.Name)

	rb := recordBody(t, tu, "B")
	require.Len(t, rb.Fields, 3)
	assert.Equal(t, "ns::A", rb.Fields[0].Type.Spelling(tu.Policy))
	assert.Equal(t, "P", rb.Fields[1].Type.Spelling(tu.Policy))
	assert.Equal(t, []fieldLayout{{"a", 0, 32}, {"p", 32, 16}, {"in", 48, 8}}, layoutOf(rb))
	assert.Equal(t, int64(64), rb.SizeBits)
}

func TestMethods(t *testing.T) {
	src := `struct M {
  M();
  void run();
  int get() const;
  static int count;
  int value;
};
void M::run() {}
namespace n { int f(); }
int n::f() { return 1; }
`
	tu := compileCXX(t, src)

	rb := recordBody(t, tu, "M")
	assert.Equal(t, []fieldLayout{{"value", 0, 32}}, layoutOf(rb))

	get := findDecl(t, tu, "get", cdecl.KindFunction)
	assert.True(t, get.Method)
	assert.Equal(t, cdecl.ContextRecord, get.Context.Kind)

	run := findDecl(t, tu, "run", cdecl.KindFunction)
	assert.True(t, run.Method)
	assert.True(t, run.Body.(*cdecl.FunctionBody).Definition)
	assert.Equal(t, cdecl.ContextTranslationUnit, run.Context.Kind)

	f := findDecl(t, tu, "f", cdecl.KindFunction)
	assert.False(t, f.Method)
	assert.Equal(t, cdecl.ContextNamespace, f.Context.Kind)
}

func TestLinkageSpecification(t *testing.T) {
	tu := compileCXX(t, "extern \"C\" {\nstruct L { int a; };\nint lf(int);\n}\nextern \"C\" int single(void);\n")

	l := findDecl(t, tu, "L", cdecl.KindRecord)
	assert.Equal(t, cdecl.ContextLinkageSpec, l.Context.Kind)
	lf := findDecl(t, tu, "lf", cdecl.KindFunction)
	assert.Equal(t, cdecl.ContextLinkageSpec, lf.Context.Kind)
	single := findDecl(t, tu, "single", cdecl.KindFunction)
	assert.Equal(t, cdecl.ContextLinkageSpec, single.Context.Kind)
	assert.Empty(t, single.Body.(*cdecl.FunctionBody).Params)
}

func TestTemplates(t *testing.T) {
	tu := compileCXX(t, "template <typename T>\nstruct Box { T v; int n; };\nstruct Plain { int x; };\n")

	box := findDecl(t, tu, "Box", cdecl.KindRecord)
	assert.True(t, box.Templated)
	assert.False(t, box.Invalid)
	assert.False(t, findDecl(t, tu, "Plain", cdecl.KindRecord).Templated)
}

func TestConstantsInArrayBounds(t *testing.T) {
	tu := compileCXX(t, "constexpr int N = 4;\nstatic const int M = N * 2;\nstruct CA { int a[N]; char b[M]; };\n")
	rb := recordBody(t, tu, "CA")
	assert.Equal(t, []fieldLayout{{"a", 0, 128}, {"b", 128, 64}}, layoutOf(rb))
}

func TestUnsupportedLayouts(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		record string
		want   string
	}{
		{
			name:   "template instantiation field",
			src:    "template <typename T> struct X { T t; };\nstruct Y { X<int> x; };",
			record: "Y",
			want:   "warning: field 'x' has type 'X<int>' that depends on a template instantiation; layout not computed",
		},
		{
			name:   "virtual base",
			src:    "struct VB { int a; };\nstruct VD : virtual VB { int b; };",
			record: "VD",
			want:   "warning: virtual base class 'VB' is not supported; layout not computed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileSource(t, tt.src, "-x", "c++")
			require.NoError(t, res.err, res.stderr)
			assert.Contains(t, res.stderr, tt.want)
			assert.True(t, findDecl(t, res.tu, tt.record, cdecl.KindRecord).Invalid)
		})
	}
}
