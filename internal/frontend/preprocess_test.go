package frontend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ppResult struct {
	text  string
	exp   *Expansion
	diags *Diagnostics
	out   string
}

func preprocess(t *testing.T, files map[string]string, src string, args ...string) ppResult {
	t.Helper()
	opts, err := ParseArgs(args)
	require.NoError(t, err)
	target, err := NewTarget(testTriple)
	require.NoError(t, err)

	base := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(base, name, []byte(content), 0o644))
	}
	fsys, err := NewOverlayFs(base, opts.ResourceDir)
	require.NoError(t, err)
	fm := NewFileManager(fsys, "/work")

	var out bytes.Buffer
	diags := NewDiagnostics(&out, opts, quietLogger())
	exp := NewPreprocessor(opts, target, fm, diags, quietLogger()).Run(fm.Virtual(StdinFileName, []byte(src)))
	return ppResult{text: string(exp.Text), exp: exp, diags: diags, out: out.String()}
}

func TestMacroExpansion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"object-like", "#define N 4\nint a[N];", "inta[4];"},
		{"function-like", "#define SQ(x) ((x)*(x))\nint b = SQ(2);", "intb=((2)*(2));"},
		{"stringify", "#define S(x) #x\nconst char *s = S(hi);", `constchar*s="hi";`},
		{"paste", "#define CAT(a, b) a##b\nint CAT(fo, o);", "intfoo;"},
		{"variadic", "#define V(...) f(__VA_ARGS__)\nV(1, 2);", "f(1,2);"},
		{"nested", "#define A B\n#define B 7\nint x = A;", "intx=7;"},
		{"self reference stops", "#define foo foo + 1\nint y = foo;", "inty=foo+1;"},
		{"undef", "#define Z 1\n#undef Z\nint Z;", "intZ;"},
		{"function-like name alone", "#define F(x) x\nint F;", "intF;"},
		{"line splice", "#define LONG 1 + \\\n 2\nint z = LONG;", "intz=1+2;"},
		{"comments removed", "int /* c */ w; // trailing", "intw;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := preprocess(t, nil, tt.src)
			assert.Contains(t, squash(res.text), tt.want)
			assert.False(t, res.diags.HasErrors(), res.out)
		})
	}
}

func TestConditionals(t *testing.T) {
	src := strings.Join([]string{
		"#if defined(X) && X > 1",
		"int big;",
		"#elif defined X",
		"int small;",
		"#else",
		"int none;",
		"#endif",
		"#ifndef X",
		"int unset;",
		"#endif",
		"#if 0",
		"#if 1 / 0",
		"#endif",
		"#endif",
		"#if UNKNOWN_NAME == 0 && !defined(UNKNOWN_NAME)",
		"int unknown_is_zero;",
		"#endif",
	}, "\n")

	tests := []struct {
		name    string
		args    []string
		present []string
		absent  []string
	}{
		{"greater", []string{"-DX=2"}, []string{"intbig;"}, []string{"intsmall;", "intnone;", "intunset;"}},
		{"defined only", []string{"-DX"}, []string{"intsmall;"}, []string{"intbig;", "intnone;"}},
		{"undefined", nil, []string{"intnone;", "intunset;"}, []string{"intbig;", "intsmall;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := preprocess(t, nil, src, tt.args...)
			text := squash(res.text)
			for _, s := range tt.present {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, text, s)
			}
			assert.Contains(t, text, "intunknown_is_zero;")
		})
	}
}

func TestUnterminatedConditional(t *testing.T) {
	res := preprocess(t, nil, "#ifdef A\nint a;\n")
	assert.True(t, res.diags.HasErrors())
	assert.Contains(t, res.out, "header.h:1:2: error: unterminated conditional directive")
}

func TestIncludes(t *testing.T) {
	files := map[string]string{
		"/work/once.h":           "#pragma once\nint from_once;\n",
		"/work/guard.h":          "#ifndef GUARD_H\n#define GUARD_H\nint from_guard;\n#endif\n",
		"/work/sub/a.h":          "#include \"b.h\"\n",
		"/work/sub/b.h":          "int from_sibling;\n",
		"/opt/inc/lib.h":         "int from_search_path;\n",
		"/sdk/usr/include/sys.h": "int from_sysroot;\n",
	}
	src := strings.Join([]string{
		`#include "once.h"`,
		`#include "once.h"`,
		`#include "guard.h"`,
		`#include "guard.h"`,
		`#include "sub/a.h"`,
		`#include <lib.h>`,
		`#include <sys.h>`,
		`#if __has_include(<stddef.h>) && !__has_include("missing.h")`,
		`int has_include_works;`,
		`#endif`,
	}, "\n")

	res := preprocess(t, files, src, "-I/opt/inc", "--sysroot=/sdk")
	require.False(t, res.diags.HasErrors(), res.out)
	text := squash(res.text)
	assert.Equal(t, 1, strings.Count(text, "intfrom_once;"))
	assert.Equal(t, 1, strings.Count(text, "intfrom_guard;"))
	for _, s := range []string{"intfrom_sibling;", "intfrom_search_path;", "intfrom_sysroot;", "inthas_include_works;"} {
		assert.Contains(t, text, s)
	}
}

func TestFeatureQueriesFromMacros(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		present []string
		absent  []string
	}{
		{
			name:    "wrapped has_attribute",
			src:     "#define HA(x) __has_attribute(x)\n#if HA(__nothrow__)\nstruct Yes { int y; };\n#endif\n",
			present: []string{"structYes{inty;};"},
		},
		{
			name:    "unknown attribute",
			src:     "#define HA(x) __has_attribute(x)\n#if HA(__no_such_thing__)\nint yes;\n#else\nint no;\n#endif\n",
			present: []string{"intno;"},
			absent:  []string{"intyes;"},
		},
		{
			name: "cdefs style guards",
			src: strings.Join([]string{
				`#if (defined __has_attribute \`,
				`     && (!defined __clang_minor__ \`,
				`         || 3 < __clang_major__ + (5 <= __clang_minor__)))`,
				`# define __glibc_has_attribute(attr) __has_attribute (attr)`,
				`#else`,
				`# define __glibc_has_attribute(attr) 0`,
				`#endif`,
				`#ifdef __has_builtin`,
				`# define __glibc_has_builtin(name) __has_builtin (name)`,
				`#else`,
				`# define __glibc_has_builtin(name) 0`,
				`#endif`,
				`#define __GNUC_PREREQ(maj, min) ((__GNUC__ << 16) + __GNUC_MINOR__ >= ((maj) << 16) + (min))`,
				`#if !defined __cplusplus \`,
				`    && (__GNUC_PREREQ (3, 4) || __glibc_has_attribute (__nothrow__))`,
				`# define __THROW __attribute__ ((__nothrow__))`,
				`#else`,
				`# define __THROW`,
				`#endif`,
				`#if __GNUC_PREREQ (2,96) || __glibc_has_attribute (__malloc__)`,
				`int has_malloc;`,
				`#endif`,
				`#if (__GNUC__ >= 3) || __glibc_has_builtin (__builtin_expect)`,
				`int has_expect;`,
				`#endif`,
				`extern int f (void) __THROW;`,
			}, "\n"),
			present: []string{"inthas_malloc;", "inthas_expect;", "externintf(void)__attribute__((__nothrow__));"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := preprocess(t, nil, tt.src)
			require.False(t, res.diags.HasErrors(), res.out)
			text := squash(res.text)
			for _, s := range tt.present {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, text, s)
			}
		})
	}
}

func TestBuiltinHeaders(t *testing.T) {
	res := preprocess(t, nil, "#include <stddef.h>\n#include <stdint.h>\n#include <stdbool.h>\n#include <stdarg.h>\n")
	assert.False(t, res.diags.HasErrors(), res.out)
	assert.Contains(t, squash(res.text), "size_t;")

	res = preprocess(t, nil, "#include <stddef.h>\n", "-nobuiltininc")
	assert.True(t, res.diags.HasFatal())
	assert.Contains(t, res.out, "fatal error: 'stddef.h' file not found")
}

func TestMissingIncludeIsFatal(t *testing.T) {
	res := preprocess(t, nil, "#include \"nope.h\"\nint after;\n")
	assert.True(t, res.diags.HasFatal())
	assert.Contains(t, res.out, "header.h:1:10: fatal error: 'nope.h' file not found")
	assert.NotContains(t, squash(res.text), "intafter;")
}

func TestErrorDirective(t *testing.T) {
	res := preprocess(t, nil, "#error unsupported platform\n#warning careful\n")
	errs, warns := res.diags.Counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, warns)
	assert.Contains(t, res.out, "header.h:1:1: error: unsupported platform")
	assert.Contains(t, res.out, "header.h:2:1: warning: careful")
}

func TestPredefinedMacros(t *testing.T) {
	src := "#ifdef __cplusplus\nint cxx;\n#endif\n#if __SIZEOF_POINTER__ == 8 && defined(__x86_64__)\nint lp64;\n#endif\n"
	assert.Contains(t, squash(preprocess(t, nil, src).text), "intlp64;")
	assert.NotContains(t, squash(preprocess(t, nil, src).text), "intcxx;")
	assert.Contains(t, squash(preprocess(t, nil, src, "-x", "c++").text), "intcxx;")
}

func TestLocate(t *testing.T) {
	res := preprocess(t, nil, "#define X 1\n\nint a = X;\n")
	lines := strings.Split(res.text, "\n")
	row := -1
	for i, l := range lines {
		if strings.Contains(l, "int a") {
			row = i
		}
	}
	require.GreaterOrEqual(t, row, 0)
	col := strings.Index(lines[row], "a")
	loc := res.exp.Locate(uint(row), uint(col))
	assert.Equal(t, StdinFileName, loc.File)
	assert.Equal(t, 3, loc.Line)
	assert.Equal(t, 5, loc.Column)
}

func TestPragmaPack(t *testing.T) {
	res := preprocess(t, nil, "int a;\n#pragma pack(push, 2)\nint b;\n#pragma pack(pop)\nint c;\n")
	lines := strings.Split(res.text, "\n")
	rowOf := func(s string) uint {
		for i, l := range lines {
			if strings.Contains(l, s) {
				return uint(i)
			}
		}
		t.Fatalf("%q not in output", s)
		return 0
	}
	assert.Equal(t, int64(0), res.exp.PackAt(rowOf("int a")))
	assert.Equal(t, int64(2), res.exp.PackAt(rowOf("int b")))
	assert.Equal(t, int64(0), res.exp.PackAt(rowOf("int c")))
}

func TestIntLiterals(t *testing.T) {
	tests := []struct {
		text     string
		value    uint64
		unsigned bool
		longs    int
	}{
		{"42", 42, false, 0},
		{"0x1fUL", 31, true, 1},
		{"0755", 493, false, 0},
		{"0b101", 5, false, 0},
		{"1'000'000ll", 1000000, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			lit, err := ParseIntLiteral(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.value, lit.Value)
			assert.Equal(t, tt.unsigned, lit.Unsigned)
			assert.Equal(t, tt.longs, lit.Longs)
		})
	}
	_, err := ParseIntLiteral("12abc")
	assert.Error(t, err)
}

func TestCharLiterals(t *testing.T) {
	tests := map[string]int64{
		`'a'`:    97,
		`'\n'`:   10,
		`'\x41'`: 65,
		`'\0'`:   0,
		`'\377'`: -1,
		`L'x'`:   120,
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			v, err := ParseCharLiteral(text)
			require.NoError(t, err)
			assert.Equal(t, want, v)
		})
	}
}
