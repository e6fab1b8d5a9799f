package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/plugin"
	"github.com/rohankatakam/typextract/internal/sink"
)

func extractSource(t *testing.T, src string, args ...string) []string {
	t.Helper()
	var out, stderr bytes.Buffer
	err := frontend.Run(context.Background(), frontend.Invocation{
		Args:    append([]string{"-target", "x86_64-unknown-linux-gnu", "--sysroot=/work"}, args...),
		Source:  strings.NewReader(src),
		WorkDir: "/work",
		Stderr:  &stderr,
		Logger:  quietLogger(),
		Fs:      afero.NewMemMapFs(),
	}, NewAction(sink.NewLineSink(&out), quietLogger()))
	require.NoError(t, err, stderr.String())
	trimmed := strings.TrimSuffix(out.String(), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestExtractHeader(t *testing.T) {
	src := "struct P { int x; char c; };\ntypedef struct P P_t;\nenum Mode { ON = 1 };\nint use(P_t *p);\n"
	lines := extractSource(t, src)
	require.Len(t, lines, 4)

	assert.Equal(t,
		`{"type":{"declID":"5","typeName":"P"},"properties":{"kind":"Struct","fields":[`+
			`{"name":"x","field":{"offset":0,"size":32,"type":{"declID":null,"typeName":"int"}}},`+
			`{"name":"c","field":{"offset":32,"size":8,"type":{"declID":null,"typeName":"char"}}}]},`+
			`"pseudoRoot":"Sysroot","location":["header.h"]}`,
		lines[0])
	assert.Equal(t,
		`{"type":{"declID":"6","typeName":"P_t"},"properties":{"kind":"Typedef","underlyingType":{"declID":"5","typeName":"P"}},`+
			`"pseudoRoot":"Sysroot","location":["header.h"]}`,
		lines[1])
	assert.Equal(t,
		`{"type":{"declID":"7","typeName":"Mode"},"properties":{"kind":"Enum","backingType":{"declID":null,"typeName":"unsigned int"},`+
			`"entries":[{"name":"ON","value":1}]},"pseudoRoot":"Sysroot","location":["header.h"]}`,
		lines[2])
	assert.Equal(t,
		`{"type":{"declID":"8","typeName":"use"},"properties":{"kind":"Function","returnType":{"declID":null,"typeName":"int"},`+
			`"params":[{"name":"p","type":{"declID":null,"typeName":"P_t *"}}]},"pseudoRoot":"Sysroot","location":["header.h"]}`,
		lines[3])
}

func TestExtractSkipsIneligible(t *testing.T) {
	src := `namespace hidden { struct H { int h; }; }
namespace { struct Anon { int a; }; }
template <typename T> struct Box { T v; };
struct M { void run(); int m; };
struct Y { Box<int> b; };
`
	lines := extractSource(t, src, "-x", "c++")
	assert.Equal(t, []string{"Anon", "M"}, typeNames(t, lines))
}

func TestExtractForwardDeclarations(t *testing.T) {
	src := "struct Inner;\nstruct Outer { struct Inner *p; };\nstruct Inner { int v; };\n"
	lines := extractSource(t, src)
	assert.Equal(t, []string{"Inner", "Outer", "Inner"}, typeNames(t, lines))
	assert.Contains(t, lines[0], `"fields":[]`)
}

func TestExtractNestedRecordFirst(t *testing.T) {
	lines := extractSource(t, "struct Outer { struct Inner { int v; } in; };\n")
	assert.Equal(t, []string{"Inner", "Outer"}, typeNames(t, lines))
}

func TestExtractBuiltinHeaderLocation(t *testing.T) {
	lines := extractSource(t, "#include <stddef.h>\n", "-resource-dir", "/opt/res")
	require.NotEmpty(t, lines)
	for _, l := range lines {
		m := decode(t, l)
		assert.Equal(t, "ResourceDir", m["pseudoRoot"])
		assert.Equal(t, []any{"include", "stddef.h"}, m["location"])
	}
}

func TestPluginRegistration(t *testing.T) {
	e, ok := plugin.Lookup(PluginName)
	require.True(t, ok)
	assert.Equal(t, "extract type information from CXX headers", e.Description)

	opts, err := frontend.ParseArgs([]string{"-Xclang", "-plugin", "-Xclang", PluginName, "-Xclang", "-plugin-arg-" + PluginName, "-Xclang", "verbose"})
	require.NoError(t, err)
	var out bytes.Buffer
	actions, err := plugin.Load(plugin.Host{Out: sink.NewLineSink(&out), Logger: quietLogger()}, opts)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.IsType(t, &Action{}, actions[0])
}
