package frontend

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

const testTriple = "x86_64-unknown-linux-gnu"

type captureConsumer struct {
	tu *cdecl.TranslationUnit
}

func (c *captureConsumer) HandleTranslationUnit(_ context.Context, tu *cdecl.TranslationUnit) error {
	c.tu = tu
	return nil
}

type compileResult struct {
	tu     *cdecl.TranslationUnit
	stderr string
	err    error
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// compileSource compiles src as stdin would be, in an empty file system
// rooted at /work.
func compileSource(t *testing.T, src string, args ...string) compileResult {
	t.Helper()
	return compileIn(t, afero.NewMemMapFs(), src, args...)
}

func compileIn(t *testing.T, fsys afero.Fs, src string, args ...string) compileResult {
	t.Helper()
	var stderr bytes.Buffer
	c := &captureConsumer{}
	err := Run(context.Background(), Invocation{
		Args:    append([]string{"-target", testTriple}, args...),
		Source:  strings.NewReader(src),
		WorkDir: "/work",
		Stderr:  &stderr,
		Logger:  quietLogger(),
		Fs:      fsys,
	}, ActionFunc(func(*CompilerInstance) (Consumer, error) { return c, nil }))
	return compileResult{tu: c.tu, stderr: stderr.String(), err: err}
}

// mustCompile compiles src and requires it to produce no diagnostics.
func mustCompile(t *testing.T, src string, args ...string) *cdecl.TranslationUnit {
	t.Helper()
	res := compileSource(t, src, args...)
	require.NoError(t, res.err, res.stderr)
	require.Empty(t, res.stderr)
	require.NotNil(t, res.tu)
	return res.tu
}

// findDecl returns the last declaration named name of the given kind, so a
// definition wins over earlier forward declarations.
func findDecl(t *testing.T, tu *cdecl.TranslationUnit, name string, kind cdecl.Kind) *cdecl.Decl {
	t.Helper()
	var found *cdecl.Decl
	cdecl.Walk(tu.Context, func(d *cdecl.Decl) bool {
		if d.Name == name && d.Kind() == kind {
			found = d
		}
		return true
	})
	require.NotNil(t, found, "no %s named %q", kind, name)
	return found
}

func recordBody(t *testing.T, tu *cdecl.TranslationUnit, name string) *cdecl.RecordBody {
	t.Helper()
	rb, ok := findDecl(t, tu, name, cdecl.KindRecord).Body.(*cdecl.RecordBody)
	require.True(t, ok)
	return rb
}

func enumBody(t *testing.T, tu *cdecl.TranslationUnit, name string) *cdecl.EnumBody {
	t.Helper()
	eb, ok := findDecl(t, tu, name, cdecl.KindEnum).Body.(*cdecl.EnumBody)
	require.True(t, ok)
	return eb
}

// fieldLayout is a field as name, offset and size in bits.
type fieldLayout struct {
	name   string
	offset int64
	size   int64
}

func layoutOf(rb *cdecl.RecordBody) []fieldLayout {
	out := make([]fieldLayout, 0, len(rb.Fields))
	for _, f := range rb.Fields {
		out = append(out, fieldLayout{f.Name, f.OffsetBits, f.SizeBits})
	}
	return out
}

// squash drops all whitespace so expansions compare independent of spacing.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
