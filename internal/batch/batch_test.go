package batch

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/errors"
	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/sink"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, src := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(src), 0o644))
	}
	return fsys
}

func newRunner(fsys afero.Fs, out sink.Sink, stderr io.Writer, opts Options) *Runner {
	opts.Fs = fsys
	opts.WorkDir = "/work"
	opts.Logger = quietLogger()
	opts.Stderr = stderr
	opts.Args = append([]string{"-target", "x86_64-unknown-linux-gnu", "--sysroot=/work"}, opts.Args...)
	return NewRunner(opts, out)
}

func recordNames(c *sink.Collector) []string {
	names := make([]string, 0, len(c.Records))
	for _, rec := range c.Records {
		names = append(names, rec.Name)
	}
	return names
}

func TestCollect(t *testing.T) {
	fsys := writeTree(t, map[string]string{
		"/work/inc/b.h":               "",
		"/work/inc/a.hpp":             "",
		"/work/inc/notes.txt":         "",
		"/work/inc/sub/c.HH":          "",
		"/work/inc/.git/config.h":     "",
		"/work/inc/build/gen.h":       "",
		"/work/inc/CMakeFiles/feat.h": "",
		"/work/single.inc":            "",
	})

	tests := []struct {
		name  string
		opts  Options
		paths []string
		want  []string
	}{
		{
			name:  "directory walk",
			paths: []string{"inc"},
			want:  []string{"inc/a.hpp", "inc/b.h", "inc/sub/c.HH"},
		},
		{
			name:  "explicit file keeps any extension",
			paths: []string{"single.inc", "inc/sub"},
			want:  []string{"single.inc", "inc/sub/c.HH"},
		},
		{
			name:  "duplicates dropped",
			paths: []string{"inc/b.h", "inc", "/work/inc/b.h"},
			want:  []string{"inc/b.h", "inc/a.hpp", "inc/sub/c.HH"},
		},
		{
			name:  "custom extensions",
			opts:  Options{Extensions: []string{".hpp"}},
			paths: []string{"inc"},
			want:  []string{"inc/a.hpp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(fsys, &sink.Collector{}, io.Discard, tt.opts)
			files, err := r.Collect(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, files)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		r := newRunner(fsys, &sink.Collector{}, io.Discard, Options{})
		_, err := r.Collect([]string{"nope"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeFileSystem, errors.GetType(err))
	})
}

func TestRunPreservesInputOrder(t *testing.T) {
	fsys := writeTree(t, map[string]string{
		"/work/a.h": "struct A { int x; };\n",
		"/work/b.h": "struct B { int y; };\ntypedef struct B B_t;\n",
		"/work/c.h": "enum C { C0 };\n",
		"/work/d.h": "union D { int i; float f; };\n",
	})
	files := []string{"d.h", "a.h", "c.h", "b.h"}

	for _, workers := range []int{1, 4} {
		var out sink.Collector
		r := newRunner(fsys, &out, io.Discard, Options{Workers: workers})
		result, err := r.Run(context.Background(), files)
		require.NoError(t, err)
		require.NoError(t, result.Err())

		assert.Equal(t, []string{"D", "A", "C", "B", "B_t"}, recordNames(&out))
		assert.Equal(t, 5, result.Records)
		require.Len(t, result.Files, 4)
		assert.Equal(t, "d.h", result.Files[0].File)
		assert.Equal(t, 2, result.Files[3].Records)
	}
}

func TestRunSessionsAreIndependent(t *testing.T) {
	// Each unit starts a new session, so a header included by two units is
	// extracted twice.
	fsys := writeTree(t, map[string]string{
		"/work/common.h": "#pragma once\nstruct Common { int v; };\n",
		"/work/x.h":      "#include \"common.h\"\nstruct X { struct Common c; };\n",
		"/work/y.h":      "#include \"common.h\"\nstruct Y { struct Common c; };\n",
	})
	var out sink.Collector
	r := newRunner(fsys, &out, io.Discard, Options{Workers: 2})
	_, err := r.Run(context.Background(), []string{"x.h", "y.h"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Common", "X", "Common", "Y"}, recordNames(&out))
}

func TestRunFailures(t *testing.T) {
	fsys := writeTree(t, map[string]string{
		"/work/a.h":   "struct A { int x; };\n",
		"/work/bad.h": "struct Bad { undefined_t x; };\n",
		"/work/b.h":   "struct B { int y; };\n",
	})
	files := []string{"a.h", "bad.h", "b.h"}

	t.Run("failure recorded and run continues", func(t *testing.T) {
		var out sink.Collector
		var stderr bytes.Buffer
		r := newRunner(fsys, &out, &stderr, Options{Workers: 3})
		result, err := r.Run(context.Background(), files)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Skipped)
		assert.Contains(t, recordNames(&out), "A")
		assert.Contains(t, recordNames(&out), "B")
		assert.Contains(t, stderr.String(), "bad.h:1:14: error: unknown type name 'undefined_t'")

		require.Error(t, result.Files[1].Err)
		var ce *frontend.CompileError
		assert.True(t, stderrors.As(result.Files[1].Err, &ce))
		assert.Equal(t, errors.ErrorTypeFrontend, errors.GetType(result.Files[1].Err))
		assert.EqualError(t, result.Err(), "1 of 3 files failed")
	})

	t.Run("fail fast skips the rest", func(t *testing.T) {
		var out sink.Collector
		r := newRunner(fsys, &out, io.Discard, Options{Workers: 1, FailFast: true})
		result, err := r.Run(context.Background(), []string{"bad.h", "a.h", "b.h"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeFrontend, errors.GetType(err))

		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 2, result.Skipped)
		assert.True(t, result.Files[1].Skipped)
		assert.NotContains(t, recordNames(&out), "A")
		assert.EqualError(t, result.Err(), "1 of 3 files failed, 2 skipped")
	})
}

type failingSink struct{ after int }

func (s *failingSink) Write(ctx context.Context, rec sink.Record) error {
	if s.after == 0 {
		return stderrors.New("disk full")
	}
	s.after--
	return nil
}

func (s *failingSink) Close() error { return nil }

func TestRunSinkFailureIsFatal(t *testing.T) {
	fsys := writeTree(t, map[string]string{
		"/work/a.h": "struct A { int x; };\n",
		"/work/b.h": "struct B { int y; };\n",
	})
	r := newRunner(fsys, &failingSink{after: 1}, io.Discard, Options{Workers: 1})
	_, err := r.Run(context.Background(), []string{"a.h", "b.h"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeOutput, errors.GetType(err))
	assert.Contains(t, err.Error(), "b.h")
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunCancelled(t *testing.T) {
	fsys := writeTree(t, map[string]string{"/work/a.h": "struct A { int x; };\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out sink.Collector
	r := newRunner(fsys, &out, io.Discard, Options{})
	_, err := r.Run(ctx, []string{"a.h"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Records)
}
