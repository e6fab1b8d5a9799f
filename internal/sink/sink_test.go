package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, Record{DeclID: "1", JSON: []byte(`{"a":1}`)}))
	require.NoError(t, s.Write(ctx, Record{DeclID: "2", JSON: []byte(`{"b":2}`)}))

	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())
}

func TestLineSinkWriteError(t *testing.T) {
	s := NewLineSink(failingWriter{})
	err := s.Write(context.Background(), Record{DeclID: "7", JSON: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestMultiAndCollector(t *testing.T) {
	var buf bytes.Buffer
	c := &Collector{}
	m := Multi{c, NewLineSink(&buf)}
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, Record{DeclID: "1", JSON: []byte(`{}`)}))
	require.NoError(t, m.Close())

	assert.Len(t, c.Records, 1)
	assert.Equal(t, "{}\n", buf.String())

	var replay bytes.Buffer
	require.NoError(t, c.Replay(ctx, NewLineSink(&replay)))
	assert.Equal(t, "{}\n", replay.String())
}

func TestSQLiteSink(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "out", "types.db")

	s, err := NewSQLiteSink(path, "header.h", logger)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Write(ctx, Record{
		DeclID:     "4",
		Kind:       "Struct",
		Name:       "S",
		PseudoRoot: "Sysroot",
		Location:   []string{"usr", "include", "foo.h"},
		JSON:       []byte(`{"x":1}`),
	}))
	require.NoError(t, s.Write(ctx, Record{DeclID: "5", Kind: "Enum", PseudoRoot: "Unknown", JSON: []byte(`{}`)}))

	rows, err := s.Declarations(ctx, s.RunID())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Seq)
	assert.Equal(t, "usr/include/foo.h", rows[0].Location)
	assert.Equal(t, `{"x":1}`, rows[0].JSON)
	assert.Equal(t, "Enum", rows[1].Kind)
}

func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TYPE_EXTRACTOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test: TYPE_EXTRACTOR_TEST_POSTGRES_DSN not set")
	}
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	ctx := context.Background()

	s, err := NewPostgresSink(ctx, dsn, "header.h", logger)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write(ctx, Record{DeclID: "5", Kind: "Typedef", Name: "T", PseudoRoot: "Sysroot", Location: []string{"a.h"}, JSON: []byte(`{}`)}))
	require.NoError(t, s.Write(ctx, Record{DeclID: "6", Kind: "Function", Name: "f", PseudoRoot: "Sysroot", Location: []string{"a.h"}, JSON: []byte(`{}`)}))

	rows, err := s.Declarations(ctx, s.RunID())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "T", rows[0].Name)
	assert.Equal(t, int64(2), rows[1].Seq)
}
