package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		level   logrus.Level
		wantErr string
	}{
		{name: "defaults", cfg: Config{}, level: logrus.WarnLevel},
		{name: "debug", cfg: Config{Level: "DEBUG"}, level: logrus.DebugLevel},
		{name: "trace json", cfg: Config{Level: "trace", Format: "json"}, level: logrus.TraceLevel},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: `invalid log level "loud"`},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: `invalid log format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, &bytes.Buffer{})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, l.GetLevel())
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	l.WithField("decl_id", 7).Debug("Skipping declaration")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Skipping declaration", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, float64(7), entry["decl_id"])
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "extract.log")
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", OutputFile: path}, &buf)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o644))

	l, err := New(Config{OutputFile: path, MaxSize: 32, MaxBackups: 2}, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, backup, 64)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	assert.NoError(t, l.Close())
}
