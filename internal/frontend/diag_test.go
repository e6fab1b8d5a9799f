package frontend

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

func TestDiagnostics(t *testing.T) {
	loc := cdecl.Location{File: "a.h", Line: 3, Column: 7}

	t.Run("format and counts", func(t *testing.T) {
		var out bytes.Buffer
		d := NewDiagnostics(&out, &Options{}, quietLogger())
		d.Warnf(loc, "unused '%s'", "x")
		d.Errorf(cdecl.Location{}, "bad")
		assert.Equal(t, "a.h:3:7: warning: unused 'x'\nerror: bad\n", out.String())
		errs, warns := d.Counts()
		assert.Equal(t, 1, errs)
		assert.Equal(t, 1, warns)
		assert.True(t, d.HasErrors())
		assert.False(t, d.HasFatal())
		assert.Len(t, d.All(), 2)
		assert.Equal(t, "1 warning and 1 error generated.", d.Summary())
	})

	t.Run("fatal", func(t *testing.T) {
		d := NewDiagnostics(nil, nil, nil)
		d.Fatalf(loc, "stop")
		assert.True(t, d.HasFatal())
		assert.True(t, d.HasErrors())
		assert.Equal(t, "a.h:3:7: fatal error: stop", d.All()[0].String())
	})

	t.Run("suppressed warnings", func(t *testing.T) {
		var out bytes.Buffer
		d := NewDiagnostics(&out, &Options{SuppressWarnings: true}, nil)
		d.Warnf(loc, "quiet")
		assert.Empty(t, out.String())
		assert.Empty(t, d.Summary())
	})

	t.Run("warnings as errors", func(t *testing.T) {
		d := NewDiagnostics(nil, &Options{WarningsAsErrors: true}, nil)
		d.Warnf(loc, "loud")
		d.Warnf(loc, "louder")
		assert.True(t, d.HasErrors())
		assert.Equal(t, SeverityError, d.All()[0].Severity)
		assert.Equal(t, "2 errors generated.", d.Summary())
	})
}
