package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := stderrors.New("permission denied")

	tests := []struct {
		name     string
		err      *Error
		want     string
		errType  ErrorType
		severity Severity
		fatal    bool
	}{
		{
			name:     "config",
			err:      ConfigError(cause, "failed to read config"),
			want:     "failed to read config: permission denied",
			errType:  ErrorTypeConfig,
			severity: SeverityCritical,
			fatal:    true,
		},
		{
			name:     "input",
			err:      InputErrorf("unknown plugin '%s'", "x"),
			want:     "unknown plugin 'x'",
			errType:  ErrorTypeInput,
			severity: SeverityHigh,
		},
		{
			name:     "filesystem",
			err:      FileSystemErrorf(cause, "failed to walk %s", "/src"),
			want:     "failed to walk /src: permission denied",
			errType:  ErrorTypeFileSystem,
			severity: SeverityHigh,
		},
		{
			name:     "frontend",
			err:      FrontendError(cause, "a.h"),
			want:     "compilation failed: permission denied",
			errType:  ErrorTypeFrontend,
			severity: SeverityHigh,
		},
		{
			name:     "output",
			err:      OutputError(cause, "failed to write declaration"),
			want:     "failed to write declaration: permission denied",
			errType:  ErrorTypeOutput,
			severity: SeverityCritical,
			fatal:    true,
		},
		{
			name:     "internal",
			err:      InternalErrorf("bad state %d", 3),
			want:     "bad state 3",
			errType:  ErrorTypeInternal,
			severity: SeverityCritical,
			fatal:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.errType, GetType(tt.err))
			assert.Equal(t, tt.severity, GetSeverity(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeOutput, SeverityHigh, "nothing"))
}

func TestUnwrapAndIs(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("batch: %w", OutputError(cause, "failed to write"))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &Error{Type: ErrorTypeOutput})
	assert.NotErrorIs(t, err, &Error{Type: ErrorTypeConfig})
	assert.True(t, IsFatal(err))
	assert.Equal(t, ErrorTypeOutput, GetType(err))
}

func TestPlainErrors(t *testing.T) {
	plain := stderrors.New("plain")
	assert.False(t, IsFatal(plain))
	assert.Equal(t, SeverityMedium, GetSeverity(plain))
	assert.Equal(t, ErrorTypeInternal, GetType(plain))
	assert.Equal(t, SeverityLow, GetSeverity(nil))
}

func TestDetailedString(t *testing.T) {
	err := FrontendError(stderrors.New("2 error(s) generated"), "b.h").WithContext("target", "x86_64")
	err.StackTrace = ""
	got := err.DetailedString()
	require.Contains(t, got, "[HIGH] [FRONTEND] compilation failed")
	assert.Contains(t, got, "Caused by: 2 error(s) generated")
	assert.Contains(t, got, "Context:\n  file: b.h\n  target: x86_64\n")
}
