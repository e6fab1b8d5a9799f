package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTarget(t *testing.T) {
	tests := []struct {
		triple    string
		arch      string
		os        string
		pointer   int64
		long      int64
		wchar     int64
		charSign  bool
		fieldLL   int64
		vaList    VaListKind
		hasInt128 bool
	}{
		{"x86_64-unknown-linux-gnu", "x86_64", "linux", 64, 64, 32, true, 64, VaListSysV, true},
		{"aarch64-unknown-linux-gnu", "aarch64", "linux", 64, 64, 32, false, 64, VaListAAPCS64, true},
		{"arm64-apple-darwin", "aarch64", "darwin", 64, 64, 32, true, 64, VaListCharPtr, true},
		{"i686-unknown-linux-gnu", "i386", "linux", 32, 32, 32, true, 32, VaListCharPtr, false},
		{"x86_64-pc-windows-msvc", "x86_64", "windows", 64, 32, 16, true, 64, VaListCharPtr, true},
		{"armv7-unknown-linux-gnueabihf", "arm", "linux", 32, 32, 32, false, 64, VaListAAPCS, false},
		{"wasm32-unknown-wasi", "wasm32", "wasi", 32, 32, 32, true, 64, VaListCharPtr, false},
	}
	for _, tt := range tests {
		t.Run(tt.triple, func(t *testing.T) {
			target, err := NewTarget(tt.triple)
			require.NoError(t, err)
			assert.Equal(t, tt.arch, target.Arch)
			assert.Equal(t, tt.os, target.OS)
			assert.Equal(t, tt.pointer, target.PointerBits)
			assert.Equal(t, tt.long, target.LongBits)
			assert.Equal(t, tt.wchar, target.WCharBits)
			assert.Equal(t, tt.charSign, target.CharSigned)
			assert.Equal(t, tt.fieldLL, target.LongLongFieldAlign)
			assert.Equal(t, tt.vaList, target.VaList)
			assert.Equal(t, tt.hasInt128, target.HasInt128)
		})
	}

	_, err := NewTarget("sparc-sun-solaris")
	assert.EqualError(t, err, "unknown target triple 'sparc-sun-solaris'")
}

func TestFieldAlign(t *testing.T) {
	i386, err := NewTarget("i386-unknown-linux-gnu")
	require.NoError(t, err)
	x64, err := NewTarget("x86_64-unknown-linux-gnu")
	require.NoError(t, err)

	assert.Equal(t, int64(32), i386.FieldAlign(i386.Builtin("double")))
	assert.Equal(t, int64(32), i386.FieldAlign(i386.Builtin("long long")))
	assert.Equal(t, int64(64), i386.Builtin("double").AlignBits)
	assert.Equal(t, int64(64), x64.FieldAlign(x64.Builtin("double")))
	assert.Equal(t, int64(32), x64.FieldAlign(x64.Builtin("int")))
}
