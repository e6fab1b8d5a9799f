package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

func TestAbsolutePath(t *testing.T) {
	tests := []struct {
		name string
		loc  cdecl.Location
		want string
	}{
		{"absolute spelling", cdecl.Location{File: "/usr/include/foo.h"}, "/usr/include/foo.h"},
		{"relative with file entry", cdecl.Location{File: "header.h", RealPath: "/work/header.h", HasEntry: true}, "/work/header.h"},
		{"entry without real path", cdecl.Location{File: "header.h", HasEntry: true}, ""},
		{"no file entry", cdecl.Location{}, UnknownFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbsolutePath(tt.loc))
		})
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name        string
		sysroot     string
		resourceDir string
		path        string
		wantRoot    PseudoRoot
		wantSegs    []string
	}{
		{
			name:     "sysroot prefix",
			sysroot:  "/sdk",
			path:     "/sdk/usr/include/foo.h",
			wantRoot: RootSysroot,
			wantSegs: []string{"usr", "include", "foo.h"},
		},
		{
			name:     "default sysroot",
			sysroot:  "/",
			path:     "/usr/include/foo.h",
			wantRoot: RootSysroot,
			wantSegs: []string{"usr", "include", "foo.h"},
		},
		{
			name:        "resource dir prefix",
			sysroot:     "/sdk",
			resourceDir: "/opt/llvm/lib/clang/18",
			path:        "/opt/llvm/lib/clang/18/include/stddef.h",
			wantRoot:    RootResourceDir,
			wantSegs:    []string{"include", "stddef.h"},
		},
		{
			name:        "sysroot wins over resource dir",
			sysroot:     "/opt",
			resourceDir: "/opt/llvm",
			path:        "/opt/llvm/include/x.h",
			wantRoot:    RootSysroot,
			wantSegs:    []string{"llvm", "include", "x.h"},
		},
		{
			name:     "unknown keeps full path",
			sysroot:  "/sdk",
			path:     "/home/dev/project/api.h",
			wantRoot: RootUnknown,
			wantSegs: []string{"home", "dev", "project", "api.h"},
		},
		{
			name:     "empty segments dropped",
			sysroot:  "/sdk",
			path:     "/sdk//usr///include/foo.h",
			wantRoot: RootSysroot,
			wantSegs: []string{"usr", "include", "foo.h"},
		},
		{
			name:     "empty prefixes never match",
			path:     "/usr/include/foo.h",
			wantRoot: RootUnknown,
			wantSegs: []string{"usr", "include", "foo.h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.sysroot, tt.resourceDir)
			root, segs := s.ResolvePath(tt.path)
			assert.Equal(t, tt.wantRoot, root)
			assert.Equal(t, tt.wantSegs, segs)
		})
	}
}

func TestResolvePathCachesByRelativePath(t *testing.T) {
	s := NewSession("/sdk", "")
	_, first := s.ResolvePath("/sdk/usr/include/foo.h")
	_, second := s.ResolvePath("/sdk/usr/include/foo.h")
	assert.Equal(t, first, second)
	assert.Len(t, s.paths, 1)
	assert.Contains(t, s.paths, "/usr/include/foo.h")

	s.Reset()
	assert.Empty(t, s.paths)
}

func TestPseudoRootString(t *testing.T) {
	assert.Equal(t, "Sysroot", RootSysroot.String())
	assert.Equal(t, "ResourceDir", RootResourceDir.String())
	assert.Equal(t, "Unknown", RootUnknown.String())
}
