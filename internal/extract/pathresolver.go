package extract

import (
	"path/filepath"
	"strings"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

// UnknownFile is used when a location has no backing file entry.
const UnknownFile = "unknown.h"

// PseudoRoot names the prefix a declaration's path was made relative to.
type PseudoRoot int

const (
	RootUnknown PseudoRoot = iota
	RootSysroot
	RootResourceDir
)

func (r PseudoRoot) String() string {
	switch r {
	case RootSysroot:
		return "Sysroot"
	case RootResourceDir:
		return "ResourceDir"
	default:
		return "Unknown"
	}
}

// AbsolutePath returns the path a declaration's location refers to. The
// result may still be relative, in which case the declaration is skipped.
func AbsolutePath(loc cdecl.Location) string {
	if filepath.IsAbs(loc.File) {
		return loc.File
	}
	if loc.HasEntry {
		return loc.RealPath
	}
	return UnknownFile
}

// ResolvePath classifies an absolute path against the session prefixes and
// splits the remainder into segments.
func (s *Session) ResolvePath(abs string) (PseudoRoot, []string) {
	root, rel := RootUnknown, abs
	if s.Sysroot != "" && strings.HasPrefix(abs, s.Sysroot) {
		root, rel = RootSysroot, abs[len(s.Sysroot):]
	} else if s.ResourceDir != "" && strings.HasPrefix(abs, s.ResourceDir) {
		root, rel = RootResourceDir, abs[len(s.ResourceDir):]
	}

	if segs, ok := s.paths[rel]; ok {
		return root, segs
	}
	segs := splitPath(rel)
	s.paths[rel] = segs
	return root, segs
}

func splitPath(rel string) []string {
	rel = filepath.ToSlash(rel)
	if vol := filepath.VolumeName(rel); vol != "" {
		rel = rel[len(vol):]
	}
	rel = strings.TrimLeft(rel, "/")

	segs := []string{}
	for _, seg := range strings.Split(rel, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}
