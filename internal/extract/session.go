// Package extract walks a parsed translation unit and emits one JSON line per
// eligible typedef, struct, union, enum and function declaration.
package extract

import "github.com/rohankatakam/typextract/internal/cdecl"

// Session is the state of one extraction over one translation unit. It is not
// safe for concurrent use; batch extraction gives every unit its own session.
type Session struct {
	Sysroot     string
	ResourceDir string

	emitted map[cdecl.DeclID]struct{}
	paths   map[string][]string
}

// NewSession creates an empty session for the given path prefixes.
func NewSession(sysroot, resourceDir string) *Session {
	return &Session{
		Sysroot:     sysroot,
		ResourceDir: resourceDir,
		emitted:     make(map[cdecl.DeclID]struct{}),
		paths:       make(map[string][]string),
	}
}

// MarkEmitted records id and reports whether it was new.
func (s *Session) MarkEmitted(id cdecl.DeclID) bool {
	if _, ok := s.emitted[id]; ok {
		return false
	}
	s.emitted[id] = struct{}{}
	return true
}

// Emitted reports whether id has been processed in this session.
func (s *Session) Emitted(id cdecl.DeclID) bool {
	_, ok := s.emitted[id]
	return ok
}

// EmittedCount is the number of distinct declarations processed so far.
func (s *Session) EmittedCount() int {
	return len(s.emitted)
}

// Reset clears the dedup set and the path cache.
func (s *Session) Reset() {
	s.emitted = make(map[cdecl.DeclID]struct{})
	s.paths = make(map[string][]string)
}
