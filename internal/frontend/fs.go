package frontend

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

//go:embed include/*.h
var builtinHeaders embed.FS

// BuiltinHeaders lists the headers served from <resource-dir>/include.
func BuiltinHeaders() []string {
	entries, err := fs.ReadDir(builtinHeaders, "include")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// NewOverlayFs layers the builtin headers over base at resourceDir/include.
// Writes never reach base.
func NewOverlayFs(base afero.Fs, resourceDir string) (afero.Fs, error) {
	layer := afero.NewMemMapFs()
	dir := filepath.Join(resourceDir, "include")
	if err := layer.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	for _, name := range BuiltinHeaders() {
		data, err := builtinHeaders.ReadFile(path.Join("include", name))
		if err != nil {
			return nil, err
		}
		if err := afero.WriteFile(layer, filepath.Join(dir, name), data, 0o644); err != nil {
			return nil, err
		}
	}
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), layer), nil
}

// SourceFile is one file read by the preprocessor.
type SourceFile struct {
	// Name is the path as the include search formed it.
	Name string
	// Path is the cleaned absolute path.
	Path     string
	Content  []byte
	HasEntry bool
}

// FileManager reads and caches source files.
type FileManager struct {
	fs      afero.Fs
	workDir string
	cache   map[string]*SourceFile
}

// NewFileManager resolves relative names against workDir.
func NewFileManager(fsys afero.Fs, workDir string) *FileManager {
	return &FileManager{fs: fsys, workDir: workDir, cache: make(map[string]*SourceFile)}
}

// Abs makes name absolute against the working directory.
func (m *FileManager) Abs(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(m.workDir, name)
}

// Exists reports whether name is a regular file.
func (m *FileManager) Exists(name string) bool {
	info, err := m.fs.Stat(m.Abs(name))
	return err == nil && !info.IsDir()
}

// IsDir reports whether name is a directory.
func (m *FileManager) IsDir(name string) bool {
	ok, err := afero.IsDir(m.fs, m.Abs(name))
	return err == nil && ok
}

// Open reads name, reusing earlier reads of the same absolute path.
func (m *FileManager) Open(name string) (*SourceFile, error) {
	abs := m.Abs(name)
	if f, ok := m.cache[abs]; ok {
		return &SourceFile{Name: name, Path: f.Path, Content: f.Content, HasEntry: true}, nil
	}
	info, err := m.fs.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", name)
	}
	data, err := afero.ReadFile(m.fs, abs)
	if err != nil {
		return nil, err
	}
	f := &SourceFile{Name: name, Path: abs, Content: normalizeNewlines(data), HasEntry: true}
	m.cache[abs] = f
	return f, nil
}

// Virtual registers in-memory content under name, as done for stdin.
func (m *FileManager) Virtual(name string, content []byte) *SourceFile {
	abs := m.Abs(name)
	f := &SourceFile{Name: name, Path: abs, Content: normalizeNewlines(content), HasEntry: true}
	m.cache[abs] = f
	return f
}

func normalizeNewlines(data []byte) []byte {
	if !strings.Contains(string(data), "\r") {
		return data
	}
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return []byte(strings.ReplaceAll(s, "\r", "\n"))
}
