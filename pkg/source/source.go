// Package source abstracts where analyzers read file content from, so the
// pipeline can run against the filesystem or an in-memory fixture set.
package source

import "os"

// ContentSource provides file content for a path.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MapSource serves content from an in-memory map, keyed by path.
// It is primarily used by tests and the end-to-end pipeline fixtures.
type MapSource struct {
	files map[string][]byte
}

// NewMap creates a source backed by the given path -> content map.
func NewMap(files map[string][]byte) *MapSource {
	return &MapSource{files: files}
}

// Read implements ContentSource.
func (m *MapSource) Read(path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

// Paths returns the known paths in insertion-independent map order.
func (m *MapSource) Paths() []string {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	return paths
}
