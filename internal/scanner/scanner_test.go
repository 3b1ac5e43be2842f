package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdict-tools/verdict/pkg/config"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanDirFindsSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "src/app.ts", "export {};\n")
	writeFile(t, root, "README.md", "# docs\n")
	writeFile(t, root, "assets/logo.png", "binary")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(root)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Contains(t, files, filepath.Join(root, "main.go"))
	assert.Contains(t, files, filepath.Join(root, "src", "app.ts"))
}

func TestScanDirHonorsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {};\n")
	writeFile(t, root, "vendor/lib.go", "package lib\n")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(root)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Contains(t, files[0], "app.py")
}

func TestScanDirHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "app.go", "package app\n")
	writeFile(t, root, "generated/gen.go", "package gen\n")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(root)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Contains(t, files[0], "app.go")
}

func TestScanDirConfigPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bundle.min.js", "x\n")
	writeFile(t, root, "app.js", "x\n")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(root)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Contains(t, files[0], "app.js")
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	goFile := writeFile(t, root, "a.go", "package a\n")
	mdFile := writeFile(t, root, "a.md", "# a\n")

	s := New(config.DefaultConfig())

	ok, err := s.ScanFile(goFile)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ScanFile(mdFile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ScanFile(filepath.Join(root, "missing.go"))
	assert.Error(t, err)
}

func TestAnalyzable(t *testing.T) {
	assert.True(t, Analyzable("x/y/z.tsx"))
	assert.True(t, Analyzable("a.PY"))
	assert.False(t, Analyzable("a.rb"))
	assert.False(t, Analyzable("Makefile"))
}

func TestFilterBySize(t *testing.T) {
	root := t.TempDir()
	small := writeFile(t, root, "small.go", "package a\n")
	big := writeFile(t, root, "big.go", string(make([]byte, 4096)))

	kept, skipped := FilterBySize([]string{small, big}, 1024)
	assert.Equal(t, []string{small}, kept)
	assert.Equal(t, 1, skipped)

	kept, skipped = FilterBySize([]string{small, big}, 0)
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, skipped)
}
