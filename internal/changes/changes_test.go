package changes

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectChangesClassification(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", "package a\n")

	d := New()

	// Never recorded: added.
	got := d.DetectChanges([]string{path})
	if got[0].Type != Added {
		t.Errorf("unrecorded file = %s, want added", got[0].Type)
	}

	if err := d.UpdateRecords([]string{path}); err != nil {
		t.Fatal(err)
	}

	// Identical content: unchanged.
	writeFile(t, dir, "a.go", "package a\n")
	got = d.DetectChanges([]string{path})
	if got[0].Type != Unchanged {
		t.Errorf("identical rewrite = %s, want unchanged", got[0].Type)
	}

	// Different content: modified, with both hashes populated.
	writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")
	got = d.DetectChanges([]string{path})
	if got[0].Type != Modified {
		t.Errorf("rewritten file = %s, want modified", got[0].Type)
	}
	if got[0].PreviousHash == "" || got[0].CurrentHash == "" || got[0].PreviousHash == got[0].CurrentHash {
		t.Errorf("modified file should carry distinct previous and current hashes: %+v", got[0])
	}
}

func TestDetectChangesUnreadableFile(t *testing.T) {
	d := New()
	got := d.DetectChanges([]string{"/nonexistent/definitely/missing.go"})
	if got[0].Type != Modified {
		t.Errorf("unreadable file = %s, want modified (fail open)", got[0].Type)
	}
}

func TestUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a\n")
	b := writeFile(t, dir, "b.go", "package b\n")

	d := New()
	if err := d.UpdateRecords([]string{a, b}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "b.go", "package b\n\nvar X = 1\n")

	unchanged := d.UnchangedFiles([]string{a, b})
	if len(unchanged) != 1 || unchanged[0] != a {
		t.Errorf("UnchangedFiles = %v, want [%s]", unchanged, a)
	}
}

func TestRecordPersistence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", "package a\n")
	recordPath := filepath.Join(dir, ".verdict", "baseline.json")

	d := New(WithRecordPath(recordPath))
	if err := d.UpdateRecords([]string{path}); err != nil {
		t.Fatal(err)
	}

	// A fresh detector sees the persisted baseline.
	d2 := New(WithRecordPath(recordPath))
	got := d2.DetectChanges([]string{path})
	if got[0].Type != Unchanged {
		t.Errorf("persisted baseline not loaded: got %s, want unchanged", got[0].Type)
	}
}

func TestCorruptRecordFileIsEmptyBaseline(t *testing.T) {
	dir := t.TempDir()
	recordPath := writeFile(t, dir, "baseline.json", "{not json")
	path := writeFile(t, dir, "a.go", "package a\n")

	d := New(WithRecordPath(recordPath))
	got := d.DetectChanges([]string{path})
	if got[0].Type != Added {
		t.Errorf("corrupt baseline should be empty: got %s, want added", got[0].Type)
	}
}
