// Package changes classifies files as added, modified, or unchanged by
// comparing content digests against a recorded baseline.
package changes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/verdict-tools/verdict/internal/hashing"
)

// ChangeType classifies one file relative to the baseline.
type ChangeType string

const (
	Added     ChangeType = "added"
	Modified  ChangeType = "modified"
	Unchanged ChangeType = "unchanged"
)

// FileChange is the classification of a single file.
type FileChange struct {
	Path         string     `json:"path"`
	Type         ChangeType `json:"type"`
	PreviousHash string     `json:"previous_hash,omitempty"`
	CurrentHash  string     `json:"current_hash,omitempty"`
}

// Detector tracks the last-seen digest per path. Records survive across
// calls within a process and, when a record path is configured, across
// processes.
type Detector struct {
	mu         sync.Mutex
	records    map[string]string
	recordPath string
}

// Option configures the Detector.
type Option func(*Detector)

// WithRecordPath enables persistence of baseline records to a JSON file.
func WithRecordPath(path string) Option {
	return func(d *Detector) {
		d.recordPath = path
	}
}

// New creates a change detector, loading any persisted baseline.
func New(opts ...Option) *Detector {
	d := &Detector{records: make(map[string]string)}
	for _, opt := range opts {
		opt(d)
	}
	if d.recordPath != "" {
		d.loadRecords()
	}
	return d
}

// loadRecords reads the persisted baseline. A missing or corrupt file is
// treated as an empty baseline.
func (d *Detector) loadRecords() {
	data, err := os.ReadFile(d.recordPath)
	if err != nil {
		return
	}
	var records map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	d.records = records
}

// DetectChanges classifies each file against the baseline. A file with no
// prior record is added; a file that cannot be read is reported as
// modified so it is never silently skipped.
func (d *Detector) DetectChanges(files []string) []FileChange {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]FileChange, 0, len(files))
	for _, path := range files {
		prev, known := d.records[path]

		current, err := hashing.File(path)
		if err != nil {
			// Fail open toward re-analysis.
			result = append(result, FileChange{Path: path, Type: Modified, PreviousHash: prev})
			continue
		}

		change := FileChange{Path: path, CurrentHash: current}
		switch {
		case !known:
			change.Type = Added
		case prev != current:
			change.Type = Modified
			change.PreviousHash = prev
		default:
			change.Type = Unchanged
			change.PreviousHash = prev
		}
		result = append(result, change)
	}
	return result
}

// UpdateRecords persists the current digest as the new baseline for each
// file. Unreadable files keep their previous record.
func (d *Detector) UpdateRecords(files []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, path := range files {
		hash, err := hashing.File(path)
		if err != nil {
			continue
		}
		d.records[path] = hash
	}
	return d.saveRecords()
}

// UnchangedFiles returns the subset of files whose content matches the
// baseline.
func (d *Detector) UnchangedFiles(files []string) []string {
	var unchanged []string
	for _, c := range d.DetectChanges(files) {
		if c.Type == Unchanged {
			unchanged = append(unchanged, c.Path)
		}
	}
	return unchanged
}

// saveRecords writes the baseline to disk when persistence is configured.
// Caller must hold the lock.
func (d *Detector) saveRecords() error {
	if d.recordPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(d.recordPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.recordPath, data, 0o600)
}
