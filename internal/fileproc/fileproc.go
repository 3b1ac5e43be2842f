// Package fileproc provides concurrent per-file processing for analyzers.
package fileproc

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/verdict-tools/verdict/pkg/source"
)

// DefaultWorkerMultiplier is applied to NumCPU for the worker count.
// 2x works well for the mixed read/compute load of line-oriented analysis.
const DefaultWorkerMultiplier = 2

// ProcessingError is an error from processing a single file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects per-file errors across workers.
type ProcessingErrors struct {
	mu     sync.Mutex
	Errors []ProcessingError
}

// Add appends an error. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// MapContent reads each file from src and applies fn concurrently.
// Results are returned in arbitrary order; files that fail to read or
// process are skipped and collected into the returned ProcessingErrors
// (nil when everything succeeded).
func MapContent[T any](files []string, src source.ContentSource, fn func(path string, content []byte) (T, error)) ([]T, *ProcessingErrors) {
	return MapContentN(files, src, 0, fn)
}

// MapContentN is MapContent with a configurable worker count.
// maxWorkers <= 0 selects 2x NumCPU.
func MapContentN[T any](files []string, src source.ContentSource, maxWorkers int, fn func(path string, content []byte) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, path := range files {
		p.Go(func() {
			content, err := src.Read(path)
			if err != nil {
				errs.Add(path, err)
				return
			}

			result, err := fn(path, content)
			if err != nil {
				errs.Add(path, err)
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
