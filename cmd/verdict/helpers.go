package main

import (
	"os"
	"sort"

	"github.com/verdict-tools/verdict/internal/output"
	"github.com/verdict-tools/verdict/internal/scanner"
	"github.com/verdict-tools/verdict/pkg/config"
)

// stdoutFormatter returns a colored text formatter for command
// feedback. Writing to stdout cannot fail to open.
func stdoutFormatter() *output.Formatter {
	f, _ := output.NewFormatter(output.FormatText, "", true)
	return f
}

// getPaths returns the paths to analyze, defaulting to the current
// directory.
func getPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// loadConfig resolves the effective config: the --config flag wins,
// otherwise the standard locations are searched.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(), nil
}

// collectFiles scans each path, directories recursively, and returns
// the deduplicated analyzable file list.
func collectFiles(cfg *config.Config, paths []string) ([]string, error) {
	s := scanner.New(cfg)
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := s.ScanDir(path)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				seen[f] = struct{}{}
			}
			continue
		}
		ok, err := s.ScanFile(path)
		if err != nil {
			return nil, err
		}
		if ok {
			seen[path] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}
