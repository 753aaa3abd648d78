// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover selects the input files for an extraction run.
package discover

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// Inputs lists dir (not recursively) and returns, sorted by name, the paths
// of regular entries whose names end with ext. A non-empty pattern is a glob
// the name must also match. An empty ext matches every file.
func Inputs(fs afero.Fs, dir, ext, pattern string) ([]string, error) {
	var g glob.Glob
	if pattern != "" {
		var err error
		g, err = glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling glob %q: %w", pattern, err)
		}
	}

	if dir == "" {
		dir = "."
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if g != nil && !g.Match(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
