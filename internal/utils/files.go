package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DefinitionExts are the extensions of definition files found in directories.
var DefinitionExts = map[string]bool{".yaml": true, ".yml": true}

// FindDefinitionFiles recursively finds all definition files in dir, sorted.
func FindDefinitionFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		if DefinitionExts[filepath.Ext(path)] {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandDefinitionPaths replaces every directory in paths with the
// definition files it contains. Files are kept as given; duplicates are
// dropped.
func ExpandDefinitionPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("definition path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		files, err := FindDefinitionFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}
