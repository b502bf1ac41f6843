package jsonld

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveGlobs expands glob patterns (including ** recursion) to a sorted,
// de-duplicated list of file paths.
func ResolveGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ResultFiles lists every .jsonld file under dir, recursively. A missing or
// empty directory yields no files and no error, matching the aggregation
// pipeline's tolerance for components that have not reported yet.
func ResultFiles(dir string) ([]string, error) {
	files, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.jsonld"))
	if err != nil {
		return nil, fmt.Errorf("listing results under %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ComponentForResult derives the owning component of a result file from its
// parent directory name. The staging layout is <resultsDir>/<component>/<file>.
func ComponentForResult(path string) string {
	return filepath.Base(filepath.Dir(path))
}
