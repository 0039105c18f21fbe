package identify

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// LoadClasses returns the sorted names of the sub-directories of dir, one
// per class in the training layout.
func LoadClasses(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading classes dir %s: %w", dir, err)
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			classes = append(classes, e.Name())
		}
	}
	sort.Strings(classes)
	return classes, nil
}

// ResolveClasses prefers an explicit class list and falls back to the
// directory layout. Both empty means the model may answer freely.
func ResolveClasses(explicit []string, dir string) ([]string, error) {
	if len(explicit) > 0 {
		return append([]string(nil), explicit...), nil
	}
	if dir == "" {
		return nil, nil
	}
	return LoadClasses(dir)
}
