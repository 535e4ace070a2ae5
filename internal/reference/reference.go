// Package reference loads the plain-text source/reference material OCR
// runs are scored against.
package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var allowedExts = map[string]bool{".txt": true, ".text": true, ".md": true}

// Loader resolves file names against a fixed directory. Names must stay
// inside that directory and carry a text extension.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns the contents of a named reference file.
func (l *Loader) Load(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("reference file name is required")
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid reference file name %q", name)
	}
	if !allowedExts[strings.ToLower(filepath.Ext(clean))] {
		return "", fmt.Errorf("unsupported reference file type %q", filepath.Ext(clean))
	}

	data, err := os.ReadFile(filepath.Join(l.dir, clean))
	if err != nil {
		return "", fmt.Errorf("load reference %q: %w", name, err)
	}
	return string(data), nil
}
