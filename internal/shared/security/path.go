package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrPathEscape indicates the resolved path would escape the trusted root directory.
	ErrPathEscape = errors.New("path escapes base directory")

	labelPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ResolveWithin joins elems under base and rejects any result that leaves base.
// The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	cleanBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{cleanBase}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(cleanBase, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}

	return target, nil
}

// IsValidLabel reports whether label only uses letters, digits, hyphens and underscores.
// Labels become directory names, so nothing else is accepted.
func IsValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}
