package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithinValidPath(t *testing.T) {
	base := t.TempDir()

	resolved, err := ResolveWithin(base, "run-1", "report.json")
	if err != nil {
		t.Fatalf("ResolveWithin returned error: %v", err)
	}
	if !strings.HasPrefix(resolved, base) {
		t.Fatalf("expected resolved path %s to stay within base %s", resolved, base)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		t.Fatalf("failed to create parent dirs: %v", err)
	}
	if err := os.WriteFile(resolved, []byte("{}"), 0o600); err != nil {
		t.Fatalf("failed to write resolved file: %v", err)
	}
}

func TestResolveWithinBlocksEscape(t *testing.T) {
	base := t.TempDir()
	_, err := ResolveWithin(base, "..", "etc", "passwd")
	if !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
}

func TestResolveWithinEmptyBase(t *testing.T) {
	_, err := ResolveWithin("", "label")
	if err == nil || err.Error() != "base directory is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsValidLabel(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"nightly", true},
		{"run_2024-01-01", true},
		{"ABC123", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"has space", false},
		{"semi;colon", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := IsValidLabel(tt.label); got != tt.want {
				t.Fatalf("IsValidLabel(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}
