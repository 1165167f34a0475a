package application

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNewContainer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	c, err := NewContainer(Settings{ResultsDir: dir, LinkRateLimit: 5}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if c.ReportRepo == nil || c.Orchestrator == nil {
		t.Fatal("container is missing components")
	}
	if c.ReportRepo.ResultsDir() != dir {
		t.Errorf("unexpected results dir %q", c.ReportRepo.ResultsDir())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("results dir not created: %v", err)
	}
}

func TestNewContainer_RequiresResultsDir(t *testing.T) {
	if _, err := NewContainer(Settings{}, zap.NewNop().Sugar()); err == nil {
		t.Fatal("expected error without results dir")
	}
}
