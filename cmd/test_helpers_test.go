package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

// setupTestAppContext installs an AppContext rooted in a temp results dir.
func setupTestAppContext(t *testing.T) *AppContext {
	t.Helper()

	original := globalAppContext
	savedConfig := *cliConfig

	resultsDir := filepath.Join(t.TempDir(), "results")
	if err := os.MkdirAll(resultsDir, consts.DefaultDirPerm); err != nil {
		t.Fatalf("failed to create results directory: %v", err)
	}

	*cliConfig = *newCLIConfig()
	cliConfig.ResultsDir = resultsDir
	cliConfig.DelayMs = 0
	cliConfig.AllowedDomains = []string{"127.0.0.1"}

	appCtx := &AppContext{
		Logger:     nil,
		ResultsDir: resultsDir,
		Config:     cliConfig,
	}
	globalAppContext = appCtx

	t.Cleanup(func() {
		globalAppContext = original
		*cliConfig = savedConfig
	})
	return appCtx
}

// captureStdout redirects os.Stdout while fn runs and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	original := os.Stdout
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() {
		os.Stdout = original
	}()
	fn()
	_ = w.Close()
	return <-done
}
