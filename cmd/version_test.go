package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	originalVerbose := verbose
	t.Cleanup(func() {
		verbose = originalVerbose
		versionCmd.SetOut(nil)
	})

	var out bytes.Buffer
	versionCmd.SetOut(&out)

	verbose = false
	versionCmd.Run(versionCmd, nil)
	if got := out.String(); got != "siteaudit version "+Version+"\n" {
		t.Fatalf("unexpected short version: %q", got)
	}

	out.Reset()
	verbose = true
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(out.String(), "Go Version:") || !strings.Contains(out.String(), "Git Commit: "+GitCommit) {
		t.Fatalf("unexpected verbose version:\n%s", out.String())
	}
}
