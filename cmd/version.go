package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version information for siteaudit. Combine with --verbose for build details.",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if verbose {
			fmt.Fprintf(out, `siteaudit version information:
  Version:    %s
  Git Commit: %s
  Build Date: %s
  Go Version: %s
  OS/Arch:    %s/%s
  Compiler:   %s
`, Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.Compiler)
			return
		}
		fmt.Fprintf(out, "siteaudit version %s\n", Version)
	},
}
