package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show effective configuration and result paths",
	Long: `Display siteaudit configuration information including:
  - Config file in use and where it is searched for
  - Results directory
  - Allowed domains and timeouts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil {
			return fmt.Errorf("application context not initialized")
		}
		cfg := appCtx.Config
		if cfg == nil {
			cfg = cliConfig
		}

		resultsExists := "✗ (not created yet)"
		if _, err := os.Stat(appCtx.ResultsDir); err == nil {
			resultsExists = "✓ (exists)"
		}

		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = "(none, using defaults)"
		}

		allowed := "(none; every run will be rejected)"
		if len(cfg.AllowedDomains) > 0 {
			allowed = strings.Join(cfg.AllowedDomains, ", ")
		}

		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "siteaudit System Information")
		fmt.Fprintln(out, "============================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:           %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Version:            %s\n", Version)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Configuration File: %s\n", configFile)
		fmt.Fprintf(out, "Search Paths:       %s\n", strings.Join(configSearchPaths(), ", "))
		fmt.Fprintf(out, "Results Directory:  %s %s\n", appCtx.ResultsDir, resultsExists)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Allowed Domains:    %s\n", allowed)
		fmt.Fprintf(out, "Page Load Timeout:  %ds\n", cfg.Timeouts.PageLoadSecs)
		fmt.Fprintf(out, "Link Timeout:       %ds\n", cfg.Timeouts.LinkSecs)
		fmt.Fprintf(out, "Admin Timeout:      %ds\n", cfg.Timeouts.AdminSecs)
		fmt.Fprintf(out, "Release Delay:      %dms\n", cfg.DelayMs)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To allow a domain, add it to siteaudit.yaml:")
		fmt.Fprintln(out, "  allowed_domains:")
		fmt.Fprintln(out, "    - example.com")

		return nil
	},
}
