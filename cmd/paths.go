package cmd

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "siteaudit"

// getConfigDir returns $XDG_CONFIG_HOME/siteaudit (or the platform equivalent).
func getConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// configSearchPaths lists where siteaudit.yaml is looked up, first match wins.
func configSearchPaths() []string {
	return []string{".", getConfigDir()}
}
