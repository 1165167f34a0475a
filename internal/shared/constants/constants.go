package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// PageLoadTimeout bounds the main navigation and every responsiveness reload.
	PageLoadTimeout = 15 * time.Second
	// LinkProbeTimeout bounds each outbound request made for an external link.
	LinkProbeTimeout = 10 * time.Second
	// AdminProbeTimeout bounds each admin path probe.
	AdminProbeTimeout = 5 * time.Second
	// DefaultRunDelay is applied before the browser session is released.
	DefaultRunDelay = 1000 * time.Millisecond
)

const (
	// UserAgent identifies outbound link and admin path probes.
	UserAgent = "Mozilla/5.0 (compatible; siteaudit/1.0; +https://github.com/khanhnv2901/siteaudit)"

	// ReportFilename is the per-run JSON report name.
	ReportFilename = "report.json"
	// MarkdownFilename is the companion human-readable report.
	MarkdownFilename = "report.md"
	// ScreenshotsDir holds one PNG per device profile.
	ScreenshotsDir = "screenshots"
)
