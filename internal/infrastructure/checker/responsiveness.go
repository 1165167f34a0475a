package checker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

// MinReadableFontPx is the smallest computed font size not flagged on mobile.
const MinReadableFontPx = 12

// Device is a named viewport profile.
type Device struct {
	Name     string
	Viewport report.Viewport
}

// Devices are rendered in this order; responsiveness entries keep it.
var Devices = []Device{
	{Name: "Mobile Portrait", Viewport: report.Viewport{Width: 375, Height: 667, DeviceScaleFactor: 2, IsMobile: true}},
	{Name: "Mobile Landscape", Viewport: report.Viewport{Width: 667, Height: 375, DeviceScaleFactor: 2, IsMobile: true}},
	{Name: "Tablet Portrait", Viewport: report.Viewport{Width: 768, Height: 1024, DeviceScaleFactor: 2, IsMobile: true}},
	{Name: "Tablet Landscape", Viewport: report.Viewport{Width: 1024, Height: 768, DeviceScaleFactor: 2, IsMobile: true}},
	{Name: "Laptop", Viewport: report.Viewport{Width: 1366, Height: 768, DeviceScaleFactor: 1, IsMobile: false}},
	{Name: "Desktop", Viewport: report.Viewport{Width: 1920, Height: 1080, DeviceScaleFactor: 1, IsMobile: false}},
}

// ScreenshotFilename derives the PNG name for a device, e.g. "mobile-portrait.png".
func ScreenshotFilename(device string) string {
	return strings.ReplaceAll(strings.ToLower(device), " ", "-") + ".png"
}

// ScreenshotWriter stores a screenshot and returns the path recorded in the report.
type ScreenshotWriter interface {
	WriteScreenshot(filename string, data []byte) (string, error)
}

const overflowScript = `(() => ({
  scrollWidth: document.documentElement.scrollWidth,
  clientWidth: document.documentElement.clientWidth
}))()`

var tinyTextScript = fmt.Sprintf(`(() => {
  const nodes = document.querySelectorAll('p, span, a, li, td, th, label, button, small, h1, h2, h3, h4, h5, h6');
  let count = 0;
  for (const el of nodes) {
    if (!el.textContent || !el.textContent.trim()) continue;
    const size = parseFloat(window.getComputedStyle(el).fontSize);
    if (size && size < %d) count++;
  }
  return count;
})()`, MinReadableFontPx)

type overflowMetrics struct {
	ScrollWidth int `json:"scrollWidth"`
	ClientWidth int `json:"clientWidth"`
}

// ResponsivenessChecker renders the target once per device profile.
type ResponsivenessChecker struct {
	NavTimeout time.Duration
	Logger     *zap.SugaredLogger
	// Now stamps entries; tests replace it.
	Now func() time.Time
}

// NewResponsivenessChecker returns a checker with the default page load timeout.
func NewResponsivenessChecker(logger *zap.SugaredLogger) *ResponsivenessChecker {
	return &ResponsivenessChecker{
		NavTimeout: consts.PageLoadTimeout,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Name returns the name of this checker.
func (c *ResponsivenessChecker) Name() string {
	return "responsiveness"
}

// Check processes every device in order. A device failure is recorded on its
// entry and the next device still runs.
func (c *ResponsivenessChecker) Check(ctx context.Context, page browser.Page, target string, shots ScreenshotWriter) []report.ResponsiveEntry {
	entries := make([]report.ResponsiveEntry, 0, len(Devices))
	for _, device := range Devices {
		entry, err := c.checkDevice(ctx, page, target, device, shots)
		if err != nil {
			c.logger().Warnw("device check failed", "device", device.Name, "target", target, "error", err)
			entry = report.ResponsiveEntry{
				Device:    device.Name,
				Viewport:  device.Viewport,
				Error:     err.Error(),
				Timestamp: c.now(),
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *ResponsivenessChecker) checkDevice(ctx context.Context, page browser.Page, target string, device Device, shots ScreenshotWriter) (report.ResponsiveEntry, error) {
	if err := page.SetViewport(ctx, device.Viewport); err != nil {
		return report.ResponsiveEntry{}, fmt.Errorf("set viewport: %w", err)
	}

	timeout := c.NavTimeout
	if timeout <= 0 {
		timeout = consts.PageLoadTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := page.Navigate(navCtx, target, browser.WaitNetworkIdle)
	cancel()
	if err != nil {
		return report.ResponsiveEntry{}, err
	}

	data, err := page.FullScreenshot(ctx)
	if err != nil {
		return report.ResponsiveEntry{}, fmt.Errorf("screenshot: %w", err)
	}
	path, err := shots.WriteScreenshot(ScreenshotFilename(device.Name), data)
	if err != nil {
		return report.ResponsiveEntry{}, fmt.Errorf("save screenshot: %w", err)
	}

	var warnings []string
	var metrics overflowMetrics
	if err := page.Evaluate(ctx, overflowScript, &metrics); err != nil {
		return report.ResponsiveEntry{}, fmt.Errorf("overflow check: %w", err)
	}
	if metrics.ScrollWidth > metrics.ClientWidth {
		warnings = append(warnings, fmt.Sprintf("Horizontal scrollbar detected (scroll width %dpx > client width %dpx)",
			metrics.ScrollWidth, metrics.ClientWidth))
	}

	if device.Viewport.IsMobile {
		var tiny int
		if err := page.Evaluate(ctx, tinyTextScript, &tiny); err != nil {
			return report.ResponsiveEntry{}, fmt.Errorf("text size check: %w", err)
		}
		if tiny > 0 {
			warnings = append(warnings, fmt.Sprintf("%d text elements smaller than %dpx", tiny, MinReadableFontPx))
		}
	}

	status := 0
	if resp != nil {
		status = resp.Status
	}
	return report.ResponsiveEntry{
		Device:     device.Name,
		Viewport:   device.Viewport,
		Status:     status,
		Screenshot: path,
		Warning:    strings.Join(warnings, "; "),
		Timestamp:  c.now(),
	}, nil
}

// SkippedResponsiveness returns one error entry per device for runs where the
// page never loaded.
func SkippedResponsiveness(reason string, now time.Time) []report.ResponsiveEntry {
	entries := make([]report.ResponsiveEntry, 0, len(Devices))
	for _, device := range Devices {
		entries = append(entries, report.ResponsiveEntry{
			Device:    device.Name,
			Viewport:  device.Viewport,
			Error:     "skipped: " + reason,
			Timestamp: now,
		})
	}
	return entries
}

func (c *ResponsivenessChecker) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

func (c *ResponsivenessChecker) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}
