// Package render turns a report into console text and a markdown document.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
)

var (
	colorTitle   = color.New(color.FgCyan, color.Bold).SprintFunc()
	colorSection = color.New(color.FgCyan).SprintFunc()
	colorOK      = color.New(color.FgGreen).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// printer remembers the first write error so sections can print unchecked.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// RenderText writes the human-readable run summary to w.
func RenderText(w io.Writer, r *report.Report) error {
	p := &printer{w: w}

	p.printf("%s\n", colorTitle(fmt.Sprintf("=== Site audit: %s [%s] ===", r.URL, r.Label)))
	p.printf("Domain:     %s\n", r.Domain)
	p.printf("Status:     %s\n", statusText(r.Status))
	p.printf("Title:      %s\n", orDash(r.Title))
	p.printf("Load time:  %s (%d ms)\n", orDash(r.LoadTime), r.LoadTimeMs)
	p.printf("Timestamp:  %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if r.Error != "" {
		p.printf("Error:      %s\n", colorError(r.Error))
	}

	renderFunctionality(p, r.Functionality)
	renderResponsiveness(p, r.Responsiveness)
	renderSecurity(p, r.SecurityAudit)

	if r.ReportPath != "" {
		p.printf("\nReport saved: %s\n", r.ReportPath)
	}
	return p.err
}

func renderFunctionality(p *printer, f report.Functionality) {
	p.printf("\n%s\n", colorSection("--- Functionality ---"))
	if f.Error != "" {
		p.printf("  %s\n", colorWarn(f.Error))
	}

	p.printf("Broken links: %s\n", countText(len(f.BrokenLinks)))
	for _, l := range f.BrokenLinks {
		p.printf("  [%s] %s", colorError(l.Status.String()), l.Href)
		if l.Text != "" {
			p.printf(" (%s)", l.Text)
		}
		if l.Error != "" {
			p.printf(" - %s", l.Error)
		}
		p.printf("\n")
	}

	p.printf("Disabled buttons: %s\n", countText(len(f.DisabledButtons)))
	for _, b := range f.DisabledButtons {
		if b.Error != "" {
			p.printf("  %s: %s\n", b.Text, colorError(b.Error))
			continue
		}
		details := []string{b.Type, "at " + b.Location}
		if b.Parent != "" {
			details = append(details, "in "+b.Parent)
		}
		if b.AriaLabel != "" {
			details = append(details, fmt.Sprintf("aria-label %q", b.AriaLabel))
		}
		p.printf("  %q (%s)\n", b.Text, strings.Join(details, ", "))
	}
}

func renderResponsiveness(p *printer, entries []report.ResponsiveEntry) {
	p.printf("\n%s\n", colorSection("--- Responsiveness ---"))
	for _, e := range entries {
		size := fmt.Sprintf("%dx%d", e.Viewport.Width, e.Viewport.Height)
		switch {
		case e.Error != "":
			p.printf("  %s %-17s %-10s %s\n", colorError("✗"), e.Device, size, colorError(e.Error))
		case e.Warning != "":
			p.printf("  %s %-17s %-10s HTTP %d  %s\n", colorWarn("!"), e.Device, size, e.Status, e.Screenshot)
			p.printf("      %s\n", colorWarn(e.Warning))
		default:
			p.printf("  %s %-17s %-10s HTTP %d  %s\n", colorOK("✓"), e.Device, size, e.Status, e.Screenshot)
		}
	}
}

func renderSecurity(p *printer, s report.SecurityAuditResult) {
	p.printf("\n%s\n", colorSection("--- Security ---"))
	if s.Error != "" {
		p.printf("  %s\n", colorWarn(s.Error))
	}

	if s.HTTPS.Enforced {
		p.printf("HTTPS: %s\n", colorOK(s.HTTPS.Message))
	} else {
		p.printf("HTTPS: %s\n", colorError(s.HTTPS.Message))
	}

	p.printf("Security headers:\n")
	for _, h := range s.Headers {
		if h.Present {
			p.printf("  %s %s: %s\n", colorOK("✓"), h.Name, h.Message)
			for _, issue := range h.Issues {
				p.printf("      %s\n", colorWarn(issue))
			}
			continue
		}
		p.printf("  %s %s: %s\n", colorError("✗"), h.Name, h.Message)
	}

	renderList(p, "Exposed technologies", s.ExposedTechnologies)
	renderList(p, "Insecure cookies", s.InsecureCookies)
	renderList(p, "Open admin paths", s.OpenAdminPaths)
}

func renderList(p *printer, title string, items []string) {
	p.printf("%s: %s\n", title, countText(len(items)))
	for _, item := range items {
		p.printf("  - %s\n", colorWarn(item))
	}
}

func statusText(status int) string {
	switch {
	case status == 0:
		return "-"
	case status >= 400:
		return colorError(status)
	default:
		return colorOK(status)
	}
}

func countText(n int) string {
	if n == 0 {
		return colorOK("0")
	}
	return colorWarn(n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
