package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
)

// WriteMarkdown writes the report as a markdown document with the same
// sections as the console summary.
func WriteMarkdown(w io.Writer, r *report.Report) error {
	md := markdown.NewMarkdown(w)

	writeMarkdownHeader(md, r)
	writeMarkdownFunctionality(md, r.Functionality)
	writeMarkdownResponsiveness(md, r.Responsiveness)
	writeMarkdownSecurity(md, r.SecurityAudit)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by siteaudit on %s*", r.Timestamp.Format("2006-01-02 15:04:05 MST"))

	return md.Build()
}

func writeMarkdownHeader(md *markdown.Markdown, r *report.Report) {
	md.H1("Site Audit: " + r.Label)
	md.PlainText("")

	status := "-"
	if r.Status != 0 {
		status = strconv.Itoa(r.Status)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			row("URL", "`"+r.URL+"`"),
			row("Domain", r.Domain),
			row("HTTP Status", status),
			row("Title", orDash(r.Title)),
			row("Load Time", orDash(r.LoadTime)),
		},
	})
	md.PlainText("")

	if r.Error != "" {
		md.Cautionf("The page did not load: %s", r.Error)
		md.PlainText("")
	}
}

func writeMarkdownFunctionality(md *markdown.Markdown, f report.Functionality) {
	md.H2("Functionality")
	md.PlainText("")
	if f.Error != "" {
		md.Note(f.Error)
		md.PlainText("")
	}

	md.H3("Broken Links")
	md.PlainText("")
	if len(f.BrokenLinks) == 0 {
		md.PlainText("No broken external links.")
	} else {
		rows := make([][]string, len(f.BrokenLinks))
		for i, l := range f.BrokenLinks {
			rows[i] = row(l.Status.String(), l.Href, orDash(l.Text), orDash(l.Error))
		}
		md.Table(markdown.TableSet{Header: []string{"Status", "URL", "Text", "Error"}, Rows: rows})
	}
	md.PlainText("")

	md.H3("Disabled Buttons")
	md.PlainText("")
	if len(f.DisabledButtons) == 0 {
		md.PlainText("No disabled buttons.")
	} else {
		rows := make([][]string, len(f.DisabledButtons))
		for i, b := range f.DisabledButtons {
			rows[i] = row(b.Text, b.Type, b.Location, orDash(b.Parent), orDash(b.AriaLabel))
		}
		md.Table(markdown.TableSet{Header: []string{"Text", "Type", "Location", "Parent", "Aria Label"}, Rows: rows})
	}
	md.PlainText("")
}

func writeMarkdownResponsiveness(md *markdown.Markdown, entries []report.ResponsiveEntry) {
	md.H2("Responsiveness")
	md.PlainText("")

	rows := make([][]string, len(entries))
	for i, e := range entries {
		result := "OK"
		switch {
		case e.Error != "":
			result = "Error: " + e.Error
		case e.Warning != "":
			result = "Warning: " + e.Warning
		}
		status := "-"
		if e.Status != 0 {
			status = strconv.Itoa(e.Status)
		}
		rows[i] = row(
			e.Device,
			fmt.Sprintf("%dx%d @%gx", e.Viewport.Width, e.Viewport.Height, e.Viewport.DeviceScaleFactor),
			status,
			result,
			orDash(e.Screenshot),
		)
	}
	md.Table(markdown.TableSet{Header: []string{"Device", "Viewport", "Status", "Result", "Screenshot"}, Rows: rows})
	md.PlainText("")
}

func writeMarkdownSecurity(md *markdown.Markdown, s report.SecurityAuditResult) {
	md.H2("Security")
	md.PlainText("")
	if s.Error != "" {
		md.Warningf("Security audit incomplete: %s", s.Error)
		md.PlainText("")
	}

	if s.HTTPS.Enforced {
		md.PlainText("**HTTPS:** " + s.HTTPS.Message)
	} else {
		md.PlainText("**HTTPS:** ❌ " + s.HTTPS.Message)
	}
	md.PlainText("")

	rows := make([][]string, len(s.Headers))
	for i, h := range s.Headers {
		present := "❌"
		if h.Present {
			present = "✅"
		}
		note := h.Message
		if len(h.Issues) > 0 {
			note += "; " + strings.Join(h.Issues, "; ")
		}
		rows[i] = row(h.Name, present, note, orDash(h.Recommendation))
	}
	md.Table(markdown.TableSet{Header: []string{"Header", "Present", "Notes", "Recommendation"}, Rows: rows})
	md.PlainText("")

	writeMarkdownList(md, "Exposed Technologies", s.ExposedTechnologies)
	writeMarkdownList(md, "Insecure Cookies", s.InsecureCookies)
	writeMarkdownList(md, "Open Admin Paths", s.OpenAdminPaths)
}

func writeMarkdownList(md *markdown.Markdown, title string, items []string) {
	md.H3(title)
	md.PlainText("")
	if len(items) == 0 {
		md.PlainText("None found.")
	} else {
		md.BulletList(items...)
	}
	md.PlainText("")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// row escapes page-controlled text so each value stays in its own table cell.
func row(values ...string) []string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cellReplacer.Replace(v)
	}
	return cells
}
