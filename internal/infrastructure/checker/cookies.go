package checker

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
)

// CookieFinding is a cookie lacking the Secure or HttpOnly attribute.
type CookieFinding struct {
	Name            string
	Domain          string
	MissingSecure   bool
	MissingHTTPOnly bool
}

// AnalyzeCookies returns the cookies missing Secure or HttpOnly.
func AnalyzeCookies(cookies []browser.Cookie) []CookieFinding {
	findings := make([]CookieFinding, 0)
	for _, c := range cookies {
		finding := CookieFinding{
			Name:            c.Name,
			Domain:          c.Domain,
			MissingSecure:   !c.Secure,
			MissingHTTPOnly: !c.HTTPOnly,
		}
		if finding.MissingSecure || finding.MissingHTTPOnly {
			findings = append(findings, finding)
		}
	}
	return findings
}

// Warning renders the finding for the report.
func (f CookieFinding) Warning() string {
	var missing []string
	if f.MissingSecure {
		missing = append(missing, "Secure")
	}
	if f.MissingHTTPOnly {
		missing = append(missing, "HttpOnly")
	}
	return fmt.Sprintf("Cookie %q is missing %s flag", f.Name, strings.Join(missing, " and "))
}
