package checker

import (
	"net/http"
	"strings"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
)

// headerRule defines one important security header: what it protects against
// when missing, and how a present value is judged.
type headerRule struct {
	Name           string
	Purpose        string
	Recommendation string
	Evaluate       func(value string) []string
}

// importantHeaders is checked in this order; findings keep the same order.
var importantHeaders = []headerRule{
	{
		Name:           "strict-transport-security",
		Purpose:        "Enforces HTTPS connections",
		Recommendation: "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains'",
		Evaluate:       evaluateHSTS,
	},
	{
		Name:           "content-security-policy",
		Purpose:        "Prevents XSS and data injection attacks",
		Recommendation: "Implement a strict Content-Security-Policy appropriate for the application",
		Evaluate:       evaluateCSP,
	},
	{
		Name:           "x-frame-options",
		Purpose:        "Prevents clickjacking attacks",
		Recommendation: "Add 'X-Frame-Options: DENY' or 'SAMEORIGIN'",
		Evaluate:       evaluateXFrameOptions,
	},
	{
		Name:           "x-content-type-options",
		Purpose:        "Prevents MIME type sniffing",
		Recommendation: "Add 'X-Content-Type-Options: nosniff'",
		Evaluate:       evaluateXContentTypeOptions,
	},
	{
		Name:           "referrer-policy",
		Purpose:        "Controls referrer information sent with requests",
		Recommendation: "Add 'Referrer-Policy: strict-origin-when-cross-origin' or 'no-referrer'",
		Evaluate:       evaluateReferrerPolicy,
	},
	{
		Name:           "permissions-policy",
		Purpose:        "Controls which browser features and APIs can be used",
		Recommendation: "Add 'Permissions-Policy' (e.g., 'geolocation=(), microphone=()')",
		Evaluate:       evaluatePermissionsPolicy,
	},
}

// disclosureHeaders reveal server technology when present.
var disclosureHeaders = []string{
	"Server",
	"X-Powered-By",
	"X-AspNet-Version",
	"X-AspNetMvc-Version",
}

// ImportantHeaderNames returns the checked header names in check order.
func ImportantHeaderNames() []string {
	names := make([]string, len(importantHeaders))
	for i, rule := range importantHeaders {
		names[i] = rule.Name
	}
	return names
}

// AnalyzeHeaders returns one finding per important header, in table order.
func AnalyzeHeaders(headers http.Header) []report.HeaderFinding {
	findings := make([]report.HeaderFinding, 0, len(importantHeaders))
	for _, rule := range importantHeaders {
		value := headers.Get(rule.Name)
		if value == "" {
			findings = append(findings, report.HeaderFinding{
				Name:           rule.Name,
				Present:        false,
				Message:        "Missing: " + rule.Purpose,
				Recommendation: rule.Recommendation,
			})
			continue
		}

		findings = append(findings, report.HeaderFinding{
			Name:    rule.Name,
			Present: true,
			Message: "Present",
			Value:   value,
			Issues:  rule.Evaluate(value),
		})
	}
	return findings
}

// uncheckedHeaders is used when no response was available to inspect.
func uncheckedHeaders(reason string) []report.HeaderFinding {
	findings := make([]report.HeaderFinding, 0, len(importantHeaders))
	for _, rule := range importantHeaders {
		findings = append(findings, report.HeaderFinding{
			Name:    rule.Name,
			Present: false,
			Message: "Not checked: " + reason,
		})
	}
	return findings
}

// DisclosedTechnologies lists server details leaked through response headers.
func DisclosedTechnologies(headers http.Header) []string {
	var warnings []string
	for _, name := range disclosureHeaders {
		if value := headers.Get(name); value != "" {
			warnings = append(warnings, name+" header exposes server information: "+value)
		}
	}
	return warnings
}

func evaluateHSTS(value string) []string {
	var issues []string
	value = strings.ToLower(value)

	switch {
	case !strings.Contains(value, "max-age="):
		issues = append(issues, "Missing 'max-age' directive")
	case strings.Contains(value, "max-age=0"):
		issues = append(issues, "max-age is set to 0 (HSTS disabled)")
	case !strings.Contains(value, "max-age=31536000") && !strings.Contains(value, "max-age=63072000"):
		issues = append(issues, "Consider increasing max-age to at least 31536000 (1 year)")
	}

	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "Missing 'includeSubDomains' directive")
	}
	return issues
}

func evaluateCSP(value string) []string {
	var issues []string
	value = strings.ToLower(value)
	directives := parseCSPDirectives(value)

	if strings.Contains(value, "'unsafe-inline'") {
		issues = append(issues, "Contains 'unsafe-inline' which weakens CSP protection")
	}
	if strings.Contains(value, "'unsafe-eval'") {
		issues = append(issues, "Contains 'unsafe-eval' which allows eval() and similar functions")
	}
	if _, ok := directives["default-src"]; !ok {
		issues = append(issues, "Missing 'default-src' directive")
	}
	for _, token := range directives["script-src"] {
		switch {
		case token == "*":
			issues = append(issues, "Script sources allow any origin (*)")
		case token == "data:" || token == "blob:":
			issues = append(issues, "Script sources allow "+token+" URLs which can enable CSP bypasses")
		case strings.HasPrefix(token, "http:"):
			issues = append(issues, "Script sources allow insecure http scheme")
		}
	}
	return issues
}

func parseCSPDirectives(value string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(value, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		result[fields[0]] = fields[1:]
	}
	return result
}

func evaluateXFrameOptions(value string) []string {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch {
	case value == "DENY" || value == "SAMEORIGIN":
		return nil
	case strings.HasPrefix(value, "ALLOW-FROM"):
		return []string{"ALLOW-FROM is not supported by modern browsers; use CSP frame-ancestors"}
	default:
		return []string{"Invalid X-Frame-Options value"}
	}
}

func evaluateXContentTypeOptions(value string) []string {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return nil
	}
	return []string{"Invalid value, should be 'nosniff'"}
}

func evaluateReferrerPolicy(value string) []string {
	value = strings.ToLower(value)
	for _, policy := range []string{"no-referrer", "strict-origin", "same-origin"} {
		if strings.Contains(value, policy) {
			return nil
		}
	}
	if strings.Contains(value, "unsafe-url") || strings.Contains(value, "origin-when-cross-origin") {
		return []string{"Policy may leak sensitive information in referrer"}
	}
	return []string{"Unusual or weak referrer policy"}
}

func evaluatePermissionsPolicy(value string) []string {
	if len(strings.TrimSpace(value)) < 10 {
		return []string{"Permissions-Policy seems minimal, consider adding more restrictions"}
	}
	return nil
}
