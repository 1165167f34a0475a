package checker

import (
	"net/http"
	"strings"
	"testing"
)

func TestAnalyzeHeaders_AllMissing(t *testing.T) {
	findings := AnalyzeHeaders(http.Header{})
	want := []string{
		"strict-transport-security",
		"content-security-policy",
		"x-frame-options",
		"x-content-type-options",
		"referrer-policy",
		"permissions-policy",
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(findings))
	}
	for i, f := range findings {
		if f.Name != want[i] {
			t.Errorf("finding %d: %q, want %q", i, f.Name, want[i])
		}
		if f.Present {
			t.Errorf("%s should be missing", f.Name)
		}
		if !strings.HasPrefix(f.Message, "Missing: ") || f.Recommendation == "" {
			t.Errorf("%s: unexpected missing finding %+v", f.Name, f)
		}
	}
	if findings[0].Message != "Missing: Enforces HTTPS connections" {
		t.Errorf("unexpected HSTS message %q", findings[0].Message)
	}
}

func TestAnalyzeHeaders_CaseInsensitivePresence(t *testing.T) {
	h := http.Header{}
	h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	h.Set("X-Content-Type-Options", "nosniff")

	findings := AnalyzeHeaders(h)
	if !findings[0].Present || findings[0].Message != "Present" || len(findings[0].Issues) != 0 {
		t.Errorf("unexpected HSTS finding %+v", findings[0])
	}
	if findings[0].Value != "max-age=31536000; includeSubDomains" {
		t.Errorf("expected value to be recorded, got %q", findings[0].Value)
	}
	if !findings[3].Present || len(findings[3].Issues) != 0 {
		t.Errorf("unexpected x-content-type-options finding %+v", findings[3])
	}
}

func TestHeaderRules(t *testing.T) {
	tests := []struct {
		name   string
		eval   func(string) []string
		value  string
		issues int
	}{
		{"hsts short max-age", evaluateHSTS, "max-age=300", 2},
		{"hsts disabled", evaluateHSTS, "max-age=0; includeSubDomains", 1},
		{"csp unsafe", evaluateCSP, "default-src 'self'; script-src 'unsafe-inline' *", 2},
		{"csp no default", evaluateCSP, "script-src 'self'", 1},
		{"xfo sameorigin", evaluateXFrameOptions, "sameorigin", 0},
		{"xfo allow-from", evaluateXFrameOptions, "ALLOW-FROM https://a.example", 1},
		{"xcto bad", evaluateXContentTypeOptions, "sniff", 1},
		{"referrer strict", evaluateReferrerPolicy, "strict-origin-when-cross-origin", 0},
		{"referrer leaky", evaluateReferrerPolicy, "unsafe-url", 1},
		{"permissions minimal", evaluatePermissionsPolicy, "a=()", 1},
		{"permissions ok", evaluatePermissionsPolicy, "geolocation=(), camera=()", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eval(tt.value); len(got) != tt.issues {
				t.Errorf("got %d issues %v, want %d", len(got), got, tt.issues)
			}
		})
	}
}

func TestDisclosedTechnologies(t *testing.T) {
	h := http.Header{}
	h.Set("X-Powered-By", "PHP/8.2")
	h.Set("Server", "Apache")

	got := DisclosedTechnologies(h)
	if len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %v", got)
	}
	if got[0] != "Server header exposes server information: Apache" {
		t.Errorf("unexpected first warning %q", got[0])
	}
	if len(DisclosedTechnologies(http.Header{})) != 0 {
		t.Errorf("expected no warnings for empty headers")
	}
}
