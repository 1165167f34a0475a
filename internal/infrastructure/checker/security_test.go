package checker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser/browsertest"
)

func newTestAuditor() *SecurityAuditor {
	return NewSecurityAuditor(zap.NewNop().Sugar())
}

func TestCheckHTTPS(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"HTTPS://example.com/path", true},
		{"http://example.com", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		got := CheckHTTPS(tt.url)
		if got.Enforced != tt.want {
			t.Errorf("CheckHTTPS(%q).Enforced = %v, want %v", tt.url, got.Enforced, tt.want)
		}
		if got.Message == "" {
			t.Errorf("CheckHTTPS(%q) returned empty message", tt.url)
		}
	}
}

func TestDetectGenerator(t *testing.T) {
	html := `<html><head><meta name="viewport" content="width=device-width">
		<meta name="Generator" content=" WordPress 6.4.2 "></head></html>`
	got, err := DetectGenerator(html)
	if err != nil {
		t.Fatalf("DetectGenerator returned error: %v", err)
	}
	if got != "WordPress 6.4.2" {
		t.Fatalf("unexpected generator %q", got)
	}

	got, err = DetectGenerator(`<html><head><title>x</title></head></html>`)
	if err != nil || got != "" {
		t.Fatalf("expected no generator, got %q (%v)", got, err)
	}
}

func TestSecurityAudit_FullPass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login", "/wp-admin":
			w.WriteHeader(http.StatusOK)
		case "/admin":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	page := &browsertest.Page{
		HTMLBody: `<meta name="generator" content="Hugo 0.120">`,
		NavigateFunc: func(url string, call int) (*browser.Response, error) {
			return &browser.Response{URL: url, Status: http.StatusOK, Headers: http.Header{
				"X-Frame-Options": {"DENY"},
				"Server":          {"nginx/1.25"},
			}}, nil
		},
		CookieJar: []browser.Cookie{
			{Name: "sid", Domain: "example.com"},
			{Name: "ok", Domain: "example.com", Secure: true, HTTPOnly: true},
		},
	}

	result := newTestAuditor().Audit(context.Background(), page, server.URL+"/page")

	if result.HTTPS.Enforced {
		t.Errorf("http test server should not count as https")
	}
	if len(result.Headers) != 6 {
		t.Fatalf("expected 6 header findings, got %d", len(result.Headers))
	}
	for i, name := range ImportantHeaderNames() {
		finding := result.Headers[i]
		if finding.Name != name {
			t.Errorf("finding %d: name %q, want %q", i, finding.Name, name)
		}
		if wantPresent := name == "x-frame-options"; finding.Present != wantPresent {
			t.Errorf("finding %s: present %v, want %v", name, finding.Present, wantPresent)
		}
	}

	wantTech := []string{
		"Server header exposes server information: nginx/1.25",
		"Generator meta tag reveals: Hugo 0.120",
	}
	if strings.Join(result.ExposedTechnologies, "|") != strings.Join(wantTech, "|") {
		t.Errorf("unexpected exposed technologies %v", result.ExposedTechnologies)
	}

	if len(result.InsecureCookies) != 1 || !strings.Contains(result.InsecureCookies[0], `"sid"`) {
		t.Errorf("unexpected insecure cookies %v", result.InsecureCookies)
	}

	if len(result.OpenAdminPaths) != 2 {
		t.Fatalf("expected 2 open admin paths, got %v", result.OpenAdminPaths)
	}
	if result.OpenAdminPaths[0] != "Admin path accessible: "+server.URL+"/wp-admin (HTTP 200)" {
		t.Errorf("unexpected admin path warning %q", result.OpenAdminPaths[0])
	}
	if result.Error != "" {
		t.Errorf("unexpected section error %q", result.Error)
	}
	if nav := page.Navigations(); len(nav) != 1 || nav[0] != server.URL+"/page" {
		t.Errorf("expected a fresh navigation to the target, got %v", nav)
	}
}

func TestSecurityAudit_StepsDegradeIndependently(t *testing.T) {
	page := &browsertest.Page{
		HTMLErr:    errors.New("no document"),
		CookiesErr: errors.New("cookies unavailable"),
		NavigateFunc: func(string, int) (*browser.Response, error) {
			return nil, errors.New("net::ERR_TIMED_OUT")
		},
	}

	auditor := newTestAuditor()
	auditor.Client = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial failed")
	})}

	result := auditor.Audit(context.Background(), page, "https://example.com")
	if !result.HTTPS.Enforced {
		t.Errorf("https should still be evaluated")
	}
	if len(result.Headers) != 6 {
		t.Fatalf("expected 6 unchecked header findings, got %d", len(result.Headers))
	}
	for _, h := range result.Headers {
		if h.Present || !strings.HasPrefix(h.Message, "Not checked") {
			t.Errorf("unexpected unchecked finding %+v", h)
		}
	}
	if !strings.Contains(result.Error, "ERR_TIMED_OUT") {
		t.Errorf("expected navigation error on section, got %q", result.Error)
	}
	if result.ExposedTechnologies == nil || result.InsecureCookies == nil || result.OpenAdminPaths == nil {
		t.Errorf("lists must stay non-nil: %+v", result)
	}
}

func TestSkippedSecurity(t *testing.T) {
	result := SkippedSecurity("http://example.com", "page did not load")
	if result.HTTPS.Enforced {
		t.Errorf("expected https false for http URL")
	}
	if len(result.Headers) != 6 {
		t.Fatalf("expected 6 header entries, got %d", len(result.Headers))
	}
	if result.Error != "skipped: page did not load" {
		t.Errorf("unexpected error %q", result.Error)
	}
}
