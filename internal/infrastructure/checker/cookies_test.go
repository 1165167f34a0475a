package checker

import (
	"testing"

	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
)

func TestAnalyzeCookies(t *testing.T) {
	cookies := []browser.Cookie{
		{Name: "session", Domain: "example.com"},
		{Name: "prefs", Domain: "example.com", Secure: true},
		{Name: "safe", Domain: "example.com", Secure: true, HTTPOnly: true},
	}

	findings := AnalyzeCookies(cookies)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}

	if !findings[0].MissingSecure || !findings[0].MissingHTTPOnly {
		t.Errorf("expected session cookie to miss both flags: %+v", findings[0])
	}
	if findings[1].MissingSecure {
		t.Errorf("expected prefs cookie to include Secure flag")
	}
	if !findings[1].MissingHTTPOnly {
		t.Errorf("expected prefs cookie to miss HttpOnly flag")
	}

	if got, want := findings[0].Warning(), `Cookie "session" is missing Secure and HttpOnly flag`; got != want {
		t.Errorf("Warning() = %q, want %q", got, want)
	}
	if got, want := findings[1].Warning(), `Cookie "prefs" is missing HttpOnly flag`; got != want {
		t.Errorf("Warning() = %q, want %q", got, want)
	}
}

func TestAnalyzeCookies_NoCookies(t *testing.T) {
	if findings := AnalyzeCookies(nil); len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}
