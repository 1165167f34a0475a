package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"go.uber.org/zap"

	auditapp "github.com/khanhnv2901/siteaudit/internal/application/audit"
	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser/browsertest"
	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

// stubBrowser replaces the browser factory with a fake session for one test.
func stubBrowser(t *testing.T, page *browsertest.Page) *browsertest.Session {
	t.Helper()
	session := browsertest.NewSession(page)
	original := newBrowserSession
	newBrowserSession = func(context.Context, browser.Options, *zap.SugaredLogger) (auditapp.Session, error) {
		return session, nil
	}
	t.Cleanup(func() { newBrowserSession = original })
	return session
}

func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestRunArgsRequireURLAndLabel(t *testing.T) {
	for _, args := range [][]string{nil, {"https://example.com"}, {"a", "b", "c"}} {
		err := runCmd.Args(runCmd, args)
		if !errors.Is(err, sharedErrors.ErrMissingArgument) {
			t.Fatalf("args %v: expected ErrMissingArgument, got %v", args, err)
		}
	}
	if err := runCmd.Args(runCmd, []string{"https://example.com", "homepage"}); err != nil {
		t.Fatalf("two args should be accepted: %v", err)
	}
}

func TestRunRejectsDisallowedDomain(t *testing.T) {
	appCtx := setupTestAppContext(t)
	appCtx.Config.AllowedDomains = []string{"example.com"}

	started := false
	original := newBrowserSession
	newBrowserSession = func(context.Context, browser.Options, *zap.SugaredLogger) (auditapp.Session, error) {
		started = true
		return browsertest.NewSession(nil), nil
	}
	t.Cleanup(func() { newBrowserSession = original })

	err := runCmd.RunE(runCmd, []string{"https://other.com", "homepage"})
	var notAllowed *DomainNotAllowedError
	if !errors.As(err, &notAllowed) {
		t.Fatalf("expected DomainNotAllowedError, got %v", err)
	}
	if !errors.Is(err, sharedErrors.ErrDomainNotAllowed) {
		t.Fatalf("expected error to unwrap to ErrDomainNotAllowed")
	}
	if started {
		t.Fatal("browser must not start for a disallowed domain")
	}
	if _, statErr := os.Stat(filepath.Join(appCtx.ResultsDir, "homepage")); !os.IsNotExist(statErr) {
		t.Fatalf("no run directory should be created, stat err: %v", statErr)
	}
}

func TestRunRejectsInvalidLabel(t *testing.T) {
	setupTestAppContext(t)

	err := runCmd.RunE(runCmd, []string{"http://127.0.0.1/", "../escape"})
	if !errors.Is(err, sharedErrors.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestRunRejectsInvalidURL(t *testing.T) {
	setupTestAppContext(t)

	err := runCmd.RunE(runCmd, []string{"not a url", "homepage"})
	if !errors.Is(err, sharedErrors.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestRunBrowserUnavailable(t *testing.T) {
	setupTestAppContext(t)

	original := newBrowserSession
	newBrowserSession = func(context.Context, browser.Options, *zap.SugaredLogger) (auditapp.Session, error) {
		return nil, fmt.Errorf("%w: chrome not found", sharedErrors.ErrBrowserUnavailable)
	}
	t.Cleanup(func() { newBrowserSession = original })

	err := runCmd.RunE(runCmd, []string{"http://127.0.0.1/", "homepage"})
	if !errors.Is(err, sharedErrors.ErrBrowserUnavailable) {
		t.Fatalf("expected ErrBrowserUnavailable, got %v", err)
	}
	if got := strings.Count(err.Error(), sharedErrors.ErrBrowserUnavailable.Error()); got != 1 {
		t.Fatalf("browser error should be reported once, got %q", err.Error())
	}
}

func TestRunWritesReportAndSummary(t *testing.T) {
	noColor(t)
	appCtx := setupTestAppContext(t)
	appCtx.Config.Telemetry = true

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	page := &browsertest.Page{
		TitleText: "Fixture",
		HTMLBody:  `<html><body><a href="` + server.URL + `/broken">Partner</a><a href="/about">About</a></body></html>`,
	}
	session := stubBrowser(t, page)

	var out bytes.Buffer
	runCmd.SetOut(&out)
	t.Cleanup(func() { runCmd.SetOut(nil) })

	if err := runCmd.RunE(runCmd, []string{server.URL + "/", "homepage"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if session.Closed() != 1 {
		t.Fatalf("expected session closed once, got %d", session.Closed())
	}

	summary := out.String()
	for _, want := range []string{
		"=== Site audit: " + server.URL + "/ [homepage] ===",
		"Broken links: 1",
		"/broken (Partner)",
		"Report saved: homepage/report.json",
		"Run status: complete",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q\n%s", want, summary)
		}
	}

	data, err := os.ReadFile(filepath.Join(appCtx.ResultsDir, "homepage", "report.json"))
	if err != nil {
		t.Fatalf("report.json not written: %v", err)
	}
	if !bytes.Contains(data, []byte(`"label": "homepage"`)) {
		t.Fatalf("unexpected report content:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(appCtx.ResultsDir, "homepage", "report.md")); err != nil {
		t.Fatalf("report.md not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(appCtx.ResultsDir, "homepage", "screenshots")); err != nil {
		t.Fatalf("screenshots dir missing: %v", err)
	}
	telemetry, err := os.ReadFile(filepath.Join(appCtx.ResultsDir, telemetryFilename))
	if err != nil {
		t.Fatalf("telemetry not recorded: %v", err)
	}
	if !bytes.Contains(telemetry, []byte(`"broken_links":1`)) {
		t.Fatalf("unexpected telemetry: %s", telemetry)
	}
}

func TestRunStatus(t *testing.T) {
	ok := &report.Report{}
	if got := runStatus(ok, nil); got != "complete" {
		t.Fatalf("expected complete, got %s", got)
	}
	if got := runStatus(ok, errors.New("disk full")); got != "partial" {
		t.Fatalf("expected partial, got %s", got)
	}
	failed := &report.Report{Error: "net::ERR_NAME_NOT_RESOLVED"}
	if got := runStatus(failed, nil); got != "failed" {
		t.Fatalf("expected failed, got %s", got)
	}
}
