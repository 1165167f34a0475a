package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

// AdminPaths are probed relative to the target, in this order.
var AdminPaths = []string{"/admin", "/wp-admin", "/administrator", "/login"}

// SecurityAuditor runs the passive security checks against a loaded page.
type SecurityAuditor struct {
	Client       *http.Client
	NavTimeout   time.Duration
	AdminTimeout time.Duration
	UserAgent    string
	Logger       *zap.SugaredLogger
}

// NewSecurityAuditor returns an auditor with the default timeouts.
func NewSecurityAuditor(logger *zap.SugaredLogger) *SecurityAuditor {
	return &SecurityAuditor{
		Client:       &http.Client{},
		NavTimeout:   consts.PageLoadTimeout,
		AdminTimeout: consts.AdminProbeTimeout,
		UserAgent:    consts.UserAgent,
		Logger:       logger,
	}
}

// Name returns the name of this checker.
func (a *SecurityAuditor) Name() string {
	return "security"
}

// Audit inspects https usage, response headers, the generator meta tag,
// cookies and the well-known admin paths. Each step fails on its own without
// stopping the others.
func (a *SecurityAuditor) Audit(ctx context.Context, page browser.Page, target string) report.SecurityAuditResult {
	result := report.NewSecurityAuditResult()
	result.HTTPS = CheckHTTPS(target)

	timeout := a.NavTimeout
	if timeout <= 0 {
		timeout = consts.PageLoadTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := page.Navigate(navCtx, target, browser.WaitLoad)
	cancel()
	if err != nil {
		a.logger().Warnw("security header check failed", "target", target, "error", err)
		result.Headers = uncheckedHeaders(err.Error())
		result.Error = "header check failed: " + err.Error()
	} else {
		headers := http.Header{}
		if resp != nil && resp.Headers != nil {
			headers = resp.Headers
		}
		result.Headers = AnalyzeHeaders(headers)
		result.ExposedTechnologies = append(result.ExposedTechnologies, DisclosedTechnologies(headers)...)
	}

	if html, err := page.HTML(ctx); err != nil {
		a.logger().Warnw("generator check failed", "target", target, "error", err)
	} else if generator, err := DetectGenerator(html); err != nil {
		a.logger().Warnw("generator check failed", "target", target, "error", err)
	} else if generator != "" {
		result.ExposedTechnologies = append(result.ExposedTechnologies, "Generator meta tag reveals: "+generator)
	}

	if cookies, err := page.Cookies(ctx); err != nil {
		a.logger().Warnw("cookie check failed", "target", target, "error", err)
	} else {
		for _, finding := range AnalyzeCookies(cookies) {
			result.InsecureCookies = append(result.InsecureCookies, finding.Warning())
		}
	}

	result.OpenAdminPaths = a.probeAdminPaths(ctx, target)
	return result
}

// CheckHTTPS judges https enforcement from the URL scheme alone.
func CheckHTTPS(target string) report.HTTPSResult {
	u, err := url.Parse(target)
	if err != nil {
		return report.HTTPSResult{Message: "Could not parse URL: " + err.Error()}
	}
	if strings.EqualFold(u.Scheme, "https") {
		return report.HTTPSResult{Enforced: true, Message: "Site uses HTTPS"}
	}
	return report.HTTPSResult{Message: "Site does not use HTTPS; traffic can be intercepted"}
}

// DetectGenerator returns the content of <meta name="generator">, if any.
func DetectGenerator(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	var generator string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "generator") {
			return true
		}
		content, _ := s.Attr("content")
		generator = strings.TrimSpace(content)
		return generator == ""
	})
	return generator, nil
}

// probeAdminPaths returns a warning for every admin path answering below 400.
func (a *SecurityAuditor) probeAdminPaths(ctx context.Context, target string) []string {
	open := make([]string, 0)
	base, err := url.Parse(target)
	if err != nil || base.Host == "" {
		a.logger().Warnw("admin path check skipped", "target", target, "error", err)
		return open
	}

	for _, p := range AdminPaths {
		candidate := base.ResolveReference(&url.URL{Path: p}).String()
		status, err := a.fetchStatus(ctx, candidate)
		if err != nil {
			a.logger().Debugw("admin path unreachable", "url", candidate, "error", err)
			continue
		}
		if status < http.StatusBadRequest {
			open = append(open, fmt.Sprintf("Admin path accessible: %s (HTTP %d)", candidate, status))
		}
	}
	return open
}

func (a *SecurityAuditor) fetchStatus(ctx context.Context, target string) (int, error) {
	timeout := a.AdminTimeout
	if timeout <= 0 {
		timeout = consts.AdminProbeTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBodyBytes))
	return resp.StatusCode, nil
}

// SkippedSecurity is the section recorded when the page never loaded.
func SkippedSecurity(target, reason string) report.SecurityAuditResult {
	result := report.NewSecurityAuditResult()
	result.HTTPS = CheckHTTPS(target)
	result.Headers = uncheckedHeaders(reason)
	result.Error = "skipped: " + reason
	return result
}

func (a *SecurityAuditor) logger() *zap.SugaredLogger {
	if a.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return a.Logger
}
