package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

// maxProbeBodyBytes is how much of a probe response body is drained before closing.
const maxProbeBodyBytes = 64 * 1024

// Link is an anchor found on the page.
type Link struct {
	Href     string
	Text     string
	External bool
}

// ExtractLinks returns every anchor carrying an href, in document order.
// Only absolute http(s) hrefs are marked external.
func ExtractLinks(html string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	links := make([]Link, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		links = append(links, Link{
			Href:     href,
			Text:     strings.Join(strings.Fields(s.Text()), " "),
			External: IsExternalLink(href),
		})
	})
	return links, nil
}

// IsExternalLink reports whether href is an absolute http or https URL.
func IsExternalLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ProbeFunc is notified after each probe.
type ProbeFunc func(href string, ok bool, duration time.Duration)

// LinkProber checks external links on a loaded page.
type LinkProber struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	// Limiter throttles outbound probes; nil means unthrottled.
	Limiter *rate.Limiter
	Logger  *zap.SugaredLogger
	OnProbe ProbeFunc
	// OnTotal receives the number of external links before probing starts.
	OnTotal func(total int)
}

// NewLinkProber returns a prober with the default timeout and user agent.
func NewLinkProber(logger *zap.SugaredLogger) *LinkProber {
	return &LinkProber{
		Client:    &http.Client{},
		Timeout:   consts.LinkProbeTimeout,
		UserAgent: consts.UserAgent,
		Logger:    logger,
	}
}

// Name returns the name of this checker.
func (p *LinkProber) Name() string {
	return "links"
}

// Check extracts the page's links and probes the external ones. It never
// fails: an extraction failure becomes a single synthetic entry.
func (p *LinkProber) Check(ctx context.Context, page browser.Page) []report.BrokenLink {
	html, err := page.HTML(ctx)
	if err == nil {
		var links []Link
		links, err = ExtractLinks(html)
		if err == nil {
			return p.Probe(ctx, links)
		}
	}

	p.logger().Warnw("link check failed", "error", err)
	return []report.BrokenLink{{
		Href:   "N/A",
		Text:   "Error checking links",
		Status: report.StatusFailed(),
		Error:  err.Error(),
	}}
}

type probeOutcome struct {
	status     int
	statusText string
	err        error
}

// Probe requests every external link concurrently and returns the broken ones.
// Internal links are ignored.
func (p *LinkProber) Probe(ctx context.Context, links []Link) []report.BrokenLink {
	external := make([]Link, 0, len(links))
	for _, link := range links {
		if link.External {
			external = append(external, link)
		}
	}

	if p.OnTotal != nil {
		p.OnTotal(len(external))
	}

	outcomes := make([]probeOutcome, len(external))
	var g errgroup.Group
	for i, link := range external {
		g.Go(func() error {
			start := time.Now()
			outcomes[i] = p.probe(ctx, link.Href)
			if p.OnProbe != nil {
				ok := outcomes[i].err == nil && outcomes[i].status < http.StatusBadRequest
				p.OnProbe(link.Href, ok, time.Since(start))
			}
			return nil
		})
	}
	_ = g.Wait()

	broken := make([]report.BrokenLink, 0)
	for i, outcome := range outcomes {
		link := external[i]
		switch {
		case outcome.err != nil:
			broken = append(broken, report.BrokenLink{
				Href:   link.Href,
				Text:   link.Text,
				Status: report.StatusFailed(),
				Error:  DescribeProbeError(outcome.err),
			})
		case outcome.status >= http.StatusBadRequest:
			broken = append(broken, report.BrokenLink{
				Href:   link.Href,
				Text:   link.Text,
				Status: report.StatusCode(outcome.status),
				Error:  fmt.Sprintf("HTTP %d - %s", outcome.status, outcome.statusText),
			})
		}
	}

	p.logger().Debugw("links probed", "external", len(external), "broken", len(broken))
	return broken
}

// probe tries GET and falls back to HEAD when GET gets no response.
func (p *LinkProber) probe(ctx context.Context, href string) probeOutcome {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return probeOutcome{err: err}
		}
	}

	outcome := p.request(ctx, http.MethodGet, href)
	if outcome.err != nil {
		p.logger().Debugw("GET failed, retrying with HEAD", "href", href, "error", outcome.err)
		outcome = p.request(ctx, http.MethodHead, href)
	}
	return outcome
}

func (p *LinkProber) request(ctx context.Context, method, href string) probeOutcome {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = consts.LinkProbeTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, href, nil)
	if err != nil {
		return probeOutcome{err: err}
	}
	req.Header.Set("User-Agent", p.UserAgent)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return probeOutcome{err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBodyBytes))

	return probeOutcome{
		status:     resp.StatusCode,
		statusText: reasonPhrase(resp),
	}
}

// reasonPhrase extracts "Not Found" from a "404 Not Found" status line.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// DescribeProbeError classifies a failed probe for operators.
func DescribeProbeError(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr) && (dnsErr.IsNotFound || strings.Contains(dnsErr.Err, "no such host")):
		return "Domain not found"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "Request timed out"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "Connection refused"
	default:
		return err.Error()
	}
}

func (p *LinkProber) logger() *zap.SugaredLogger {
	if p.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return p.Logger
}
