package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

// screenshotQuality of 100 makes chromedp encode PNG instead of JPEG.
const screenshotQuality = 100

// Options configures the headless browser process.
type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

// Session owns one browser process and its single tab.
type Session struct {
	tab         *Tab
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	closeOnce   sync.Once
}

// NewSession starts a browser and opens a tab. The browser lives until Close.
func NewSession(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	ctxOpts := []chromedp.ContextOption{}
	if logger != nil {
		ctxOpts = append(ctxOpts,
			chromedp.WithLogf(logger.Debugf),
			chromedp.WithErrorf(logger.Warnf),
		)
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrBrowserUnavailable, err)
	}

	return &Session{
		tab:         &Tab{ctx: tabCtx},
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
	}, nil
}

// Page returns the session's tab.
func (s *Session) Page() Page {
	return s.tab
}

// Close shuts the tab and the browser process down.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
	})
}

// Tab is a chromedp target implementing Page.
type Tab struct {
	ctx context.Context
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := t.derive(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// derive returns a context bound to the tab that also ends when ctx ends.
// chromedp only runs actions on contexts descending from the tab context.
func (t *Tab) derive(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(t.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate implements Page.
func (t *Tab) Navigate(ctx context.Context, url string, wait WaitUntil) (*Response, error) {
	runCtx, cancel := t.derive(ctx)
	defer cancel()

	var idle chan struct{}
	if wait == WaitNetworkIdle {
		idle = make(chan struct{})
		mainFrame := mainFrameID(runCtx)
		var once sync.Once
		chromedp.ListenTarget(runCtx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && isMainFrameIdle(e, mainFrame) {
				once.Do(func() { close(idle) })
			}
		})
	}

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sharedErrors.ErrNavigation, url, err)
	}

	result := toResponse(url, resp)
	if idle != nil {
		select {
		case <-idle:
		case <-runCtx.Done():
			return result, fmt.Errorf("%w: %s: waiting for network idle: %v", sharedErrors.ErrNavigation, url, runCtx.Err())
		}
	}
	return result, nil
}

// mainFrameID returns the top-level frame of the tab, which shares the target's ID.
func mainFrameID(ctx context.Context) cdp.FrameID {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return ""
	}
	return cdp.FrameID(c.Target.TargetID)
}

// isMainFrameIdle ignores idle events from iframes. An unknown main frame
// accepts any frame.
func isMainFrameIdle(e *page.EventLifecycleEvent, mainFrame cdp.FrameID) bool {
	if e.Name != "networkIdle" {
		return false
	}
	return mainFrame == "" || e.FrameID == mainFrame
}

// Title implements Page.
func (t *Tab) Title(ctx context.Context) (string, error) {
	var title string
	if err := t.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// HTML implements Page.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate implements Page.
func (t *Tab) Evaluate(ctx context.Context, expression string, out any) error {
	return t.run(ctx, chromedp.Evaluate(expression, out))
}

// SetViewport implements Page.
func (t *Tab) SetViewport(ctx context.Context, vp report.Viewport) error {
	opts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(vp.DeviceScaleFactor)}
	if vp.IsMobile {
		opts = append(opts, chromedp.EmulateMobile, chromedp.EmulateTouch)
	}
	if vp.Width > vp.Height {
		opts = append(opts, chromedp.EmulateLandscape)
	} else {
		opts = append(opts, chromedp.EmulatePortrait)
	}
	return t.run(ctx, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height), opts...))
}

// FullScreenshot implements Page.
func (t *Tab) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := t.run(ctx, chromedp.FullScreenshot(&buf, screenshotQuality)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Cookies implements Page.
func (t *Tab) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

func toResponse(url string, resp *network.Response) *Response {
	if resp == nil {
		// Same-document navigations carry no network response.
		return &Response{URL: url, Headers: http.Header{}}
	}
	return &Response{
		URL:        resp.URL,
		Status:     int(resp.Status),
		StatusText: resp.StatusText,
		Headers:    toHTTPHeader(resp.Headers),
	}
}

// toHTTPHeader converts CDP headers. CDP folds repeated headers into one
// newline-separated value, which is split back here.
func toHTTPHeader(headers network.Headers) http.Header {
	out := make(http.Header, len(headers))
	for name, value := range headers {
		str, ok := value.(string)
		if !ok {
			str = fmt.Sprint(value)
		}
		for _, line := range strings.Split(str, "\n") {
			out.Add(name, line)
		}
	}
	return out
}
