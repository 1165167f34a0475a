// Package browsertest provides a scriptable in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
)

// ErrNotScripted is returned by Evaluate when no handler was configured.
var ErrNotScripted = errors.New("browsertest: evaluate not scripted")

// Page is a fake browser.Page. Zero values answer with an empty 200 page.
type Page struct {
	mu sync.Mutex

	HTMLBody string
	HTMLErr  error

	TitleText string
	TitleErr  error

	// NavigateFunc overrides navigation; call counts from zero.
	NavigateFunc func(url string, call int) (*browser.Response, error)
	// EvaluateFunc answers Evaluate; its result is JSON round-tripped into out.
	EvaluateFunc func(expression string) (any, error)

	ViewportErr   error
	Screenshot    []byte
	ScreenshotErr error

	CookieJar  []browser.Cookie
	CookiesErr error

	navigations []string
	waits       []browser.WaitUntil
	viewports   []report.Viewport
}

var _ browser.Page = (*Page)(nil)

// Navigate implements browser.Page.
func (p *Page) Navigate(ctx context.Context, url string, wait browser.WaitUntil) (*browser.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	call := len(p.navigations)
	p.navigations = append(p.navigations, url)
	p.waits = append(p.waits, wait)
	fn := p.NavigateFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(url, call)
	}
	return &browser.Response{URL: url, Status: http.StatusOK, StatusText: "OK", Headers: http.Header{}}, nil
}

// Title implements browser.Page.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.TitleText, p.TitleErr
}

// HTML implements browser.Page.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.HTMLBody, p.HTMLErr
}

// Evaluate implements browser.Page.
func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	if p.EvaluateFunc == nil {
		return ErrNotScripted
	}
	value, err := p.EvaluateFunc(expression)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SetViewport implements browser.Page.
func (p *Page) SetViewport(ctx context.Context, vp report.Viewport) error {
	p.mu.Lock()
	p.viewports = append(p.viewports, vp)
	p.mu.Unlock()
	return p.ViewportErr
}

// FullScreenshot implements browser.Page.
func (p *Page) FullScreenshot(ctx context.Context) ([]byte, error) {
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	if p.Screenshot == nil {
		return []byte("\x89PNG"), nil
	}
	return p.Screenshot, nil
}

// Cookies implements browser.Page.
func (p *Page) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	return p.CookieJar, p.CookiesErr
}

// Navigations returns the URLs navigated to, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Waits returns the wait condition of each navigation.
func (p *Page) Waits() []browser.WaitUntil {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.WaitUntil(nil), p.waits...)
}

// Viewports returns the viewports applied, in order.
func (p *Page) Viewports() []report.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]report.Viewport(nil), p.viewports...)
}

// Session is a fake browser session around a Page.
type Session struct {
	Tab *Page

	mu     sync.Mutex
	closed int
}

// NewSession wraps page, or an empty Page when nil.
func NewSession(page *Page) *Session {
	if page == nil {
		page = &Page{}
	}
	return &Session{Tab: page}
}

// Page returns the wrapped fake page.
func (s *Session) Page() browser.Page {
	return s.Tab
}

// Close records the call.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
}

// Closed reports how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
