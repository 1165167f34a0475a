package browser

import (
	"context"
	"net/http"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
)

// WaitUntil selects when a navigation is considered finished.
type WaitUntil int

const (
	// WaitLoad returns once the load event fired.
	WaitLoad WaitUntil = iota
	// WaitNetworkIdle additionally waits for the network to go quiet.
	WaitNetworkIdle
)

// Response is the main document response of a navigation.
type Response struct {
	URL        string
	Status     int
	StatusText string
	Headers    http.Header
}

// Cookie is a browser cookie with the attributes the auditor inspects.
type Cookie struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Page is the set of browser primitives the checkers rely on. A Page is used
// by one logical flow at a time; callers order their access accordingly.
type Page interface {
	// Navigate loads url and returns the main document response.
	Navigate(ctx context.Context, url string, wait WaitUntil) (*Response, error)
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// HTML returns the serialized rendered document.
	HTML(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression and decodes its JSON result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// SetViewport emulates the given screen.
	SetViewport(ctx context.Context, vp report.Viewport) error
	// FullScreenshot captures the whole page as PNG.
	FullScreenshot(ctx context.Context) ([]byte, error)
	// Cookies returns every cookie visible to the browser context.
	Cookies(ctx context.Context) ([]Cookie, error)
}
