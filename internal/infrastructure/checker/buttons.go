package checker

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
)

// unnamedButton labels controls that carry no usable text.
const unnamedButton = "Unnamed button"

// disabledButtonsScript collects raw facts about every disabled button-like
// control. Naming and placement are derived in Go.
const disabledButtonsScript = `(() => {
  const vw = window.innerWidth || document.documentElement.clientWidth;
  const vh = window.innerHeight || document.documentElement.clientHeight;
  const nodes = document.querySelectorAll('button, input[type="button"], input[type="submit"]');
  return Array.from(nodes).filter(el => el.disabled).map(el => {
    const rect = el.getBoundingClientRect();
    const form = el.closest('form');
    const parent = el.parentElement;
    return {
      tag: el.tagName.toLowerCase(),
      type: el.getAttribute('type') || el.type || '',
      value: el.value || '',
      placeholder: el.getAttribute('placeholder') || '',
      name: el.getAttribute('name') || '',
      text: el.textContent || '',
      ariaLabel: el.getAttribute('aria-label') || '',
      inForm: !!form,
      formId: form ? form.id : '',
      parent: parent ? {
        tag: parent.tagName.toLowerCase(),
        id: parent.id || '',
        ariaLabel: parent.getAttribute('aria-label') || '',
        testId: parent.getAttribute('data-testid') || '',
        className: typeof parent.className === 'string' ? parent.className : ''
      } : null,
      x: rect.left + rect.width / 2,
      y: rect.top + rect.height / 2,
      viewportWidth: vw,
      viewportHeight: vh
    };
  });
})()`

// rawButton mirrors one record returned by disabledButtonsScript.
type rawButton struct {
	Tag            string     `json:"tag"`
	Type           string     `json:"type"`
	Value          string     `json:"value"`
	Placeholder    string     `json:"placeholder"`
	Name           string     `json:"name"`
	Text           string     `json:"text"`
	AriaLabel      string     `json:"ariaLabel"`
	InForm         bool       `json:"inForm"`
	FormID         string     `json:"formId"`
	Parent         *rawParent `json:"parent"`
	X              float64    `json:"x"`
	Y              float64    `json:"y"`
	ViewportWidth  float64    `json:"viewportWidth"`
	ViewportHeight float64    `json:"viewportHeight"`
}

type rawParent struct {
	Tag       string `json:"tag"`
	ID        string `json:"id"`
	AriaLabel string `json:"ariaLabel"`
	TestID    string `json:"testId"`
	ClassName string `json:"className"`
}

// ButtonScanner reports disabled buttons on the loaded page.
type ButtonScanner struct {
	Logger *zap.SugaredLogger
}

// NewButtonScanner returns a scanner logging to logger.
func NewButtonScanner(logger *zap.SugaredLogger) *ButtonScanner {
	return &ButtonScanner{Logger: logger}
}

// Name returns the name of this checker.
func (s *ButtonScanner) Name() string {
	return "buttons"
}

// Check returns every disabled button in document order. A DOM query failure
// becomes a single synthetic entry.
func (s *ButtonScanner) Check(ctx context.Context, page browser.Page) []report.DisabledButton {
	var raw []rawButton
	if err := page.Evaluate(ctx, disabledButtonsScript, &raw); err != nil {
		s.logger().Warnw("button scan failed", "error", err)
		return []report.DisabledButton{{
			Text:     "Error checking buttons",
			Type:     "N/A",
			Location: "N/A",
			Error:    err.Error(),
		}}
	}

	buttons := make([]report.DisabledButton, 0, len(raw))
	for _, b := range raw {
		buttons = append(buttons, report.DisabledButton{
			Text:      buttonText(b),
			Type:      buttonType(b),
			Location:  Location(b.X, b.Y, b.ViewportWidth, b.ViewportHeight),
			AriaLabel: strings.TrimSpace(b.AriaLabel),
			Parent:    parentContext(b),
		})
	}
	s.logger().Debugw("buttons scanned", "disabled", len(buttons))
	return buttons
}

func buttonText(b rawButton) string {
	if b.Tag == "input" {
		for _, candidate := range []string{b.Value, b.Placeholder, b.Name} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text
			}
		}
		return unnamedButton
	}
	if text := strings.Join(strings.Fields(b.Text), " "); text != "" {
		return text
	}
	return unnamedButton
}

func buttonType(b rawButton) string {
	if t := strings.ToLower(strings.TrimSpace(b.Type)); t != "" {
		return t
	}
	if b.Tag == "button" {
		return "submit"
	}
	return b.Tag
}

// parentContext names the enclosing form, or else the direct parent by its
// most specific attribute.
func parentContext(b rawButton) string {
	if b.InForm {
		if b.FormID != "" {
			return "form#" + b.FormID
		}
		return "form"
	}
	p := b.Parent
	if p == nil {
		return ""
	}
	switch {
	case p.AriaLabel != "":
		return p.Tag + `[aria-label="` + p.AriaLabel + `"]`
	case p.TestID != "":
		return p.Tag + `[data-testid="` + p.TestID + `"]`
	case p.ID != "":
		return p.Tag + "#" + p.ID
	case strings.TrimSpace(p.ClassName) != "":
		return p.Tag + "." + strings.Join(strings.Fields(p.ClassName), ".")
	default:
		return p.Tag
	}
}

// Location maps a point to a coarse screen region such as "top-left" or
// "middle-center", splitting the viewport into thirds on each axis.
func Location(x, y, width, height float64) string {
	return third(y, height, "top", "middle", "bottom") + "-" + third(x, width, "left", "center", "right")
}

func third(pos, size float64, low, mid, high string) string {
	if size <= 0 {
		return low
	}
	switch {
	case pos < size/3:
		return low
	case pos < 2*size/3:
		return mid
	default:
		return high
	}
}

func (s *ButtonScanner) logger() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}
