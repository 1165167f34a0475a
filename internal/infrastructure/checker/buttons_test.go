package checker

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser/browsertest"
)

func scriptedButtons(records ...map[string]any) *browsertest.Page {
	return &browsertest.Page{
		EvaluateFunc: func(expression string) (any, error) {
			if expression != disabledButtonsScript {
				return nil, errors.New("unexpected script")
			}
			return records, nil
		},
	}
}

func TestButtonScanner_DerivesMetadata(t *testing.T) {
	page := scriptedButtons(
		map[string]any{
			"tag": "button", "type": "submit", "text": "  Place\n order ",
			"inForm": true, "formId": "checkout",
			"x": 100, "y": 50, "viewportWidth": 1200, "viewportHeight": 900,
		},
		map[string]any{
			"tag": "input", "type": "button", "value": "", "placeholder": "Search", "name": "q",
			"ariaLabel": "Run search",
			"parent": map[string]any{"tag": "div", "testId": "search-bar", "className": "bar"},
			"x": 1100, "y": 850, "viewportWidth": 1200, "viewportHeight": 900,
		},
		map[string]any{
			"tag": "input", "type": "submit",
			"parent": map[string]any{"tag": "section", "className": " toolbar  main "},
			"x": 600, "y": 450, "viewportWidth": 1200, "viewportHeight": 900,
		},
	)

	buttons := NewButtonScanner(zap.NewNop().Sugar()).Check(context.Background(), page)
	if len(buttons) != 3 {
		t.Fatalf("expected 3 buttons, got %d", len(buttons))
	}

	first := buttons[0]
	if first.Text != "Place order" || first.Type != "submit" || first.Parent != "form#checkout" || first.Location != "top-left" {
		t.Errorf("unexpected first button: %+v", first)
	}

	second := buttons[1]
	if second.Text != "Search" {
		t.Errorf("expected placeholder as text, got %q", second.Text)
	}
	if second.AriaLabel != "Run search" {
		t.Errorf("expected aria label, got %q", second.AriaLabel)
	}
	if second.Parent != `div[data-testid="search-bar"]` {
		t.Errorf("unexpected parent %q", second.Parent)
	}
	if second.Location != "bottom-right" {
		t.Errorf("unexpected location %q", second.Location)
	}

	third := buttons[2]
	if third.Text != unnamedButton {
		t.Errorf("expected unnamed fallback, got %q", third.Text)
	}
	if third.Parent != "section.toolbar.main" || third.Location != "middle-center" {
		t.Errorf("unexpected third button: %+v", third)
	}
}

func TestButtonScanner_NoDisabledButtons(t *testing.T) {
	buttons := NewButtonScanner(nil).Check(context.Background(), scriptedButtons())
	if buttons == nil || len(buttons) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", buttons)
	}
}

func TestButtonScanner_EvaluateFailure(t *testing.T) {
	page := &browsertest.Page{}

	buttons := NewButtonScanner(nil).Check(context.Background(), page)
	if len(buttons) != 1 {
		t.Fatalf("expected one synthetic entry, got %d", len(buttons))
	}
	if buttons[0].Error != browsertest.ErrNotScripted.Error() {
		t.Errorf("unexpected error %q", buttons[0].Error)
	}
}

func TestParentContext(t *testing.T) {
	tests := []struct {
		name string
		in   rawButton
		want string
	}{
		{"anonymous form", rawButton{InForm: true}, "form"},
		{"aria label wins", rawButton{Parent: &rawParent{Tag: "nav", AriaLabel: "Main", ID: "top"}}, `nav[aria-label="Main"]`},
		{"id", rawButton{Parent: &rawParent{Tag: "div", ID: "actions"}}, "div#actions"},
		{"tag only", rawButton{Parent: &rawParent{Tag: "td"}}, "td"},
		{"no parent", rawButton{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentContext(tt.in); got != tt.want {
				t.Errorf("parentContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		x, y float64
		want string
	}{
		{10, 10, "top-left"},
		{500, 10, "top-center"},
		{990, 10, "top-right"},
		{10, 500, "middle-left"},
		{990, 990, "bottom-right"},
		{500, 5000, "bottom-center"},
	}
	for _, tt := range tests {
		if got := Location(tt.x, tt.y, 1000, 1000); got != tt.want {
			t.Errorf("Location(%v, %v) = %q, want %q", tt.x, tt.y, got, tt.want)
		}
	}
	if got := Location(10, 10, 0, 0); got != "top-left" {
		t.Errorf("expected zero viewport to fall back to top-left, got %q", got)
	}
}
