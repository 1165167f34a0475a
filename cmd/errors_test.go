package cmd

import (
	"errors"
	"testing"

	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

func TestDomainNotAllowedError(t *testing.T) {
	err := &DomainNotAllowedError{Domain: "other.com", Allowed: []string{"example.com", "example.org"}}
	want := "domain other.com is not allowed (allowed: example.com, example.org)"
	if err.Error() != want {
		t.Fatalf("expected %s, got %s", want, err.Error())
	}
	if !errors.Is(err, sharedErrors.ErrDomainNotAllowed) {
		t.Fatal("expected error to unwrap to ErrDomainNotAllowed")
	}

	err = &DomainNotAllowedError{Domain: "other.com"}
	want = "domain other.com is not allowed: allowed_domains is empty"
	if err.Error() != want {
		t.Fatalf("expected %s, got %s", want, err.Error())
	}
}

func TestInvalidLabelError(t *testing.T) {
	err := &InvalidLabelError{Label: "bad label"}
	want := `label "bad label" may only contain letters, digits, hyphens and underscores`
	if err.Error() != want {
		t.Fatalf("expected %s, got %s", want, err.Error())
	}
	if !errors.Is(err, sharedErrors.ErrInvalidLabel) {
		t.Fatal("expected error to unwrap to ErrInvalidLabel")
	}

	if (&InvalidLabelError{}).Error() != "label is required" {
		t.Fatal("unexpected message for empty label")
	}
}
