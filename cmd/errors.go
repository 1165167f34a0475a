package cmd

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

// DomainNotAllowedError indicates the target's domain is missing from allowed_domains.
type DomainNotAllowedError struct {
	Domain  string
	Allowed []string
}

func (e *DomainNotAllowedError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("domain %s is not allowed: allowed_domains is empty", e.Domain)
	}
	return fmt.Sprintf("domain %s is not allowed (allowed: %s)", e.Domain, strings.Join(e.Allowed, ", "))
}

func (e *DomainNotAllowedError) Unwrap() error {
	return sharedErrors.ErrDomainNotAllowed
}

// InvalidLabelError signals a run label that cannot be used as a directory name.
type InvalidLabelError struct {
	Label string
}

func (e *InvalidLabelError) Error() string {
	if e.Label == "" {
		return "label is required"
	}
	return fmt.Sprintf("label %q may only contain letters, digits, hyphens and underscores", e.Label)
}

func (e *InvalidLabelError) Unwrap() error {
	return sharedErrors.ErrInvalidLabel
}
