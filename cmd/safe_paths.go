package cmd

import (
	"fmt"
	"net/url"
	"strings"

	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
	"github.com/khanhnv2901/siteaudit/internal/shared/security"
)

// validateLabel ensures run labels can't be used for path traversal. Labels
// become directory names, so only letters, digits, hyphens and underscores pass.
func validateLabel(label string) error {
	if !security.IsValidLabel(label) {
		return &InvalidLabelError{Label: label}
	}
	return nil
}

// domainOf parses an absolute http(s) URL and returns its hostname with a
// literal "www." prefix removed.
func domainOf(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q must be an absolute http or https URL", sharedErrors.ErrInvalidURL, target)
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), nil
}

// checkDomainAllowed returns the target's domain when it is allow-listed.
func checkDomainAllowed(target string, allowed []string) (string, error) {
	domain, err := domainOf(target)
	if err != nil {
		return "", err
	}
	for _, d := range allowed {
		if strings.EqualFold(d, domain) {
			return domain, nil
		}
	}
	return "", &DomainNotAllowedError{Domain: domain, Allowed: allowed}
}
