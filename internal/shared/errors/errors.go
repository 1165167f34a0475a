package errors

import "errors"

// Input errors abort a run before any browser work.
var (
	ErrMissingArgument  = errors.New("missing required argument")
	ErrInvalidLabel     = errors.New("invalid label")
	ErrInvalidURL       = errors.New("invalid url")
	ErrDomainNotAllowed = errors.New("domain not allowed")
)

// Run errors are captured into the report rather than returned.
var (
	ErrNavigation          = errors.New("navigation failed")
	ErrBrowserUnavailable  = errors.New("browser session unavailable")
	ErrSerializationFailed = errors.New("serialization failed")
	ErrReportNotFound      = errors.New("report not found")
	ErrInvalidArtifact     = errors.New("invalid artifact name")
)
