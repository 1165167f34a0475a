package report

import (
	"time"
)

// Report is the single record produced by one audit run.
type Report struct {
	URL            string              `json:"url"`
	Domain         string              `json:"domain"`
	Label          string              `json:"label"`
	Status         int                 `json:"status"`
	Title          string              `json:"title"`
	LoadTimeMs     int64               `json:"loadTimeMs"`
	LoadTime       string              `json:"loadTime"`
	Timestamp      time.Time           `json:"timestamp"`
	Error          string              `json:"error,omitempty"`
	Functionality  Functionality       `json:"functionality"`
	Responsiveness []ResponsiveEntry   `json:"responsiveness"`
	SecurityAudit  SecurityAuditResult `json:"securityAudit"`
	ReportPath     string              `json:"reportPath"`
}

// New returns a report whose collections are empty rather than nil so the
// serialized form always carries arrays.
func New(url, domain, label string) *Report {
	return &Report{
		URL:       url,
		Domain:    domain,
		Label:     label,
		Timestamp: time.Now().UTC(),
		Functionality: Functionality{
			BrokenLinks:     []BrokenLink{},
			DisabledButtons: []DisabledButton{},
		},
		Responsiveness: []ResponsiveEntry{},
		SecurityAudit:  NewSecurityAuditResult(),
	}
}

// SetLoadDuration records the main navigation time in both report formats.
func (r *Report) SetLoadDuration(d time.Duration) {
	r.LoadTimeMs = d.Milliseconds()
	r.LoadTime = FormatSeconds(d)
}

// Failed reports whether the main navigation failed.
func (r *Report) Failed() bool {
	return r.Error != ""
}

// Functionality groups the link and button findings.
type Functionality struct {
	BrokenLinks     []BrokenLink     `json:"brokenLinks"`
	DisabledButtons []DisabledButton `json:"disabledButtons"`
	Error           string           `json:"error,omitempty"`
}

// BrokenLink is an external anchor that failed or answered with status >= 400.
type BrokenLink struct {
	Href   string     `json:"href"`
	Text   string     `json:"text"`
	Status LinkStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// DisabledButton describes one disabled button-like control.
type DisabledButton struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Location  string `json:"location"`
	AriaLabel string `json:"ariaLabel,omitempty"`
	Parent    string `json:"parent,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Viewport is the emulated screen of a device profile.
type Viewport struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor"`
	IsMobile          bool    `json:"isMobile"`
}

// ResponsiveEntry is the outcome for one device profile.
type ResponsiveEntry struct {
	Device     string    `json:"device"`
	Viewport   Viewport  `json:"viewport"`
	Status     int       `json:"status,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	Warning    string    `json:"warning,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// HTTPSResult states whether the target URL uses https.
type HTTPSResult struct {
	Enforced bool   `json:"enforced"`
	Message  string `json:"message"`
}

// HeaderFinding is the presence check of one security header.
type HeaderFinding struct {
	Name           string   `json:"name"`
	Present        bool     `json:"present"`
	Message        string   `json:"message"`
	Value          string   `json:"value,omitempty"`
	Issues         []string `json:"issues,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// SecurityAuditResult is the passive security section.
type SecurityAuditResult struct {
	HTTPS               HTTPSResult     `json:"https"`
	Headers             []HeaderFinding `json:"headers"`
	ExposedTechnologies []string        `json:"exposedTechnologies"`
	InsecureCookies     []string        `json:"insecureCookies"`
	OpenAdminPaths      []string        `json:"openAdminPaths"`
	Error               string          `json:"error,omitempty"`
}

// NewSecurityAuditResult returns a result with empty, non-nil lists.
func NewSecurityAuditResult() SecurityAuditResult {
	return SecurityAuditResult{
		Headers:             []HeaderFinding{},
		ExposedTechnologies: []string{},
		InsecureCookies:     []string{},
		OpenAdminPaths:      []string{},
	}
}
