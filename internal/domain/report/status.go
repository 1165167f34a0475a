package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const failedStatus = "failed"

// LinkStatus is either an HTTP status code or the literal "failed" when no
// response was received at all.
type LinkStatus struct {
	Code   int
	Failed bool
}

// StatusCode returns a LinkStatus carrying an HTTP status code.
func StatusCode(code int) LinkStatus {
	return LinkStatus{Code: code}
}

// StatusFailed returns the LinkStatus for a request that never got a response.
func StatusFailed() LinkStatus {
	return LinkStatus{Failed: true}
}

func (s LinkStatus) String() string {
	if s.Failed {
		return failedStatus
	}
	return strconv.Itoa(s.Code)
}

// MarshalJSON writes a number, or the string "failed".
func (s LinkStatus) MarshalJSON() ([]byte, error) {
	if s.Failed {
		return json.Marshal(failedStatus)
	}
	return json.Marshal(s.Code)
}

// UnmarshalJSON accepts a number or the string "failed".
func (s *LinkStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str != failedStatus {
			return fmt.Errorf("unexpected link status %q", str)
		}
		*s = StatusFailed()
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("link status: %w", err)
	}
	*s = StatusCode(code)
	return nil
}

// FormatSeconds renders a duration as seconds with two decimals, e.g. "1.23s".
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
