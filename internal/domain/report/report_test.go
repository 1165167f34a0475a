package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewReport_EmptyCollectionsSerializeAsArrays(t *testing.T) {
	r := New("https://example.com", "example.com", "nightly")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out := string(data)
	for _, want := range []string{
		`"brokenLinks":[]`,
		`"disabledButtons":[]`,
		`"responsiveness":[]`,
		`"headers":[]`,
		`"exposedTechnologies":[]`,
		`"insecureCookies":[]`,
		`"openAdminPaths":[]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "null") {
		t.Errorf("expected no null values, got %s", out)
	}
}

func TestLinkStatus_JSON(t *testing.T) {
	links := []BrokenLink{
		{Href: "https://a.example", Status: StatusCode(404), Error: "HTTP 404 - Not Found"},
		{Href: "https://b.example", Status: StatusFailed(), Error: "Domain not found"},
	}

	data, err := json.Marshal(links)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"status":404`) {
		t.Errorf("expected numeric status, got %s", data)
	}
	if !strings.Contains(string(data), `"status":"failed"`) {
		t.Errorf("expected failed literal, got %s", data)
	}

	var decoded []BrokenLink
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0].Status != StatusCode(404) {
		t.Errorf("expected 404, got %v", decoded[0].Status)
	}
	if !decoded[1].Status.Failed {
		t.Errorf("expected failed status, got %v", decoded[1].Status)
	}
}

func TestLinkStatus_RejectsUnknownString(t *testing.T) {
	var s LinkStatus
	if err := json.Unmarshal([]byte(`"gone"`), &s); err == nil {
		t.Fatal("expected error for unknown status string")
	}
}

func TestSetLoadDuration(t *testing.T) {
	r := New("https://example.com", "example.com", "x")
	r.SetLoadDuration(1234 * time.Millisecond)

	if r.LoadTimeMs != 1234 {
		t.Errorf("expected 1234ms, got %d", r.LoadTimeMs)
	}
	if r.LoadTime != "1.23s" {
		t.Errorf("expected 1.23s, got %s", r.LoadTime)
	}
}
