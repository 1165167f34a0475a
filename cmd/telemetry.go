package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

const telemetryFilename = "telemetry.jsonl"

// telemetryRecord is one line of <results-dir>/telemetry.jsonl.
type telemetryRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Command          string    `json:"command"`
	Label            string    `json:"label"`
	Domain           string    `json:"domain"`
	Status           string    `json:"status"`
	HTTPStatus       int       `json:"http_status"`
	LoadTimeMs       int64     `json:"load_time_ms"`
	BrokenLinks      int       `json:"broken_links"`
	DisabledButtons  int       `json:"disabled_buttons"`
	DevicesChecked   int       `json:"devices_checked"`
	DeviceErrors     int       `json:"device_errors"`
	MissingHeaders   int       `json:"missing_headers"`
	SecurityFindings int       `json:"security_findings"`
	DurationSeconds  float64   `json:"duration_seconds"`
}

func newTelemetryRecord(command, status string, rep *report.Report, duration time.Duration) telemetryRecord {
	record := telemetryRecord{
		Timestamp:       time.Now().UTC(),
		Command:         command,
		Label:           rep.Label,
		Domain:          rep.Domain,
		Status:          status,
		HTTPStatus:      rep.Status,
		LoadTimeMs:      rep.LoadTimeMs,
		BrokenLinks:     len(rep.Functionality.BrokenLinks),
		DisabledButtons: len(rep.Functionality.DisabledButtons),
		DevicesChecked:  len(rep.Responsiveness),
		DurationSeconds: duration.Seconds(),
	}
	for _, entry := range rep.Responsiveness {
		if entry.Error != "" {
			record.DeviceErrors++
		}
	}
	for _, h := range rep.SecurityAudit.Headers {
		if !h.Present {
			record.MissingHeaders++
		}
	}
	record.SecurityFindings = len(rep.SecurityAudit.ExposedTechnologies) +
		len(rep.SecurityAudit.InsecureCookies) +
		len(rep.SecurityAudit.OpenAdminPaths)
	return record
}

func recordTelemetry(resultsDir string, record telemetryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	telemetryPath := filepath.Join(resultsDir, telemetryFilename)
	f, err := os.OpenFile(telemetryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}

	return nil
}
