package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
	"github.com/khanhnv2901/siteaudit/internal/shared/security"
)

// ReportRepository stores one directory per run label under a results root:
//
//	<root>/<label>/report.json
//	<root>/<label>/report.md
//	<root>/<label>/screenshots/<device>.png
type ReportRepository struct {
	resultsDir string
	mu         sync.RWMutex
}

// NewReportRepository creates the results root if needed.
func NewReportRepository(resultsDir string) (*ReportRepository, error) {
	if resultsDir == "" {
		return nil, fmt.Errorf("results directory cannot be empty")
	}
	if err := os.MkdirAll(resultsDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &ReportRepository{resultsDir: resultsDir}, nil
}

// ResultsDir returns the results root.
func (r *ReportRepository) ResultsDir() string {
	return r.resultsDir
}

// PrepareRun creates the label's directory and its screenshots subdirectory.
func (r *ReportRepository) PrepareRun(label string) (*RunDir, error) {
	if !security.IsValidLabel(label) {
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidLabel, label)
	}
	dir, err := security.ResolveWithin(r.resultsDir, label)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, consts.ScreenshotsDir), consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &RunDir{label: label, dir: dir}, nil
}

// Save writes report.json for r.Label. ReportPath is part of the written file
// but is set on rep only once the write succeeded. It returns the absolute
// path written.
func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filePath, err := r.reportFile(rep.Label)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	saved := *rep
	saved.ReportPath = path.Join(rep.Label, consts.ReportFilename)
	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	if err := os.WriteFile(filePath, data, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	rep.ReportPath = saved.ReportPath
	return filePath, nil
}

// Load reads the report stored for label.
func (r *ReportRepository) Load(ctx context.Context, label string) (*report.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filePath, err := r.reportFile(label)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", sharedErrors.ErrReportNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &rep, nil
}

// WriteArtifact stores an extra file, such as report.md, next to report.json.
func (r *ReportRepository) WriteArtifact(label, name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !security.IsValidLabel(label) {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidLabel, label)
	}
	filePath, err := security.ResolveWithin(r.resultsDir, label, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filePath, data, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return filePath, nil
}

// List returns the labels that have a saved report, sorted.
func (r *ReportRepository) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !security.IsValidLabel(entry.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.resultsDir, entry.Name(), consts.ReportFilename)); err != nil {
			continue
		}
		labels = append(labels, entry.Name())
	}
	sort.Strings(labels)
	return labels, nil
}

// ScreenshotFile returns the absolute path of a stored screenshot.
func (r *ReportRepository) ScreenshotFile(label, name string) (string, error) {
	if !security.IsValidLabel(label) {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidLabel, label)
	}
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".png" {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidArtifact, name)
	}
	filePath, err := security.ResolveWithin(r.resultsDir, label, consts.ScreenshotsDir, name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("%w: %s/%s", sharedErrors.ErrReportNotFound, label, name)
	}
	return filePath, nil
}

func (r *ReportRepository) reportFile(label string) (string, error) {
	if !security.IsValidLabel(label) {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidLabel, label)
	}
	return security.ResolveWithin(r.resultsDir, label, consts.ReportFilename)
}

// RunDir is the prepared output directory of one run.
type RunDir struct {
	label string
	dir   string
}

// WriteScreenshot stores data under screenshots/ and returns the path relative
// to the results root, e.g. "mylabel/screenshots/desktop.png".
func (d *RunDir) WriteScreenshot(filename string, data []byte) (string, error) {
	filePath, err := security.ResolveWithin(d.dir, consts.ScreenshotsDir, filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filePath, data, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path.Join(d.label, consts.ScreenshotsDir, filename), nil
}
