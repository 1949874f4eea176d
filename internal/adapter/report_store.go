package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// ErrNoReports is returned when the reports directory holds no report.
var ErrNoReports = errors.New("no reports found")

const reportPrefix = "report-"

// ReportStore persists run reports.
type ReportStore interface {
	// NewRunID returns a fresh identifier for a run.
	NewRunID() string
	SaveReport(dir m.Path, report m.Report) (m.Path, error)
	LoadReport(path m.Path) (m.Report, error)
	// LatestReport loads the most recently created report in dir.
	LatestReport(dir m.Path) (m.Report, error)
}

// YAMLReportStore writes one YAML file per run.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// NewRunID returns a random UUID.
func (s *YAMLReportStore) NewRunID() string {
	return uuid.NewString()
}

// SaveReport writes report to dir as report-<timestamp>-<run id>.yaml.
func (s *YAMLReportStore) SaveReport(dir m.Path, report m.Report) (m.Path, error) {
	if report.RunID == "" {
		report.RunID = s.NewRunID()
	}

	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create reports dir %s: %w", dir, err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	name := fmt.Sprintf("%s%s-%s.yaml", reportPrefix, report.CreatedAt.UTC().Format("20060102T150405.000000000"), report.RunID)
	path := filepath.Join(string(dir), name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}

	slog.Info("saved report", "path", path, "run", report.RunID, "problems", len(report.Problems))

	return m.Path(path), nil
}

// LoadReport reads a report file.
func (s *YAMLReportStore) LoadReport(path m.Path) (m.Report, error) {
	var report m.Report

	data, err := os.ReadFile(string(path))
	if err != nil {
		return report, fmt.Errorf("read report %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("parse report %s: %w", path, err)
	}

	return report, nil
}

// LatestReport picks the newest report file by name.
func (s *YAMLReportStore) LatestReport(dir m.Path) (m.Report, error) {
	entries, err := os.ReadDir(string(dir))
	if errors.Is(err, os.ErrNotExist) {
		return m.Report{}, fmt.Errorf("%w in %s", ErrNoReports, dir)
	}

	if err != nil {
		return m.Report{}, fmt.Errorf("list reports in %s: %w", dir, err)
	}

	var names []string

	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), reportPrefix) && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}

	if len(names) == 0 {
		return m.Report{}, fmt.Errorf("%w in %s", ErrNoReports, dir)
	}

	sort.Strings(names)

	return s.LoadReport(m.Path(filepath.Join(string(dir), names[len(names)-1])))
}
