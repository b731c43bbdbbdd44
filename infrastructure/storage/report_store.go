package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
)

const lastFile = "last.json"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrNoReports is returned by Last when nothing was saved yet
var ErrNoReports = errors.New("no stored reports")

type reportStore struct {
	dir string
}

// DefaultDir - returns ~/.site_e2e/runs
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".site_e2e", "runs")
	}
	return filepath.Join(homeDir, ".site_e2e", "runs")
}

// NewReportStore - creates run report storage in dir
func NewReportStore(dir string) (interfaces.ReportStore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &reportStore{dir: dir}, nil
}

// Save - writes the report as <id>.json and as last.json, returns the report path
func (s *reportStore) Save(report entities.RunReport) (string, error) {
	if !idPattern.MatchString(report.ID) {
		return "", fmt.Errorf("invalid report id %q", report.ID)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, report.ID+".json")
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(s.dir, lastFile), data); err != nil {
		return "", err
	}
	return path, nil
}

// Load - loads a report by id
func (s *reportStore) Load(id string) (entities.RunReport, error) {
	if !idPattern.MatchString(id) {
		return entities.RunReport{}, fmt.Errorf("invalid report id %q", id)
	}
	return s.read(filepath.Join(s.dir, id+".json"))
}

// Last - loads the most recently saved report
func (s *reportStore) Last() (entities.RunReport, error) {
	report, err := s.read(filepath.Join(s.dir, lastFile))
	if errors.Is(err, os.ErrNotExist) {
		return report, ErrNoReports
	}
	return report, err
}

func (s *reportStore) read(path string) (entities.RunReport, error) {
	var report entities.RunReport
	data, err := os.ReadFile(path)
	if err != nil {
		return report, err
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return report, nil
}

// writeFile replaces path atomically so a concurrent reader never sees half a report
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
