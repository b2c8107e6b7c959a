package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
	m "reshape.dev/pkg/reshape/internal/model"
)

// ResultKind classifies a persisted result entry.
type ResultKind string

const (
	ResultAdded   ResultKind = "added"
	ResultChanged ResultKind = "changed"
	ResultRemoved ResultKind = "removed"
)

// ResultEntry is the persisted form of one result: paths, the recipe stacks
// responsible and optionally the unified diff.
type ResultEntry struct {
	Kind    ResultKind `yaml:"kind"`
	Before  string     `yaml:"before,omitempty"`
	After   string     `yaml:"after,omitempty"`
	Recipes [][]string `yaml:"recipes,omitempty"`
	Diff    string     `yaml:"diff,omitempty"`
}

// RunReport is one saved pipeline run. The id is a ULID, so lexical order is
// chronological order.
type RunReport struct {
	ID        string        `yaml:"id"`
	Pipeline  string        `yaml:"pipeline"`
	StartedAt time.Time     `yaml:"startedAt"`
	Elapsed   time.Duration `yaml:"elapsed"`
	Results   []ResultEntry `yaml:"results"`
}

// ReportStore persists run reports.
type ReportStore interface {
	Save(report RunReport) (RunReport, error)
	Load(id string) (RunReport, error)
	List() ([]RunReport, error)
}

// FileReportStore keeps one YAML file per run under a directory.
type FileReportStore struct {
	dir string
}

// NewFileReportStore builds a store rooted at dir. The directory is created
// on the first save.
func NewFileReportStore(dir string) *FileReportStore {
	return &FileReportStore{dir: dir}
}

// Save implements ReportStore. A report without an id is assigned a fresh
// ULID; the stored report is returned.
func (s *FileReportStore) Save(report RunReport) (RunReport, error) {
	if report.ID == "" {
		report.ID = ulid.Make().String()
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return RunReport{}, fmt.Errorf("save report: %w", err)
	}

	raw, err := yaml.Marshal(report)
	if err != nil {
		return RunReport{}, fmt.Errorf("save report: %w", err)
	}

	if err := os.WriteFile(s.reportPath(report.ID), raw, 0o600); err != nil {
		return RunReport{}, fmt.Errorf("save report: %w", err)
	}

	return report, nil
}

// Load implements ReportStore.
func (s *FileReportStore) Load(id string) (RunReport, error) {
	raw, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		return RunReport{}, fmt.Errorf("load report %s: %w", id, err)
	}

	var report RunReport
	if err := yaml.Unmarshal(raw, &report); err != nil {
		return RunReport{}, fmt.Errorf("load report %s: %w", id, err)
	}

	return report, nil
}

// List implements ReportStore, returning reports newest first.
func (s *FileReportStore) List() ([]RunReport, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	var reports []RunReport

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		report, err := s.Load(entry.Name()[:len(entry.Name())-len(".yaml")])
		if err != nil {
			return nil, err
		}

		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].ID > reports[j].ID })

	return reports, nil
}

func (s *FileReportStore) reportPath(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

// BuildRunReport converts in-memory results into their persisted form.
func BuildRunReport(pipeline string, startedAt time.Time, elapsed time.Duration, results []m.Result, withDiffs bool) RunReport {
	report := RunReport{
		Pipeline:  pipeline,
		StartedAt: startedAt,
		Elapsed:   elapsed,
	}

	for _, r := range results {
		entry := ResultEntry{Kind: classify(r)}

		if r.Original != nil {
			entry.Before = r.Original.Path()
		}

		if r.Modified != nil {
			entry.After = r.Modified.Path()
		}

		for _, stack := range r.Stacks {
			entry.Recipes = append(entry.Recipes, stack.Names())
		}

		if withDiffs {
			entry.Diff = r.Diff()
		}

		report.Results = append(report.Results, entry)
	}

	return report
}

func classify(r m.Result) ResultKind {
	switch {
	case r.Original == nil:
		return ResultAdded
	case r.Modified == nil:
		return ResultRemoved
	default:
		return ResultChanged
	}
}
