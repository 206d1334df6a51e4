package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tracksync/tracksync/internal/models"
	"github.com/tracksync/tracksync/internal/reconcile"
)

const maxSameSecond = 1000

// RunConfig echoes the settings a run used
type RunConfig struct {
	SnapshotURL string   `yaml:"snapshoturl"`
	LedgerFile  string   `yaml:"ledgerfile"`
	Prefixes    []string `yaml:"prefixes"`
	Suffixes    []string `yaml:"suffixes"`
	Timestamp   string   `yaml:"timestamp"`
}

// Summary holds the per-action counters of a run
type Summary struct {
	Tracks           int `yaml:"tracks"`
	DuplicateGroups  int `yaml:"duplicategroups"`
	Deleted          int `yaml:"deleted"`
	DeleteFailed     int `yaml:"deletefailed"`
	Updated          int `yaml:"updated"`
	UpdateFailed     int `yaml:"updatefailed"`
	Skipped          int `yaml:"skipped"`
	AlreadyProcessed int `yaml:"alreadyprocessed"`
}

// Report is the complete run report
type Report struct {
	Config   RunConfig        `yaml:"config"`
	Summary  Summary          `yaml:"summary"`
	Outcomes []models.Outcome `yaml:"outcomes"`
}

// New builds a report from a finished run.
func New(cfg RunConfig, result *reconcile.Result, now time.Time) *Report {
	cfg.Timestamp = now.Format("2006-01-02_15-04-05")
	return &Report{
		Config: cfg,
		Summary: Summary{
			Tracks:           result.Tracks,
			DuplicateGroups:  result.DuplicateGroups,
			Deleted:          result.Deleted,
			DeleteFailed:     result.DeleteFailed,
			Updated:          result.Updated,
			UpdateFailed:     result.UpdateFailed,
			Skipped:          result.Skipped,
			AlreadyProcessed: result.AlreadyProcessed,
		},
		Outcomes: result.Outcomes,
	}
}

// Save writes the report to dir/run-<timestamp>.yaml and returns its path.
// An existing report is never overwritten; later reports from the same second
// get a -2, -3, ... suffix.
func Save(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	base := "run-" + r.Config.Timestamp
	for n := 1; n <= maxSameSecond; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		filename := filepath.Join(dir, name+".yaml")

		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create YAML file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write YAML file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write YAML file: %w", err)
		}
		return filename, nil
	}

	return "", fmt.Errorf("too many reports for %s in %s", r.Config.Timestamp, dir)
}
