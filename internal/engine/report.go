package engine

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/earthtour/internal/tourerr"
)

// StepResult is the outcome of one (record, year) capture attempt.
type StepResult struct {
	Index   int    `yaml:"index"`
	Row     int    `yaml:"row"`
	Address string `yaml:"address"`
	Year    string `yaml:"year"`
	Path    string `yaml:"path"`
	OK      bool   `yaml:"ok"`
	Error   string `yaml:"error,omitempty"`
	Blank   bool   `yaml:"blank,omitempty"`

	// ElapsedSeconds is the time spent grabbing and saving; DriftSeconds is
	// how far the loop is behind the tour's own schedule after this step.
	ElapsedSeconds float64 `yaml:"elapsedSeconds"`
	DriftSeconds   float64 `yaml:"driftSeconds"`

	Err error `yaml:"-"`
}

// MetadataResult is the outcome of writing one record's metadata.json.
type MetadataResult struct {
	Row   int    `yaml:"row"`
	Path  string `yaml:"path"`
	OK    bool   `yaml:"ok"`
	Error string `yaml:"error,omitempty"`
}

// Report summarizes a capture run.
type Report struct {
	RunID        string    `yaml:"runId"`
	StartedAt    time.Time `yaml:"startedAt"`
	FinishedAt   time.Time `yaml:"finishedAt"`
	Tour         string    `yaml:"tour"`
	CycleSeconds float64   `yaml:"cycleSeconds"`
	Years        []string  `yaml:"years"`
	Interrupted  bool      `yaml:"interrupted"`

	SuccessCount int     `yaml:"successCount"`
	FailureCount int     `yaml:"failureCount"`
	BlankCount   int     `yaml:"blankCount"`
	DriftSeconds float64 `yaml:"driftSeconds"`

	Steps      []StepResult     `yaml:"steps"`
	Metadata   []MetadataResult `yaml:"metadata"`
	Timelapses []string         `yaml:"timelapses,omitempty"`
}

// Successes returns the steps whose frame was saved.
func (r *Report) Successes() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.OK {
			out = append(out, s)
		}
	}
	return out
}

// Failures returns the steps that produced no frame.
func (r *Report) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

func (r *Report) finalize(finished time.Time) {
	r.FinishedAt = finished
	r.SuccessCount, r.FailureCount, r.BlankCount = 0, 0, 0
	for _, s := range r.Steps {
		if s.OK {
			r.SuccessCount++
		} else {
			r.FailureCount++
		}
		if s.Blank {
			r.BlankCount++
		}
	}
	if n := len(r.Steps); n > 0 {
		r.DriftSeconds = r.Steps[n-1].DriftSeconds
	}
}

// WriteReport stores the report as YAML.
func WriteReport(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return tourerr.IO("encode report", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return tourerr.IO("write report", path, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tourerr.Input("read report", path, err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, tourerr.Input("parse report", path, err)
	}
	return &r, nil
}
