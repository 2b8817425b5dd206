package pipeline

import (
	"fmt"
	"time"

	"github.com/ruitoque/fronteras/internal/models"
)

// Step names an operator step.
type Step string

const (
	StepDownload Step = "download"
	StepUpload   Step = "upload"
	StepProcess  Step = "process"
	StepAnnual   Step = "annual"
	StepAll      Step = "all"
)

// Sequence is the order in which StepAll runs the steps.
var Sequence = []Step{StepDownload, StepUpload, StepProcess, StepAnnual}

// ParseStep accepts a step name or its 1-based position.
func ParseStep(s string) (Step, error) {
	switch s {
	case "1", string(StepDownload):
		return StepDownload, nil
	case "2", string(StepUpload):
		return StepUpload, nil
	case "3", string(StepProcess):
		return StepProcess, nil
	case "4", string(StepAnnual):
		return StepAnnual, nil
	case string(StepAll):
		return StepAll, nil
	}
	return "", fmt.Errorf("unknown step %q", s)
}

// Status tags a StepResult.
type Status string

const (
	// StatusEmpty means there was nothing to do.
	StatusEmpty   Status = "empty"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// StepResult is the outcome of one step for one period.
type StepResult struct {
	RunID      string    `json:"run_id"`
	Step       Step      `json:"step"`
	Period     string    `json:"period"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	Files      []string  `json:"files,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Err error `json:"-"`
}

// Failed reports whether the result is a failure.
func (r StepResult) Failed() bool { return r.Status == StatusFailure }

func empty(msg string) StepResult {
	return StepResult{Status: StatusEmpty, Message: msg}
}

func success(msg string, files []string) StepResult {
	return StepResult{Status: StatusSuccess, Message: msg, Files: files}
}

func failure(err error, files ...string) StepResult {
	return StepResult{Status: StatusFailure, Message: err.Error(), Error: err.Error(), Err: err, Files: files}
}

// Run converts the result into its persisted form.
func (r StepResult) Run() *models.Run {
	return &models.Run{
		ID:         r.RunID,
		Step:       string(r.Step),
		Period:     r.Period,
		Status:     string(r.Status),
		Message:    r.Message,
		Files:      len(r.Files),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Target is one period to run a step for. Current marks the running month,
// which never has final files and is always fetched.
type Target struct {
	Period  models.Period
	Current bool
}

// Explicit targets a single period chosen by the operator.
func Explicit(p models.Period) []Target {
	return []Target{{Period: p}}
}
