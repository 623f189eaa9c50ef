package runner

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"

	"github.com/networkteam/aybolit-smoke/outcome"
)

// Exit codes of a run.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitAborted = 2
)

// CaseReport is the final outcome of a single case.
type CaseReport struct {
	Name   string
	Status outcome.Status
	// Phase is the phase that decided the status.
	Phase   outcome.Phase
	Message string
	Err     error
	// PageURL is the URL of the case's page when the call phase ended.
	PageURL  string
	Duration time.Duration
}

func (cr *CaseReport) finish(phase outcome.Phase, result outcome.Result) {
	cr.Phase = phase
	cr.Status = result.Status
	cr.Message = result.Message
	cr.Err = result.Err
}

// Report summarises a run.
type Report struct {
	RunID      uuid.UUID
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Cases      []CaseReport
	// Aborted is the error that stopped the run early, if any.
	Aborted error
}

// Count returns the number of cases with the given status.
func (r *Report) Count(status outcome.Status) int {
	return lo.CountBy(r.Cases, func(cr CaseReport) bool {
		return cr.Status == status
	})
}

// Failed returns the hard-failed cases.
func (r *Report) Failed() []CaseReport {
	return lo.Filter(r.Cases, func(cr CaseReport, _ int) bool {
		return cr.Status.Failed()
	})
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ExitCode returns 0 if no case hard-failed, 1 if any did and 2 if the run was aborted.
// Soft failures and skips do not fail the run.
func (r *Report) ExitCode() int {
	switch {
	case r.Aborted != nil:
		return ExitAborted
	case len(r.Failed()) > 0:
		return ExitFailed
	default:
		return ExitOK
	}
}
