// Package outcome defines the result values produced by assertion logic and the
// records the runner emits after every phase of a test.
package outcome

import (
	"errors"
	"fmt"
	"time"
)

// Phase is a stage in the lifecycle of a single test.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// Status is the outcome of a phase.
type Status string

const (
	// StatusPassed means the phase completed without a failure.
	StatusPassed Status = "passed"
	// StatusFailed is a hard failure.
	StatusFailed Status = "failed"
	// StatusXFailed is a soft failure: a non-blocking check did not hold.
	StatusXFailed Status = "xfailed"
	// StatusSkipped means a precondition for the check was not met.
	StatusSkipped Status = "skipped"
)

// Failed reports whether s is a hard failure.
func (s Status) Failed() bool {
	return s == StatusFailed
}

// Result is the value returned by assertion logic.
type Result struct {
	Status  Status
	Message string
	Err     error
}

// Pass returns a passing result.
func Pass() Result {
	return Result{Status: StatusPassed}
}

// Fail returns a hard failure caused by err.
func Fail(err error) Result {
	if err == nil {
		err = errors.New("failed")
	}
	return Result{Status: StatusFailed, Message: err.Error(), Err: err}
}

// Failf returns a hard failure with a formatted message.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Errorf(format, args...))
}

// Softf returns a soft failure with a formatted message.
func Softf(format string, args ...any) Result {
	return Result{Status: StatusXFailed, Message: fmt.Sprintf(format, args...)}
}

// Skipf returns a skipped result with a formatted message.
func Skipf(format string, args ...any) Result {
	return Result{Status: StatusSkipped, Message: fmt.Sprintf(format, args...)}
}

// String formats the result like "failed: message".
func (r Result) String() string {
	if r.Message == "" {
		return string(r.Status)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// PageHandle is the part of a page an observer may use.
type PageHandle interface {
	CurrentURL() string
	CaptureScreenshot(path string) error
	Content() (string, error)
}

// Record is emitted by the runner after each phase of a test and consumed by observers.
type Record struct {
	TestID  string
	Phase   Phase
	Status  Status
	Message string
	Err     error
	// Page is the page handle of the test, nil if the test did not request one.
	Page     PageHandle
	Duration time.Duration
	At       time.Time
}
