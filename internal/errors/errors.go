// Package errors defines the pipeline error taxonomy. Every failure is
// handled at the boundary where it occurs and surfaced as a user-visible
// message; nothing propagates uncaught into the entry point.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline stages. Callers branch on these with
// errors.Is after unwrapping.
var (
	// ErrSourceUnavailable indicates the upstream fetch failed; the run
	// halts with no partial write.
	ErrSourceUnavailable = errors.New("market data source unavailable")

	// ErrHistoryUnreadable indicates the persisted history artifact could
	// not be read during a merge; the write degrades to fresh-write
	// semantics instead of aborting.
	ErrHistoryUnreadable = errors.New("history artifact unreadable")

	// ErrInsufficientHistory indicates window selection produced no data;
	// chart rendering and classification are skipped for the run.
	ErrInsufficientHistory = errors.New("insufficient history for analysis window")
)

// PipelineError wraps a stage failure with the stage name so log lines
// and console output identify where the run degraded.
type PipelineError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a stage-tagged pipeline error.
func NewPipelineError(stage string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Err: err}
}
