package analysis

import (
	"fmt"
	"time"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

// Pipeline stages named in timeout errors and logs.
const (
	StageSubject   = "subject"
	StageFetch     = entity.StageFetch
	StageSynthesis = entity.StageSynthesis
	StageStrategy  = "strategy"
)

// ValidationError rejects caller input before any work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientDataError means every competitor was dropped.
type InsufficientDataError struct {
	Failures []entity.CompetitorFailure
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no competitor could be analysed (%d failed)", len(e.Failures))
}

// PipelineTimeoutError means the caller's deadline expired mid-run.
type PipelineTimeoutError struct {
	Stage   string
	Elapsed time.Duration
	Err     error
}

func (e *PipelineTimeoutError) Error() string {
	return fmt.Sprintf("pipeline deadline exceeded during %s after %s", e.Stage, e.Elapsed.Round(time.Millisecond))
}

func (e *PipelineTimeoutError) Unwrap() error { return e.Err }
