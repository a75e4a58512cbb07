package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step.
type Stage string

const (
	StageClean   Stage = "clean"
	StageExtract Stage = "extract"
	StageRefine  Stage = "refine"
)

var (
	// ErrMalformedOutput matches every MalformedOutputError.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrEmptyInput is returned when the problem text is blank.
	ErrEmptyInput = errors.New("problem text is empty")
)

// MalformedOutputError reports a model response that does not decode into the
// expected structure. Raw holds the response as received.
type MalformedOutputError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, ErrMalformedOutput)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, ErrMalformedOutput, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedOutput) match.
func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// StageError is returned when the clean or extract stage fails and aborts the run.
type StageError struct {
	Stage Stage
	Input string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (input %q): %v", e.Stage, truncate(e.Input, 80), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
