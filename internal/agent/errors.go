package agent

import "errors"

var (
	// ErrMalformedStep is returned when a model reply does not decode into a
	// valid step. The session is aborted; the reply is not retried.
	ErrMalformedStep = errors.New("malformed step")

	// ErrStepLimit is returned when a session reaches MaxSteps model calls
	// without producing an OUTPUT step.
	ErrStepLimit = errors.New("step limit reached")
)
