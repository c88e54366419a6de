package tools

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrCommandDenied = errors.New("command denied")
	ErrInvalidTool   = errors.New("invalid tool")
	ErrEmptyInput    = errors.New("empty input")
)

// NotFoundError reports a tool name that does not map to a registered tool.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrToolNotFound }

// DeniedError reports a command rejected by a Gate.
type DeniedError struct {
	Command string
	Reason  string
	Pattern string
}

func (e *DeniedError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("command denied: %s (pattern %q)", e.Reason, e.Pattern)
	}
	return fmt.Sprintf("command denied: %s", e.Reason)
}

func (e *DeniedError) Unwrap() error { return ErrCommandDenied }

// IsDenied reports whether err is a gate denial.
func IsDenied(err error) bool {
	return errors.Is(err, ErrCommandDenied)
}
