// Package tools holds the capabilities the model may invoke during a session.
//
// The set of tools is closed: every tool has an ID known at compile time and
// the model-facing name is only translated into an ID at the boundary.
package tools

import (
	"context"
	"fmt"
)

type ID int

const (
	GetWeather ID = iota + 1
	RunCommand
)

var idNames = map[ID]string{
	GetWeather: "get_weather",
	RunCommand: "run_command",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("tool(%d)", int(id))
}

// ParseID maps a wire name to a tool ID.
func ParseID(name string) (ID, error) {
	for id, n := range idNames {
		if n == name {
			return id, nil
		}
	}
	return 0, &NotFoundError{Name: name}
}

// Result is what a tool hands back to the conversation.
//
// Output is the value shown to the model as the observation output. Detail
// carries the structured cause behind it (status codes, exit codes, captured
// output) so callers can decide how much to surface.
type Result struct {
	Output any
	Detail map[string]any
}

type Handler func(ctx context.Context, input string) (Result, error)

type Tool struct {
	ID          ID
	Usage       string // signature shown to the model, e.g. "get_weather(city: str)"
	Description string
	Handler     Handler
}

func (t Tool) Name() string { return t.ID.String() }
