package agent

import (
	"encoding/json"
	"fmt"
)

// Observation reports a tool call back to the model as a developer turn.
type Observation struct {
	Step   Kind           `json:"step"`
	Tool   string         `json:"tool"`
	Input  string         `json:"input"`
	Output any            `json:"output"`
	Error  string         `json:"error,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}

func (o Observation) JSON() (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("encode observation: %w", err)
	}
	return string(b), nil
}
