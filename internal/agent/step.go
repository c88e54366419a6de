package agent

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"github.com/zeebo/blake3"
)

type Kind string

const (
	KindStart  Kind = "START"
	KindPlan   Kind = "PLAN"
	KindTool   Kind = "TOOL"
	KindOutput Kind = "OUTPUT"

	// KindObserve is produced locally for tool results and never accepted
	// from the model.
	KindObserve Kind = "OBSERVE"
)

// Step is one reply of the model.
type Step struct {
	Kind    Kind   `json:"step"`
	Content string `json:"content,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Input   string `json:"input,omitempty"`
}

const stepSchemaDoc = `{
  "type": "object",
  "required": ["step"],
  "properties": {
    "step":    {"enum": ["START", "PLAN", "TOOL", "OUTPUT"]},
    "content": {"type": ["string", "null"]},
    "tool":    {"type": ["string", "null"]},
    "input":   {"type": ["string", "null"]}
  },
  "if":   {"properties": {"step": {"const": "TOOL"}}},
  "then": {
    "required": ["tool", "input"],
    "properties": {
      "tool":  {"type": "string", "minLength": 1},
      "input": {"type": "string"}
    }
  }
}`

var stepSchema = mustCompileSchema("step.json", stepSchemaDoc)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return s
}

// ParseStep decodes and validates a raw model reply. Null optional fields
// decode as empty strings.
func ParseStep(raw string) (Step, error) {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return Step{}, fmt.Errorf("%w: invalid JSON: %q", ErrMalformedStep, clip(raw, 200))
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Step{}, fmt.Errorf("%w: %v", ErrMalformedStep, err)
	}
	if err := stepSchema.Validate(doc); err != nil {
		return Step{}, fmt.Errorf("%w: %v", ErrMalformedStep, err)
	}

	f := gjson.GetMany(raw, "step", "content", "tool", "input")
	return Step{
		Kind:    Kind(f[0].String()),
		Content: f[1].String(),
		Tool:    f[2].String(),
		Input:   f[3].String(),
	}, nil
}

// Fingerprint identifies a step by its full contents; equal steps share a
// fingerprint.
func (s Step) Fingerprint() string {
	h := blake3.New()
	for _, part := range []string{string(s.Kind), s.Content, s.Tool, s.Input} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// ResponseSchema is the strict structured-output schema sent to the model.
// Strict mode needs every property listed as required, so optional fields
// are nullable instead.
func ResponseSchema() map[string]any {
	nullable := func(desc string) map[string]any {
		return map[string]any{
			"type":        []string{"string", "null"},
			"description": desc,
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"step": map[string]any{
				"type":        "string",
				"enum":        []string{string(KindStart), string(KindPlan), string(KindTool), string(KindOutput)},
				"description": "The kind of this step.",
			},
			"content": nullable("Text of a START, PLAN or OUTPUT step."),
			"tool":    nullable("Name of the tool to call in a TOOL step."),
			"input":   nullable("Input string passed to the tool in a TOOL step."),
		},
		"required":             []string{"step", "content", "tool", "input"},
		"additionalProperties": false,
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
