package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Registry is the immutable set of tools available to the model. It is built
// once at startup and only read afterwards, so it needs no locking.
type Registry struct {
	tools map[ID]Tool
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[ID]Tool, len(tools))}
	for _, t := range tools {
		if _, known := idNames[t.ID]; !known {
			return nil, fmt.Errorf("register %s: %w", t.ID, ErrInvalidTool)
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("register %s: missing handler: %w", t.ID, ErrInvalidTool)
		}
		if _, dup := r.tools[t.ID]; dup {
			return nil, fmt.Errorf("register %s: duplicate tool: %w", t.ID, ErrInvalidTool)
		}
		r.tools[t.ID] = t
	}
	return r, nil
}

// Lookup resolves a model-supplied tool name.
func (r *Registry) Lookup(name string) (Tool, error) {
	id, err := ParseID(strings.TrimSpace(name))
	if err != nil {
		return Tool{}, err
	}
	t, ok := r.tools[id]
	if !ok {
		return Tool{}, &NotFoundError{Name: name}
	}
	return t, nil
}

// Invoke runs the named tool. Handler errors are returned wrapped, never
// swallowed.
func (r *Registry) Invoke(ctx context.Context, name, input string) (Result, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return Result{}, err
	}

	res, err := t.Handler(ctx, input)
	if err != nil {
		return res, fmt.Errorf("%s: %w", t.Name(), err)
	}
	return res, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for id := range r.tools {
		names = append(names, id.String())
	}
	sort.Strings(names)
	return names
}

// Catalog renders the tool list the system prompt shows to the model.
func (r *Registry) Catalog() string {
	ids := make([]ID, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for _, id := range ids {
		t := r.tools[id]
		usage := t.Usage
		if usage == "" {
			usage = t.Name()
		}
		fmt.Fprintf(&b, "- %s: %s\n", usage, t.Description)
	}
	return b.String()
}
