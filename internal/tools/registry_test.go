package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func echoTool(id ID) Tool {
	return Tool{
		ID:          id,
		Usage:       id.String() + "(x: str)",
		Description: "echoes its input",
		Handler: func(_ context.Context, input string) (Result, error) {
			return Result{Output: input}, nil
		},
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		want    ID
		wantErr bool
	}{
		{name: "get_weather", want: GetWeather},
		{name: "run_command", want: RunCommand},
		{name: "GET_WEATHER", wantErr: true},
		{name: "", wantErr: true},
		{name: "delete_everything", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrToolNotFound) {
					t.Fatalf("ParseID(%q) err = %v, want ErrToolNotFound", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) err = %v", tt.name, err)
			}
			if got != tt.want {
				t.Fatalf("ParseID(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegistryInvoke(t *testing.T) {
	r, err := NewRegistry(echoTool(GetWeather))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	res, err := r.Invoke(context.Background(), "get_weather", "karachi")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Output != "karachi" {
		t.Fatalf("output = %v, want karachi", res.Output)
	}
}

func TestRegistryUnknownToolNeverSucceeds(t *testing.T) {
	called := false
	tool := echoTool(GetWeather)
	tool.Handler = func(context.Context, string) (Result, error) {
		called = true
		return Result{Output: "ok"}, nil
	}
	r, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for _, name := range []string{"does_not_exist", "run_command", ""} {
		_, err := r.Invoke(context.Background(), name, "x")
		if !errors.Is(err, ErrToolNotFound) {
			t.Fatalf("Invoke(%q) err = %v, want ErrToolNotFound", name, err)
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Name != name {
			t.Fatalf("Invoke(%q) err = %#v, want NotFoundError with name", name, err)
		}
	}
	if called {
		t.Fatal("handler ran for an unknown tool")
	}
}

func TestRegistrySurfacesHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	tool := echoTool(RunCommand)
	tool.Handler = func(context.Context, string) (Result, error) {
		return Result{}, boom
	}
	r, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = r.Invoke(context.Background(), "run_command", "ls")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestNewRegistryRejectsInvalidTools(t *testing.T) {
	noHandler := echoTool(GetWeather)
	noHandler.Handler = nil

	cases := map[string][]Tool{
		"duplicate":  {echoTool(GetWeather), echoTool(GetWeather)},
		"no handler": {noHandler},
		"unknown id": {echoTool(ID(42))},
	}
	for name, tools := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRegistry(tools...); !errors.Is(err, ErrInvalidTool) {
				t.Fatalf("err = %v, want ErrInvalidTool", err)
			}
		})
	}
}

func TestRegistryCatalog(t *testing.T) {
	r, err := NewRegistry(echoTool(RunCommand), echoTool(GetWeather))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	catalog := r.Catalog()
	lines := strings.Split(strings.TrimSpace(catalog), "\n")
	if len(lines) != 2 {
		t.Fatalf("catalog lines = %d, want 2:\n%s", len(lines), catalog)
	}
	if !strings.HasPrefix(lines[0], "- get_weather(x: str): ") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "- run_command(x: str): ") {
		t.Fatalf("second line = %q", lines[1])
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "get_weather" || names[1] != "run_command" {
		t.Fatalf("Names() = %v", names)
	}
}
