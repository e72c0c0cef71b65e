package main

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	name string
	args []string
	err  error
}

func (r *recorder) run(name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		request  string
		wantName string
		wantArgs []string
	}{
		{
			name:     "next on linux",
			goos:     "linux",
			request:  `{"action":"next","gesture":"switch_content_next"}`,
			wantName: "xdotool",
			wantArgs: []string{"key", "Right"},
		},
		{
			name:     "previous on macOS",
			goos:     "darwin",
			request:  `{"action":"previous"}`,
			wantName: "osascript",
			wantArgs: []string{"-e", `tell application "System Events" to key code 123`},
		},
		{
			name:     "freeze uses b",
			goos:     "linux",
			request:  `{"action":"freeze"}`,
			wantName: "xdotool",
			wantArgs: []string{"key", "b"},
		},
		{
			name:     "config overrides key",
			goos:     "linux",
			request:  `{"action":"next","config":{"key":"space"}}`,
			wantName: "xdotool",
			wantArgs: []string{"key", "space"},
		},
		{
			name:     "params override config",
			goos:     "darwin",
			request:  `{"action":"keystroke","config":{"key":"a"},"params":{"key":"f","modifiers":["cmd","shift"]}}`,
			wantName: "osascript",
			wantArgs: []string{"-e", `tell application "System Events" to keystroke "f" using {command down, shift down}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			resp := handle(strings.NewReader(tt.request), tt.goos, rec.run)

			if !resp.Success {
				t.Fatalf("handle() failed: %s", resp.Error)
			}
			if rec.name != tt.wantName {
				t.Errorf("command = %q, want %q", rec.name, tt.wantName)
			}
			if !reflect.DeepEqual(rec.args, tt.wantArgs) {
				t.Errorf("args = %q, want %q", rec.args, tt.wantArgs)
			}
		})
	}
}

func TestHandle_DryRun(t *testing.T) {
	rec := &recorder{}
	resp := handle(strings.NewReader(`{"action":"next","params":{"dry_run":true}}`), "linux", rec.run)

	if !resp.Success {
		t.Fatalf("handle() failed: %s", resp.Error)
	}
	if rec.name != "" {
		t.Errorf("dry run should not execute, ran %q", rec.name)
	}

	var data struct {
		Command []string `json:"command"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if !reflect.DeepEqual(data.Command, []string{"xdotool", "key", "Right"}) {
		t.Errorf("command = %q", data.Command)
	}
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		request string
		runErr  error
		wantErr string
	}{
		{"bad json", "linux", `{`, nil, "failed to decode request"},
		{"unknown action", "linux", `{"action":"rewind"}`, nil, "unknown action: rewind"},
		{"keystroke without key", "linux", `{"action":"keystroke"}`, nil, "key is required"},
		{"bad params", "linux", `{"action":"next","params":"x"}`, nil, "failed to parse params"},
		{"unsupported platform", "plan9", `{"action":"next"}`, nil, "unsupported platform"},
		{"command fails", "linux", `{"action":"next"}`, errors.New("no display"), "no display"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{err: tt.runErr}
			resp := handle(strings.NewReader(tt.request), tt.goos, rec.run)

			if resp.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
		})
	}
}
