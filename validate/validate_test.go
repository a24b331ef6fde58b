package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

const validPreset = `{
	"name": "%s",
	"description": "Test configuration",
	"rows": 8,
	"cols": 10,
	"start_level": 1,
	"seed": 7,
	"messages": {
		"welcome": "Welcome!",
		"level_up": "Level Up! Welcome to level %%d",
		"time_up": "Time Up! Level %%d starts over",
		"blocked": "Blocked",
		"pushed": "Pushed"
	}
}`

// writePreset writes body to dir/name.json and returns the path
func writePreset(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func presetBody(name string) string {
	return fmt.Sprintf(validPreset, name)
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writePreset(t, t.TempDir(), "sample", presetBody("sample"))

	result := validateConfig(path, 5)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}

	if result.File != "sample.json" {
		t.Errorf("Expected file name sample.json, got %s", result.File)
	}

	joined := strings.Join(result.Errors, "\n")
	for _, want := range []string{"✓ Name: sample", "✓ Grid: 8x10", "✓ Invariants: 5 generated levels", "✓ Seed: 7"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected info %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	path := writePreset(t, t.TempDir(), "broken", `{"name": "test", invalid json}`)

	result := validateConfig(path, 1)
	if result.Valid {
		t.Error("Expected invalid result for malformed JSON")
	}
	if len(result.Errors) == 0 || !strings.HasPrefix(result.Errors[0], "Invalid JSON") {
		t.Errorf("Expected Invalid JSON error, got %v", result.Errors)
	}
}

func TestValidateConfig_UnknownField(t *testing.T) {
	body := strings.Replace(presetBody("legacy"), `"rows": 8,`, `"rows": 8, "grid_size": 10,`, 1)
	path := writePreset(t, t.TempDir(), "legacy", body)

	result := validateConfig(path, 1)
	if result.Valid {
		t.Error("Expected unknown field to be rejected")
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"), 1)
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Unexpected error: %v", result.Errors)
	}
}

func TestValidateConfig_EngineRules(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr string
	}{
		{"grid too small", `"rows": 8,`, `"rows": 2,`, "rows must be between"},
		{"grid too large", `"cols": 10,`, `"cols": 51,`, "cols must be between"},
		{"negative start level", `"start_level": 1,`, `"start_level": -1,`, "start_level"},
		{"missing welcome", `"welcome": "Welcome!",`, `"welcome": "",`, "messages.welcome"},
		{"bad format", `"time_up": "Time Up! Level %d starts over",`, `"time_up": "Time Up %s",`, "messages.time_up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(presetBody("rules"), tt.from, tt.to, 1)
			if body == presetBody("rules") {
				t.Fatalf("replacement %q not applied", tt.from)
			}
			path := writePreset(t, t.TempDir(), "rules", body)

			result := validateConfig(path, 1)
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidateConfig_NameMismatch(t *testing.T) {
	path := writePreset(t, t.TempDir(), "other", presetBody("sample"))

	result := validateConfig(path, 1)
	if result.Valid {
		t.Error("Expected name mismatch to be invalid")
	}
}

func TestCheckLevels(t *testing.T) {
	cfg := engine.DefaultGameConfig().WithDefaults()
	result := checkLevels(cfg, 20)
	if !result.Valid {
		t.Fatalf("Expected generated levels to hold invariants: %v", result.Errors)
	}
	if len(result.Errors) != 2 {
		t.Errorf("Expected 2 info lines, got %v", result.Errors)
	}
}

func TestExitReachable(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		want   bool
	}{
		{"open", []string{"P..", "...", "..E"}, true},
		{"blocks are passable", []string{"PB.", "BB.", "..E"}, true},
		{"walled off", []string{"P#.", "##.", "..E"}, false},
		{"corridor", []string{"P.#", "#.#", "#.E"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs, err := engine.StateFromLayout(tt.layout)
			if err != nil {
				t.Fatalf("layout: %v", err)
			}
			if got := exitReachable(gs); got != tt.want {
				t.Errorf("exitReachable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "good", presetBody("good"))

	ok, err := validateDir(dir, 3)
	if err != nil {
		t.Fatalf("validateDir: %v", err)
	}
	if !ok {
		t.Error("Expected directory to be valid")
	}

	writePreset(t, dir, "bad", `{}`)
	ok, err = validateDir(dir, 3)
	if err != nil {
		t.Fatalf("validateDir: %v", err)
	}
	if ok {
		t.Error("Expected directory with an invalid preset to fail")
	}

	if _, err := validateDir(t.TempDir(), 3); err == nil {
		t.Error("Expected error for an empty directory")
	}
}

func TestValidateRepositoryPresets(t *testing.T) {
	if _, err := os.Stat("../configs"); os.IsNotExist(err) {
		t.Skip("configs directory not found")
	}
	files, _ := filepath.Glob("../configs/*.json")
	for _, file := range files {
		if result := validateConfig(file, 5); !result.Valid {
			t.Errorf("%s: %v", filepath.Base(file), result.Errors)
		}
	}
}
