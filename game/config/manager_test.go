package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

func createValidConfig(name string) *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = name
	config.Description = "Test configuration"
	config.Rows, config.Cols = 6, 7
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("Expected error for missing config directory")
		}
	})

	t.Run("empty directory falls back to built-in preset", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if m.GetDefault().Name != engine.DefaultGameConfig().Name {
			t.Errorf("Expected built-in default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("classic is preferred", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "aaa", createValidConfig("First"))
		writeConfigFile(t, dir, "classic", createValidConfig("Classic"))

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if m.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic as default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("first valid preset without classic", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "tiny", createValidConfig("Tiny"))

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if m.GetDefault().Name != "Tiny" {
			t.Errorf("Expected tiny as default, got %q", m.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "tiny", createValidConfig("Tiny"))

	invalid := createValidConfig("Broken")
	invalid.Rows = 99
	writeConfigFile(t, dir, "broken", invalid)
	os.WriteFile(filepath.Join(dir, "garbled.json"), []byte("{"), 0644)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name    string
		preset  string
		wantErr error
	}{
		{name: "by name", preset: "tiny"},
		{name: "with extension", preset: "tiny.json"},
		{name: "missing", preset: "huge", wantErr: ErrConfigNotFound},
		{name: "path traversal", preset: "../tiny", wantErr: ErrConfigNotFound},
		{name: "invalid", preset: "broken", wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := m.LoadConfig(tt.preset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if config.Name != "Tiny" {
				t.Errorf("Expected Tiny, got %q", config.Name)
			}
		})
	}

	if _, err := m.LoadConfig("garbled"); err == nil {
		t.Error("Expected parse error for garbled preset")
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "tiny", createValidConfig("Tiny"))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)
	os.WriteFile(filepath.Join(dir, "garbled.json"), []byte("{"), 0644)
	os.Mkdir(filepath.Join(dir, "sub"), 0755)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	for _, c := range configs {
		if c.ConfigID != "classic" && c.ConfigID != "tiny" {
			t.Errorf("Unexpected config id %q", c.ConfigID)
		}
		if c.Rows != 6 || c.Cols != 7 {
			t.Errorf("Expected 6x7 grid info, got %dx%d", c.Rows, c.Cols)
		}
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := m.SaveConfig("custom", createValidConfig("Custom")); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "custom.json")); err != nil {
		t.Errorf("Expected preset file on disk: %v", err)
	}

	loaded, err := m.LoadConfig("custom")
	if err != nil || loaded.Name != "Custom" {
		t.Errorf("Expected saved preset to load, got %v, %v", loaded, err)
	}

	invalid := createValidConfig("Invalid")
	invalid.Cols = 1
	if err := m.SaveConfig("invalid", invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := m.SaveConfig("../escape", createValidConfig("Escape")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unsafe name, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Before"))

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	writeConfigFile(t, dir, "classic", createValidConfig("After"))
	if c, _ := m.LoadConfig("classic"); c.Name != "Before" {
		t.Errorf("Expected cached preset, got %q", c.Name)
	}

	if err := m.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	if m.GetDefault().Name != "After" {
		t.Errorf("Expected refreshed default, got %q", m.GetDefault().Name)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "tiny", createValidConfig("Tiny"))

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := m.SetDefault("tiny"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if m.GetDefault().Name != "Tiny" {
		t.Errorf("Expected tiny default, got %q", m.GetDefault().Name)
	}
	if err := m.SetDefault("nope"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	writeConfigFile(t, dir, "tiny", createValidConfig("Tiny v2"))
	if err := m.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	if m.GetDefault().Name != "Tiny v2" {
		t.Errorf("Expected the chosen default to survive a refresh, got %q", m.GetDefault().Name)
	}

	if err := os.Remove(filepath.Join(dir, "tiny.json")); err != nil {
		t.Fatal(err)
	}
	if err := m.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	if m.GetDefault().Name != "Classic" {
		t.Errorf("Expected fallback to classic, got %q", m.GetDefault().Name)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "tiny", createValidConfig("Tiny"))

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "classic"
			if i%2 == 0 {
				name = "tiny"
			}
			if _, err := m.LoadConfig(name); err != nil {
				t.Errorf("Concurrent load failed: %v", err)
			}
			if i%5 == 0 {
				m.RefreshCache()
			}
			m.GetDefault()
		}(i)
	}
	wg.Wait()
}

func TestRepositoryPresetsAreValid(t *testing.T) {
	m, err := NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to open repository presets: %v", err)
	}

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list presets: %v", err)
	}
	if len(configs) < 3 {
		t.Errorf("Expected at least 3 shipped presets, got %d", len(configs))
	}
	if m.GetDefault().Name != "classic" {
		t.Errorf("Expected classic default, got %q", m.GetDefault().Name)
	}
}
