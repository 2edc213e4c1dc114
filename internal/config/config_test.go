package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Assets.Root != "." {
		t.Errorf("expected root '.', got %s", cfg.Assets.Root)
	}
	if cfg.Assets.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Assets.Workers)
	}
	if !cfg.Assets.Cache {
		t.Error("expected cache to be enabled by default")
	}
	if cfg.Assets.Watch {
		t.Error("expected watch to be disabled by default")
	}

	if cfg.Playback.FrameRate != 30 {
		t.Errorf("expected frame rate 30, got %v", cfg.Playback.FrameRate)
	}
	if cfg.Playback.IgnoreScale {
		t.Error("expected ignore_scale to be false by default")
	}

	if cfg.Export.Binary {
		t.Error("expected binary export to be false by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rigkit.yaml")

	yamlContent := `
assets:
  root: "/srv/models"
  workers: 8
  cache: false
  watch: true

playback:
  frame_rate: 60
  ignore_scale_bones: ["Bip01 Head", "Bip01 Tail"]

export:
  binary: true

logging:
  level: "debug"
  log_file: "rigkit.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Assets.Root != "/srv/models" {
		t.Errorf("expected root /srv/models, got %s", cfg.Assets.Root)
	}
	if cfg.Assets.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Assets.Workers)
	}
	if cfg.Assets.Cache {
		t.Error("expected cache to be false")
	}
	if !cfg.Assets.Watch {
		t.Error("expected watch to be true")
	}
	// Not in file, default kept
	if cfg.Assets.WatchDebounceMS != 100 {
		t.Errorf("expected debounce 100 kept from defaults, got %d", cfg.Assets.WatchDebounceMS)
	}

	if cfg.Playback.FrameRate != 60 {
		t.Errorf("expected frame rate 60, got %v", cfg.Playback.FrameRate)
	}
	want := []string{"Bip01 Head", "Bip01 Tail"}
	if !reflect.DeepEqual(cfg.Playback.IgnoreScaleBones, want) {
		t.Errorf("expected ignore_scale_bones %v, got %v", want, cfg.Playback.IgnoreScaleBones)
	}

	if !cfg.Export.Binary {
		t.Error("expected binary export to be true")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "rigkit.log" {
		t.Errorf("expected log file 'rigkit.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rigkit.toml")

	tomlContent := `
[assets]
root = "models"
workers = 2

[playback]
ignore_scale = true

[logging]
level = "warn"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Assets.Root != "models" {
		t.Errorf("expected root 'models', got %s", cfg.Assets.Root)
	}
	if cfg.Assets.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Assets.Workers)
	}
	if !cfg.Assets.Cache {
		t.Error("expected cache default to survive a partial file")
	}
	if !cfg.Playback.IgnoreScale {
		t.Error("expected ignore_scale to be true")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "invalid.yaml", "assets:\n  workers: not a number\n  invalid syntax here\n"},
		{"toml", "invalid.toml", "[assets\nworkers = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Errorf("expected error loading invalid %s, got nil", tt.name)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/rigkit.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Assets.Workers = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Errorf("expected workers validation error, got %v", err)
	}

	cfg = Default()
	cfg.Playback.FrameRate = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "frame_rate") {
		t.Errorf("expected frame_rate validation error, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// TOML is found when it is the only candidate
	if err := os.WriteFile(filepath.Join(tmpDir, "rigkit.toml"), []byte("[assets]\nworkers = 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != "rigkit.toml" {
		t.Errorf("expected rigkit.toml, got %q", path)
	}

	// YAML wins over TOML in the same directory
	if err := os.WriteFile(filepath.Join(tmpDir, "rigkit.yaml"), []byte("assets:\n  workers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != "rigkit.yaml" {
		t.Errorf("expected rigkit.yaml, got %q", path)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Assets.Root = "/data/rigs"
			cfg.Playback.IgnoreScaleBones = []string{"tail"}
			cfg.Export.Binary = true

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("loadFromFile: %v", err)
			}
			if !reflect.DeepEqual(cfg, loaded) {
				t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "root flag",
			setup: func() {
				*flagRoot = "/tmp/assets"
			},
			verify: func(cfg *Config) {
				if cfg.Assets.Root != "/tmp/assets" {
					t.Errorf("expected root /tmp/assets, got %s", cfg.Assets.Root)
				}
			},
			teardown: func() {
				*flagRoot = ""
			},
		},
		{
			name: "workers flag",
			setup: func() {
				*flagWorkers = 16
			},
			verify: func(cfg *Config) {
				if cfg.Assets.Workers != 16 {
					t.Errorf("expected 16 workers, got %d", cfg.Assets.Workers)
				}
			},
			teardown: func() {
				*flagWorkers = 0
			},
		},
		{
			name: "glb flag",
			setup: func() {
				*flagGLB = true
			},
			verify: func(cfg *Config) {
				if !cfg.Export.Binary {
					t.Error("expected binary export with glb flag")
				}
			},
			teardown: func() {
				*flagGLB = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rigkit.yaml")

	yamlContent := `
assets:
  root: "from-file"
  workers: 6
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 12
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, not file
	if cfg.Assets.Workers != 12 {
		t.Errorf("expected 12 workers from flag, got %d", cfg.Assets.Workers)
	}
	// Root from file since no flag override
	if cfg.Assets.Root != "from-file" {
		t.Errorf("expected root from file, got %s", cfg.Assets.Root)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rigkit.yaml")
	if err := os.WriteFile(configPath, []byte("assets:\n  workers: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject negative workers")
	}
}
