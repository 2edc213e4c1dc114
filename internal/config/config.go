// Package config handles rigkit configuration loading and management.
package config

// Config holds all rigkit settings.
type Config struct {
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
	Playback PlaybackConfig `yaml:"playback" toml:"playback"`
	Export   ExportConfig   `yaml:"export" toml:"export"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// AssetsConfig holds asset loading settings.
type AssetsConfig struct {
	Root            string `yaml:"root" toml:"root"`                           // Directory model paths are relative to
	Workers         int    `yaml:"workers" toml:"workers"`                     // Decode workers for batch loads
	Cache           bool   `yaml:"cache" toml:"cache"`                         // Keep raw file bytes in memory
	Watch           bool   `yaml:"watch" toml:"watch"`                         // Drop cached files when they change on disk
	WatchDebounceMS int    `yaml:"watch_debounce_ms" toml:"watch_debounce_ms"` // Quiet period before reporting a change
}

// PlaybackConfig holds animation mixer settings.
type PlaybackConfig struct {
	FrameRate        float64  `yaml:"frame_rate" toml:"frame_rate"`                 // Used when a clip declares none
	IgnoreScale      bool     `yaml:"ignore_scale" toml:"ignore_scale"`             // Never write animated scale
	IgnoreScaleBones []string `yaml:"ignore_scale_bones" toml:"ignore_scale_bones"` // Bones that keep their bind scale
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Binary bool `yaml:"binary" toml:"binary"` // Write .glb instead of .gltf when the output has no extension
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Root:            ".",
			Workers:         4,
			Cache:           true,
			Watch:           false,
			WatchDebounceMS: 100,
		},
		Playback: PlaybackConfig{
			FrameRate: 30,
		},
		Export: ExportConfig{
			Binary: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
