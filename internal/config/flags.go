package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagRoot    = flag.String("root", "", "Asset root directory")
	flagWorkers = flag.Int("workers", 0, "Decode workers for batch loads")
	flagGLB     = flag.Bool("glb", false, "Export binary glTF by default")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRoot != "" {
		cfg.Assets.Root = *flagRoot
	}
	if *flagWorkers > 0 {
		cfg.Assets.Workers = *flagWorkers
	}
	if *flagGLB {
		cfg.Export.Binary = true
	}
}
