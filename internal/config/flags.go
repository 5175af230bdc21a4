package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers     = flag.Int("workers", 0, "Animator worker count")
	flagFPS         = flag.Float64("fps", 0, "Playback frames per second")
	flagIKTolerance = flag.Float64("ik-tolerance", 0, "Stop IK chains within this distance of the goal")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Animator.Workers = *flagWorkers
	}
	if *flagFPS > 0 {
		cfg.Animator.FPS = float32(*flagFPS)
	}
	if *flagIKTolerance > 0 {
		cfg.Solver.IKPolicy = "tolerance"
		cfg.Solver.IKTolerance = float32(*flagIKTolerance)
	}
}
