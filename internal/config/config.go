// Package config loads posekit runtime settings: solver policy, morph
// blending, animator scheduling and logging.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Solver   SolverConfig   `yaml:"solver"`
	Morph    MorphConfig    `yaml:"morph"`
	Animator AnimatorConfig `yaml:"animator"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SolverConfig holds pose evaluation settings.
type SolverConfig struct {
	IKPolicy    string  `yaml:"ik_policy"` // "fixed" or "tolerance"
	IKTolerance float32 `yaml:"ik_tolerance"`

	// Bone sampling fans out over SampleWorkers goroutines for rigs with
	// at least SampleMinBones bones. Below 2 workers sampling is serial.
	SampleWorkers  int `yaml:"sample_workers"`
	SampleMinBones int `yaml:"sample_min_bones"`
}

// MorphConfig holds morph blending settings.
type MorphConfig struct {
	Threshold float32 `yaml:"threshold"`
}

// AnimatorConfig holds multi-instance scheduling settings.
type AnimatorConfig struct {
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	FPS         float32       `yaml:"fps"`
	Loop        bool          `yaml:"loop"`
	FrameBudget time.Duration `yaml:"frame_budget"` // steps slower than this are logged at warn
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Solver: SolverConfig{
			IKPolicy:       "fixed",
			IKTolerance:    1e-3,
			SampleWorkers:  0,
			SampleMinBones: 256,
		},
		Morph: MorphConfig{
			Threshold: 1e-3,
		},
		Animator: AnimatorConfig{
			Workers:     4,
			QueueSize:   64,
			FPS:         30,
			Loop:        true,
			FrameBudget: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var err error
	if c.Solver.IKPolicy != "fixed" && c.Solver.IKPolicy != "tolerance" {
		err = multierr.Append(err, fmt.Errorf("%w: solver.ik_policy %q", ErrInvalid, c.Solver.IKPolicy))
	}
	if c.Solver.IKTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: solver.ik_tolerance %v", ErrInvalid, c.Solver.IKTolerance))
	}
	if c.Morph.Threshold < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: morph.threshold %v", ErrInvalid, c.Morph.Threshold))
	}
	if c.Animator.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: animator.workers %d", ErrInvalid, c.Animator.Workers))
	}
	if c.Animator.QueueSize < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: animator.queue_size %d", ErrInvalid, c.Animator.QueueSize))
	}
	if c.Animator.FPS <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: animator.fps %v", ErrInvalid, c.Animator.FPS))
	}
	return err
}
