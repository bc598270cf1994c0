// Package config holds the settings of the b2sim command.
//
// Values come from the defaults below, overridden by B2SIM_* environment
// variables, which may be supplied through a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SimConfig controls a simulation run.
type SimConfig struct {
	Scene              string // scene YAML path; empty uses the built-in scene
	Steps              int    // steps to run before exiting; 0 runs until interrupted when serving
	Hz                 int    // steps per simulated second
	VelocityIterations int
	PositionIterations int
	Workers            int    // islands solved concurrently
	PNG                string // snapshot written after the run; empty disables it
	Listen             string // debug HTTP address; empty disables the server
}

// Default returns the default simulation configuration.
func Default() SimConfig {
	return SimConfig{
		Steps:              600,
		Hz:                 60,
		VelocityIterations: 8,
		PositionIterations: 3,
		Workers:            1,
	}
}

// TimeStep returns the duration of one step.
func (c SimConfig) TimeStep() time.Duration {
	return time.Second / time.Duration(max(c.Hz, 1))
}

// FromEnv returns the configuration with environment variable overrides.
func FromEnv() SimConfig {
	return from(os.Getenv)
}

// FromDotEnv returns the configuration with overrides from a dotenv file.
// Variables already set in the environment take precedence over the file.
func FromDotEnv(path string) (SimConfig, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return SimConfig{}, err
	}

	return from(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return vars[key]
	}), nil
}

func from(getenv func(string) string) SimConfig {
	cfg := Default()

	if v := getenv("B2SIM_SCENE"); v != "" {
		cfg.Scene = v
	}
	if n := getInt(getenv, "B2SIM_STEPS", -1); n >= 0 {
		cfg.Steps = n
	}
	if n := getInt(getenv, "B2SIM_HZ", 0); n > 0 {
		cfg.Hz = n
	}
	if n := getInt(getenv, "B2SIM_VELOCITY_ITERATIONS", 0); n > 0 {
		cfg.VelocityIterations = n
	}
	if n := getInt(getenv, "B2SIM_POSITION_ITERATIONS", 0); n > 0 {
		cfg.PositionIterations = n
	}
	if n := getInt(getenv, "B2SIM_WORKERS", 0); n > 0 {
		cfg.Workers = n
	}
	if v := getenv("B2SIM_PNG"); v != "" {
		cfg.PNG = v
	}
	if v := getenv("B2SIM_LISTEN"); v != "" {
		cfg.Listen = v
	}

	return cfg
}

func getInt(getenv func(string) string, key string, defaultVal int) int {
	if v := getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
