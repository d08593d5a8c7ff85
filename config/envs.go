package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Environment overrides.
const (
	EnvHost      = "CELLGRID_HOST"
	EnvPort      = "CELLGRID_PORT"
	EnvImageRoot = "CELLGRID_IMAGE_ROOT"
	EnvStepDelay = "CELLGRID_STEP_DELAY"
)

// LoadDotEnv exports the variables of a .env file at path that are not already set in
// the process environment. A missing file is not an error.
func LoadDotEnv(afs afero.Fs, path string) error {
	f, err := afs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] no %s file, using the process environment", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any CELLGRID_* variables that are set.
func (cfg *ReplayConfig) ApplyEnv() error {
	cfg.Server.Host = getEnvWithDefault(EnvHost, cfg.Server.Host)
	cfg.Images.Root = getEnvWithDefault(EnvImageRoot, cfg.Images.Root)

	if value, exists := os.LookupEnv(EnvPort); exists {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, EnvPort, err)
		}
		cfg.Server.Port = port
	}
	if value, exists := os.LookupEnv(EnvStepDelay); exists {
		delay, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration: %v", ErrInvalidConfig, EnvStepDelay, err)
		}
		cfg.StepDelay = delay
	}
	return cfg.Validate()
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
