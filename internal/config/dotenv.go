package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is where the deployment keeps its credentials.
const DefaultEnvFile = "/srv/ecoflow/.env"

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left untouched. A missing file is
// reported as an error wrapping fs.ErrNotExist so callers can decide whether
// it matters.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
