package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mrz1836/goalsync/internal/errors"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left untouched, and a missing file is not an error.
func LoadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

// Token returns the bearer token from the environment variable named by
// api.token_env. A leading "Bearer " is stripped so either form can be exported.
func (c *APIConfig) Token() (string, error) {
	raw := strings.TrimSpace(os.Getenv(c.TokenEnv))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", errors.Wrapf(errors.ErrMissingToken, "%s is not set", c.TokenEnv)
	}
	return raw, nil
}
