package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/errors"
)

// GlobalConfigDir returns the path to the global goalsync directory,
// ~/.goalsync unless GOALSYNC_HOME is set.
func GlobalConfigDir() (string, error) {
	if home := os.Getenv("GOALSYNC_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.GoalsyncHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ProjectConfigPath returns the project configuration file path relative to
// the working directory.
func ProjectConfigPath() string {
	return filepath.Join(constants.GoalsyncHome, constants.ConfigFileName)
}

// LedgerPath returns the progress document (or database) path for the configured backend.
func (c *Config) LedgerPath() string {
	if c.Ledger.Backend == LedgerBackendSQLite {
		return filepath.Join(c.Ledger.Dir, constants.LedgerDBFileName)
	}
	return filepath.Join(c.Ledger.Dir, constants.LedgerFileName)
}

// ProductCachePath returns the product cache document path.
func (c *Config) ProductCachePath() string {
	return filepath.Join(c.Ledger.Dir, constants.ProductCacheFileName)
}
