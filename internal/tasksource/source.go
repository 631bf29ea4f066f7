// Package tasksource reads the ordered task list for a run from a JSON, YAML
// or TOML file and normalises every record into a domain.Task.
//
// A file holds either a top-level "tasks" list or, for JSON and YAML, a bare
// list. Input order is preserved; it defines the run order and the meaning of
// start_row.
package tasksource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
)

// Format identifies a task file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// document is the wrapped form shared by all three encodings.
type document struct {
	Tasks []domain.Task `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// FormatFromPath maps a file extension onto a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadFile reads and normalises the tasks in path.
func LoadFile(path string) ([]domain.Task, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied task file
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read task file %s", path)
	}

	tasks, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "task file %s", path)
	}
	return tasks, nil
}

// Parse decodes data in the given format, then normalises and validates the tasks.
func Parse(data []byte, format Format) ([]domain.Task, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrTaskSourceInvalid, err)
	}
	return Normalize(raw)
}

func decode(data []byte, format Format) ([]domain.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '[' {
			var tasks []domain.Task
			err := json.Unmarshal(trimmed, &tasks)
			return tasks, err
		}
		var doc document
		err := json.Unmarshal(trimmed, &doc)
		return doc.Tasks, err

	case FormatYAML:
		if trimmed[0] == '-' {
			var tasks []domain.Task
			err := yaml.Unmarshal(trimmed, &tasks)
			return tasks, err
		}
		var doc document
		err := yaml.Unmarshal(trimmed, &doc)
		return doc.Tasks, err

	case FormatTOML:
		var doc document
		err := toml.Unmarshal(trimmed, &doc)
		return doc.Tasks, err

	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, format)
	}
}
