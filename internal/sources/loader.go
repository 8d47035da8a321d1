// Package sources loads scrape target definitions from a directory of
// YAML files, one file per source.
package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of source definitions
type Loader struct {
	dir string
}

// NewLoader creates a new source definition loader
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll loads every YAML source file from the directory, sorted by file
// name so runs visit sources in a stable order. A missing directory
// yields an empty list.
func (l *Loader) LoadAll() ([]*Source, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	// Also check for .yml extension
	ymlFiles, err := filepath.Glob(filepath.Join(l.dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	var loaded []*Source
	for _, file := range files {
		source, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(source); err != nil {
			return nil, fmt.Errorf("invalid source %s: %w", file, err)
		}

		loaded = append(loaded, source)
		slog.Debug("Loaded source definition", "file", file, "name", source.Name)
	}

	return loaded, nil
}

func (l *Loader) loadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &source, nil
}

func (l *Loader) validate(source *Source) error {
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	switch source.Kind {
	case KindSlack:
		if source.Channel == "" {
			return fmt.Errorf("channel_id is required for slack sources")
		}
	case KindGitLab:
		if source.Project == "" {
			return fmt.Errorf("project is required for gitlab sources")
		}
	default:
		return fmt.Errorf("unknown source kind: %q", source.Kind)
	}
	return nil
}
