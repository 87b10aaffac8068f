// Package pyproject reads project configuration files into the generic mapping
// consumed by buildsys.
package pyproject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the name of the project configuration file.
const FileName = "pyproject.toml"

// Parse decodes data according to the extension of filename: TOML for .toml,
// YAML (and therefore JSON) for .yaml, .yml and .json.
func Parse(filename string, data []byte) (map[string]any, error) {
	var doc map[string]any

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration file type %q", ext)
	}

	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func ParseFile(filename string) (map[string]any, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", filename, err)
	}
	return Parse(filename, bs)
}

// FindRoot returns the closest directory at or above dir that contains a
// pyproject.toml. If there is none, dir itself is returned with found false:
// such projects are built with the legacy defaults.
func FindRoot(dir string) (root string, found bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return "", false, err
	}
	if !fi.IsDir() {
		return "", false, fmt.Errorf("%s is not a directory", dir)
	}

	for d := abs; ; {
		_, err := os.Stat(filepath.Join(d, FileName))
		switch {
		case err == nil:
			return d, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, err
		}

		parent := filepath.Dir(d)
		if parent == d {
			return abs, false, nil
		}
		d = parent
	}
}
