package config

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

// Tool configuration for pybuild. It only affects how projects are found and
// how results are reported; discovery itself has no settings.

const DefaultConfigFile = ".pybuild.yaml"

// Root is the top-level configuration structure.
type Root struct {
	Scan   Scan    `json:"scan,omitzero"`
	Output Output  `json:"output,omitzero"`
	Policy *Policy `json:"policy,omitempty"`
	Log    Log     `json:"log,omitzero"`

	_ struct{} `additionalProperties:"false"`
}

// Scan selects the project files of a batch scan. Globs are matched against
// slash-separated paths relative to the scanned root; "**/" needs at least one
// leading directory, so top-level patterns are listed separately.
type Scan struct {
	Include   []string `json:"include,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`
	Workers   int      `json:"workers,omitempty" minimum:"0"`
	CacheSize int      `json:"cache_size,omitempty" minimum:"0"`
	Progress  bool     `json:"progress,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

type Output struct {
	Format string `json:"format,omitempty" enum:"table,json,yaml"`

	_ struct{} `additionalProperties:"false"`
}

// Policy names a Rego file whose query result lists violations.
type Policy struct {
	File  string `json:"file" required:"true"`
	Query string `json:"query,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

type Log struct {
	Level  string `json:"level,omitempty" enum:"debug,info,warn,error"`
	Format string `json:"format,omitempty" enum:"text,json"`

	_ struct{} `additionalProperties:"false"`
}

var (
	DefaultInclude = []string{"**/pyproject.toml", "pyproject.toml"}
	DefaultExclude = []string{
		".git/**", "**/.git/**",
		".venv/**", "**/.venv/**",
		"node_modules/**", "**/node_modules/**",
		"__pycache__/**", "**/__pycache__/**",
	}
)

// Default returns the configuration used when no file is given.
func Default() *Root {
	r := &Root{}
	r.setDefaults()
	return r
}

func (r *Root) setDefaults() {
	if len(r.Scan.Include) == 0 {
		r.Scan.Include = slices.Clone(DefaultInclude)
	}
	if r.Scan.Exclude == nil {
		r.Scan.Exclude = slices.Clone(DefaultExclude)
	}
	r.Output.Format = cmp.Or(r.Output.Format, "table")
	r.Log.Level = cmp.Or(r.Log.Level, "info")
	r.Log.Format = cmp.Or(r.Log.Format, "text")
}

func (r *Root) Equal(other *Root) bool {
	return fastEqual(r, other, func(r, other *Root) bool {
		return slices.Equal(r.Scan.Include, other.Scan.Include) &&
			slices.Equal(r.Scan.Exclude, other.Scan.Exclude) &&
			r.Scan.Workers == other.Scan.Workers &&
			r.Scan.CacheSize == other.Scan.CacheSize &&
			r.Scan.Progress == other.Scan.Progress &&
			r.Output == other.Output &&
			r.Log == other.Log &&
			fastEqual(r.Policy, other.Policy, func(a, b *Policy) bool { return *a == *b })
	})
}

// Load merges the given files, see Merge, and parses the result. Without files,
// DefaultConfigFile is used if it exists in the working directory, and Default
// otherwise.
func Load(files []string) (*Root, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return Default(), nil
		}
		files = []string{DefaultConfigFile}
	}

	bs, err := Merge(files, false)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}

func ParseFile(filename string) (*Root, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	return Parse(bs)
}

// Parse validates bs (YAML or JSON) against the configuration schema and decodes
// it, filling in defaults.
func Parse(bs []byte) (*Root, error) {
	var raw any
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := rootSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var root Root
	if err := decode(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	root.setDefaults()
	return &root, nil
}

func Validate(data []byte) error {
	var config any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	return rootSchema.Validate(config)
}

// we use this one so we don't need duplicate tags on every struct
func decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		TagName:  "json",
		Metadata: nil,
		Result:   output,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

func fastEqual[V any](a, b *V, slowEqual func(a, b *V) bool) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	case a == b:
		return true
	}
	return slowEqual(a, b)
}
