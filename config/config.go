// Package config holds the settings of the yieldgen command.
//
// Settings come from a yieldgen.yaml file, searched upward from the directory
// being processed, then from YIELDGEN_* environment variables, then from
// command line flags, each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTag marks generator source files.
	DefaultTag = "yieldgen"
	// DefaultSuffix is appended to the base name of generated files.
	DefaultSuffix = "_yieldgen"
)

// Config represents yieldgen.yaml.
type Config struct {
	// Tags are the build tags used when loading packages. The first one marks
	// generator source files.
	Tags []string `yaml:"tags,omitempty"`

	// Suffix is appended to the base name of every generated file, so that
	// gen.go becomes gen_yieldgen.go.
	Suffix string `yaml:"suffix,omitempty"`

	// Jobs bounds how many files are rewritten at once. Zero means one per CPU.
	Jobs int `yaml:"jobs,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// Default returns the configuration used when there is no yieldgen.yaml.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a yieldgen.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses yieldgen.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for yieldgen.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"yieldgen.yaml", "yieldgen.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the yieldgen.yaml governing dir, or the defaults when there
// is none, and applies the environment on top.
func Discover(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if path != "" {
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings with the YIELDGEN_TAGS, YIELDGEN_SUFFIX,
// YIELDGEN_JOBS and YIELDGEN_VERBOSE environment variables.
func (c *Config) ApplyEnv() error {
	// env caches the environment on first use.
	env.Load()
	if env.Has("YIELDGEN_TAGS") {
		c.Tags = SplitTags(env.Str("YIELDGEN_TAGS"))
	}
	if env.Has("YIELDGEN_SUFFIX") {
		c.Suffix = env.Str("YIELDGEN_SUFFIX")
	}
	if env.Has("YIELDGEN_JOBS") {
		c.Jobs = env.Int("YIELDGEN_JOBS", c.Jobs)
	}
	if env.Has("YIELDGEN_VERBOSE") {
		c.Verbose = env.Bool("YIELDGEN_VERBOSE")
	}
	if err := c.validate("environment"); err != nil {
		return err
	}
	c.setDefaults()
	return nil
}

// Tag is the build tag marking generator source files.
func (c *Config) Tag() string {
	return c.Tags[0]
}

// Output names the file generated from the source file path.
func (c *Config) Output(path string) string {
	return strings.TrimSuffix(path, ".go") + c.Suffix + ".go"
}

// SplitTags parses a comma separated tag list, ignoring blanks.
func SplitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	for i, tag := range c.Tags {
		if tag == "" || strings.ContainsAny(tag, " ,!") {
			return fmt.Errorf("%s: tags[%d]: invalid build tag %q", path, i, tag)
		}
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%s: jobs must not be negative", path)
	}
	if strings.ContainsRune(c.Suffix, filepath.Separator) {
		return fmt.Errorf("%s: suffix %q must not contain a path separator", path, c.Suffix)
	}
	if strings.HasSuffix(c.Suffix, "_test") {
		return fmt.Errorf("%s: suffix %q would produce test files", path, c.Suffix)
	}
	return nil
}

// setDefaults fills in default values for optional fields.
func (c *Config) setDefaults() {
	if len(c.Tags) == 0 {
		c.Tags = []string{DefaultTag}
	}
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
}
