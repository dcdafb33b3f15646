package confloader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "SDNCLI_"

// Loader layers a config file and the environment over a target struct.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	sections  []string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithEnvSections restricts environment loading to variables whose first
// key segment is one of sections. Without it every prefixed variable loads.
func WithEnvSections(sections ...string) Option {
	return func(l *Loader) {
		l.sections = sections
	}
}

// WithConfigFile sets the configuration file path. An empty path skips the
// file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file, then the environment, and unmarshals the merged
// result into target. Fields of target absent from both keep their value.
func (l *Loader) Load(target any) error {
	if err := l.LoadFile(l.filePath); err != nil {
		return err
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	return l.Unmarshal(target)
}

// Unmarshal decodes everything loaded so far into target.
func (l *Loader) Unmarshal(target any) error {
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile loads configuration from a file. Files ending in .yaml, .yml or
// .json go through the YAML parser; everything else is read as TOML.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), parserFor(path)); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return yaml.Parser()
	default:
		return TOMLParser()
	}
}

// LoadEnv loads variables of the form PREFIX_SECTION_KEY. Only the first
// underscore after the prefix separates section from key, so
// SDNCLI_API_CA_FILE sets api.ca_file. Variables outside the allowed
// sections are skipped.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		section, _, _ := strings.Cut(s, "_")
		if len(l.sections) > 0 && !slices.Contains(l.sections, section) {
			return ""
		}
		return strings.Replace(s, "_", ".", 1)
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// String returns a loaded value by dotted key, "" when unset.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}
