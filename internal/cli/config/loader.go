package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/infra/confloader"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "SDNCLI_CONFIG"

// FileName is the config file name looked up in the default locations.
const FileName = "config.toml"

// EnvSections are the config sections settable from SDNCLI_* variables.
// Other SDNCLI_* variables belong to command-line flags.
var EnvSections = []string{"auth", "api", "context", "output"}

var (
	validVersions = []string{"", "v2", "v3"}
	validSchemes  = []string{"http", "https"}
	validFormats  = []string{"table", "json", "yaml", "text"}
	validChoosers = []string{"prompt", "fail", "latest"}
)

// DefaultConfigPath returns the per-user config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".sdncli", FileName)
}

// ResolvePath picks the config file to load: an explicit path, then
// $SDNCLI_CONFIG, then ~/.sdncli/config.toml, then config.toml beside the
// executable. It returns "" when no file exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	candidates := []string{DefaultConfigPath()}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load loads CLI configuration from file and SDNCLI_* environment variables
// on top of the defaults. An empty path skips the file.
func Load(path string) (*CLIConfig, error) {
	cfg := Default()
	// The resource table is replaced wholesale, never merged element-wise.
	cfg.Resources = nil

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithEnvSections(EnvSections...),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, domain.ErrConfig.WithCause(err)
	}

	if len(cfg.Resources) == 0 {
		cfg.Resources = DefaultResources()
	}
	return cfg, nil
}

// Save writes the configuration as TOML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := cfg.TOML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TOML encodes the configuration.
func (c *CLIConfig) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the settings needed to talk to the controller.
func (c *CLIConfig) Validate() error {
	var errs []error
	if c.Auth.Host == "" {
		errs = append(errs, errors.New("auth.host is required"))
	}
	if c.Auth.User == "" {
		errs = append(errs, errors.New("auth.user is required"))
	}
	if !validPort(c.Auth.Port) {
		errs = append(errs, fmt.Errorf("auth.port %d out of range", c.Auth.Port))
	}
	if !validPort(c.API.Port) {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if !slices.Contains(validVersions, strings.ToLower(c.Auth.Version)) {
		errs = append(errs, fmt.Errorf("auth.version %q is not supported (v2, v3)", c.Auth.Version))
	}
	if !slices.Contains(validSchemes, strings.ToLower(c.Auth.Scheme)) {
		errs = append(errs, fmt.Errorf("auth.scheme %q is not supported", c.Auth.Scheme))
	}
	if !slices.Contains(validSchemes, strings.ToLower(c.API.Scheme)) {
		errs = append(errs, fmt.Errorf("api.scheme %q is not supported", c.API.Scheme))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(validFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not supported", c.Output.Format))
	}
	if !slices.Contains(validChoosers, c.Output.Choose) {
		errs = append(errs, fmt.Errorf("output.choose %q is not supported", c.Output.Choose))
	}
	if _, err := c.Registry(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return domain.ErrConfig.WithCause(errors.Join(errs...))
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

// Timeout parses api.timeout. Empty or "0" disables the timeout.
func (c *CLIConfig) Timeout() (time.Duration, error) {
	if c.API.Timeout == "" || c.API.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("api.timeout %q is not a valid duration", c.API.Timeout)
	}
	return d, nil
}

// APIHost returns the controller host, falling back to the auth host.
func (c *CLIConfig) APIHost() string {
	if c.API.Host != "" {
		return c.API.Host
	}
	return c.Auth.Host
}

// Sanitized returns a copy safe to print.
func (c *CLIConfig) Sanitized() *CLIConfig {
	out := *c
	if out.Auth.Password != "" {
		out.Auth.Password = "***"
	}
	out.Resources = slices.Clone(c.Resources)
	return &out
}

// EnsurePassword prompts for the auth password when none is configured and
// in is a terminal. The prompt goes to out so stdout stays clean.
func (c *CLIConfig) EnsurePassword(in *os.File, out io.Writer) error {
	if c.Auth.Password != "" {
		return nil
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	fmt.Fprintf(out, "Password for %s@%s: ", c.Auth.User, c.Auth.Host)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	c.Auth.Password = strings.TrimSpace(string(pw))
	return nil
}
