// Package config loads the tool settings: built-in defaults, then an optional YAML file, then
// a .env file and SIMCHECK_* environment variables. Command line flags are applied last by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gregLibert/simcheck/pkg/profile"
	"github.com/gregLibert/simcheck/pkg/similarity"
)

const (
	// DefaultFile is read when no config path is given and the file exists.
	DefaultFile = "simcheck.yaml"
	// DefaultEnvFile is loaded into the environment when present.
	DefaultEnvFile = ".env"

	EnvProfile    = "SIMCHECK_PROFILE"
	EnvLogLevel   = "SIMCHECK_LOG_LEVEL"
	EnvReportDir  = "SIMCHECK_REPORT_DIR"
	EnvSimilarity = "SIMCHECK_SIMILARITY"
)

// ErrUnknownProfile is returned for a profile name that is not registered. It matches
// profile.ErrUnknown as well.
var ErrUnknownProfile = fmt.Errorf("config: %w", profile.ErrUnknown)

// Config holds every tunable of a run.
type Config struct {
	Profile             string  `yaml:"profile"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	LookaheadWindow     int     `yaml:"lookahead_window"`
	KeyLookaheadWindow  int     `yaml:"key_lookahead_window"`
	// MaxReportResults caps the detailed results of the script report. Zero lists them all.
	MaxReportResults int    `yaml:"max_report_results"`
	LogLevel         string `yaml:"log_level"`
	// ReportDir receives the reports. Empty means next to the machine log.
	ReportDir string `yaml:"report_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SimilarityThreshold: similarity.DefaultThreshold,
		LookaheadWindow:     5,
		KeyLookaheadWindow:  10,
		LogLevel:            "info",
	}
}

// Load builds the configuration from path and envFile. An empty path reads DefaultFile when it
// exists; an explicit path must exist. A missing envFile is ignored. Variables already set in
// the environment win over the .env file.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides the settings that have a SIMCHECK_* variable set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvProfile); v != "" {
		c.Profile = strings.ToUpper(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvReportDir); v != "" {
		c.ReportDir = v
	}
	if v := getenv(EnvSimilarity); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSimilarity, err)
		}
		c.SimilarityThreshold = f
	}
	return nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 100 {
		errs = append(errs, fmt.Errorf("similarity_threshold %.1f out of (0, 100]", c.SimilarityThreshold))
	}
	if c.LookaheadWindow < 0 || c.KeyLookaheadWindow < 0 {
		errs = append(errs, errors.New("lookahead windows must not be negative"))
	}
	if c.MaxReportResults < 0 {
		errs = append(errs, errors.New("max_report_results must not be negative"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Profile != "" {
		if _, err := profile.Get(c.Profile); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownProfile, c.Profile))
		}
	}
	return errors.Join(errs...)
}

// Level returns the zerolog level, info when the name is not valid.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ResolveProfile returns the named profile, or the configured one when name is empty, with
// the configured lookahead windows applied.
func (c Config) ResolveProfile(name string) (profile.Profile, error) {
	if name == "" {
		name = c.Profile
	}
	p, err := profile.Get(strings.ToUpper(name))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(profile.Names(), ", "))
	}
	return p.WithWindows(c.LookaheadWindow, c.KeyLookaheadWindow), nil
}
