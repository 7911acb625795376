package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = "actionrec.yaml"

// MaxPollInterval bounds replay.poll_interval.
const MaxPollInterval = 10 * time.Millisecond

// Config captures the user-adjustable knobs for recording and replay.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Record  RecordConfig  `yaml:"record"`
	Replay  ReplayConfig  `yaml:"replay"`
	Logging LoggingConfig `yaml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-"`
}

// PathsConfig controls filesystem locations used by the CLI.
type PathsConfig struct {
	RecordingsDir string `yaml:"recordings_dir"`
}

// RecordConfig tunes capture sessions.
type RecordConfig struct {
	BufferSize    int  `yaml:"buffer_size"`
	WriteManifest bool `yaml:"write_manifest"`
}

// ReplayConfig tunes replay timing.
type ReplayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Speed        float64       `yaml:"speed"`
	StartDelay   time.Duration `yaml:"start_delay"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			RecordingsDir: "recordings",
		},
		Record: RecordConfig{
			BufferSize:    1024,
			WriteManifest: true,
		},
		Replay: ReplayConfig{
			PollInterval: MaxPollInterval,
			Speed:        1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./actionrec.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
	}

	if err := decodeYAML(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", candidate, err)
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// decodeYAML overlays data onto cfg, rejecting keys the schema does not know.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		return errors.New("paths.recordings_dir must not be empty")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	if c.Record.BufferSize <= 0 {
		return errors.New("record.buffer_size must be positive")
	}
	if c.Replay.PollInterval <= 0 || c.Replay.PollInterval > MaxPollInterval {
		return fmt.Errorf("replay.poll_interval must be within (0, %s]", MaxPollInterval)
	}
	if c.Replay.Speed <= 0 || math.IsNaN(c.Replay.Speed) || math.IsInf(c.Replay.Speed, 0) {
		return errors.New("replay.speed must be a positive number")
	}
	if c.Replay.StartDelay < 0 {
		return errors.New("replay.start_delay must not be negative")
	}

	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.Paths.RecordingsDir = filepath.Clean(strings.TrimSpace(c.Paths.RecordingsDir))
	if c.Paths.RecordingsDir == "." || c.Paths.RecordingsDir == "" {
		c.Paths.RecordingsDir = defaults.Paths.RecordingsDir
	}

	if lvl, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = lvl
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}

	if c.Record.BufferSize == 0 {
		c.Record.BufferSize = defaults.Record.BufferSize
	}
	if c.Replay.PollInterval == 0 {
		c.Replay.PollInterval = defaults.Replay.PollInterval
	}
	if c.Replay.Speed == 0 {
		c.Replay.Speed = defaults.Replay.Speed
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
