package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no config path is
// given and the file exists.
const DefaultFile = "ccconv.yaml"

// AutoLanguage asks for the track language to be detected from cue text.
const AutoLanguage = "auto"

// Config holds conversion settings. Values come from defaults, then the
// YAML file, then the environment, then command line flags.
//
// Environment Variables:
// - CCCONV_FORMAT: output format (srt, vtt, ass, scc)
// - CCCONV_LANGUAGE: track language tag or "auto" (default: en-US)
// - CCCONV_MIN_DURATION_FRAMES: minimum on-screen frames for SCC output (default: 0)
// - CCCONV_CHANNEL: SCC caption channel, 1 or 2 (default: 1)
// - CCCONV_OFFSET_MS: milliseconds subtracted from SCC timestamps on decode
// - CCCONV_CONCURRENCY: files converted in parallel, 0 for one per CPU
// - CCCONV_REFLOW: rewrap text to fit the caption screen (default: false)
type Config struct {
	Format            string `yaml:"format"`
	Language          string `yaml:"language"`
	MinDurationFrames int    `yaml:"min_duration_frames"`
	Channel           int    `yaml:"channel"`
	OffsetMS          int64  `yaml:"offset_ms"`
	Concurrency       int    `yaml:"concurrency"`
	Reflow            bool   `yaml:"reflow"`

	path string
}

// Option is a function type for configuring Config
type Option func(*options)

type options struct {
	envFile string
}

// WithEnvFile loads variables from a dotenv file before reading the
// environment. Variables already set are not overridden.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

func defaultConfig() *Config {
	return &Config{
		Language: "en-US",
		Channel:  1,
	}
}

// Load builds the configuration. An empty path reads DefaultFile when it
// exists; an explicit path must exist.
func Load(path string, opts ...Option) (*Config, error) {
	o := &options{envFile: ".env"}
	for _, opt := range opts {
		opt(o)
	}

	cfg := defaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.path = path
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path is the config file that was read, empty when none was.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyEnv() {
	c.Format = getEnvString("CCCONV_FORMAT", c.Format)
	c.Language = getEnvString("CCCONV_LANGUAGE", c.Language)
	c.MinDurationFrames = getEnvInt("CCCONV_MIN_DURATION_FRAMES", c.MinDurationFrames)
	c.Channel = getEnvInt("CCCONV_CHANNEL", c.Channel)
	c.OffsetMS = int64(getEnvInt("CCCONV_OFFSET_MS", int(c.OffsetMS)))
	c.Concurrency = getEnvInt("CCCONV_CONCURRENCY", c.Concurrency)
	c.Reflow = getEnvBool("CCCONV_REFLOW", c.Reflow)
}

// Validate checks value ranges and canonicalises the language tag.
func (c *Config) Validate() error {
	if c.Format != "" {
		switch f := strings.ToLower(c.Format); f {
		case "srt", "vtt", "ass", "scc":
			c.Format = f
		default:
			return fmt.Errorf("unsupported output format %q", c.Format)
		}
	}
	lang, err := CanonicalLanguage(c.Language)
	if err != nil {
		return err
	}
	c.Language = lang
	if c.MinDurationFrames < 0 {
		return fmt.Errorf("min_duration_frames must not be negative, got %d", c.MinDurationFrames)
	}
	if c.Channel != 1 && c.Channel != 2 {
		return fmt.Errorf("channel must be 1 or 2, got %d", c.Channel)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// CanonicalLanguage returns the BCP 47 form of tag, so that "en_us" and
// "EN-US" name the same track. AutoLanguage passes through.
func CanonicalLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", fmt.Errorf("language tag is required")
	}
	if strings.EqualFold(tag, AutoLanguage) {
		return AutoLanguage, nil
	}
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return t.String(), nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
