// Package config holds the settings of the synthie command-line tool. The
// built-in defaults live in default.yml; a user file is decoded over them.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/synthie-go/internal/audio"
	"github.com/cbegin/synthie-go/internal/log"
)

type (
	Config struct {
		SampleRate int     `yaml:"sampleRate"`
		Channels   int     `yaml:"channels"`
		Backend    string  `yaml:"backend"`
		LogLevel   string  `yaml:"logLevel"`
		MaxSeconds float64 `yaml:"maxSeconds"`
		Output     Output  `yaml:"output"`
	}

	Output struct {
		PCM16     bool `yaml:"pcm16"`
		Normalize bool `yaml:"normalize"`
	}
)

//go:embed default.yml
var defaultConfig []byte

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	if err := decode(bytes.NewReader(defaultConfig), &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Load reads the YAML file at path over the defaults. Keys absent from the
// file keep their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := decode(f, &c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func decode(r io.Reader, c *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(c)
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sampleRate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.MaxSeconds <= 0 {
		return fmt.Errorf("maxSeconds must be positive, got %g", c.MaxSeconds)
	}
	if _, err := audio.ParseBackend(c.Backend); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() log.Level {
	return log.LevelFromString(c.LogLevel)
}
