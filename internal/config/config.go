// Package config loads menota settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/wrap"
	"github.com/motheatensoul/menota-helper/internal/logging"
)

// Config is the top-level configuration.
type Config struct {
	Log  LogConfig  `yaml:"log"`
	Tags TagsConfig `yaml:"tags"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TagsConfig names the elements the wrapper and milestone commands use.
type TagsConfig struct {
	Container   string   `yaml:"container"`
	Paragraph   string   `yaml:"paragraph"`
	Word        string   `yaml:"word"`
	Punctuation string   `yaml:"punctuation"`
	Annotation  string   `yaml:"annotation"`
	Milestones  []string `yaml:"milestones"`
	Inline      []string `yaml:"inline"`
}

// Default returns the built-in TEI/Menota configuration.
func Default() *Config {
	s := wrap.DefaultScheme()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Tags: TagsConfig{
			Container:   s.Container,
			Paragraph:   s.Paragraph,
			Word:        s.Word,
			Punctuation: s.Punctuation,
			Annotation:  s.Annotation,
			Milestones:  s.Milestones,
			Inline:      s.Inline,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if path is
// not empty, and then with MENOTA_LOG_LEVEL and MENOTA_LOG_FORMAT.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewIO("read", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = envOr("MENOTA_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("MENOTA_LOG_FORMAT", c.Log.Format)
}

// Validate checks log settings and that every tag is a name used for
// exactly one role.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}

	roles := make(map[string]string)
	claim := func(field, tag string) error {
		if !isName(tag) {
			return errors.NewValidation(field, fmt.Sprintf("%q is not an element name", tag))
		}
		if other, ok := roles[tag]; ok {
			return errors.NewValidation(field, fmt.Sprintf("%q is already used by %s", tag, other))
		}
		roles[tag] = field
		return nil
	}

	t := c.Tags
	for _, f := range []struct{ field, tag string }{
		{"tags.container", t.Container},
		{"tags.paragraph", t.Paragraph},
		{"tags.word", t.Word},
		{"tags.punctuation", t.Punctuation},
		{"tags.annotation", t.Annotation},
	} {
		if err := claim(f.field, f.tag); err != nil {
			return err
		}
	}
	for _, tag := range t.Milestones {
		if err := claim("tags.milestones", tag); err != nil {
			return err
		}
	}
	for _, tag := range t.Inline {
		if err := claim("tags.inline", tag); err != nil {
			return err
		}
	}
	return nil
}

// Scheme converts the tag settings for the wrapper.
func (c *Config) Scheme() wrap.Scheme {
	return wrap.Scheme{
		Container:   c.Tags.Container,
		Paragraph:   c.Tags.Paragraph,
		Word:        c.Tags.Word,
		Punctuation: c.Tags.Punctuation,
		Annotation:  c.Tags.Annotation,
		Milestones:  c.Tags.Milestones,
		Inline:      c.Tags.Inline,
	}
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// LogFormat returns the parsed log format.
func (c *Config) LogFormat() logging.Format {
	format, _ := logging.ParseFormat(c.Log.Format)
	return format
}

// isName reports whether s is an unprefixed XML element name.
func isName(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(first) && first != '_' {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
