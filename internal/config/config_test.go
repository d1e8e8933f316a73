package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/wrap"
	"github.com/motheatensoul/menota-helper/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menota.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

// TestLoadDefaults verifies an empty path yields the TEI defaults.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("MENOTA_LOG_LEVEL", "")
	t.Setenv("MENOTA_LOG_FORMAT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(wrap.DefaultScheme(), cfg.Scheme()); diff != "" {
		t.Errorf("Scheme mismatch (-want +got):\n%s", diff)
	}
	if cfg.LogLevel() != logging.LevelInfo || cfg.LogFormat() != logging.FormatText {
		t.Errorf("log settings = %+v, want info/text", cfg.Log)
	}
}

// TestLoadFile verifies file values override defaults and absent keys keep them.
func TestLoadFile(t *testing.T) {
	t.Setenv("MENOTA_LOG_LEVEL", "")
	t.Setenv("MENOTA_LOG_FORMAT", "")
	path := writeConfig(t, `
log:
  level: debug
tags:
  container: div
  inline: [hi, supplied]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tags.Container != "div" {
		t.Errorf("Container = %q, want div", cfg.Tags.Container)
	}
	if diff := cmp.Diff([]string{"hi", "supplied"}, cfg.Tags.Inline); diff != "" {
		t.Errorf("Inline mismatch (-want +got):\n%s", diff)
	}
	if cfg.Tags.Word != "w" || cfg.Tags.Annotation != "note" {
		t.Errorf("defaults lost: %+v", cfg.Tags)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel())
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Format = %q, want default text", cfg.Log.Format)
	}
}

// TestLoadEnvOverride verifies environment variables win over the file.
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MENOTA_LOG_LEVEL", "error")
	t.Setenv("MENOTA_LOG_FORMAT", "json")
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel() != logging.LevelError || cfg.LogFormat() != logging.FormatJSON {
		t.Errorf("log settings = %+v, want error/json", cfg.Log)
	}
}

// TestLoadErrors verifies missing files, bad YAML and invalid values.
func TestLoadErrors(t *testing.T) {
	t.Setenv("MENOTA_LOG_LEVEL", "")
	t.Setenv("MENOTA_LOG_FORMAT", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	} else {
		var ioErr *errors.IOError
		if !errors.As(err, &ioErr) {
			t.Errorf("error = %v, want *IOError", err)
		}
	}

	var pe *errors.ParseError
	if _, err := Load(writeConfig(t, "tags: [unclosed")); !errors.As(err, &pe) {
		t.Errorf("error = %v, want *ParseError", err)
	}

	if _, err := Load(writeConfig(t, "log:\n  level: loud\n")); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

// TestValidate verifies tag names and role overlap checks.
func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty word", func(c *Config) { c.Tags.Word = "" }, "tags.word"},
		{"prefixed", func(c *Config) { c.Tags.Punctuation = "tei:pc" }, "tags.punctuation"},
		{"bad start", func(c *Config) { c.Tags.Paragraph = "1p" }, "tags.paragraph"},
		{"word equals annotation", func(c *Config) { c.Tags.Word = "note" }, "tags.annotation"},
		{"milestone repeats word", func(c *Config) { c.Tags.Milestones = append(c.Tags.Milestones, "w") }, "tags.milestones"},
		{"inline repeats milestone", func(c *Config) { c.Tags.Inline = []string{"hi", "lb"} }, "tags.inline"},
		{"bad format", func(c *Config) { c.Log.Format = "yaml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *errors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}
