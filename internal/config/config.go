/*
Package config provides configuration loading and validation for Recruiter.

The configuration record lives in a YAML file written by setup. Values from
RECRUITER_* environment variables override the file, and built-in defaults
fill anything left empty.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/recruiter/internal/activity"
	"github.com/oarkflow/recruiter/internal/delivery"
	"github.com/oarkflow/recruiter/internal/ollama"
	"github.com/oarkflow/recruiter/internal/resume"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

// DefaultFile is the configuration record written by setup.
const DefaultFile = ".recruiter.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECRUITER_"

var (
	// ErrConfiguration is wrapped by every configuration problem.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("configuration not found")
)

// Config is the complete Recruiter configuration. It is built once and not
// mutated afterwards; use the With* helpers to derive variants.
type Config struct {
	SenderName         string `yaml:"sender_name" env:"SENDER_NAME" validate:"required"`
	SenderEmail        string `yaml:"sender_email" env:"SENDER_EMAIL" validate:"required,email"`
	SenderPassword     string `yaml:"sender_password" env:"SENDER_PASSWORD" validate:"required"`
	EmailTemplate      string `yaml:"email_template" env:"EMAIL_TEMPLATE" validate:"required"`
	TemplatePreference string `yaml:"template_preference" env:"TEMPLATE_PREFERENCE" validate:"required,oneof=person_only person_company"`
	SetupDate          string `yaml:"setup_date,omitempty"`

	Ollama Ollama `yaml:"ollama" envPrefix:"OLLAMA_"`
	SMTP   SMTP   `yaml:"smtp" envPrefix:"SMTP_"`
	Paths  Paths  `yaml:"paths"`
}

// Ollama configures subject generation.
type Ollama struct {
	URL   string `yaml:"url" env:"URL" validate:"required,url"`
	Model string `yaml:"model" env:"MODEL" validate:"required"`
}

// SMTP configures the relay.
type SMTP struct {
	Host    string        `yaml:"host" env:"HOST" validate:"required,hostname|ip"`
	Port    int           `yaml:"port" env:"PORT" validate:"gte=1,lte=65535"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gt=0"`
}

// Paths locates files on disk.
type Paths struct {
	ResumeDir string `yaml:"resume_dir" env:"RESUME_DIR" validate:"required"`
	LogFile   string `yaml:"log_file" env:"LOG_FILE" validate:"required"`
}

// Defaults returns the built-in values for everything but the sender identity
// and template.
func Defaults() Config {
	return Config{
		TemplatePreference: string(tmpl.PersonCompany),
		Ollama: Ollama{
			URL:   ollama.DefaultURL,
			Model: ollama.DefaultModel,
		},
		SMTP: SMTP{
			Host:    delivery.DefaultHost,
			Port:    delivery.DefaultPort,
			Timeout: delivery.DefaultTimeout,
		},
		Paths: Paths{
			ResumeDir: resume.DefaultDir,
			LogFile:   activity.DefaultFile,
		},
	}
}

// MissingFieldsError lists every configuration key that is absent or invalid.
type MissingFieldsError struct {
	Source  string
	Missing []string
	Invalid []string
}

func (e *MissingFieldsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	msg := strings.Join(parts, "; ")
	if e.Source != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Source)
	}
	return msg
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrConfiguration
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	out := &MissingFieldsError{}
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if fe.Tag() == "required" {
			out.Missing = append(out.Missing, key)
		} else {
			out.Invalid = append(out.Invalid, key)
		}
	}
	sort.Strings(out.Missing)
	sort.Strings(out.Invalid)
	return out
}

// Variant returns the preferred template variant.
func (c *Config) Variant() tmpl.Variant {
	v, err := tmpl.ParseVariant(c.TemplatePreference)
	if err != nil {
		return tmpl.PersonCompany
	}
	return v
}

// WithTemplate returns a copy of c using another template.
func (c *Config) WithTemplate(variant tmpl.Variant, text string) *Config {
	cp := *c
	cp.TemplatePreference = string(variant)
	cp.EmailTemplate = text
	return &cp
}

// Load reads the configuration file at path, overlays environment overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %s: %v", ErrConfiguration, path, err)
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		var mf *MissingFieldsError
		if errors.As(err, &mf) {
			mf.Source = path
		}
		return nil, err
	}
	return &cfg, nil
}

// finalize applies environment overrides and then defaults.
func finalize(cfg *Config) error {
	if err := overlayEnv(cfg); err != nil {
		return err
	}
	return applyDefaults(cfg)
}

// overlayEnv replaces fields of cfg with any RECRUITER_* values set.
func overlayEnv(cfg *Config) error {
	var over Config
	if err := env.ParseWithOptions(&over, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: invalid environment override: %v", ErrConfiguration, err)
	}
	if err := mergo.Merge(cfg, over, mergo.WithOverride); err != nil {
		return fmt.Errorf("%w: failed to apply environment overrides: %v", ErrConfiguration, err)
	}
	return nil
}

// applyDefaults fills every unset field from Defaults.
func applyDefaults(cfg *Config) error {
	if err := mergo.Merge(cfg, Defaults()); err != nil {
		return fmt.Errorf("%w: failed to apply defaults: %v", ErrConfiguration, err)
	}
	return nil
}

// Save writes the configuration file readable only by the owner.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultFile
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the configuration file. It reports whether a file existed.
func Reset(path string) (bool, error) {
	if path == "" {
		path = DefaultFile
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to reset configuration: %w", err)
	}
	return true, nil
}

// SetupTime parses SetupDate, returning the zero time when unset.
func (c *Config) SetupTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.SetupDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
