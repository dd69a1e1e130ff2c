package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oarkflow/recruiter/internal/tmpl"
)

// SetupFile holds the operator's credentials as KEY=VALUE lines.
const SetupFile = "setup_details.txt"

// Setup file keys.
const (
	KeyEmail             = "GMAIL_EMAIL"
	KeyAppPassword       = "GMAIL_APP_PASSWORD"
	KeySenderName        = "SENDER_NAME"
	KeyPreferredTemplate = "PREFERRED_TEMPLATE"
)

var requiredSetupKeys = []string{KeyEmail, KeyAppPassword, KeySenderName}

// TemplateFile returns the file name holding the template for variant.
func TemplateFile(variant tmpl.Variant) string {
	return fmt.Sprintf("template_%s.txt", variant)
}

// ReadSetup parses the setup file in dir and checks the required keys.
func ReadSetup(dir string) (map[string]string, error) {
	path := filepath.Join(dir, SetupFile)
	details, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, path, err)
	}

	missing := &MissingFieldsError{Source: path}
	for _, key := range requiredSetupKeys {
		if strings.TrimSpace(details[key]) == "" {
			missing.Missing = append(missing.Missing, key)
		}
	}
	if len(missing.Missing) > 0 {
		return nil, missing
	}
	return details, nil
}

// ReadTemplate loads the template text for variant from dir.
func ReadTemplate(dir string, variant tmpl.Variant) (string, error) {
	path := filepath.Join(dir, TemplateFile(variant))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: template file %s not found", ErrConfiguration, path)
		}
		return "", fmt.Errorf("%w: failed to read template file %s: %v", ErrConfiguration, path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: template file %s is empty", ErrConfiguration, path)
	}
	return text, nil
}

// AvailableTemplates lists the variants whose template file exists in dir.
func AvailableTemplates(dir string) []tmpl.Variant {
	var out []tmpl.Variant
	for _, v := range tmpl.Variants {
		if _, err := os.Stat(filepath.Join(dir, TemplateFile(v))); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// FromSetup builds a configuration from the setup file and the preferred
// template in dir. Environment overrides are not applied, so the result is
// what gets saved. It is validated but not saved.
func FromSetup(dir string) (*Config, error) {
	details, err := ReadSetup(dir)
	if err != nil {
		return nil, err
	}

	pref := strings.TrimSpace(details[KeyPreferredTemplate])
	if pref == "" {
		pref = string(tmpl.PersonCompany)
	}
	variant, err := tmpl.ParseVariant(pref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, KeyPreferredTemplate, err)
	}

	text, err := ReadTemplate(dir, variant)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SenderName:         strings.TrimSpace(details[KeySenderName]),
		SenderEmail:        strings.TrimSpace(details[KeyEmail]),
		SenderPassword:     strings.TrimSpace(details[KeyAppPassword]),
		EmailTemplate:      text,
		TemplatePreference: string(variant),
		SetupDate:          time.Now().Format(time.RFC3339),
	}
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrSetup loads the configuration at path. When the file is missing or
// cannot be parsed, setup runs from the files in dir and the result is saved.
// The returned bool reports whether setup ran.
func LoadOrSetup(path, dir string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, false, nil
	}
	var mf *MissingFieldsError
	if !errors.Is(err, ErrNotFound) && (!errors.Is(err, ErrConfiguration) || errors.As(err, &mf)) {
		return nil, false, err
	}

	cfg, err = FromSetup(dir)
	if err != nil {
		return nil, true, err
	}
	if err := Save(path, cfg); err != nil {
		return nil, true, err
	}

	// Overrides apply to this run only, like they do on Load.
	run := *cfg
	if err := overlayEnv(&run); err != nil {
		return nil, true, err
	}
	if err := run.Validate(); err != nil {
		return nil, true, err
	}
	return &run, true, nil
}
