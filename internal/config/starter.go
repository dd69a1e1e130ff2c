package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oarkflow/recruiter/internal/tmpl"
)

// DefaultSetup returns the starter setup file.
func DefaultSetup() string {
	return `# Recruiter setup details
# Fill in the values below, then run: recruiter setup
#
# GMAIL_APP_PASSWORD is a 16 character Gmail App Password, not your account
# password. Create one at https://support.google.com/accounts/answer/185833

GMAIL_EMAIL=your.email@gmail.com
GMAIL_APP_PASSWORD=
SENDER_NAME=Your Name

# person_only or person_company
PREFERRED_TEMPLATE=person_company
`
}

// DefaultTemplate returns the starter template for variant.
func DefaultTemplate(variant tmpl.Variant) string {
	if variant == tmpl.PersonOnly {
		return `Dear {name},

I hope this message finds you well. I am reaching out to express my interest
in software engineering opportunities on your team.

I have attached my resume for your review and would welcome the chance to
discuss how my experience could contribute to your work.

Thank you for your time and consideration.

Best regards,
{sender_name}
`
	}
	return `Dear {name},

I hope this message finds you well. I am reaching out to express my interest
in software engineering opportunities at {company}.

I have attached my resume for your review and would welcome the chance to
discuss how my experience could contribute to {company}.

Thank you for your time and consideration.

Best regards,
{sender_name}
`
}

// StarterFiles maps file names to starter content for a new workspace.
func StarterFiles() map[string]string {
	files := map[string]string{SetupFile: DefaultSetup()}
	for _, v := range tmpl.Variants {
		files[TemplateFile(v)] = DefaultTemplate(v)
	}
	return files
}

// WriteStarterFiles writes every starter file missing from dir and returns the
// names written. Existing files are left alone unless force is set.
func WriteStarterFiles(dir string, force bool) ([]string, error) {
	var written []string
	for _, name := range []string{SetupFile, TemplateFile(tmpl.PersonOnly), TemplateFile(tmpl.PersonCompany)} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		mode := os.FileMode(0o644)
		if name == SetupFile {
			mode = 0o600
		}
		if err := os.WriteFile(path, []byte(StarterFiles()[name]), mode); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}
