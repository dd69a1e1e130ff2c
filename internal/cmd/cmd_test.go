package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/resume"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

// runWithInput is run with input fed to the interactive prompts.
func runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cfgFile, workDir = "", "."
	initForce, setupForce = false, false
	historyLimit = 5
	sendTo, sendName, sendCompany, sendBcc = "", "", "", ""
	sendSubject, sendResume, sendTemplate, sendYes = "", "", "", false

	var buf bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

const testSetup = `GMAIL_EMAIL=jane@example.com
GMAIL_APP_PASSWORD=abcd efgh ijkl mnop
SENDER_NAME=Jane Doe
PREFERRED_TEMPLATE=person_only
`

func TestWorkspaceLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+config.SetupFile)
	assert.DirExists(t, filepath.Join(dir, "resume"))

	out, err = run(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Starter files already exist.")

	// The starter setup file has no password yet.
	_, err = run(t, "setup", "--dir", dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SetupFile), []byte(testSetup), 0o600))
	out, err = run(t, "setup", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "person_only")
	assert.FileExists(t, filepath.Join(dir, config.DefaultFile))

	_, err = run(t, "setup", "--dir", dir)
	require.Error(t, err, "existing configuration needs --force")

	out, err = run(t, "config", "show", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Set (person_only)")
	assert.NotContains(t, out, "abcd efgh")

	out, err = run(t, "check", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "template_person_company.txt uses {name}, {company}, {sender_name}")

	out, err = run(t, "history", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No emails sent yet.")

	out, err = run(t, "config", "reset", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration reset")
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultFile))

	out, err = run(t, "config", "reset", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No configuration file found.")
}

// newWorkspace returns a directory with filled-in setup files and the named
// resumes, each one hour older than the previous.
func newWorkspace(t *testing.T, resumes ...string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := config.WriteStarterFiles(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SetupFile), []byte(testSetup), 0o600))

	resumeDir := filepath.Join(dir, resume.DefaultDir)
	_, err = resume.EnsureDir(resumeDir)
	require.NoError(t, err)
	for i, name := range resumes {
		path := filepath.Join(resumeDir, name)
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		mt := time.Now().Add(-time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
	return dir
}

func TestSend_InputEndsMidPrompt(t *testing.T) {
	dir := newWorkspace(t, "cv.pdf")

	out, err := runWithInput(t, "hr@acme.com\nJohn\n", "send", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Recipient email")
	assert.Contains(t, out, "Company name")
	assert.Contains(t, out, "Operation cancelled by user.")
	assert.NotContains(t, out, "Email summary")
	assert.NoFileExists(t, filepath.Join(dir, "sent_emails.json"))
}

func TestSend_DeclinedAtConfirm(t *testing.T) {
	dir := newWorkspace(t, "new.pdf", "old.docx")

	input := strings.Join([]string{
		"not-an-address", // rejected, asked again
		"hr@acme.com",
		"John",
		"Acme",
		"",             // template: keep the configured one
		"bcc@@invalid", // dropped
		"Hello",
		"2", // the older resume
		"n",
	}, "\n") + "\n"

	out, err := runWithInput(t, input, "send", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Template options:")
	assert.Contains(t, out, "Invalid BCC email format, skipping BCC.")
	assert.Contains(t, out, "Resume files:")
	assert.Contains(t, out, "new.pdf (8 B, modified")
	assert.Contains(t, out, "To:       hr@acme.com")
	assert.Contains(t, out, "Company:  Acme")
	assert.Contains(t, out, "Subject:  Hello")
	assert.Contains(t, out, filepath.Join(dir, resume.DefaultDir, "old.docx"))
	assert.NotContains(t, out, "BCC:")
	assert.Contains(t, out, "Email cancelled by user.")
	assert.NoFileExists(t, filepath.Join(dir, "sent_emails.json"))
}

func TestSend_NoResume(t *testing.T) {
	dir := newWorkspace(t)

	out, err := run(t, "send", "--dir", dir, "--to", "hr@acme.com", "--yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, resume.ErrNotFound)
	assert.Contains(t, out, "Add your resume")
	assert.NoFileExists(t, filepath.Join(dir, "sent_emails.json"))
}

func TestInDir(t *testing.T) {
	workDir = "/work"
	t.Cleanup(func() { workDir = "." })

	assert.Equal(t, filepath.Join("/work", "resume"), inDir("resume"))
	assert.Equal(t, "/abs/log.json", inDir("/abs/log.json"))
	assert.Equal(t, "", inDir(""))
}

func TestInstallCompletion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := installCompletion(rootCmd, "fish")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/fish/completions/recruiter.fish"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "recruiter")

	_, err = installCompletion(rootCmd, "tcsh")
	assert.Error(t, err)
}
