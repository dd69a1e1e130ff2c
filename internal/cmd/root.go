/*
Package cmd provides the CLI commands for Recruiter.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/delivery"
	"github.com/oarkflow/recruiter/internal/message"
	"github.com/oarkflow/recruiter/internal/prompt"
	"github.com/oarkflow/recruiter/internal/resume"
)

var (
	cfgFile string
	workDir string
	verbose bool
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recruiter",
	Short: "Send personalized recruitment emails with your resume",
	Long: `Recruiter sends one personalized recruitment email per run over
Gmail SMTP, with your resume attached.

Subject lines are generated by a local Ollama model when one is available,
with a professional default otherwise. Every attempt is recorded in a JSON
activity log.

Example:
  recruiter init                 # Create setup_details.txt and templates
  recruiter setup                # Build the configuration from those files
  recruiter send                 # Answer the prompts and send
  recruiter send --to hr@acme.com --company Acme --yes
  recruiter history              # Show recent emails`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it. Ctrl-C
// cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .recruiter.yaml in --dir)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", ".", "directory holding setup_details.txt and template files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else if verbose {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// configPath returns the configuration file location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(workDir, config.DefaultFile)
}

// inDir resolves relative paths from the configuration against --dir.
func inDir(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

// resolvePaths makes the configured file locations relative to --dir.
func resolvePaths(cfg *config.Config) *config.Config {
	cp := *cfg
	cp.Paths.ResumeDir = inDir(cfg.Paths.ResumeDir)
	cp.Paths.LogFile = inDir(cfg.Paths.LogFile)
	return &cp
}

// hint prints remediation advice for err to w.
func hint(w io.Writer, err error) {
	var mf *config.MissingFieldsError
	switch {
	case errors.Is(err, prompt.ErrInterrupted):
		return
	case errors.As(err, &mf):
		fmt.Fprintf(w, "Fill in %v and run 'recruiter setup' again.\n", append(mf.Missing, mf.Invalid...))
	case errors.Is(err, config.ErrNotFound), errors.Is(err, config.ErrConfiguration):
		fmt.Fprintln(w, "Check setup_details.txt and the template files, or run 'recruiter init' to create them.")
	case errors.Is(err, message.ErrAttachment), errors.Is(err, resume.ErrNotFound):
		fmt.Fprintln(w, "Add your resume (PDF or Word) to the resume folder.")
	}
}

// sendFailureHint is printed after a failed delivery.
func sendFailureHint(w io.Writer, category delivery.Category) {
	if h := category.Hint(); h != "" {
		fmt.Fprintln(w, h)
	}
}
