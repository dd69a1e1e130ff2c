package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/resume"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the configuration from setup files",
	Long: `Read setup_details.txt and the preferred template file and save the
configuration used by 'recruiter send'.

setup_details.txt holds KEY=VALUE lines:
  GMAIL_EMAIL         your Gmail address (required)
  GMAIL_APP_PASSWORD  a Gmail App Password (required)
  SENDER_NAME         your name as it appears in emails (required)
  PREFERRED_TEMPLATE  person_only or person_company (optional)

Use --force to replace an existing configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := configPath()

		if _, err := os.Stat(path); err == nil && !setupForce {
			return fmt.Errorf("configuration already exists: %s (use --force to replace it)", path)
		}

		cfg, err := config.FromSetup(workDir)
		if err != nil {
			hint(cmd.ErrOrStderr(), err)
			return fmt.Errorf("setup failed: %w", err)
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}

		existed, err := resume.EnsureDir(inDir(cfg.Paths.ResumeDir))
		if err != nil {
			log.Warn("Could not create resume folder", "error", err)
		} else if !existed {
			fmt.Fprintf(out, "Created resume folder %s; add your resume there.\n", inDir(cfg.Paths.ResumeDir))
		}

		fmt.Fprintln(out, "✓ Configuration saved")
		fmt.Fprintf(out, "  Email:    %s\n", cfg.SenderEmail)
		fmt.Fprintf(out, "  Name:     %s\n", cfg.SenderName)
		fmt.Fprintf(out, "  Template: %s\n", cfg.TemplatePreference)
		fmt.Fprintf(out, "  File:     %s\n", path)
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false, "replace an existing configuration")
}

// loadConfig loads the saved configuration without running setup.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("%w; run 'recruiter setup' first", err)
	}
	if err != nil {
		return nil, err
	}
	return resolvePaths(cfg), nil
}
