package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the saved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long:  `Show the saved configuration. The password is never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		template := "Not set"
		if cfg.EmailTemplate != "" {
			template = "Set (" + cfg.TemplatePreference + ")"
		}

		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Email:     %s\n", cfg.SenderEmail)
		fmt.Fprintf(out, "  Name:      %s\n", cfg.SenderName)
		fmt.Fprintf(out, "  Template:  %s\n", template)
		if t := cfg.SetupTime(); !t.IsZero() {
			fmt.Fprintf(out, "  Setup:     %s\n", t.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "  SMTP:      %s:%d (timeout %s)\n", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Timeout)
		fmt.Fprintf(out, "  Ollama:    %s (%s)\n", cfg.Ollama.URL, cfg.Ollama.Model)
		fmt.Fprintf(out, "  Resumes:   %s\n", cfg.Paths.ResumeDir)
		fmt.Fprintf(out, "  Log file:  %s\n", cfg.Paths.LogFile)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved configuration",
	Long:  `Delete the saved configuration. The next send runs setup again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		existed, err := config.Reset(configPath())
		if err != nil {
			return err
		}
		if !existed {
			fmt.Fprintln(cmd.OutOrStdout(), "No configuration file found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration reset. Run 'recruiter setup' to configure again.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configResetCmd)
}
