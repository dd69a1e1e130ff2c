package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter"
	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/resume"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and templates",
	Long: `Check that the configuration is valid and that its template renders.

This validates:
  - YAML syntax
  - Required fields
  - Email address format
  - Template placeholders for the configured variant
  - Template files on disk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := loadConfig()
		if err != nil {
			hint(cmd.ErrOrStderr(), err)
			return fmt.Errorf("config validation failed: %w", err)
		}

		variant := cfg.Variant()
		if _, err := tmpl.Render(cfg.EmailTemplate, variant, tmpl.NewContext(variant, "", "", cfg.SenderName)); err != nil {
			return fmt.Errorf("saved template is invalid: %w", err)
		}
		fmt.Fprintf(out, "✓ Configuration file %s is valid\n", configPath())

		for _, v := range config.AvailableTemplates(workDir) {
			text, err := config.ReadTemplate(workDir, v)
			if err != nil {
				return err
			}
			if _, err := tmpl.Render(text, v, tmpl.NewContext(v, "", "", cfg.SenderName)); err != nil {
				return fmt.Errorf("%s: %w", config.TemplateFile(v), err)
			}
			fmt.Fprintf(out, "✓ Template %s uses %s\n", config.TemplateFile(v), describeTokens(tmpl.Placeholders(text)))
		}
		return nil
	},
}

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create starter setup and template files",
	Long: `Create setup_details.txt, the two template files and the resume folder
in --dir. Existing files are kept unless --force is given.

Edit setup_details.txt afterwards and run 'recruiter setup'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		written, err := config.WriteStarterFiles(workDir, initForce)
		if err != nil {
			return err
		}
		for _, name := range written {
			fmt.Fprintf(out, "✓ Created %s\n", name)
		}

		if existed, err := resume.EnsureDir(inDir(resume.DefaultDir)); err != nil {
			return err
		} else if !existed {
			fmt.Fprintf(out, "✓ Created %s/\n", resume.DefaultDir)
		}

		if len(written) == 0 {
			fmt.Fprintln(out, "Starter files already exist.")
			return nil
		}
		fmt.Fprintln(out, "\nFill in setup_details.txt, add your resume, then run 'recruiter setup'.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build date of Recruiter.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recruiter %s\n", recruiter.Version)
		if recruiter.GitCommit != "" {
			fmt.Fprintf(out, "  Commit: %s\n", recruiter.GitCommit)
		}
		if recruiter.BuildDate != "" {
			fmt.Fprintf(out, "  Built:  %s\n", recruiter.BuildDate)
		}
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing starter files")
}

// describeTokens renders placeholder keys as "{a}, {b}".
func describeTokens(keys []string) string {
	if len(keys) == 0 {
		return "no placeholders"
	}
	return strings.Join(lo.Map(keys, func(k string, _ int) string { return "{" + k + "}" }), ", ")
}
