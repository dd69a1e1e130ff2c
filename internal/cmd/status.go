package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/activity"
	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/delivery"
	"github.com/oarkflow/recruiter/internal/ollama"
	"github.com/oarkflow/recruiter/internal/resume"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

var statusSMTP bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long: `Show whether everything needed to send is in place: configuration,
template files, resume, the Ollama service and the activity log.

Use --smtp to also log in to the SMTP server with the saved credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "System status")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(out, "  ✗ Configuration: %v\n", err)
		} else {
			fmt.Fprintf(out, "  ✓ Configuration: %s <%s>\n", cfg.SenderName, cfg.SenderEmail)
		}

		available := config.AvailableTemplates(workDir)
		for _, v := range tmpl.Variants {
			mark := "✗"
			for _, a := range available {
				if a == v {
					mark = "✓"
				}
			}
			fmt.Fprintf(out, "  %s Template %s\n", mark, config.TemplateFile(v))
		}

		defaults := config.Defaults()
		if cfg == nil {
			cfg = resolvePaths(&defaults)
		}

		if f, err := resume.Latest(cfg.Paths.ResumeDir); err != nil {
			fmt.Fprintf(out, "  ✗ Resume: %v\n", err)
		} else {
			fmt.Fprintf(out, "  ✓ Resume: %s (%s)\n", f.Name, resume.FormatSize(f.Size))
		}

		st := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model).Status(ctx)
		mark := "✗"
		if st.Running && st.ModelAvailable {
			mark = "✓"
		}
		fmt.Fprintf(out, "  %s Ollama: %s\n", mark, st.Message)
		if !st.ModelAvailable {
			fmt.Fprintln(out, "    Subjects will use the default format.")
		}

		records, err := activity.Open(cfg.Paths.LogFile).Read()
		if err != nil {
			fmt.Fprintf(out, "  ✗ Activity log: %v\n", err)
		} else {
			sent := 0
			for _, r := range records {
				if r.Success {
					sent++
				}
			}
			fmt.Fprintf(out, "  ✓ Activity log: %d attempts, %d sent\n", len(records), sent)
		}

		if statusSMTP && cfg.SenderEmail != "" {
			outcome := delivery.New(delivery.Config{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SenderEmail,
				Password: cfg.SenderPassword,
				Timeout:  cfg.SMTP.Timeout,
			}).Verify(ctx)
			if outcome.Success {
				fmt.Fprintf(out, "  ✓ SMTP: logged in to %s\n", cfg.SMTP.Host)
			} else {
				fmt.Fprintf(out, "  ✗ SMTP: %s\n", outcome.Error())
				sendFailureHint(out, outcome.Category)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusSMTP, "smtp", false, "verify SMTP credentials")
}
