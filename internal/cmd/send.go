package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/activity"
	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/pipeline"
	"github.com/oarkflow/recruiter/internal/prompt"
	"github.com/oarkflow/recruiter/internal/resume"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

var (
	sendTo       string
	sendName     string
	sendCompany  string
	sendBcc      string
	sendSubject  string
	sendResume   string
	sendTemplate string
	sendYes      bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a recruitment email",
	Long: `Send one personalized recruitment email with your resume attached.

Without --to, every detail is asked for interactively and, when the resume
folder holds several files, you pick one. With --to the newest resume is
attached unless --resume is given. When no subject is
given, a local Ollama model suggests one, falling back to a default subject.

If no configuration exists yet, it is created from setup_details.txt and the
template files first.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "recipient email (prompts for details when empty)")
	sendCmd.Flags().StringVarP(&sendName, "name", "n", "", "recipient name")
	sendCmd.Flags().StringVar(&sendCompany, "company", "", "company name")
	sendCmd.Flags().StringVar(&sendBcc, "bcc", "", "BCC email")
	sendCmd.Flags().StringVarP(&sendSubject, "subject", "s", "", "custom subject (skips generation)")
	sendCmd.Flags().StringVarP(&sendResume, "resume", "r", "", "resume file (default is the newest file in the resume folder)")
	sendCmd.Flags().StringVar(&sendTemplate, "template", "", "template variant: person_only or person_company")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "send without asking for confirmation")

	_ = sendCmd.RegisterFlagCompletionFunc("template", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(tmpl.PersonOnly), string(tmpl.PersonCompany)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cfg, ran, err := config.LoadOrSetup(configPath(), workDir)
	if err != nil {
		hint(errOut, err)
		return fmt.Errorf("configuration setup failed: %w", err)
	}
	if ran {
		log.Info("Configuration created from setup files", "file", configPath())
	}
	cfg = resolvePaths(cfg)
	log.Info("Configuration loaded", "email", cfg.SenderEmail, "name", cfg.SenderName)

	p := prompt.New(cmd.InOrStdin(), out)
	req := pipeline.Request{
		RecipientEmail: sendTo,
		RecipientName:  sendName,
		CompanyName:    sendCompany,
		Bcc:            sendBcc,
		CustomSubject:  sendSubject,
		ResumePath:     sendResume,
	}

	variant := cfg.Variant()
	if sendTemplate != "" {
		if variant, err = tmpl.ParseVariant(sendTemplate); err != nil {
			return err
		}
	}

	interactive := sendTo == ""
	if interactive {
		variant, err = askDetails(cmd, p, &req, cfg, variant)
		if errors.Is(err, prompt.ErrInterrupted) {
			return cancelled(out)
		}
		if err != nil {
			return err
		}
	}

	if req.ResumePath == "" {
		f, err := pickResume(cmd, p, cfg.Paths.ResumeDir, interactive)
		if errors.Is(err, prompt.ErrInterrupted) {
			return cancelled(out)
		}
		if err != nil {
			hint(errOut, err)
			return fmt.Errorf("cannot proceed without resume file: %w", err)
		}
		req.ResumePath = f.Path
		log.Info("Using resume", "file", f.Name, "size", resume.FormatSize(f.Size))
	}

	if variant != cfg.Variant() {
		text, err := config.ReadTemplate(workDir, variant)
		if err != nil {
			hint(errOut, err)
			return err
		}
		req.Variant, req.Template = variant, text
	}

	printSummary(out, req, variant)

	if !sendYes {
		ok, err := p.Confirm(ctx, "Send this email?", false)
		if errors.Is(err, prompt.ErrInterrupted) {
			return cancelled(out)
		}
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Email cancelled by user.")
			return nil
		}
	}

	pl, err := pipeline.New(cfg, pipeline.WithObserver(logEvent))
	if err != nil {
		return err
	}

	res, err := pl.Send(ctx, req)
	if err != nil {
		hint(errOut, err)
		return fmt.Errorf("email was not sent: %w", err)
	}
	if res.LogErr != nil {
		fmt.Fprintf(errOut, "Warning: the attempt could not be logged: %v\n", res.LogErr)
	}
	if !res.Success {
		sendFailureHint(errOut, res.Outcome.Category)
		return fmt.Errorf("email was not sent: %s", res.Outcome.Error())
	}

	fmt.Fprintf(out, "✓ Email sent to %s\n", req.RecipientEmail)
	fmt.Fprintf(out, "  Subject: %s (%s)\n", res.Subject, res.SubjectSource)
	fmt.Fprintf(out, "  Resume:  %s (sha256 %s)\n", res.Attachment.Name, res.Attachment.SHA256)
	fmt.Fprintf(out, "  Logged to %s\n", cfg.Paths.LogFile)
	return nil
}

// askDetails fills req from interactive prompts and returns the chosen variant.
func askDetails(cmd *cobra.Command, p *prompt.Prompter, req *pipeline.Request, cfg *config.Config, variant tmpl.Variant) (tmpl.Variant, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var err error

	fmt.Fprintln(out, "Enter email details:")
	if req.RecipientEmail, err = p.AskValid(ctx, "Recipient email", pipeline.ValidateEmail); err != nil {
		return variant, err
	}
	if req.RecipientName, err = p.Ask(ctx, "Recipient name (optional, Enter to skip)", ""); err != nil {
		return variant, err
	}
	if req.CompanyName, err = p.Ask(ctx, "Company name (optional, Enter to skip)", ""); err != nil {
		return variant, err
	}

	if sendTemplate == "" && len(config.AvailableTemplates(workDir)) == len(tmpl.Variants) {
		options := make([]string, len(tmpl.Variants))
		def := 0
		for i, v := range tmpl.Variants {
			options[i] = v.Describe()
			if v == cfg.Variant() {
				def = i
			}
		}
		idx, err := p.Choose(ctx, "Template options:", options, def)
		if err != nil {
			return variant, err
		}
		variant = tmpl.Variants[idx]
	}

	bcc, err := p.Ask(ctx, "BCC email (optional, Enter to skip)", "")
	if err != nil {
		return variant, err
	}
	if bcc != "" && pipeline.ValidateEmail(bcc) != nil {
		fmt.Fprintln(out, "Invalid BCC email format, skipping BCC.")
		bcc = ""
	}
	req.Bcc = bcc

	if req.CustomSubject == "" {
		if req.CustomSubject, err = p.Ask(ctx, "Email subject (optional, Enter for AI-generated)", ""); err != nil {
			return variant, err
		}
	}
	return variant, nil
}

// pickResume returns the resume to attach. Interactive runs choose from the
// folder when it holds more than one file; otherwise the newest is used.
func pickResume(cmd *cobra.Command, p *prompt.Prompter, dir string, interactive bool) (resume.File, error) {
	files, err := resume.Find(dir)
	if err != nil {
		return resume.File{}, err
	}
	if !interactive || len(files) == 1 {
		return files[0], nil
	}

	options := make([]string, len(files))
	for i, f := range files {
		options[i] = fmt.Sprintf("%s (%s, modified %s)", f.Name, resume.FormatSize(f.Size), f.ModTime.Local().Format("2006-01-02 15:04"))
	}
	idx, err := p.Choose(cmd.Context(), "Resume files:", options, 0)
	if err != nil {
		return resume.File{}, err
	}
	return files[idx], nil
}

func cancelled(out io.Writer) error {
	fmt.Fprintln(out, "\nOperation cancelled by user.")
	return nil
}

func printSummary(w io.Writer, req pipeline.Request, variant tmpl.Variant) {
	name := req.RecipientName
	if name == "" {
		name = tmpl.DefaultName + " (default)"
	}
	company := req.CompanyName
	if company == "" {
		company = "[" + activity.NoCompany + "]"
	}
	subj := req.CustomSubject
	if subj == "" {
		subj = "AI-generated"
	}

	fmt.Fprintln(w, "\nEmail summary:")
	fmt.Fprintf(w, "  To:       %s\n", req.RecipientEmail)
	fmt.Fprintf(w, "  Name:     %s\n", name)
	fmt.Fprintf(w, "  Company:  %s\n", company)
	if req.Bcc != "" {
		fmt.Fprintf(w, "  BCC:      %s\n", req.Bcc)
	}
	fmt.Fprintf(w, "  Subject:  %s\n", subj)
	fmt.Fprintf(w, "  Resume:   %s\n", req.ResumePath)
	fmt.Fprintf(w, "  Template: %s\n", variant)
}

// logEvent renders pipeline progress through the logger.
func logEvent(e pipeline.Event) {
	if e.Err != nil {
		log.Error(e.Message, "stage", e.Stage, "error", e.Err)
		return
	}
	switch e.Stage {
	case pipeline.StageSubject:
		log.Info("Subject", "subject", strings.TrimSpace(e.Message))
	default:
		log.Info(e.Message, "stage", e.Stage)
	}
}
