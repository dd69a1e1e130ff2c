/*
Package subject produces the subject line of a recruitment email.

A local language model is asked for a subject first; whenever the model is
unreachable, missing, slow, or answers with something unusable, a deterministic
fallback subject is returned instead. Generate never returns an error.
*/
package subject

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/oarkflow/recruiter/internal/ollama"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

// MaxLength is the longest subject returned from generation.
const MaxLength = 80

// Source records where a subject came from.
type Source string

const (
	SourceCustom   Source = "custom"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// DefaultOptions are the sampling parameters used for subject generation.
var DefaultOptions = ollama.GenerateOptions{
	Temperature: 0.7,
	TopP:        0.9,
	MaxTokens:   50,
}

// disqualifying markers, matched case-insensitively
var badMarkers = []string{
	"i cannot",
	"i can't",
	"as an ai",
	"sorry",
	"inappropriate",
	"unable to",
	"```",
	"here is",
	"here's a",
	"here are",
}

// Backend is the subset of the Ollama client the generator needs.
type Backend interface {
	Model() string
	Running(ctx context.Context) bool
	HasModel(ctx context.Context, name string) bool
	Models(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, prompt string, opts ollama.GenerateOptions) (string, error)
}

// Result is the chosen subject plus why it was chosen.
type Result struct {
	Subject string
	Source  Source
	// Reason explains a fallback; empty for generated subjects.
	Reason string
}

// Generator turns recipient details into a subject line.
type Generator struct {
	backend Backend
	options ollama.GenerateOptions
}

// New creates a generator. A nil backend always yields the fallback subject.
func New(backend Backend) *Generator {
	return &Generator{backend: backend, options: DefaultOptions}
}

// Generate returns a subject for the given recipient. recipientName and
// companyName may be empty or hold the generic defaults.
func (g *Generator) Generate(ctx context.Context, recipientName, companyName, senderName string) Result {
	fallback := func(reason string) Result {
		log.Warn("Using default subject", "reason", reason)
		return Result{
			Subject: Fallback(senderName, companyName),
			Source:  SourceFallback,
			Reason:  reason,
		}
	}

	if g == nil || g.backend == nil {
		return fallback("subject generation disabled")
	}

	if !g.backend.Running(ctx) {
		return fallback("Ollama service not running")
	}

	model := g.backend.Model()
	if !g.backend.HasModel(ctx, model) {
		reason := fmt.Sprintf("model %q not found", model)
		if available, err := g.backend.Models(ctx); err == nil && len(available) > 0 {
			reason += fmt.Sprintf(" (available: %s; install with: ollama pull %s)",
				strings.Join(lo.Subset(available, 0, 3), ", "), model)
		}
		return fallback(reason)
	}

	log.Debug("Generating subject line", "model", model)
	raw, err := g.backend.Generate(ctx, Prompt(recipientName, companyName, senderName), g.options)
	if err != nil {
		return fallback(fmt.Sprintf("generation failed: %v", err))
	}

	s := Clean(raw)
	if !Valid(s) {
		return fallback("generated subject seems invalid")
	}

	log.Info("AI generated subject", "subject", s)
	return Result{Subject: s, Source: SourceAI}
}

// Fallback is the deterministic subject used when generation is unavailable.
func Fallback(senderName, companyName string) string {
	if isReal(companyName, tmpl.DefaultCompany) {
		return fmt.Sprintf("Application for Position at %s - %s", strings.TrimSpace(companyName), senderName)
	}
	return fmt.Sprintf("Software Engineer Application - %s", senderName)
}

// Prompt builds the generation prompt. Only values the operator actually
// supplied are included as context.
func Prompt(recipientName, companyName, senderName string) string {
	var parts []string
	company := strings.TrimSpace(companyName)
	hasCompany := isReal(company, tmpl.DefaultCompany)
	if hasCompany {
		parts = append(parts, "Company: "+company)
	}
	if name := strings.TrimSpace(recipientName); isReal(name, tmpl.DefaultName) {
		parts = append(parts, "Recipient: "+name)
	}
	parts = append(parts, "Applicant: "+senderName)

	var b strings.Builder
	b.WriteString("Generate a professional email subject line for a job application.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString(`

Requirements:
- Professional and engaging
- 50 characters or less
- No quotes or special formatting
- Include applicant name
- Make it stand out in an inbox

Examples of good subjects:
- "Software Engineer Application - John Smith"
- "Experienced Developer Seeking Opportunities - Jane Doe"
- "Application for Python Developer Role - John Smith"
- "Senior Engineer Position - John Smith"
`)
	if hasCompany {
		fmt.Fprintf(&b, "- \"Application for Position at %s - John Smith\"\n", company)
	}
	b.WriteString("\nGenerate only the subject line, nothing else:")
	return b.String()
}

// Clean normalizes raw model output: quotes removed, newlines collapsed to
// spaces, a leading "Subject:" label stripped, length capped at MaxLength.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.NewReplacer(`"`, "", "'", "", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	s = strings.TrimSpace(s)

	const label = "subject:"
	if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
		s = strings.TrimSpace(s[len(label):])
	}

	if utf8.RuneCountInString(s) > MaxLength {
		runes := []rune(s)
		s = string(runes[:MaxLength-3]) + "..."
	}
	return s
}

// Valid rejects empty, too short, or obviously non-subject output.
func Valid(s string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < 5 {
		return false
	}
	lower := strings.ToLower(s)
	return !lo.ContainsBy(badMarkers, func(marker string) bool {
		return strings.Contains(lower, marker)
	})
}

func isReal(value, generic string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != generic
}
