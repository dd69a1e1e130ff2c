package subject

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/recruiter/internal/ollama"
)

type fakeBackend struct {
	running  bool
	models   []string
	response string
	err      error

	prompt    string
	opts      ollama.GenerateOptions
	generated bool
}

func (f *fakeBackend) Model() string { return "mistral" }

func (f *fakeBackend) Running(context.Context) bool { return f.running }

func (f *fakeBackend) Models(context.Context) ([]string, error) { return f.models, nil }

func (f *fakeBackend) HasModel(_ context.Context, name string) bool {
	for _, m := range f.models {
		if strings.SplitN(m, ":", 2)[0] == name {
			return true
		}
	}
	return false
}

func (f *fakeBackend) Generate(_ context.Context, prompt string, opts ollama.GenerateOptions) (string, error) {
	f.generated = true
	f.prompt = prompt
	f.opts = opts
	return f.response, f.err
}

func TestGenerate_UnreachableUsesFallback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, recipient, company, want string
	}{
		{"no company", "", "", "Software Engineer Application - Jane Doe"},
		{"generic company", "Hiring Manager", "your organization", "Software Engineer Application - Jane Doe"},
		{"real company", "Alice", "Acme", "Application for Position at Acme - Jane Doe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{running: false}
			res := New(backend).Generate(context.Background(), tc.recipient, tc.company, "Jane Doe")

			assert.Equal(t, tc.want, res.Subject)
			assert.Equal(t, SourceFallback, res.Source)
			assert.NotEmpty(t, res.Reason)
			assert.False(t, backend.generated)
		})
	}
}

func TestGenerate_NilBackend(t *testing.T) {
	t.Parallel()

	res := New(nil).Generate(context.Background(), "", "", "Jane Doe")
	assert.Equal(t, "Software Engineer Application - Jane Doe", res.Subject)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestGenerate_ModelMissing(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{running: true, models: []string{"llama3:8b"}}
	res := New(backend).Generate(context.Background(), "", "Acme", "Jane Doe")

	assert.Equal(t, "Application for Position at Acme - Jane Doe", res.Subject)
	assert.Contains(t, res.Reason, "llama3:8b")
	assert.False(t, backend.generated)
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		running:  true,
		models:   []string{"mistral:latest"},
		response: "\"Subject: Backend Engineer Ready for Acme\n- Jane Doe\"",
	}
	res := New(backend).Generate(context.Background(), "Alice", "Acme", "Jane Doe")

	assert.Equal(t, SourceAI, res.Source)
	assert.Equal(t, "Backend Engineer Ready for Acme - Jane Doe", res.Subject)
	assert.Equal(t, DefaultOptions, backend.opts)
	assert.Contains(t, backend.prompt, "Company: Acme")
	assert.Contains(t, backend.prompt, "Recipient: Alice")
	assert.Contains(t, backend.prompt, "Applicant: Jane Doe")
}

func TestGenerate_InvalidOrFailingOutput(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeBackend{
		"refusal":    {running: true, models: []string{"mistral"}, response: "I cannot help with that request"},
		"meta":       {running: true, models: []string{"mistral"}, response: "Here is a subject line for you"},
		"code fence": {running: true, models: []string{"mistral"}, response: "```Application```"},
		"too short":  {running: true, models: []string{"mistral"}, response: "Hi"},
		"empty":      {running: true, models: []string{"mistral"}, response: "   "},
		"error":      {running: true, models: []string{"mistral"}, err: errors.New("timeout")},
	}

	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			res := New(backend).Generate(context.Background(), "", "", "Jane Doe")
			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, "Software Engineer Application - Jane Doe", res.Subject)
		})
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Clean("  "))
	assert.Equal(t, "Hello World", Clean(`"Hello World"`))
	assert.Equal(t, "Line one line two", Clean("Line one\nline two"))
	assert.Equal(t, "Senior Role - Jane", Clean("SUBJECT: Senior Role - Jane"))
	assert.Equal(t, "Its great", Clean("It's great"))
}

func TestClean_Truncates(t *testing.T) {
	t.Parallel()

	for _, n := range []int{81, 100, 300} {
		out := Clean(strings.Repeat("a", n))
		assert.Equal(t, MaxLength, utf8.RuneCountInString(out))
		assert.True(t, strings.HasSuffix(out, "..."))
	}

	exact := strings.Repeat("b", MaxLength)
	assert.Equal(t, exact, Clean(exact))

	out := Clean(strings.Repeat("é", 90))
	require.True(t, utf8.ValidString(out))
	assert.Equal(t, MaxLength, utf8.RuneCountInString(out))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid("Backend Engineer Application - Jane"))
	assert.False(t, Valid("abcd"))
	assert.False(t, Valid("As an AI language model I suggest"))
	assert.False(t, Valid("Sorry, no"))
	assert.False(t, Valid("Here are some options"))
	assert.False(t, Valid("I am unable to comply"))
}

func TestPrompt_OmitsGenericValues(t *testing.T) {
	t.Parallel()

	p := Prompt("Hiring Manager", "your organization", "Jane Doe")
	assert.NotContains(t, p, "Company:")
	assert.NotContains(t, p, "Recipient:")
	assert.NotContains(t, p, "Application for Position at")
	assert.Contains(t, p, "Applicant: Jane Doe")

	p = Prompt("", "Acme", "Jane Doe")
	assert.Contains(t, p, "Company: Acme")
	assert.Contains(t, p, `"Application for Position at Acme - John Smith"`)
}

func TestFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Software Engineer Application - Jane Doe", Fallback("Jane Doe", ""))
	assert.Equal(t, "Software Engineer Application - Jane Doe", Fallback("Jane Doe", "your organization"))
	assert.Equal(t, "Application for Position at Acme - Jane Doe", Fallback("Jane Doe", " Acme "))
}
