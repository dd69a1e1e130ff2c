package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(strings.NewReader("  Alice  \n\n"), &out)

	got, err := p.Ask(context.Background(), "Recipient name", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	got, err = p.Ask(context.Background(), "Company", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", got)
	assert.Contains(t, out.String(), "Company [none]: ")
}

func TestAskValid_Repeats(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(strings.NewReader("bad\ngood@example.com\n"), &out)

	got, err := p.AskValid(context.Background(), "Email", func(s string) error {
		if !strings.Contains(s, "@") {
			return errors.New("invalid email format")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "good@example.com", got)
	assert.Contains(t, out.String(), "invalid email format")
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	p := New(strings.NewReader("y\nno\n\n"), io.Discard)

	ok, err := p.Confirm(context.Background(), "Send?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm(context.Background(), "Send?", true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Confirm(context.Background(), "Send?", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChoose(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(strings.NewReader("7\n2\n"), &out)

	idx, err := p.Choose(context.Background(), "Template:", []string{"person only", "person and company"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "between 1 and 2")

	idx, err = New(strings.NewReader("\n"), io.Discard).Choose(context.Background(), "Template:", []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestInterrupted(t *testing.T) {
	t.Parallel()

	_, err := New(strings.NewReader(""), io.Discard).Ask(context.Background(), "Email", "")
	assert.ErrorIs(t, err, ErrInterrupted)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(pr, io.Discard).Confirm(ctx, "Send?", false)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestAsk_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	got, err := New(strings.NewReader("Acme"), io.Discard).Ask(context.Background(), "Company", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got)
}
