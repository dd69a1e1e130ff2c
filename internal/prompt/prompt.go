// Package prompt reads operator answers from a terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInterrupted is returned when input ends or the context is cancelled
// while waiting for an answer.
var ErrInterrupted = errors.New("operation cancelled by user")

// Validator checks an answer; a non-nil error is shown and the question repeated.
type Validator func(string) error

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

type line struct {
	text string
	err  error
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	ch := make(chan line, 1)
	go func() {
		s, err := p.in.ReadString('\n')
		ch <- line{text: s, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInterrupted
	case l := <-ch:
		if l.err != nil {
			if errors.Is(l.err, io.EOF) && strings.TrimSpace(l.text) != "" {
				return strings.TrimSpace(l.text), nil
			}
			return "", ErrInterrupted
		}
		return strings.TrimSpace(l.text), nil
	}
}

// Ask prints label and returns the trimmed answer, or def when the answer is empty.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskValid repeats the question until validate accepts the answer.
func (p *Prompter) AskValid(ctx context.Context, label string, validate Validator) (string, error) {
	for {
		answer, err := p.Ask(ctx, label, "")
		if err != nil {
			return "", err
		}
		if validate == nil {
			return answer, nil
		}
		if err := validate(answer); err != nil {
			fmt.Fprintf(p.out, "  %v\n", err)
			continue
		}
		return answer, nil
	}
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
	answer, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Choose lists options and returns the index of the one picked. An empty
// answer picks def.
func (p *Prompter) Choose(ctx context.Context, label string, options []string, def int) (int, error) {
	fmt.Fprintln(p.out, label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		answer, err := p.Ask(ctx, "Choice", strconv.Itoa(def+1))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintf(p.out, "  Please enter a number between 1 and %d\n", len(options))
			continue
		}
		return n - 1, nil
	}
}
