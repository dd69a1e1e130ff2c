/*
Package tmpl provides placeholder substitution for recruitment email bodies.

Templates are plain text containing literal tokens such as {name}, {company}
and {sender_name}. Doubled braces ({{ and }}) render as a single literal brace.
There are no conditionals or loops: a token is either supplied by the selected
Variant or the render fails.
*/
package tmpl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Placeholder keys understood by the renderer.
const (
	KeyName       = "name"
	KeyCompany    = "company"
	KeySenderName = "sender_name"
)

// Defaults used when the operator leaves a recipient field empty.
const (
	DefaultName    = "Hiring Manager"
	DefaultCompany = "your organization"
)

var (
	// ErrMissingPlaceholder indicates the template references a key the variant does not supply.
	ErrMissingPlaceholder = errors.New("template references unsupplied placeholder")

	// ErrUnknownVariant indicates a variant name outside person_only/person_company.
	ErrUnknownVariant = errors.New("unknown template variant")
)

// Variant selects which placeholders a template may use.
type Variant string

const (
	// PersonOnly supplies the recipient name and sender fields.
	PersonOnly Variant = "person_only"
	// PersonCompany supplies the recipient name, company and sender fields.
	PersonCompany Variant = "person_company"
)

// Variants lists every supported variant in display order.
var Variants = []Variant{PersonOnly, PersonCompany}

// ParseVariant converts a configuration string to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.TrimSpace(s)); v {
	case PersonOnly, PersonCompany:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Fields returns the placeholder keys supplied by the variant.
func (v Variant) Fields() []string {
	switch v {
	case PersonOnly:
		return []string{KeyName, KeySenderName}
	case PersonCompany:
		return []string{KeyName, KeyCompany, KeySenderName}
	default:
		return nil
	}
}

// Describe returns a short human label for prompts.
func (v Variant) Describe() string {
	switch v {
	case PersonOnly:
		return "Person only template (no company name)"
	case PersonCompany:
		return "Person + Company template (includes company)"
	default:
		return string(v)
	}
}

// MissingPlaceholderError lists every key a template needs that the variant did not supply.
type MissingPlaceholderError struct {
	Variant Variant
	Keys    []string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("%s template references %s which the variant does not supply",
		e.Variant, strings.Join(e.Keys, ", "))
}

func (e *MissingPlaceholderError) Unwrap() error {
	return ErrMissingPlaceholder
}

// Context holds resolved placeholder values for one request.
type Context struct {
	data map[string]string
}

// NewContext builds the values for a variant, applying the default name and
// company when the operator left them empty. Keys outside the variant are not set.
func NewContext(variant Variant, recipientName, companyName, senderName string) *Context {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = DefaultName
	}
	company := strings.TrimSpace(companyName)
	if company == "" {
		company = DefaultCompany
	}

	values := map[string]string{
		KeyName:       name,
		KeyCompany:    company,
		KeySenderName: senderName,
	}

	ctx := &Context{data: make(map[string]string)}
	for _, key := range variant.Fields() {
		ctx.data[key] = values[key]
	}
	return ctx
}

// Get returns the value for key, or "".
func (c *Context) Get(key string) string {
	return c.data[key]
}

// Has reports whether key has been supplied.
func (c *Context) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Render substitutes placeholders in text. Every referenced key must be both
// part of the variant and present in ctx; otherwise a *MissingPlaceholderError
// naming all offending keys is returned and nothing is rendered.
func Render(text string, variant Variant, ctx *Context) (string, error) {
	if _, err := ParseVariant(string(variant)); err != nil {
		return "", err
	}
	if ctx == nil {
		ctx = &Context{}
	}

	segments := parse(text)

	allowed := make(map[string]bool)
	for _, key := range variant.Fields() {
		allowed[key] = ctx.Has(key)
	}

	missing := make(map[string]struct{})
	for _, seg := range segments {
		if seg.key != "" && !allowed[seg.key] {
			missing[seg.key] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", &MissingPlaceholderError{Variant: variant, Keys: keys}
	}

	var buf strings.Builder
	buf.Grow(len(text))
	for _, seg := range segments {
		if seg.key != "" {
			buf.WriteString(ctx.Get(seg.key))
			continue
		}
		buf.WriteString(seg.text)
	}
	return buf.String(), nil
}

// Placeholders returns the distinct keys referenced by text in order of first use.
func Placeholders(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, seg := range parse(text) {
		if seg.key != "" && !seen[seg.key] {
			seen[seg.key] = true
			keys = append(keys, seg.key)
		}
	}
	return keys
}

type segment struct {
	text string
	key  string
}

// parse splits text into literal runs and {key} tokens. A brace that does not
// open a valid identifier token is kept literally.
func parse(text string) []segment {
	var (
		segments []segment
		lit      strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 || !isIdent(text[i+1:i+1+end]) {
				lit.WriteByte(c)
				continue
			}
			flush()
			segments = append(segments, segment{key: text[i+1 : i+1+end]})
			i += end + 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segments
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
