// Package message assembles the MIME message sent for one application.
package message

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"
)

var (
	// ErrAttachment is wrapped by every attachment failure.
	ErrAttachment = errors.New("attachment error")

	// ErrAddress is returned for sender or recipient addresses the builder rejects.
	ErrAddress = errors.New("invalid address")
)

// AttachmentError reports a resume that could not be read.
type AttachmentError struct {
	Path string
	Err  error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("failed to read attachment %s: %v", e.Path, e.Err)
}

func (e *AttachmentError) Unwrap() []error {
	return []error{ErrAttachment, e.Err}
}

// Input holds everything Build needs.
type Input struct {
	SenderName     string
	SenderEmail    string
	Recipient      string
	Bcc            string
	Subject        string
	Body           string
	AttachmentPath string
}

// Attachment is the file carried by a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
	SHA256      string
}

// Size returns the attachment length in bytes.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// Message is a composed email ready for the SMTP DATA stream.
// Bcc is an envelope recipient only and never appears in the written headers.
type Message struct {
	SenderName  string
	SenderEmail string
	Recipient   string
	Bcc         string
	Subject     string
	Body        string
	Attachment  Attachment

	msg *mail.Msg
}

// Build reads the attachment and assembles the message.
func Build(in Input) (*Message, error) {
	att, err := ReadAttachment(in.AttachmentPath)
	if err != nil {
		return nil, err
	}
	return Compose(in, att)
}

// Compose assembles the message around an attachment that was already read.
// in.AttachmentPath is only used in error reports.
func Compose(in Input, att Attachment) (*Message, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(in.SenderName, in.SenderEmail); err != nil {
		return nil, fmt.Errorf("%w: sender %q: %v", ErrAddress, in.SenderEmail, err)
	}
	if err := m.To(in.Recipient); err != nil {
		return nil, fmt.Errorf("%w: recipient %q: %v", ErrAddress, in.Recipient, err)
	}
	m.Subject(in.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, in.Body)
	if err := m.AttachReader(att.Name, bytes.NewReader(att.Data),
		mail.WithFileContentType(mail.ContentType(att.ContentType))); err != nil {
		return nil, &AttachmentError{Path: in.AttachmentPath, Err: err}
	}

	return &Message{
		SenderName:  in.SenderName,
		SenderEmail: in.SenderEmail,
		Recipient:   in.Recipient,
		Bcc:         strings.TrimSpace(in.Bcc),
		Subject:     in.Subject,
		Body:        in.Body,
		Attachment:  att,
		msg:         m,
	}, nil
}

// Recipients returns the envelope recipients: the primary address plus the bcc, if any.
func (m *Message) Recipients() []string {
	rcpts := []string{m.Recipient}
	if m.Bcc != "" {
		rcpts = append(rcpts, m.Bcc)
	}
	return rcpts
}

// WriteTo writes the wire form of the message.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	if m.msg == nil {
		return 0, errors.New("message was not built")
	}
	return m.msg.WriteTo(w)
}

// Bytes returns the wire form of the message.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadAttachment loads the whole file at path.
func ReadAttachment(path string) (Attachment, error) {
	if strings.TrimSpace(path) == "" {
		return Attachment{}, &AttachmentError{Path: path, Err: errors.New("no resume file given")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, &AttachmentError{Path: path, Err: err}
	}

	name := filepath.Base(path)
	return Attachment{
		Name:        name,
		ContentType: ContentType(name),
		Data:        data,
		SHA256:      fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// ContentType guesses the MIME type of an attachment from its extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
