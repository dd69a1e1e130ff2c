package message

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResume(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestBuild(t *testing.T) {
	t.Parallel()

	data := []byte("%PDF-1.4 resume")
	path := writeResume(t, "Jane_Doe_Resume.pdf", data)

	msg, err := Build(Input{
		SenderName:     "Jane Doe",
		SenderEmail:    "jane@example.com",
		Recipient:      "hr@acme.test",
		Bcc:            " me@example.com ",
		Subject:        "Software Engineer Application - Jane Doe",
		Body:           "Dear Hiring Manager,\nPlease find my resume attached.",
		AttachmentPath: path,
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane_Doe_Resume.pdf", msg.Attachment.Name)
	assert.Equal(t, "application/pdf", msg.Attachment.ContentType)
	assert.Equal(t, int64(len(data)), msg.Attachment.Size())
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(data)), msg.Attachment.SHA256)
	assert.Equal(t, []string{"hr@acme.test", "me@example.com"}, msg.Recipients())

	raw, err := msg.Bytes()
	require.NoError(t, err)
	wire := string(raw)

	assert.Contains(t, wire, "Subject: Software Engineer Application - Jane Doe")
	assert.Contains(t, wire, "hr@acme.test")
	assert.Contains(t, wire, "jane@example.com")
	assert.Contains(t, wire, "Content-Type: text/plain")
	assert.Contains(t, wire, `filename="Jane_Doe_Resume.pdf"`)
	assert.Contains(t, wire, "Content-Disposition: attachment")
	assert.Contains(t, wire, "Content-Transfer-Encoding: base64")
	assert.Contains(t, wire, base64.StdEncoding.EncodeToString(data))
	assert.NotContains(t, wire, "me@example.com")
	assert.NotContains(t, wire, "Bcc:")
}

func TestBuild_NoBcc(t *testing.T) {
	t.Parallel()

	msg, err := Build(Input{
		SenderName:     "Jane Doe",
		SenderEmail:    "jane@example.com",
		Recipient:      "hr@acme.test",
		Subject:        "Hello there",
		Body:           "body",
		AttachmentPath: writeResume(t, "cv.docx", []byte("docx")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@acme.test"}, msg.Recipients())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", msg.Attachment.ContentType)
}

func TestBuild_MissingAttachment(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.pdf")
	_, err := Build(Input{
		SenderName:     "Jane Doe",
		SenderEmail:    "jane@example.com",
		Recipient:      "hr@acme.test",
		AttachmentPath: path,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttachment))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var attErr *AttachmentError
	require.ErrorAs(t, err, &attErr)
	assert.Equal(t, path, attErr.Path)
}

func TestBuild_EmptyAttachmentPath(t *testing.T) {
	t.Parallel()

	_, err := Build(Input{SenderEmail: "jane@example.com", Recipient: "hr@acme.test"})
	assert.ErrorIs(t, err, ErrAttachment)
}

func TestBuild_InvalidAddress(t *testing.T) {
	t.Parallel()

	_, err := Build(Input{
		SenderName:     "Jane Doe",
		SenderEmail:    "jane@example.com",
		Recipient:      "not an address",
		AttachmentPath: writeResume(t, "cv.pdf", []byte("pdf")),
	})
	assert.ErrorIs(t, err, ErrAddress)
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/pdf", ContentType("A.PDF"))
	assert.Equal(t, "application/msword", ContentType("cv.doc"))
	assert.Equal(t, "application/octet-stream", ContentType("cv.unknownext"))
}
