package jobs

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageWithAttachment(t *testing.T) {
	m := NewSMTPMailer("127.0.0.1:1025", "no-reply@treadline.local")
	pdf := []byte("%PDF-1.7 stub")

	raw, err := m.buildMessage("pat@example.com", "Invoice INV-2026-000003", "Your invoice is attached.", pdf, "INV-2026-000003.pdf")
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "no-reply@treadline.local", msg.Header.Get("From"))
	assert.Equal(t, "pat@example.com", msg.Header.Get("To"))
	assert.Equal(t, "Invoice INV-2026-000003", msg.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])

	text, err := reader.NextPart()
	require.NoError(t, err)
	textBody, err := io.ReadAll(text)
	require.NoError(t, err)
	assert.Contains(t, text.Header.Get("Content-Type"), "text/plain")
	assert.Equal(t, "Your invoice is attached.", string(textBody))

	attach, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", attach.Header.Get("Content-Type"))
	assert.Equal(t, "base64", attach.Header.Get("Content-Transfer-Encoding"))
	assert.Contains(t, attach.Header.Get("Content-Disposition"), `filename="INV-2026-000003.pdf"`)

	encoded, err := io.ReadAll(attach)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(string(encoded))
	require.NoError(t, err)
	assert.Equal(t, pdf, decoded)

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildMessageWithoutAttachment(t *testing.T) {
	m := NewSMTPMailer("127.0.0.1:1025", "no-reply@treadline.local")

	raw, err := m.buildMessage("pat@example.com", "Hello", "No attachment here.", nil, "")
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)

	reader := multipart.NewReader(msg.Body, params["boundary"])
	_, err = reader.NextPart()
	require.NoError(t, err)
	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}
