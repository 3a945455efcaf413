package mail

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRawHTML(t *testing.T) {
	raw := string(buildRaw(SMTPConfig{From: "hello@rainbowartistery.in", FromName: "Rainbow Artistery"}, Message{
		To:      []string{"a@test.in", "b@test.in"},
		ReplyTo: "asha@test.in",
		Subject: "New enquiry",
		HTML:    "<p>hi</p>",
		Text:    "ignored",
	}))

	assert.Contains(t, raw, "To: a@test.in, b@test.in\r\n")
	assert.Contains(t, raw, "Reply-To: asha@test.in\r\n")
	assert.Contains(t, raw, "Subject: New enquiry\r\n")
	assert.Contains(t, raw, `Content-Type: text/html; charset="UTF-8"`)
	assert.Contains(t, raw, "<hello@rainbowartistery.in>")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>hi</p>"))
}

func TestBuildRawEncodesNonASCIISubject(t *testing.T) {
	raw := string(buildRaw(SMTPConfig{From: "x@test.in"}, Message{To: []string{"a@test.in"}, Subject: "Diwali Décor", Text: "t"}))
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, `Content-Type: text/plain`)
}

func TestRender(t *testing.T) {
	tmpl := template.Must(template.New("link").Parse(`<a href="{{.URL}}">Sign in</a>`))
	out, err := Render(tmpl, map[string]string{"URL": "https://x.test/?a=1&b=2"})
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://x.test/?a=1&amp;b=2">Sign in</a>`, out)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{To: []string{"a@test.in"}, Subject: "s"}))
	assert.Len(t, r.Sent(), 1)

	assert.ErrorIs(t, r.Send(context.Background(), Message{}), ErrNoRecipients)

	r.FailWith = errors.New("relay down")
	assert.EqualError(t, r.Send(context.Background(), Message{To: []string{"a@test.in"}}), "relay down")
	assert.Len(t, r.Sent(), 1)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: []string{"a@test.in"}, Text: "hello"}))
	assert.ErrorIs(t, LogMailer{}.Send(context.Background(), Message{}), ErrNoRecipients)
}
