// Package mail sends transactional email.
//
//	mailer := mail.FromConfig()
//	err := mailer.Send(ctx, mail.Message{
//	    To:      []string{"admin@rainbowartistery.in"},
//	    Subject: "Your sign-in link",
//	    HTML:    body,
//	})
//
// MAIL_DRIVER selects the transport: "smtp", or "log" (the default outside
// production) which writes the message to the application log instead.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/pkg/logger"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("mail: no recipients")

// Message is one outgoing email. HTML takes precedence over Text.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Render executes an html/template against data.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// FromConfig builds the mailer selected by MAIL_DRIVER.
func FromConfig() Mailer {
	def := "log"
	if config.IsProduction() {
		def = "smtp"
	}
	switch strings.ToLower(config.Get("MAIL_DRIVER", def)) {
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     config.MailHost(),
			Port:     config.MailPort(),
			Username: config.MailUsername(),
			Password: config.MailPassword(),
			From:     config.MailFrom(),
			FromName: config.MailFromName(),
		})
	default:
		return LogMailer{}
	}
}

// ------------------- SMTP -------------------

// SMTPConfig holds connection credentials.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends through an SMTP relay. Port 465 uses implicit TLS; other
// ports upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	cfg := s.cfg
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if cfg.Port == "465" {
		conn = tls.Client(conn, &tls.Config{ServerName: cfg.Host})
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if cfg.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	for _, rcpt := range m.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(buildRaw(cfg, m)); err != nil {
		w.Close()
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: close data: %w", err)
	}
	return client.Quit()
}

func buildRaw(cfg SMTPConfig, m Message) []byte {
	contentType, body := "text/plain", m.Text
	if m.HTML != "" {
		contentType, body = "text/html", m.HTML
	}

	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if m.ReplyTo != "" {
		b.WriteString("Reply-To: " + m.ReplyTo + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// ------------------- Log / Recorder -------------------

// LogMailer writes messages to the application log. Handy locally, where
// the sign-in link can be copied from the console.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	body := m.Text
	if body == "" {
		body = m.HTML
	}
	logger.WithCtx(ctx).Info("mail: logged", "to", m.To, "subject", m.Subject, "body", body)
	return nil
}

// Recorder keeps sent messages in memory. FailWith, when set, is returned
// from Send instead of recording.
type Recorder struct {
	mu       sync.Mutex
	sent     []Message
	FailWith error
}

func (r *Recorder) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.sent = append(r.sent, m)
	return nil
}

// Sent returns a copy of every recorded message.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
