// Package email sends account emails over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"text/template"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// ConfirmationSubject is the subject of the account activation email.
const ConfirmationSubject = "Bienes Raíces - Activación de Cuenta"

var confirmationTmpl = template.Must(template.New("confirmacion").Parse(`Hola {{.Name}},

Tu cuenta en Bienes Raíces ya está lista, solo debes confirmarla en el siguiente enlace:

{{.Link}}

Si tú no creaste esta cuenta, puedes ignorar este mensaje.
`))

// ConfirmationLink returns the activation URL for token.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/confirmar/" + token
}

// ConfirmationBody builds the plain-text activation email.
func ConfirmationBody(name, link string) (string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct{ Name, Link string }{name, link})
	if err != nil {
		return "", fmt.Errorf("rendering confirmation email: %w", err)
	}
	return buf.String(), nil
}

// SendFunc delivers one email.
type SendFunc func(cfg SMTPConfig, to []string, subject, body string) error

// Mailer sends account emails. When SMTP is not configured the activation
// link is logged instead so local accounts can still be confirmed.
type Mailer struct {
	cfg     SMTPConfig
	baseURL string
	send    SendFunc
}

// NewMailer creates a Mailer that links back to baseURL.
func NewMailer(cfg SMTPConfig, baseURL string) *Mailer {
	return &Mailer{cfg: cfg, baseURL: baseURL, send: Send}
}

// WithSender replaces the delivery function.
func (m *Mailer) WithSender(fn SendFunc) *Mailer {
	m.send = fn
	return m
}

// SendConfirmation emails the activation link for a new account.
func (m *Mailer) SendConfirmation(name, address, token string) error {
	link := ConfirmationLink(m.baseURL, token)
	if !m.cfg.IsConfigured() {
		slog.Warn("SMTP not configured, confirmation email not sent", "to", address, "link", link)
		return nil
	}

	body, err := ConfirmationBody(name, link)
	if err != nil {
		return err
	}
	if err := m.send(m.cfg, []string{address}, ConfirmationSubject, body); err != nil {
		return fmt.Errorf("sending confirmation to %s: %w", address, err)
	}
	slog.Info("confirmation email sent", "to", address)
	return nil
}

// buildMessage assembles headers and body. The subject is Q-encoded so
// accented characters survive transport.
func buildMessage(from string, to []string, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		from,
		strings.Join(to, ", "),
		mime.QEncoding.Encode("utf-8", subject),
		body,
	)
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := buildMessage(cfg.From, to, subject, body)
	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
