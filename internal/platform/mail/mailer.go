// Package mail sends the transactional emails the auth flows depend on.
// The core only supplies a recipient and a link; delivery is an external
// collaborator hidden behind the usecase-level mailer interfaces.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Kind tags the message variants this application sends.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
)

// Message is a rendered outgoing email.
type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string
}

// sender delivers a rendered message. Both mailer implementations plug in
// here so the template rendering is shared.
type sender interface {
	send(ctx context.Context, msg Message) error
}

// Mailer renders the application's email variants and hands them to a
// delivery transport. It implements the verification and password-reset
// mailer interfaces the auth usecases define.
type Mailer struct {
	transport sender
	from      string
}

// NewSMTPMailer creates a Mailer that delivers over SMTP.
func NewSMTPMailer(host, port, username, password, from string) *Mailer {
	return &Mailer{
		transport: &smtpSender{
			addr:     host + ":" + port,
			host:     host,
			username: username,
			password: password,
			from:     from,
		},
		from: from,
	}
}

// NewLogMailer creates a Mailer that only logs messages. Used in
// development when no SMTP server is configured.
func NewLogMailer() *Mailer {
	return &Mailer{transport: &logSender{}, from: "noreply@taskly.local"}
}

// SendVerificationEmail sends the signed email-verification link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Thanks for signing up for Taskly! Please verify your email address by\r\n"+
			"clicking the link below. The link expires in 60 minutes.\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not create an account, no further action is required.\r\n",
		name, link)
	return m.transport.send(ctx, Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Verify Your Email - Taskly",
		Body:    body,
	})
}

// SendPasswordResetEmail sends the password reset link containing the
// plaintext token.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, name, link string, expireMinutes int) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"You are receiving this email because we received a password reset\r\n"+
			"request for your account. The link expires in %d minutes.\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not request a password reset, no further action is required.\r\n",
		name, expireMinutes, link)
	return m.transport.send(ctx, Message{
		Kind:    KindPasswordReset,
		To:      to,
		Subject: "Reset Your Password",
		Body:    body,
	})
}

// smtpSender delivers messages through a real SMTP server.
type smtpSender struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (s *smtpSender) send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Kind, err)
	}
	return nil
}

// logSender logs messages instead of delivering them.
type logSender struct{}

func (s *logSender) send(_ context.Context, msg Message) error {
	slog.Info("mail (log transport)", "kind", string(msg.Kind), "to", msg.To, "subject", msg.Subject)
	return nil
}
