// AngelaMos | 2026
// sender.go

// Package notify delivers account emails. Every caller treats delivery as
// best effort.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/carterperez-dev/thesis-archive/internal/config"
)

type Sender interface {
	SendVerification(ctx context.Context, toEmail, name, code string) error
	SendWelcome(ctx context.Context, toEmail, name string) error
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

func NewSender(cfg config.MailConfig, logger *slog.Logger) Sender {
	switch cfg.Sender {
	case "smtp":
		return &SMTPSender{
			addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
			host:     cfg.SMTPHost,
			user:     cfg.SMTPUser,
			pass:     cfg.SMTPPass,
			from:     cfg.From,
			baseURL:  cfg.FrontendURL,
			sendMail: smtp.SendMail,
		}
	default:
		return &LogSender{baseURL: cfg.FrontendURL, logger: logger}
	}
}

func resetLink(baseURL, token string) string {
	link := strings.TrimRight(baseURL, "/")
	if link == "" {
		return token
	}
	return fmt.Sprintf("%s/reset-password/%s", link, token)
}

// LogSender writes the message essentials to the log instead of sending.
type LogSender struct {
	baseURL string
	logger  *slog.Logger
}

func (s *LogSender) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s *LogSender) SendVerification(ctx context.Context, toEmail, name, code string) error {
	s.log().InfoContext(ctx, "verification email",
		"to", toEmail,
		"name", name,
		"code", code,
	)
	return nil
}

func (s *LogSender) SendWelcome(ctx context.Context, toEmail, name string) error {
	s.log().InfoContext(ctx, "welcome email", "to", toEmail, "name", name)
	return nil
}

func (s *LogSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	s.log().InfoContext(ctx, "password reset email",
		"to", toEmail,
		"link", resetLink(s.baseURL, token),
	)
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPSender struct {
	addr     string
	host     string
	user     string
	pass     string
	from     string
	baseURL  string
	sendMail sendMailFunc
}

func (s *SMTPSender) SendVerification(ctx context.Context, toEmail, name, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour verification code is %s.\r\nIt expires in 24 hours.\r\n",
		name, code,
	)
	return s.send(ctx, toEmail, "Verify your email", body)
}

func (s *SMTPSender) SendWelcome(ctx context.Context, toEmail, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour email is verified. Welcome to the thesis archive.\r\n",
		name,
	)
	return s.send(ctx, toEmail, "Welcome", body)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	body := "Use this link to reset your password:\r\n" +
		resetLink(s.baseURL, token) + "\r\n\r\n" +
		"If you did not ask for a reset you can ignore this email.\r\n"
	return s.send(ctx, toEmail, "Password reset", body)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := Compose(s.from, toEmail, subject, body, time.Now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	if err := s.sendMail(s.addr, auth, s.from, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	return nil
}

// Compose renders a single-part text/plain RFC 5322 message.
func Compose(from, to, subject, body string, date time.Time) ([]byte, error) {
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("compose: from address: %w", err)
	}
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("compose: to address: %w", err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{fromAddr})
	h.SetAddressList("To", []*mail.Address{toAddr})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("compose: message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("compose: body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compose: close: %w", err)
	}

	return buf.Bytes(), nil
}
