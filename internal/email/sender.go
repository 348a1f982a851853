package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Athul-13/tablespot-api/internal/config"
	"gopkg.in/gomail.v2"
)

const passwordResetSubject = "Reset your password"

var passwordResetHTML = template.Must(template.New("password_reset").Parse(
	`<p>Use this link to reset your password: <a href="{{.URL}}">{{.URL}}</a></p>` +
		`<p>The link expires in {{.Expiry}}.</p>`,
))

// SMTPSender delivers password reset links over SMTP.
type SMTPSender struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	expiry      time.Duration
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.SSL = cfg.SMTPSecure

	return &SMTPSender{
		dialer:      dialer,
		from:        cfg.MailFrom(),
		frontendURL: cfg.FrontendURL,
		expiry:      cfg.PasswordResetExpiry,
	}
}

func (s *SMTPSender) SendPasswordResetLink(ctx context.Context, to, rawToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.passwordResetMessage(to, rawToken)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

func (s *SMTPSender) passwordResetMessage(to, rawToken string) (*gomail.Message, error) {
	text, html, err := passwordResetBodies(ResetURL(s.frontendURL, rawToken), s.expiry)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", passwordResetSubject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)
	return m, nil
}

func passwordResetBodies(resetURL string, expiry time.Duration) (string, string, error) {
	humanExpiry := humanizeDuration(expiry)

	var html bytes.Buffer
	err := passwordResetHTML.Execute(&html, map[string]string{
		"URL":    resetURL,
		"Expiry": humanExpiry,
	})
	if err != nil {
		return "", "", fmt.Errorf("render password reset email: %w", err)
	}

	text := fmt.Sprintf("Use this link to reset your password: %s. The link expires in %s.", resetURL, humanExpiry)
	return text, html.String(), nil
}

// LogSender stands in for SMTPSender when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPasswordResetLink(ctx context.Context, to, _ string) error {
	s.logger.WarnContext(ctx, "SMTP not configured; skipping password reset email",
		slog.String("email", to),
	)
	return nil
}

// ResetURL builds the frontend link carrying a reset token.
func ResetURL(frontendURL, rawToken string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(rawToken)
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
