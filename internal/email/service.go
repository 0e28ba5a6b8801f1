package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"net/url"

	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/logging"
)

// Service sends transactional email over SMTP
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	send         func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(cfg config.EmailConfig) *Service {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		frontendURL:  cfg.FrontendURL,
		send:         smtp.SendMail,
	}
}

// SendVerificationEmail sends an email verification link to the user.
// Registration calls it from a goroutine.
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := render("verification", mailData{
		Name: name,
		Link: buildLink(s.frontendURL, "/verify-email", token),
	})
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, "Verify your email address", body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := render("passwordReset", mailData{
		Name: name,
		Link: buildLink(s.frontendURL, "/reset-password", token),
	})
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, "Reset your password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

func buildLink(frontendURL, path, token string) string {
	return frontendURL + path + "?token=" + url.QueryEscape(token)
}

// LogSender writes emails to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct {
	frontendURL string
	logger      *logging.Logger
}

func NewLogSender(frontendURL string, logger *logging.Logger) *LogSender {
	return &LogSender{frontendURL: frontendURL, logger: logger}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, toEmail, _, token string) error {
	s.logger.Info("email delivery disabled, verification link",
		"email", toEmail,
		"link", buildLink(s.frontendURL, "/verify-email", token),
	)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(_ context.Context, toEmail, _, token string) error {
	s.logger.Info("email delivery disabled, password reset link",
		"email", toEmail,
		"link", buildLink(s.frontendURL, "/reset-password", token),
	)
	return nil
}

type mailData struct {
	Name string
	Link string
}

func render(name string, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
