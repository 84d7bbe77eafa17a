package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"personafit/internal/config"
	"personafit/pkg/logger"
	pkgmailer "personafit/pkg/mailer"
)

// Убедимся на этапе компиляции, что структура реализует интерфейс.
var _ pkgmailer.EmailSender = (*SMTPSender)(nil)

// SMTPSender реализует отправку писем через стандартную библиотеку net/smtp.
// Используется для кода подтверждения email и токена сброса пароля.
type SMTPSender struct {
	cfg    *config.EmailConfig
	logger logger.Logger
}

// NewSMTPSender создаёт новый SMTP-отправитель на основе EmailConfig.
func NewSMTPSender(cfg *config.EmailConfig, logger logger.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendEmailVerificationCode отправляет письмо с кодом подтверждения email.
func (s *SMTPSender) SendEmailVerificationCode(ctx context.Context, email, code string) error {
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is: %s\n\nThis code will expire in a few minutes.", code)
	return s.send(email, subject, body)
}

// SendPasswordResetToken отправляет письмо с токеном сброса пароля.
// Токен одноразовый; по истечении срока действия потребуется запросить новый.
func (s *SMTPSender) SendPasswordResetToken(ctx context.Context, email, token string) error {
	subject := "Password reset request"
	body := fmt.Sprintf("We received a request to reset your password.\n\n"+
		"Your reset token is: %s\n\n"+
		"The token is valid for a limited time and can be used once. "+
		"If you did not request a reset, you can ignore this message.", token)
	return s.send(email, subject, body)
}

// send выполняет фактическую отправку письма.
// net/smtp не поддерживает контекст из коробки, поэтому отправка блокирующая.
func (s *SMTPSender) send(email, subject, body string) error {
	msg := buildMessage(s.cfg.FromEmail, email, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{email}, []byte(msg)); err != nil {
		s.logger.Error("failed to send email", map[string]any{
			"email":   email,
			"subject": subject,
			"err":     err.Error(),
		})
		return err
	}

	s.logger.Info("email sent", map[string]any{
		"email":   email,
		"subject": subject,
	})
	return nil
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
