package mailer

import "context"

// EmailSender описывает контракт для отправки служебных писем:
// кода подтверждения email и токена сброса пароля.
type EmailSender interface {
	SendEmailVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetToken(ctx context.Context, email, token string) error
}
