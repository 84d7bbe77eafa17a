package user

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRe — упрощённая проверка формата local@domain.
// Полная валидация по RFC здесь не нужна: существование адреса
// подтверждается кодом верификации.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError описывает ошибку валидации входных данных.
// Такие ошибки отклоняются до обращения к хранилищу и никогда
// не приводят к частично применённым изменениям.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// ValidateEmail проверяет формат email. Пустая строка допустима:
// email может отсутствовать у аккаунтов сторонних провайдеров.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "invalid format"}
	}
	return nil
}

// ProfileInput — изменяемые поля профиля для чистой валидации.
// Все поля опциональны; валидируются только заданные.
type ProfileInput struct {
	Username *string
	Email    *string
	Age      *int
	WeightKg *float64
	HeightCm *float64
}

// ValidateProfile — чистая функция валидации профиля,
// отвязанная от хранилища.
func ValidateProfile(in ProfileInput) error {
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if len(name) < 3 || len(name) > 50 {
			return &ValidationError{Field: "username", Reason: "must be 3..50 characters"}
		}
	}
	if in.Email != nil {
		if err := ValidateEmail(*in.Email); err != nil {
			return err
		}
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return &ValidationError{Field: "age", Reason: "must be between 0 and 150"}
	}
	if in.WeightKg != nil && *in.WeightKg < 0 {
		return &ValidationError{Field: "weight_kg", Reason: "must be >= 0"}
	}
	if in.HeightCm != nil && *in.HeightCm < 0 {
		return &ValidationError{Field: "height_cm", Reason: "must be >= 0"}
	}
	return nil
}
