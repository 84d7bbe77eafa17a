package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
	"personafit/pkg/clock"
)

// Service описывает usecase-слой для работы с пользователем:
// получение/обновление профиля, модерацию статуса и мягкое удаление аккаунта.
type Service interface {
	// GetByID возвращает пользователя по идентификатору.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetProfile возвращает профиль текущего пользователя (по его ID).
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile обновляет профиль пользователя (без изменения пароля).
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdateInput) (*domain.User, error)

	// SetStatus изменяет статус аккаунта (модерация: active/inactive/banned).
	SetStatus(ctx context.Context, userID uuid.UUID, status domain.Status) error

	// DeleteAccount выполняет мягкое удаление аккаунта (status = deleted).
	DeleteAccount(ctx context.Context, userID uuid.UUID) error

	// ListUsers возвращает список всех активных пользователей.
	// Предназначено для административных сценариев.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// ProfileUpdateInput описывает допустимые изменения в профиле пользователя
// на уровне бизнес-логики (usecase). Все поля опциональны.
type ProfileUpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Avatar    *domain.Avatar
	Age       *int
	WeightKg  *float64
	HeightCm  *float64
}

type service struct {
	users repo.UserRepository
	clk   clock.Clock
}

// NewService создаёт новый сервис пользователей.
func NewService(users repo.UserRepository, clk clock.Clock) Service {
	return &service{users: users, clk: clk}
}

// GetByID возвращает пользователя по ID.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetProfile возвращает профиль пользователя.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile обновляет профиль пользователя.
// Валидация выполняется чистой функцией до обращения к хранилищу,
// поэтому некорректный ввод никогда не применяется частично.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdateInput) (*domain.User, error) {
	if err := domain.ValidateProfile(domain.ProfileInput{
		Username: input.Username,
		Email:    input.Email,
		Age:      input.Age,
		WeightKg: input.WeightKg,
		HeightCm: input.HeightCm,
	}); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Применяем изменения к доменной модели
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
		// Новый email требует повторного подтверждения.
		user.IsEmailVerified = false
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Age != nil {
		user.Age = *input.Age
	}
	if input.WeightKg != nil {
		user.WeightKg = *input.WeightKg
	}
	if input.HeightCm != nil {
		user.HeightCm = *input.HeightCm
	}

	user.Touch(s.clk.Now())

	// Обновляем пользователя в хранилище
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetStatus изменяет статус аккаунта. Используется модерацией;
// проверка роли вызывающего выполняется на уровне handler'а.
func (s *service) SetStatus(ctx context.Context, userID uuid.UUID, status domain.Status) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("invalid status: %s", status)
	}
	if status == domain.StatusDeleted {
		return s.users.SoftDelete(ctx, userID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = status
	user.Touch(s.clk.Now())
	return s.users.Update(ctx, user)
}

// DeleteAccount выполняет мягкое удаление аккаунта.
func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.users.SoftDelete(ctx, userID)
}

// ListUsers возвращает всех активных пользователей.
func (s *service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}
