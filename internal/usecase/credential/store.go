package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
	"personafit/pkg/clock"
	"personafit/pkg/password"
)

// maxCASRetries — сколько раз повторяется условное обновление
// при конкурентном изменении записи, прежде чем вернуть ошибку.
const maxCASRetries = 3

// ErrTooMuchContention возвращается, когда условное обновление не удалось
// применить за maxCASRetries попыток из-за конкурентных изменений.
var ErrTooMuchContention = errors.New("too much contention on user record")

// ErrWeakPassword оборачивает причину отклонения слабого пароля.
var ErrWeakPassword = errors.New("password is too weak")

// Store — хранилище учётных данных: единственная точка, через которую
// изменяются парольный хэш, токен сброса и счётчики входа пользователя.
//
// Все мутации выполняются через условное обновление по версии записи,
// поэтому конкурентные попытки входа не теряют инкременты счётчика.
type Store interface {
	// Get возвращает пользователя по идентификатору.
	// Возвращает repo.ErrNotFound для отсутствующих и мягко удалённых.
	Get(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Verify проверяет пароль пользователя за константное время.
	// Для аккаунтов без парольного входа (сторонний провайдер) выполняет
	// фиктивное сравнение и возвращает false — закрытый отказ, не ошибка.
	Verify(ctx context.Context, userID uuid.UUID, plaintext string) bool

	// VerifyUser — то же, что Verify, но для уже загруженного пользователя.
	VerifyUser(user *domain.User, plaintext string) bool

	// SetPassword хеширует и устанавливает новый пароль, снимая любой
	// активный токен сброса. Отклоняет слабые пароли (ErrWeakPassword).
	SetPassword(ctx context.Context, userID uuid.UUID, plaintext string) error

	// RecordFailedAttempt увеличивает счётчик неудачных попыток входа
	// и фиксирует время последней неудачи.
	RecordFailedAttempt(ctx context.Context, userID uuid.UUID) error

	// RecordSuccess обнуляет счётчик неудачных попыток
	// и фиксирует время последнего входа.
	RecordSuccess(ctx context.Context, userID uuid.UUID) error

	// SetResetToken устанавливает токен сброса пароля со сроком действия,
	// перезаписывая ранее выданный токен.
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error

	// ClearResetToken снимает активный токен сброса пароля.
	ClearResetToken(ctx context.Context, userID uuid.UUID) error

	// MarkEmailVerified помечает email пользователя подтверждённым.
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
}

type store struct {
	users      repo.UserRepository
	clk        clock.Clock
	minEntropy float64
}

// NewStore создаёт хранилище учётных данных.
// minEntropy — минимальная допустимая энтропия пароля в битах.
func NewStore(users repo.UserRepository, clk clock.Clock, minEntropy float64) Store {
	return &store{
		users:      users,
		clk:        clk,
		minEntropy: minEntropy,
	}
}

// Get возвращает пользователя по идентификатору.
func (s *store) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Verify проверяет пароль пользователя.
func (s *store) Verify(ctx context.Context, userID uuid.UUID, plaintext string) bool {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		password.DummyCompare(plaintext)
		return false
	}
	return s.VerifyUser(user, plaintext)
}

// VerifyUser проверяет пароль уже загруженного пользователя.
func (s *store) VerifyUser(user *domain.User, plaintext string) bool {
	hash, ok := user.PasswordHash()
	if !ok {
		// Аккаунт стороннего провайдера: пароля нет, отказ закрытый,
		// но по времени неотличим от обычной неудачной проверки.
		password.DummyCompare(plaintext)
		return false
	}
	return password.Compare(hash, plaintext) == nil
}

// SetPassword устанавливает новый пароль и снимает активный токен сброса.
func (s *store) SetPassword(ctx context.Context, userID uuid.UUID, plaintext string) error {
	if err := password.ValidateStrength(plaintext, s.minEntropy); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.mutate(ctx, userID, func(u *domain.User) {
		now := s.clk.Now()
		u.Credential = domain.PasswordCredential{Hash: hash}
		u.ClearResetToken(now)
	})
}

// RecordFailedAttempt увеличивает счётчик неудачных попыток входа.
func (s *store) RecordFailedAttempt(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *domain.User) {
		now := s.clk.Now()
		u.FailedLoginAttempts++
		u.LastFailedLogin = &now
		u.Touch(now)
	})
}

// RecordSuccess обнуляет счётчик и фиксирует время входа.
func (s *store) RecordSuccess(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *domain.User) {
		now := s.clk.Now()
		u.FailedLoginAttempts = 0
		u.LastLogin = &now
		u.Touch(now)
	})
}

// SetResetToken устанавливает токен сброса пароля со сроком действия.
func (s *store) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	return s.mutate(ctx, userID, func(u *domain.User) {
		u.SetResetToken(token, expires, s.clk.Now())
	})
}

// ClearResetToken снимает активный токен сброса пароля.
func (s *store) ClearResetToken(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *domain.User) {
		u.ClearResetToken(s.clk.Now())
	})
}

// MarkEmailVerified помечает email пользователя подтверждённым.
func (s *store) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *domain.User) {
		u.IsEmailVerified = true
		u.Touch(s.clk.Now())
	})
}

// mutate выполняет цикл read-modify-write с условным обновлением по версии.
// При конфликте версии запись перечитывается и мутация применяется заново
// к свежему состоянию.
func (s *store) mutate(ctx context.Context, userID uuid.UUID, apply func(*domain.User)) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		apply(user)

		err = s.users.UpdateSecurity(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrVersionConflict) {
			return err
		}
	}
	return ErrTooMuchContention
}
