package interfaces

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domain "personafit/internal/domain/user"
)

// ErrNotFound возвращается, когда сущность не найдена в хранилище.
var ErrNotFound = errors.New("entity not found")

// ErrEmailExists возвращается, когда пользователь с таким email уже существует.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists возвращается, когда пользователь с таким username уже существует.
var ErrUsernameExists = errors.New("username already exists")

// ErrVersionConflict возвращается, когда условное обновление не прошло
// проверку версии: запись была изменена конкурентно. Вызывающая сторона
// должна перечитать запись и повторить попытку.
var ErrVersionConflict = errors.New("version conflict")

// UserRepository определяет контракт для работы с пользователями на уровне хранилища.
//
// Интерфейс оперирует доменной моделью User и не раскрывает деталей реализации (GORM, SQL и т.п.).
type UserRepository interface {
	// Create создает нового пользователя.
	// Возвращает ErrEmailExists, если email уже используется.
	// Возвращает ErrUsernameExists, если username уже используется.
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает пользователя по идентификатору.
	// Возвращает (nil, ErrNotFound), если пользователь не найден или мягко удалён.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail возвращает пользователя по email.
	// Возвращает (nil, ErrNotFound), если пользователь не найден или мягко удалён.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername возвращает пользователя по username.
	// Возвращает (nil, ErrNotFound), если пользователь не найден или мягко удалён.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmailIncludingDeleted возвращает пользователя по email,
	// не фильтруя мягко удалённых. Нужен сценарию входа: удалённый
	// аккаунт должен быть отличим от несуществующего, чтобы вернуть
	// отказ по состоянию аккаунта, а не по учётным данным.
	GetByEmailIncludingDeleted(ctx context.Context, email string) (*domain.User, error)

	// GetByUsernameIncludingDeleted возвращает пользователя по username,
	// не фильтруя мягко удалённых. См. GetByEmailIncludingDeleted.
	GetByUsernameIncludingDeleted(ctx context.Context, username string) (*domain.User, error)

	// GetByResetToken возвращает пользователя по непрозрачному токену сброса пароля.
	// Возвращает (nil, ErrNotFound), если токен никому не принадлежит.
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)

	// Update обновляет профильные данные пользователя.
	// Не обновляет защищенные поля: id, created_at, credential, счётчики безопасности.
	Update(ctx context.Context, user *domain.User) error

	// UpdateSecurity атомарно записывает поля безопасности пользователя
	// (credential, токен сброса, счётчики входа, статус) при условии,
	// что версия записи не изменилась с момента чтения.
	// Возвращает ErrVersionConflict при конкурентном изменении —
	// вызывающая сторона перечитывает запись и повторяет операцию.
	UpdateSecurity(ctx context.Context, user *domain.User) error

	// SoftDelete помечает пользователя как удалённого (status = deleted).
	// Записи физически не удаляются.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List возвращает всех не удалённых пользователей.
	// Предназначено для административных сценариев.
	List(ctx context.Context) ([]*domain.User, error)
}
