package user

import (
	"time"

	"github.com/google/uuid"
)

// Status описывает состояние аккаунта пользователя.
type Status string

const (
	StatusActive   Status = "active"   // активен
	StatusInactive Status = "inactive" // деактивирован
	StatusBanned   Status = "banned"   // заблокирован модерацией
	StatusDeleted  Status = "deleted"  // мягко удалён
)

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleVIP       Role = "vip"
)

// Avatar — ссылка на файл аватара во внешнем файловом хранилище.
type Avatar struct {
	FileID string // Идентификатор файла в хранилище
	URL    string // Публичный URL
}

// Credential — способ аутентификации аккаунта.
//
// Вместо nullable-хэша пароля используется закрытый sum-тип:
// либо у аккаунта есть парольный хэш (PasswordCredential), либо аккаунт
// создан через стороннего провайдера и паролем недостижим (ThirdPartyOnly).
type Credential interface {
	isCredential()
}

// PasswordCredential — аккаунт с парольным входом.
type PasswordCredential struct {
	Hash string // bcrypt-хэш пароля
}

// ThirdPartyOnly — аккаунт, созданный через стороннего провайдера,
// без парольного входа.
type ThirdPartyOnly struct{}

func (PasswordCredential) isCredential() {}
func (ThirdPartyOnly) isCredential()     {}

// User представляет доменную модель пользователя фитнес‑приложения.
//
// Важно: эта модель описывает бизнес‑сущность и не зависит от деталей транспорта (HTTP, gRPC)
// и конкретного представления в БД.
type User struct {
	ID         uuid.UUID  // Уникальный идентификатор пользователя
	Username   string     // Никнейм (уникальный; пустая строка — отсутствует, допустимо для сторонних входов)
	Email      string     // Email (уникальный; пустая строка — отсутствует)
	Credential Credential // Способ аутентификации (пароль или только сторонний провайдер)

	FirstName string  // Имя
	LastName  string  // Фамилия
	Avatar    Avatar  // Аватар (опционально)
	Age       int     // Возраст (0..150)
	WeightKg  float64 // Вес в килограммах (>= 0)
	HeightCm  float64 // Рост в сантиметрах (>= 0)

	Status          Status // Состояние аккаунта
	Role            Role   // Роль
	IsEmailVerified bool   // Подтверждён ли email пользователя

	PasswordResetToken   string     // Непрозрачный токен сброса пароля (пустая строка — нет активного токена)
	PasswordResetExpires *time.Time // Срок действия токена сброса (nil, если токена нет)
	LastLogin            *time.Time // Время последнего успешного входа
	FailedLoginAttempts  int        // Счётчик неудачных попыток входа (>= 0)
	LastFailedLogin      *time.Time // Время последней неудачной попытки входа

	CreatedAt time.Time // Время создания (неизменяемое)
	UpdatedAt time.Time // Время последнего обновления
	Version   int64     // Метка версии для оптимистичной блокировки на уровне хранилища
}

// NewUser — фабрика для создания нового пользователя с парольным входом.
// Предполагается, что валидация/нормализация входных данных и хеширование пароля
// выполняются на уровне usecase‑слоя до вызова этой функции.
func NewUser(email, passwordHash, username string) *User {
	now := time.Now().UTC()
	return &User{
		ID:         uuid.New(),
		Email:      email,
		Username:   username,
		Credential: PasswordCredential{Hash: passwordHash},
		Status:     StatusActive,
		Role:       RoleUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewThirdPartyUser — фабрика для аккаунта, созданного через стороннего
// провайдера. Такой аккаунт недостижим для парольного входа.
func NewThirdPartyUser(email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:         uuid.New(),
		Email:      email,
		Credential: ThirdPartyOnly{},
		Status:     StatusActive,
		Role:       RoleUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// PasswordHash возвращает парольный хэш и признак его наличия.
func (u *User) PasswordHash() (string, bool) {
	if c, ok := u.Credential.(PasswordCredential); ok {
		return c.Hash, true
	}
	return "", false
}

// IsDeleted возвращает true, если пользователь мягко удалён.
func (u *User) IsDeleted() bool {
	return u.Status == StatusDeleted
}

// CanLogin возвращает true, если состояние аккаунта допускает вход.
// Заблокированные и удалённые аккаунты недопустимы независимо от пароля.
func (u *User) CanLogin() bool {
	return u.Status != StatusBanned && u.Status != StatusDeleted
}

// MarkDeleted помечает пользователя как удалённого и обновляет время обновления.
// Физическое удаление записей этим слоем не выполняется.
func (u *User) MarkDeleted(at time.Time) {
	u.Status = StatusDeleted
	u.UpdatedAt = at
}

// Touch обновляет время последнего изменения сущности.
func (u *User) Touch(at time.Time) {
	u.UpdatedAt = at
}

// SetResetToken устанавливает токен сброса пароля и срок его действия.
// Ранее выданный токен перезаписывается: одновременно у пользователя
// может быть только один активный токен.
func (u *User) SetResetToken(token string, expires, now time.Time) {
	u.PasswordResetToken = token
	u.PasswordResetExpires = &expires
	u.Touch(now)
}

// ClearResetToken сбрасывает токен восстановления пароля.
func (u *User) ClearResetToken(now time.Time) {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	u.Touch(now)
}

// ValidStatus проверяет, что значение является допустимым статусом аккаунта.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusBanned, StatusDeleted:
		return true
	}
	return false
}

// ValidRole проверяет, что значение является допустимой ролью.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator, RoleVIP:
		return true
	}
	return false
}

// IsPrivileged возвращает true для ролей, которым разрешено изменять
// чужие записи (модераторы и администраторы).
func IsPrivileged(r Role) bool {
	return r == RoleAdmin || r == RoleModerator
}

// EmailVerification представляет доменную модель кода подтверждения email.
type EmailVerification struct {
	ID          int64     // Идентификатор записи (соответствует BIGSERIAL в БД)
	UserID      uuid.UUID // Пользователь, для которого создан код
	CodeHash    string    // Хэш одноразового кода подтверждения
	ExpiresAt   time.Time // Время истечения кода
	Attempts    int       // Количество использованных попыток
	MaxAttempts int       // Максимально допустимое количество попыток
	CreatedAt   time.Time // Время создания записи
}
