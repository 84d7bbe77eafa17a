package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
)

// pgUser представляет собой ORM-модель для таблицы users.
// Она максимально близко отражает схему БД и маппится в доменную модель User.
// NULL в password_hash означает аккаунт стороннего провайдера (ThirdPartyOnly).
type pgUser struct {
	ID           string  `gorm:"column:id;type:uuid;primaryKey"`
	Username     *string `gorm:"column:username;type:varchar(50)"`
	Email        *string `gorm:"column:email;type:varchar(255)"`
	PasswordHash *string `gorm:"column:password_hash;type:varchar(255)"`

	FirstName    string  `gorm:"column:first_name;type:varchar(100)"`
	LastName     string  `gorm:"column:last_name;type:varchar(100)"`
	AvatarFileID string  `gorm:"column:avatar_file_id;type:text"`
	AvatarURL    string  `gorm:"column:avatar_url;type:text"`
	Age          int     `gorm:"column:age"`
	WeightKg     float64 `gorm:"column:weight_kg"`
	HeightCm     float64 `gorm:"column:height_cm"`

	Status        string `gorm:"column:status;type:text;not null"`
	Role          string `gorm:"column:role;type:text;not null"`
	EmailVerified bool   `gorm:"column:email_verified;not null"`

	PasswordResetToken   *string    `gorm:"column:password_reset_token;type:varchar(128)"`
	PasswordResetExpires *time.Time `gorm:"column:password_reset_expires;type:timestamptz"`
	LastLogin            *time.Time `gorm:"column:last_login;type:timestamptz"`
	FailedLoginAttempts  int        `gorm:"column:failed_login_attempts;not null"`
	LastFailedLogin      *time.Time `gorm:"column:last_failed_login;type:timestamptz"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
	Version   int64     `gorm:"column:version;not null"`
}

func (pgUser) TableName() string {
	return "users"
}

// UserRepository реализует repo.UserRepository с использованием GORM и Postgres.
type UserRepository struct {
	db *gorm.DB
}

// Убедимся на этапе компиляции, что структура реализует интерфейс.
var _ repo.UserRepository = (*UserRepository)(nil)

// NewUserRepository создает новый репозиторий пользователей.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникального ограничения PostgreSQL.
// Ориентируется на код ошибки 23505 (unique_violation) и, при наличии, имя индекса/constraint.
func isUniqueViolation(err error, constraintNames ...string) bool {
	if err == nil {
		return false
	}

	// Предпочитаем структурированную ошибку драйвера pgx
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" { // unique_violation
			return false
		}
		// Если конкретные имена не заданы — достаточно кода ошибки
		if len(constraintNames) == 0 {
			return true
		}
		for _, name := range constraintNames {
			if name != "" && strings.EqualFold(pgErr.ConstraintName, name) {
				return true
			}
		}
		return false
	}

	// Fallback для нестандартных ошибок: ищем 23505 и имя индекса/constraint в сообщении
	errStr := err.Error()
	if !strings.Contains(errStr, "23505") {
		return false
	}
	if len(constraintNames) == 0 {
		return true
	}
	lower := strings.ToLower(errStr)
	for _, name := range constraintNames {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// optionalString маппит пустую строку домена в NULL и обратно.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// toDomain маппит ORM-модель в доменную.
func (m *pgUser) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}

	var cred domain.Credential = domain.ThirdPartyOnly{}
	if m.PasswordHash != nil {
		cred = domain.PasswordCredential{Hash: *m.PasswordHash}
	}

	return &domain.User{
		ID:         id,
		Username:   stringValue(m.Username),
		Email:      stringValue(m.Email),
		Credential: cred,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Avatar: domain.Avatar{
			FileID: m.AvatarFileID,
			URL:    m.AvatarURL,
		},
		Age:                  m.Age,
		WeightKg:             m.WeightKg,
		HeightCm:             m.HeightCm,
		Status:               domain.Status(m.Status),
		Role:                 domain.Role(m.Role),
		IsEmailVerified:      m.EmailVerified,
		PasswordResetToken:   stringValue(m.PasswordResetToken),
		PasswordResetExpires: m.PasswordResetExpires,
		LastLogin:            m.LastLogin,
		FailedLoginAttempts:  m.FailedLoginAttempts,
		LastFailedLogin:      m.LastFailedLogin,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		Version:              m.Version,
	}, nil
}

// fromDomain маппит доменную модель в ORM-модель.
func fromDomain(u *domain.User) *pgUser {
	var hash *string
	if h, ok := u.PasswordHash(); ok {
		hash = &h
	}

	return &pgUser{
		ID:                   u.ID.String(),
		Username:             optionalString(u.Username),
		Email:                optionalString(u.Email),
		PasswordHash:         hash,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		AvatarFileID:         u.Avatar.FileID,
		AvatarURL:            u.Avatar.URL,
		Age:                  u.Age,
		WeightKg:             u.WeightKg,
		HeightCm:             u.HeightCm,
		Status:               string(u.Status),
		Role:                 string(u.Role),
		EmailVerified:        u.IsEmailVerified,
		PasswordResetToken:   optionalString(u.PasswordResetToken),
		PasswordResetExpires: u.PasswordResetExpires,
		LastLogin:            u.LastLogin,
		FailedLoginAttempts:  u.FailedLoginAttempts,
		LastFailedLogin:      u.LastFailedLogin,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
		Version:              u.Version,
	}
}

// Create создает нового пользователя в БД.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	model := fromDomain(user)
	err := r.db.WithContext(ctx).Create(model).Error
	if err != nil {
		// Проверка на нарушение уникальности email
		if isUniqueViolation(err, "idx_users_email_unique") || strings.Contains(err.Error(), "idx_users_email_unique") {
			return repo.ErrEmailExists
		}
		// Проверка на нарушение уникальности username
		if isUniqueViolation(err, "idx_users_username_unique") || strings.Contains(err.Error(), "idx_users_username_unique") {
			return repo.ErrUsernameExists
		}
		return err
	}
	return nil
}

// oneByCondition возвращает одну запись по условию с учётом мягкого удаления.
func (r *UserRepository) oneByCondition(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var model pgUser
	err := r.db.WithContext(ctx).
		Where("status <> ?", string(domain.StatusDeleted)).
		Where(query, args...).
		Take(&model).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain()
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.oneByCondition(ctx, "id = ?", id.String())
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.oneByCondition(ctx, "email = ?", email)
}

// GetByUsername возвращает пользователя по username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.oneByCondition(ctx, "username = ?", username)
}

// GetByResetToken возвращает пользователя по токену сброса пароля.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.oneByCondition(ctx, "password_reset_token = ?", token)
}

// oneByConditionAnyStatus возвращает одну запись по условию без фильтра
// мягкого удаления. Используется сценарием входа, которому нужно отличать
// удалённый аккаунт от несуществующего.
func (r *UserRepository) oneByConditionAnyStatus(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var model pgUser
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Take(&model).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain()
}

// GetByEmailIncludingDeleted возвращает пользователя по email, включая мягко удалённых.
func (r *UserRepository) GetByEmailIncludingDeleted(ctx context.Context, email string) (*domain.User, error) {
	return r.oneByConditionAnyStatus(ctx, "email = ?", email)
}

// GetByUsernameIncludingDeleted возвращает пользователя по username, включая мягко удалённых.
func (r *UserRepository) GetByUsernameIncludingDeleted(ctx context.Context, username string) (*domain.User, error) {
	return r.oneByConditionAnyStatus(ctx, "username = ?", username)
}

// List возвращает всех активных (не удалённых) пользователей.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var models []pgUser
	err := r.db.WithContext(ctx).
		Where("status <> ?", string(domain.StatusDeleted)).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(models))
	for i := range models {
		u, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Update обновляет профильные данные пользователя.
// Не обновляет защищенные поля: id, created_at, credential и счётчики безопасности.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	model := fromDomain(user)

	// Используем выборочное обновление для защиты критичных полей
	updates := map[string]interface{}{
		"username":       model.Username,
		"email":          model.Email,
		"first_name":     model.FirstName,
		"last_name":      model.LastName,
		"avatar_file_id": model.AvatarFileID,
		"avatar_url":     model.AvatarURL,
		"age":            model.Age,
		"weight_kg":      model.WeightKg,
		"height_cm":      model.HeightCm,
		"role":           model.Role,
		"status":         model.Status,
		"email_verified": model.EmailVerified,
		"updated_at":     model.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&pgUser{}).
		Where("id = ? AND status <> ?", model.ID, string(domain.StatusDeleted)).
		Updates(updates)

	if result.Error != nil {
		// Проверка на нарушение уникальности при обновлении
		if isUniqueViolation(result.Error, "idx_users_email_unique") || strings.Contains(result.Error.Error(), "idx_users_email_unique") {
			return repo.ErrEmailExists
		}
		if isUniqueViolation(result.Error, "idx_users_username_unique") || strings.Contains(result.Error.Error(), "idx_users_username_unique") {
			return repo.ErrUsernameExists
		}
		return result.Error
	}

	// Если ни одна строка не была обновлена — пользователя нет или он уже удалён
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	return nil
}

// UpdateSecurity атомарно записывает поля безопасности пользователя
// при условии совпадения версии (условное обновление).
// Два конкурентных инкремента счётчика неудачных попыток не могут
// затереть друг друга: проигравший получает ErrVersionConflict.
func (r *UserRepository) UpdateSecurity(ctx context.Context, user *domain.User) error {
	model := fromDomain(user)

	updates := map[string]interface{}{
		"password_hash":          model.PasswordHash,
		"password_reset_token":   model.PasswordResetToken,
		"password_reset_expires": model.PasswordResetExpires,
		"last_login":             model.LastLogin,
		"failed_login_attempts":  model.FailedLoginAttempts,
		"last_failed_login":      model.LastFailedLogin,
		"status":                 model.Status,
		"email_verified":         model.EmailVerified,
		"updated_at":             model.UpdatedAt,
		"version":                model.Version + 1,
	}

	result := r.db.WithContext(ctx).
		Model(&pgUser{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	// Версия не совпала либо записи нет — в обоих случаях вызывающая
	// сторона перечитывает пользователя и решает, повторять ли операцию.
	if result.RowsAffected == 0 {
		return repo.ErrVersionConflict
	}

	user.Version++
	return nil
}

// SoftDelete помечает пользователя как удалённого (status = deleted).
// Синхронизировано с доменным методом MarkDeleted (также обновляет updated_at).
func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&pgUser{}).
		Where("id = ? AND status <> ?", id.String(), string(domain.StatusDeleted)).
		Updates(map[string]interface{}{
			"status":     string(domain.StatusDeleted),
			"updated_at": now,
		})

	if result.Error != nil {
		return result.Error
	}

	// Проверяем, была ли обновлена хотя бы одна запись
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	return nil
}
