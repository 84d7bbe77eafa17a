package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
	credstore "personafit/internal/usecase/credential"
	"personafit/pkg/clock"
	jwtsvc "personafit/pkg/jwt"
	"personafit/pkg/lockout"
	"personafit/pkg/logger"
	"personafit/pkg/mailer"
	"personafit/pkg/password"
	"personafit/pkg/resettoken"
	"personafit/pkg/verification"
)

// Service описывает usecase-слой, связанный с аутентификацией:
// регистрацию, подтверждение email, вход с политикой блокировки
// и жизненный цикл сброса пароля.
type Service interface {
	// Register регистрирует пользователя, создаёт код подтверждения email и отправляет его.
	// Возвращает созданного пользователя (без токенов).
	Register(ctx context.Context, email, password, username string) (*domain.User, error)

	// VerifyEmail проверяет код подтверждения email, помечает email подтверждённым
	// и возвращает пользователя с парой access/refresh токенов.
	VerifyEmail(ctx context.Context, email, code string) (*domain.User, string, string, error)

	// Login выполняет вход по идентификатору (email или username) и паролю.
	// Проверяет состояние аккаунта и политику блокировки, обновляет счётчики
	// попыток и возвращает пользователя с парой access/refresh токенов.
	Login(ctx context.Context, identifier, password string) (*domain.User, string, string, error)

	// Refresh обновляет пару access/refresh токенов по действительному refresh-токену.
	Refresh(ctx context.Context, refreshToken string) (*domain.User, string, string, error)

	// IssueReset выдаёт одноразовый токен сброса пароля и отправляет его на email.
	// Для неизвестного email молча возвращает успех, не раскрывая существование аккаунта.
	IssueReset(ctx context.Context, email string) error

	// ConsumeReset устанавливает новый пароль по действительному токену сброса.
	// Возвращает ErrResetTokenExpired для просроченного токена (токен при этом
	// снимается) и ErrResetTokenNotFound для неизвестного.
	ConsumeReset(ctx context.Context, token, newPassword string) error

	// ResendVerificationCode выдаёт новый код подтверждения email.
	// Для неизвестного email молча возвращает успех.
	ResendVerificationCode(ctx context.Context, email string) error
}

// Ошибки бизнес-логики usecase-слоя.
var (
	ErrInvalidCredentials           = fmt.Errorf("invalid identifier or password")
	ErrAccountInactive              = fmt.Errorf("account is banned or deleted")
	ErrLocked                       = fmt.Errorf("account temporarily locked")
	ErrResetTokenExpired            = fmt.Errorf("reset token expired")
	ErrResetTokenNotFound           = fmt.Errorf("reset token not found")
	ErrEmailAlreadyVerified         = fmt.Errorf("email already verified")
	ErrVerificationCodeNotFound     = fmt.Errorf("verification code not found")
	ErrVerificationCodeInvalid      = fmt.Errorf("verification code invalid")
	ErrVerificationAttemptsExceeded = fmt.Errorf("verification attempts exceeded")
)

// LockedError возвращается при отказе во входе из-за блокировки
// и сообщает, через сколько времени вход снова будет разрешён.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry after %s", e.RetryAfter)
}

// Unwrap позволяет проверять блокировку через errors.Is(err, ErrLocked).
func (e *LockedError) Unwrap() error {
	return ErrLocked
}

const verificationCodeLength = 6

type service struct {
	users           repo.UserRepository
	emailVerifs     repo.EmailVerificationRepository
	creds           credstore.Store
	policy          lockout.Policy
	jwt             jwtsvc.Service
	emailSender     mailer.EmailSender
	clk             clock.Clock
	log             logger.Logger
	resetTTL        time.Duration
	verificationTTL time.Duration
	maxCodeAttempts int
	minEntropy      float64
}

// Config собирает зависимости и политику auth-сервиса.
type Config struct {
	Users           repo.UserRepository
	EmailVerifs     repo.EmailVerificationRepository
	Creds           credstore.Store
	Policy          lockout.Policy
	JWT             jwtsvc.Service
	EmailSender     mailer.EmailSender
	Clock           clock.Clock
	Logger          logger.Logger
	ResetTTL        time.Duration
	VerificationTTL time.Duration
	MaxCodeAttempts int
	MinEntropy      float64
}

// NewService создаёт новый auth usecase-сервис.
func NewService(cfg Config) Service {
	return &service{
		users:           cfg.Users,
		emailVerifs:     cfg.EmailVerifs,
		creds:           cfg.Creds,
		policy:          cfg.Policy,
		jwt:             cfg.JWT,
		emailSender:     cfg.EmailSender,
		clk:             cfg.Clock,
		log:             cfg.Logger,
		resetTTL:        cfg.ResetTTL,
		verificationTTL: cfg.VerificationTTL,
		maxCodeAttempts: cfg.MaxCodeAttempts,
		minEntropy:      cfg.MinEntropy,
	}
}

// Register регистрирует нового пользователя и отправляет код подтверждения email.
func (s *service) Register(ctx context.Context, email, rawPassword, username string) (*domain.User, error) {
	if email == "" || rawPassword == "" || username == "" {
		return nil, fmt.Errorf("email, password and username are required")
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidateProfile(domain.ProfileInput{Username: &username}); err != nil {
		return nil, err
	}
	if err := password.ValidateStrength(rawPassword, s.minEntropy); err != nil {
		return nil, fmt.Errorf("%w: %s", credstore.ErrWeakPassword, err.Error())
	}

	// Хешируем пароль на уровне usecase.
	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(email, hashed, username)
	user.IsEmailVerified = false

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueVerificationCode(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// issueVerificationCode генерирует одноразовый код, сохраняет его хэш
// и отправляет код на email пользователя.
func (s *service) issueVerificationCode(ctx context.Context, user *domain.User) error {
	code, err := verification.GenerateNumericCode(verificationCodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	codeHash, err := password.Hash(code)
	if err != nil {
		return fmt.Errorf("failed to hash verification code: %w", err)
	}

	now := s.clk.Now()
	v := &domain.EmailVerification{
		UserID:      user.ID,
		CodeHash:    codeHash,
		ExpiresAt:   now.Add(s.verificationTTL),
		Attempts:    0,
		MaxAttempts: s.maxCodeAttempts,
		CreatedAt:   now,
	}

	if err := s.emailVerifs.Create(ctx, v); err != nil {
		return err
	}

	if err := s.emailSender.SendEmailVerificationCode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

// VerifyEmail подтверждает email по коду и возвращает пару access/refresh токенов.
func (s *service) VerifyEmail(ctx context.Context, email, code string) (*domain.User, string, string, error) {
	if email == "" || code == "" {
		return nil, "", "", fmt.Errorf("email and code are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", "", err
	}

	if user.IsEmailVerified {
		return nil, "", "", ErrEmailAlreadyVerified
	}

	v, err := s.emailVerifs.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", "", ErrVerificationCodeNotFound
		}
		return nil, "", "", err
	}

	// Проверим TTL на всякий случай (репозиторий уже фильтрует по expires_at > now).
	if s.clk.Now().After(v.ExpiresAt) {
		_ = s.emailVerifs.DeleteByUserID(ctx, user.ID)
		return nil, "", "", ErrVerificationCodeNotFound
	}

	// Сравниваем код по хэшу.
	if err := password.Compare(v.CodeHash, code); err != nil {
		newAttempts := v.Attempts + 1

		// Увеличиваем количество попыток.
		_ = s.emailVerifs.IncrementAttempts(ctx, v.ID)

		if newAttempts >= v.MaxAttempts {
			_ = s.emailVerifs.DeleteByUserID(ctx, user.ID)
			return nil, "", "", ErrVerificationAttemptsExceeded
		}

		return nil, "", "", ErrVerificationCodeInvalid
	}

	// Успешное подтверждение: отмечаем email как подтверждённый.
	if err := s.creds.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, "", "", err
	}
	user.IsEmailVerified = true

	// Удаляем все коды для пользователя.
	_ = s.emailVerifs.DeleteByUserID(ctx, user.ID)

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	return user, access, refresh, nil
}

// ResendVerificationCode выдаёт новый код подтверждения email,
// удаляя ранее выданные.
func (s *service) ResendVerificationCode(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Не раскрываем существование аккаунта.
			return nil
		}
		return err
	}

	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	if err := s.emailVerifs.DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}

	return s.issueVerificationCode(ctx, user)
}

// resolveIdentifier находит пользователя по email или username.
// Идентификатор с '@' трактуется как email. Поиск не фильтрует мягко
// удалённых: вход для удалённого аккаунта отклоняется по состоянию
// аккаунта, а не как неизвестный идентификатор.
func (s *service) resolveIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		return s.users.GetByEmailIncludingDeleted(ctx, identifier)
	}
	return s.users.GetByUsernameIncludingDeleted(ctx, identifier)
}

// Login выполняет вход по email/username и паролю с учётом политики блокировки.
func (s *service) Login(ctx context.Context, identifier, rawPassword string) (*domain.User, string, string, error) {
	if identifier == "" || rawPassword == "" {
		return nil, "", "", fmt.Errorf("identifier and password are required")
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Выравниваем время ответа: выполняем фиктивную проверку пароля,
			// чтобы по задержке нельзя было перечислять аккаунты.
			password.DummyCompare(rawPassword)
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	// Заблокированные модерацией и удалённые аккаунты недопустимы
	// независимо от правильности пароля.
	if !user.CanLogin() {
		return nil, "", "", ErrAccountInactive
	}

	decision := s.policy.Decide(user.FailedLoginAttempts, user.LastFailedLogin, s.clk.Now())
	if decision.Inconsistent {
		// Счётчик достиг порога без времени последней неудачи — нарушение
		// инварианта хранилища. Вход разрешаем, но фиксируем предупреждение.
		s.log.Warn("inconsistent lockout state, allowing login", map[string]any{
			"user_id":  user.ID.String(),
			"attempts": user.FailedLoginAttempts,
		})
	}
	if !decision.Allowed {
		// Отказ по блокировке не считается дополнительной неудачной попыткой
		// и не трогает состояние учётных данных.
		return nil, "", "", &LockedError{RetryAfter: decision.RetryAfter}
	}

	if !s.creds.VerifyUser(user, rawPassword) {
		if err := s.creds.RecordFailedAttempt(ctx, user.ID); err != nil {
			s.log.Error("failed to record failed login attempt", map[string]any{
				"user_id": user.ID.String(),
				"err":     err.Error(),
			})
		}
		return nil, "", "", ErrInvalidCredentials
	}

	if err := s.creds.RecordSuccess(ctx, user.ID); err != nil {
		return nil, "", "", err
	}
	user.FailedLoginAttempts = 0

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	return user, access, refresh, nil
}

// Refresh обновляет пару access/refresh токенов по действительному refresh-токену.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.User, string, string, error) {
	if refreshToken == "" {
		return nil, "", "", fmt.Errorf("refresh token is required")
	}

	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, "", "", err
	}

	// Не выдаём новые токены для заблокированных и удалённых аккаунтов.
	if !user.CanLogin() {
		return nil, "", "", ErrAccountInactive
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	return user, access, refresh, nil
}

// IssueReset выдаёт одноразовый токен сброса пароля.
func (s *service) IssueReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Не раскрываем существование аккаунта: неизвестный email
			// получает тот же ответ, что и известный.
			return nil
		}
		return err
	}

	token, err := resettoken.Generate()
	if err != nil {
		return err
	}

	expires := s.clk.Now().Add(s.resetTTL)
	if err := s.creds.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return err
	}

	if err := s.emailSender.SendPasswordResetToken(ctx, user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// ConsumeReset устанавливает новый пароль по действительному токену сброса.
func (s *service) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("token and new password are required")
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrResetTokenNotFound
		}
		return err
	}

	if user.PasswordResetExpires == nil || s.clk.Now().After(*user.PasswordResetExpires) {
		// Просроченный токен снимается: для повторного сброса
		// придётся запросить новый.
		if err := s.creds.ClearResetToken(ctx, user.ID); err != nil {
			s.log.Error("failed to clear expired reset token", map[string]any{
				"user_id": user.ID.String(),
				"err":     err.Error(),
			})
		}
		return ErrResetTokenExpired
	}

	// SetPassword сам снимает активный токен сброса.
	return s.creds.SetPassword(ctx, user.ID, newPassword)
}

// issueTokens генерирует пару access/refresh токенов для пользователя.
func (s *service) issueTokens(user *domain.User) (string, string, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return "", "", err
	}

	refresh, _, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// userFromClaims восстанавливает пользователя по claims refresh-токена.
func (s *service) userFromClaims(ctx context.Context, claims *jwtsvc.Claims) (*domain.User, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}
