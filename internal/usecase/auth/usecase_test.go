package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
	authuc "personafit/internal/usecase/auth"
	credstore "personafit/internal/usecase/credential"
	"personafit/pkg/clock"
	jwtsvc "personafit/pkg/jwt"
	"personafit/pkg/lockout"
	"personafit/pkg/password"
)

// ==== Fakes for repositories and services ====

// fakeUserRepo хранит пользователей в памяти и повторяет семантику
// Postgres-репозитория: условное обновление по версии и фильтрацию
// мягко удалённых записей.
type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	m := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		cp := *u
		m[u.ID] = &cp
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email != "" && existing.Email == u.Email {
			return repo.ErrEmailExists
		}
		if existing.Username != "" && existing.Username == u.Username {
			return repo.ErrUsernameExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) GetByEmailIncludingDeleted(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) GetByUsernameIncludingDeleted(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, repo.ErrNotFound
	}
	for _, u := range r.users {
		if u.PasswordResetToken == token && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	stored, ok := r.users[u.ID]
	if !ok || stored.IsDeleted() {
		return repo.ErrNotFound
	}
	cp := *u
	cp.Version = stored.Version
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateSecurity(_ context.Context, u *domain.User) error {
	stored, ok := r.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != u.Version {
		return repo.ErrVersionConflict
	}
	cp := *u
	cp.Version = stored.Version + 1
	r.users[u.ID] = &cp
	u.Version = cp.Version
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return repo.ErrNotFound
	}
	u.Status = domain.StatusDeleted
	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.IsDeleted() {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ repo.UserRepository = (*fakeUserRepo)(nil)

type fakeEmailVerifRepo struct {
	nextID  int64
	records map[int64]*domain.EmailVerification
	clk     clock.Clock
}

func newFakeEmailVerifRepo(clk clock.Clock) *fakeEmailVerifRepo {
	return &fakeEmailVerifRepo{records: map[int64]*domain.EmailVerification{}, clk: clk}
}

func (r *fakeEmailVerifRepo) Create(_ context.Context, v *domain.EmailVerification) error {
	r.nextID++
	v.ID = r.nextID
	cp := *v
	r.records[v.ID] = &cp
	return nil
}

func (r *fakeEmailVerifRepo) GetByID(_ context.Context, id int64) (*domain.EmailVerification, error) {
	v, ok := r.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeEmailVerifRepo) GetActiveByUserID(_ context.Context, userID uuid.UUID) (*domain.EmailVerification, error) {
	for _, v := range r.records {
		if v.UserID == userID && r.clk.Now().Before(v.ExpiresAt) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeEmailVerifRepo) IncrementAttempts(_ context.Context, id int64) error {
	if v, ok := r.records[id]; ok {
		v.Attempts++
	}
	return nil
}

func (r *fakeEmailVerifRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for id, v := range r.records {
		if v.UserID == userID {
			delete(r.records, id)
		}
	}
	return nil
}

var _ repo.EmailVerificationRepository = (*fakeEmailVerifRepo)(nil)

type sentMail struct {
	to    string
	value string
}

type fakeEmailSender struct {
	verificationCodes []sentMail
	resetTokens       []sentMail
}

func (s *fakeEmailSender) SendEmailVerificationCode(_ context.Context, email, code string) error {
	s.verificationCodes = append(s.verificationCodes, sentMail{to: email, value: code})
	return nil
}

func (s *fakeEmailSender) SendPasswordResetToken(_ context.Context, email, token string) error {
	s.resetTokens = append(s.resetTokens, sentMail{to: email, value: token})
	return nil
}

type fakeJWT struct{}

func (f *fakeJWT) GenerateAccessToken(*domain.User) (string, error) { return "access", nil }
func (f *fakeJWT) GenerateRefreshToken(*domain.User) (string, string, error) {
	return "refresh", "jti", nil
}
func (f *fakeJWT) ParseAccessToken(string) (*jwtsvc.Claims, error)  { return &jwtsvc.Claims{}, nil }
func (f *fakeJWT) ParseRefreshToken(string) (*jwtsvc.Claims, error) { return &jwtsvc.Claims{}, nil }

type fakeLogger struct {
	warnings []string
	errors   []string
}

func (l *fakeLogger) Info(string, map[string]any)        {}
func (l *fakeLogger) Warn(msg string, _ map[string]any)  { l.warnings = append(l.warnings, msg) }
func (l *fakeLogger) Error(msg string, _ map[string]any) { l.errors = append(l.errors, msg) }

// ==== Test environment ====

type env struct {
	users  *fakeUserRepo
	verifs *fakeEmailVerifRepo
	sender *fakeEmailSender
	clk    *clock.Fixed
	log    *fakeLogger
	svc    authuc.Service
}

func newEnv(t *testing.T, users ...*domain.User) *env {
	t.Helper()

	clk := &clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	userRepo := newFakeUserRepo(users...)
	verifRepo := newFakeEmailVerifRepo(clk)
	sender := &fakeEmailSender{}
	logg := &fakeLogger{}
	creds := credstore.NewStore(userRepo, clk, 1)

	svc := authuc.NewService(authuc.Config{
		Users:       userRepo,
		EmailVerifs: verifRepo,
		Creds:       creds,
		Policy: lockout.Policy{
			MaxAttempts: 3,
			Window:      15 * time.Minute,
		},
		JWT:             &fakeJWT{},
		EmailSender:     sender,
		Clock:           clk,
		Logger:          logg,
		ResetTTL:        30 * time.Minute,
		VerificationTTL: 15 * time.Minute,
		MaxCodeAttempts: 5,
		MinEntropy:      1,
	})

	return &env{
		users:  userRepo,
		verifs: verifRepo,
		sender: sender,
		clk:    clk,
		log:    logg,
		svc:    svc,
	}
}

func passwordUser(t *testing.T, email, username, plaintext string) *domain.User {
	t.Helper()
	hash, err := password.Hash(plaintext)
	require.NoError(t, err)
	u := domain.NewUser(email, hash, username)
	u.IsEmailVerified = true
	return u
}

func storedUser(t *testing.T, e *env, id uuid.UUID) *domain.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// ==== Login: lockout policy ====

func TestLogin_Success(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	got, access, refresh, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "access", access)
	require.Equal(t, "refresh", refresh)

	stored := storedUser(t, e, u.ID)
	require.Equal(t, 0, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastLogin)
}

func TestLogin_ByUsername(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	// Идентификатор без '@' трактуется как username.
	got, _, _, err := e.svc.Login(context.Background(), "alice", "secret pass 1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestLogin_UnknownIdentifier(t *testing.T) {
	e := newEnv(t)

	_, _, _, err := e.svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)
}

func TestLogin_WrongPassword_IncrementsCounter(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)

	stored := storedUser(t, e, u.ID)
	require.Equal(t, 1, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastFailedLogin)
}

func TestLogin_LockoutAfterMaxAttempts(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	// Порог — 3 попытки: первые три неудачи проходят проверку политики.
	for i := 0; i < 3; i++ {
		_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "wrong")
		require.ErrorIs(t, err, authuc.ErrInvalidCredentials)
	}

	// Четвёртая попытка блокируется даже с правильным паролем.
	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrLocked)

	var lockedErr *authuc.LockedError
	require.ErrorAs(t, err, &lockedErr)
	require.Equal(t, 15*time.Minute, lockedErr.RetryAfter)
}

func TestLogin_LockedAttempt_DoesNotMutateState(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	for i := 0; i < 3; i++ {
		_, _, _, _ = e.svc.Login(context.Background(), "alice@example.com", "wrong")
	}
	before := storedUser(t, e, u.ID)

	// Отказ по блокировке не считается дополнительной неудачной попыткой.
	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, authuc.ErrLocked)

	after := storedUser(t, e, u.ID)
	require.Equal(t, before.FailedLoginAttempts, after.FailedLoginAttempts)
	require.Equal(t, *before.LastFailedLogin, *after.LastFailedLogin)
	require.Equal(t, before.Version, after.Version)
}

func TestLogin_WindowElapsed_AllowsAgainWithoutResettingCounter(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	for i := 0; i < 3; i++ {
		_, _, _, _ = e.svc.Login(context.Background(), "alice@example.com", "wrong")
	}
	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrLocked)

	// По истечении окна попытка снова разрешена; счётчик при этом
	// не сброшен — его обнуляет только успешный вход.
	e.clk.Advance(15 * time.Minute)

	stored := storedUser(t, e, u.ID)
	require.Equal(t, 3, stored.FailedLoginAttempts)

	// Очередная неудача немедленно возвращает блокировку с полным окном.
	_, _, _, err = e.svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)

	_, _, _, err = e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrLocked)
}

func TestLogin_SuccessAfterWindow_ResetsCounter(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	for i := 0; i < 3; i++ {
		_, _, _, _ = e.svc.Login(context.Background(), "alice@example.com", "wrong")
	}
	e.clk.Advance(15 * time.Minute)

	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.NoError(t, err)

	stored := storedUser(t, e, u.ID)
	require.Equal(t, 0, stored.FailedLoginAttempts)
}

func TestLogin_InconsistentLockoutState_AllowedWithWarning(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	// Счётчик на пороге, но времени последней неудачи нет —
	// состояние, невозможное при нормальной работе.
	u.FailedLoginAttempts = 3
	u.LastFailedLogin = nil
	e := newEnv(t, u)

	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.NoError(t, err)
	require.NotEmpty(t, e.log.warnings)
}

func TestLogin_BannedAccount(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	u.Status = domain.StatusBanned
	e := newEnv(t, u)

	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrAccountInactive)
}

func TestLogin_DeletedAccount_Inactive(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)
	require.NoError(t, e.users.SoftDelete(context.Background(), u.ID))

	// Мягко удалённый аккаунт отклоняется по состоянию независимо
	// от правильности пароля — как и забаненный.
	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrAccountInactive)

	_, _, _, err = e.svc.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, authuc.ErrAccountInactive)

	// Отказ по состоянию происходит до работы с учётными данными:
	// счётчик неудачных попыток не растёт.
	require.Equal(t, 0, e.users.users[u.ID].FailedLoginAttempts)
}

func TestLogin_ThirdPartyAccount_InvalidCredentials(t *testing.T) {
	u := domain.NewThirdPartyUser("sso@example.com")
	e := newEnv(t, u)

	_, _, _, err := e.svc.Login(context.Background(), "sso@example.com", "any password")
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)

	// Неудача учитывается в счётчике, как и обычный неверный пароль.
	stored := storedUser(t, e, u.ID)
	require.Equal(t, 1, stored.FailedLoginAttempts)
}

// ==== Password reset lifecycle ====

func TestIssueReset_UnknownEmail_SilentSuccess(t *testing.T) {
	e := newEnv(t)

	// Неизвестный email получает тот же ответ, что и известный:
	// существование аккаунта не раскрывается.
	err := e.svc.IssueReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, e.sender.resetTokens)
}

func TestIssueReset_SetsTokenAndSendsEmail(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))

	require.Len(t, e.sender.resetTokens, 1)
	require.Equal(t, "alice@example.com", e.sender.resetTokens[0].to)

	stored := storedUser(t, e, u.ID)
	require.Equal(t, e.sender.resetTokens[0].value, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	require.Equal(t, e.clk.Now().Add(30*time.Minute), *stored.PasswordResetExpires)
}

func TestIssueReset_Reissue_OverwritesPreviousToken(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))
	firstToken := e.sender.resetTokens[0].value

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))
	secondToken := e.sender.resetTokens[1].value
	require.NotEqual(t, firstToken, secondToken)

	// Первый токен аннулирован повторной выдачей.
	err := e.svc.ConsumeReset(context.Background(), firstToken, "brand new password 456")
	require.ErrorIs(t, err, authuc.ErrResetTokenNotFound)

	// Второй действует.
	require.NoError(t, e.svc.ConsumeReset(context.Background(), secondToken, "brand new password 456"))
}

func TestConsumeReset_HappyPath(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))
	token := e.sender.resetTokens[0].value

	require.NoError(t, e.svc.ConsumeReset(context.Background(), token, "brand new password 456"))

	stored := storedUser(t, e, u.ID)
	require.Empty(t, stored.PasswordResetToken)
	require.Nil(t, stored.PasswordResetExpires)

	// Старый пароль больше не подходит, новый работает.
	_, _, _, err := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)

	_, _, _, err = e.svc.Login(context.Background(), "alice@example.com", "brand new password 456")
	require.NoError(t, err)
}

func TestConsumeReset_TokenIsSingleUse(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))
	token := e.sender.resetTokens[0].value

	require.NoError(t, e.svc.ConsumeReset(context.Background(), token, "brand new password 456"))

	err := e.svc.ConsumeReset(context.Background(), token, "another password 789")
	require.ErrorIs(t, err, authuc.ErrResetTokenNotFound)
}

func TestConsumeReset_ExpiredToken_ClearedOnAttempt(t *testing.T) {
	u := passwordUser(t, "alice@example.com", "alice", "secret pass 1")
	e := newEnv(t, u)

	require.NoError(t, e.svc.IssueReset(context.Background(), "alice@example.com"))
	token := e.sender.resetTokens[0].value

	e.clk.Advance(31 * time.Minute)

	err := e.svc.ConsumeReset(context.Background(), token, "brand new password 456")
	require.ErrorIs(t, err, authuc.ErrResetTokenExpired)

	// Просроченный токен снят: повторная попытка его уже не находит.
	err = e.svc.ConsumeReset(context.Background(), token, "brand new password 456")
	require.ErrorIs(t, err, authuc.ErrResetTokenNotFound)

	// Пароль не изменился.
	_, _, _, loginErr := e.svc.Login(context.Background(), "alice@example.com", "secret pass 1")
	require.NoError(t, loginErr)
}

func TestConsumeReset_UnknownToken(t *testing.T) {
	e := newEnv(t)

	err := e.svc.ConsumeReset(context.Background(), "no-such-token", "brand new password 456")
	require.ErrorIs(t, err, authuc.ErrResetTokenNotFound)
}

// ==== Registration and email verification ====

func TestRegister_CreatesUserAndSendsCode(t *testing.T) {
	e := newEnv(t)

	u, err := e.svc.Register(context.Background(), "bob@example.com", "secret pass 1", "bob")
	require.NoError(t, err)
	require.False(t, u.IsEmailVerified)

	require.Len(t, e.sender.verificationCodes, 1)
	require.Equal(t, "bob@example.com", e.sender.verificationCodes[0].to)
	require.Len(t, e.sender.verificationCodes[0].value, 6)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	u := passwordUser(t, "bob@example.com", "bob", "secret pass 1")
	e := newEnv(t, u)

	_, err := e.svc.Register(context.Background(), "bob@example.com", "secret pass 1", "bob2")
	require.ErrorIs(t, err, repo.ErrEmailExists)
}

func TestVerifyEmail_HappyPath(t *testing.T) {
	e := newEnv(t)

	u, err := e.svc.Register(context.Background(), "bob@example.com", "secret pass 1", "bob")
	require.NoError(t, err)
	code := e.sender.verificationCodes[0].value

	verified, access, refresh, err := e.svc.VerifyEmail(context.Background(), "bob@example.com", code)
	require.NoError(t, err)
	require.True(t, verified.IsEmailVerified)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	stored := storedUser(t, e, u.ID)
	require.True(t, stored.IsEmailVerified)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Register(context.Background(), "bob@example.com", "secret pass 1", "bob")
	require.NoError(t, err)

	wrong := "000000"
	if e.sender.verificationCodes[0].value == wrong {
		wrong = "000001"
	}

	_, _, _, err = e.svc.VerifyEmail(context.Background(), "bob@example.com", wrong)
	require.ErrorIs(t, err, authuc.ErrVerificationCodeInvalid)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Register(context.Background(), "bob@example.com", "secret pass 1", "bob")
	require.NoError(t, err)
	code := e.sender.verificationCodes[0].value

	e.clk.Advance(16 * time.Minute)

	_, _, _, err = e.svc.VerifyEmail(context.Background(), "bob@example.com", code)
	require.ErrorIs(t, err, authuc.ErrVerificationCodeNotFound)
}

func TestResendVerificationCode_UnknownEmail_SilentSuccess(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.svc.ResendVerificationCode(context.Background(), "nobody@example.com"))
	require.Empty(t, e.sender.verificationCodes)
}
