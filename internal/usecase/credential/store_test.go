package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domain "personafit/internal/domain/user"
	repo "personafit/internal/repository/interfaces"
	credstore "personafit/internal/usecase/credential"
	"personafit/pkg/clock"
	"personafit/pkg/password"
)

// ==== Fake user repository with optimistic concurrency ====

// casUserRepo эмулирует условное обновление по версии так же,
// как это делает Postgres-репозиторий.
type casUserRepo struct {
	users map[uuid.UUID]*domain.User

	// forceConflicts заставляет UpdateSecurity вернуть ErrVersionConflict
	// указанное число раз, имитируя конкурентные записи.
	forceConflicts int

	securityUpdates int
}

func newCASUserRepo(users ...*domain.User) *casUserRepo {
	m := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		cp := *u
		m[u.ID] = &cp
	}
	return &casUserRepo{users: m}
}

func (r *casUserRepo) Create(_ context.Context, u *domain.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *casUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *casUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *casUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *casUserRepo) GetByEmailIncludingDeleted(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *casUserRepo) GetByUsernameIncludingDeleted(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *casUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
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

func (r *casUserRepo) Update(_ context.Context, u *domain.User) error {
	stored, ok := r.users[u.ID]
	if !ok || stored.IsDeleted() {
		return repo.ErrNotFound
	}
	cp := *u
	cp.Version = stored.Version
	r.users[u.ID] = &cp
	return nil
}

func (r *casUserRepo) UpdateSecurity(_ context.Context, u *domain.User) error {
	if r.forceConflicts > 0 {
		r.forceConflicts--
		return repo.ErrVersionConflict
	}

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
	r.securityUpdates++
	return nil
}

func (r *casUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return repo.ErrNotFound
	}
	u.Status = domain.StatusDeleted
	return nil
}

func (r *casUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.IsDeleted() {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ repo.UserRepository = (*casUserRepo)(nil)

// ==== Helpers ====

func newPasswordUser(t *testing.T, plaintext string) *domain.User {
	t.Helper()
	hash, err := password.Hash(plaintext)
	require.NoError(t, err)
	return domain.NewUser("user@example.com", hash, "testuser")
}

func fixedClock() *clock.Fixed {
	return &clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// ==== Tests ====

func TestVerifyUser_CorrectAndWrongPassword(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	store := credstore.NewStore(newCASUserRepo(u), fixedClock(), 1)

	require.True(t, store.VerifyUser(u, "correct horse battery staple"))
	require.False(t, store.VerifyUser(u, "wrong password"))
}

func TestVerifyUser_ThirdPartyOnly_ClosedFailure(t *testing.T) {
	u := domain.NewThirdPartyUser("sso@example.com")
	store := credstore.NewStore(newCASUserRepo(u), fixedClock(), 1)

	// Аккаунт без парольного входа: любой пароль отклоняется, ошибки нет.
	require.False(t, store.VerifyUser(u, "any password"))
}

func TestRecordFailedAttempt_IncrementsCounterAndTimestamp(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	repoFake := newCASUserRepo(u)
	clk := fixedClock()
	store := credstore.NewStore(repoFake, clk, 1)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.RecordFailedAttempt(context.Background(), u.ID))
	}

	stored, err := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastFailedLogin)
	require.Equal(t, clk.Now(), *stored.LastFailedLogin)
}

func TestRecordSuccess_ResetsCounter(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	repoFake := newCASUserRepo(u)
	clk := fixedClock()
	store := credstore.NewStore(repoFake, clk, 1)

	require.NoError(t, store.RecordFailedAttempt(context.Background(), u.ID))
	require.NoError(t, store.RecordFailedAttempt(context.Background(), u.ID))
	require.NoError(t, store.RecordSuccess(context.Background(), u.ID))

	stored, err := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastLogin)
	require.Equal(t, clk.Now(), *stored.LastLogin)
}

func TestMutate_RetriesOnVersionConflict(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	repoFake := newCASUserRepo(u)
	repoFake.forceConflicts = 2 // первые две попытки конфликтуют
	store := credstore.NewStore(repoFake, fixedClock(), 1)

	require.NoError(t, store.RecordFailedAttempt(context.Background(), u.ID))

	stored, err := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.FailedLoginAttempts)
}

func TestMutate_TooMuchContention(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	repoFake := newCASUserRepo(u)
	repoFake.forceConflicts = 100 // конфликт на каждой попытке
	store := credstore.NewStore(repoFake, fixedClock(), 1)

	err := store.RecordFailedAttempt(context.Background(), u.ID)
	require.ErrorIs(t, err, credstore.ErrTooMuchContention)
}

func TestSetPassword_ClearsResetTokenAndRejectsOldPassword(t *testing.T) {
	u := newPasswordUser(t, "old password value 123")
	repoFake := newCASUserRepo(u)
	clk := fixedClock()
	store := credstore.NewStore(repoFake, clk, 1)

	expires := clk.Now().Add(30 * time.Minute)
	require.NoError(t, store.SetResetToken(context.Background(), u.ID, "opaque-token", expires))

	require.NoError(t, store.SetPassword(context.Background(), u.ID, "brand new password 456"))

	stored, err := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PasswordResetToken)
	require.Nil(t, stored.PasswordResetExpires)

	require.True(t, store.VerifyUser(stored, "brand new password 456"))
	require.False(t, store.VerifyUser(stored, "old password value 123"))
}

func TestSetPassword_WeakPasswordRejected(t *testing.T) {
	u := newPasswordUser(t, "old password value 123")
	repoFake := newCASUserRepo(u)
	store := credstore.NewStore(repoFake, fixedClock(), 60)

	err := store.SetPassword(context.Background(), u.ID, "aaa")
	require.ErrorIs(t, err, credstore.ErrWeakPassword)

	// Старый пароль остаётся действительным.
	stored, getErr := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, getErr)
	require.True(t, store.VerifyUser(stored, "old password value 123"))
}

func TestSetResetToken_OverwritesPreviousToken(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	repoFake := newCASUserRepo(u)
	clk := fixedClock()
	store := credstore.NewStore(repoFake, clk, 1)

	require.NoError(t, store.SetResetToken(context.Background(), u.ID, "token-one", clk.Now().Add(30*time.Minute)))
	require.NoError(t, store.SetResetToken(context.Background(), u.ID, "token-two", clk.Now().Add(30*time.Minute)))

	// Первый токен больше никому не принадлежит.
	_, err := repoFake.GetByResetToken(context.Background(), "token-one")
	require.ErrorIs(t, err, repo.ErrNotFound)

	stored, err := repoFake.GetByResetToken(context.Background(), "token-two")
	require.NoError(t, err)
	require.Equal(t, u.ID, stored.ID)
}

func TestMarkEmailVerified(t *testing.T) {
	u := newPasswordUser(t, "correct horse battery staple")
	u.IsEmailVerified = false
	repoFake := newCASUserRepo(u)
	store := credstore.NewStore(repoFake, fixedClock(), 1)

	require.NoError(t, store.MarkEmailVerified(context.Background(), u.ID))

	stored, err := repoFake.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, stored.IsEmailVerified)
}
