package workoutlog_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	userdomain "personafit/internal/domain/user"
	domain "personafit/internal/domain/workoutlog"
	repo "personafit/internal/repository/interfaces"
	workoutuc "personafit/internal/usecase/workoutlog"
	"personafit/pkg/clock"
)

// ==== Fakes ====

// fakeLogRepo хранит записи в памяти и повторяет семантику SQL-агрегации:
// метрики всегда выводятся из записей за период, пустой период — нули.
type fakeLogRepo struct {
	logs map[uuid.UUID]*domain.DailyWorkoutLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: map[uuid.UUID]*domain.DailyWorkoutLog{}}
}

func (r *fakeLogRepo) Create(_ context.Context, l *domain.DailyWorkoutLog) error {
	cp := *l
	r.logs[l.ID] = &cp
	return nil
}

func (r *fakeLogRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.DailyWorkoutLog, error) {
	l, ok := r.logs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLogRepo) inRange(l *domain.DailyWorkoutLog, userID uuid.UUID, from, to time.Time) bool {
	if l.UserID != userID {
		return false
	}
	return !l.LogDate.Before(from) && !l.LogDate.After(to)
}

func (r *fakeLogRepo) ListByDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.DailyWorkoutLog, error) {
	var out []*domain.DailyWorkoutLog
	for _, l := range r.logs {
		if r.inRange(l, userID, from, to) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LogDate.Equal(out[j].LogDate) {
			return out[i].LogDate.Before(out[j].LogDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeLogRepo) AggregateByDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) (*domain.AggregateResult, error) {
	res := &domain.AggregateResult{}
	var durationSum float64
	for _, l := range r.logs {
		if r.inRange(l, userID, from, to) {
			res.TotalWeightLost += l.TotalWeightLost
			res.TotalCaloriesBurnt += l.TotalCaloriesBurnt
			durationSum += float64(l.AvgWorkoutDuration)
			res.Entries++
		}
	}
	if res.Entries > 0 {
		res.AvgDuration = durationSum / float64(res.Entries)
	}
	return res, nil
}

func (r *fakeLogRepo) Update(_ context.Context, l *domain.DailyWorkoutLog) error {
	if _, ok := r.logs[l.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *l
	r.logs[l.ID] = &cp
	return nil
}

var _ repo.WorkoutLogRepository = (*fakeLogRepo)(nil)

// fakeUserRepo отвечает только на GetByID — больше usecase журнала не нужно.
type fakeUserRepo struct {
	users map[uuid.UUID]*userdomain.User
}

func (r *fakeUserRepo) Create(context.Context, *userdomain.User) error { return nil }
func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*userdomain.User, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, repo.ErrNotFound
	}
	return u, nil
}
func (r *fakeUserRepo) GetByEmail(context.Context, string) (*userdomain.User, error) {
	return nil, repo.ErrNotFound
}
func (r *fakeUserRepo) GetByUsername(context.Context, string) (*userdomain.User, error) {
	return nil, repo.ErrNotFound
}
func (r *fakeUserRepo) GetByEmailIncludingDeleted(context.Context, string) (*userdomain.User, error) {
	return nil, repo.ErrNotFound
}
func (r *fakeUserRepo) GetByUsernameIncludingDeleted(context.Context, string) (*userdomain.User, error) {
	return nil, repo.ErrNotFound
}
func (r *fakeUserRepo) GetByResetToken(context.Context, string) (*userdomain.User, error) {
	return nil, repo.ErrNotFound
}
func (r *fakeUserRepo) Update(context.Context, *userdomain.User) error         { return nil }
func (r *fakeUserRepo) UpdateSecurity(context.Context, *userdomain.User) error { return nil }
func (r *fakeUserRepo) SoftDelete(context.Context, uuid.UUID) error            { return nil }
func (r *fakeUserRepo) List(context.Context) ([]*userdomain.User, error)       { return nil, nil }

var _ repo.UserRepository = (*fakeUserRepo)(nil)

// ==== Helpers ====

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T, allowNegative bool) (workoutuc.Service, *fakeLogRepo, *userdomain.User, *clock.Fixed) {
	t.Helper()

	owner := &userdomain.User{
		ID:     uuid.New(),
		Status: userdomain.StatusActive,
		Role:   userdomain.RoleUser,
	}
	logs := newFakeLogRepo()
	users := &fakeUserRepo{users: map[uuid.UUID]*userdomain.User{owner.ID: owner}}
	clk := &clock.Fixed{T: time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)}

	return workoutuc.NewService(logs, users, clk, allowNegative), logs, owner, clk
}

func appendLog(t *testing.T, svc workoutuc.Service, userID uuid.UUID, d time.Time, weight, calories float64, duration int) *domain.DailyWorkoutLog {
	t.Helper()
	entry, err := svc.AppendLog(context.Background(), userID, workoutuc.LogInput{
		LogDate:            d,
		TotalWeightLost:    weight,
		TotalCaloriesBurnt: calories,
		AvgWorkoutDuration: duration,
	})
	require.NoError(t, err)
	return entry
}

// ==== AppendLog ====

func TestAppendLog_DefaultsToToday(t *testing.T) {
	svc, logs, owner, clk := newService(t, true)

	entry, err := svc.AppendLog(context.Background(), owner.ID, workoutuc.LogInput{
		TotalCaloriesBurnt: 200,
		AvgWorkoutDuration: 45,
	})
	require.NoError(t, err)
	require.Equal(t, clk.Now().Truncate(24*time.Hour), entry.LogDate)

	stored, err := logs.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, entry.LogDate, stored.LogDate)
}

func TestAppendLog_InvalidDuration(t *testing.T) {
	svc, logs, owner, _ := newService(t, true)

	_, err := svc.AppendLog(context.Background(), owner.ID, workoutuc.LogInput{
		LogDate:            day(1),
		AvgWorkoutDuration: 0,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "avg_workout_duration", vErr.Field)

	// Некорректная запись не сохраняется.
	require.Empty(t, logs.logs)
}

func TestAppendLog_NegativeCalories(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	_, err := svc.AppendLog(context.Background(), owner.ID, workoutuc.LogInput{
		LogDate:            day(1),
		TotalCaloriesBurnt: -10,
		AvgWorkoutDuration: 30,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "total_calories_burnt", vErr.Field)
}

func TestAppendLog_NegativeWeightLost_PolicyControlled(t *testing.T) {
	// Отрицательный total_weight_lost (набор веса) разрешён политикой.
	allowSvc, _, owner, _ := newService(t, true)
	entry, err := allowSvc.AppendLog(context.Background(), owner.ID, workoutuc.LogInput{
		LogDate:            day(1),
		TotalWeightLost:    -0.4,
		AvgWorkoutDuration: 30,
	})
	require.NoError(t, err)
	require.Equal(t, -0.4, entry.TotalWeightLost)

	// При запрете политика отклоняет отрицательные значения.
	strictSvc, _, strictOwner, _ := newService(t, false)
	_, err = strictSvc.AppendLog(context.Background(), strictOwner.ID, workoutuc.LogInput{
		LogDate:            day(1),
		TotalWeightLost:    -0.4,
		AvgWorkoutDuration: 30,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "total_weight_lost", vErr.Field)
}

func TestAppendLog_UnknownOwner(t *testing.T) {
	svc, _, _, _ := newService(t, true)

	_, err := svc.AppendLog(context.Background(), uuid.New(), workoutuc.LogInput{
		LogDate:            day(1),
		AvgWorkoutDuration: 30,
	})
	require.ErrorIs(t, err, workoutuc.ErrOwnerUnavailable)
}

func TestAppendLog_MultipleEntriesSameDay(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	// Несколько тренировок за один день — допустимо.
	appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)
	appendLog(t, svc, owner.ID, day(5), 0.2, 120, 40)
	appendLog(t, svc, owner.ID, day(5), 0.0, 80, 25)

	entries, err := svc.ListLogs(context.Background(), owner.ID, day(5), day(5))
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

// ==== Aggregate ====

func TestAggregate_EmptyRange_ZeroResult(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	res, err := svc.Aggregate(context.Background(), owner.ID, day(1), day(28))
	require.NoError(t, err)
	require.Zero(t, res.TotalWeightLost)
	require.Zero(t, res.TotalCaloriesBurnt)
	require.Zero(t, res.AvgDuration)
	require.Zero(t, res.Entries)
}

func TestAggregate_SameDayEntriesCountedSeparately(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)
	appendLog(t, svc, owner.ID, day(5), 0.2, 120, 40)
	appendLog(t, svc, owner.ID, day(5), 0.0, 80, 25)

	res, err := svc.Aggregate(context.Background(), owner.ID, day(5), day(5))
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Entries)
	require.InDelta(t, 0.3, res.TotalWeightLost, 1e-9)
	require.InDelta(t, 300.0, res.TotalCaloriesBurnt, 1e-9)
	require.InDelta(t, 95.0/3.0, res.AvgDuration, 1e-9)
}

func TestAggregate_RangeIsInclusive(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	appendLog(t, svc, owner.ID, day(1), 0, 100, 30)
	appendLog(t, svc, owner.ID, day(7), 0, 200, 30)
	appendLog(t, svc, owner.ID, day(8), 0, 400, 30) // вне диапазона

	res, err := svc.Aggregate(context.Background(), owner.ID, day(1), day(7))
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Entries)
	require.InDelta(t, 300.0, res.TotalCaloriesBurnt, 1e-9)
}

func TestAggregate_InvalidRange(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	_, err := svc.Aggregate(context.Background(), owner.ID, day(7), day(1))
	require.Error(t, err)
}

func TestAggregate_IgnoresOtherUsers(t *testing.T) {
	svc, logs, owner, _ := newService(t, true)

	appendLog(t, svc, owner.ID, day(5), 0, 100, 30)

	// Запись другого пользователя в том же диапазоне.
	other := &domain.DailyWorkoutLog{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		LogDate:            day(5),
		TotalCaloriesBurnt: 999,
		AvgWorkoutDuration: 60,
	}
	require.NoError(t, logs.Create(context.Background(), other))

	res, err := svc.Aggregate(context.Background(), owner.ID, day(5), day(5))
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Entries)
	require.InDelta(t, 100.0, res.TotalCaloriesBurnt, 1e-9)
}

// ==== UpdateLog ====

func TestUpdateLog_OwnerCanUpdate(t *testing.T) {
	svc, _, owner, clk := newService(t, true)
	entry := appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)

	clk.Advance(time.Hour)

	newCalories := 150.0
	updated, err := svc.UpdateLog(context.Background(), owner.ID, userdomain.RoleUser, entry.ID, workoutuc.LogUpdateInput{
		TotalCaloriesBurnt: &newCalories,
	})
	require.NoError(t, err)
	require.Equal(t, 150.0, updated.TotalCaloriesBurnt)
	require.Equal(t, clk.Now(), updated.UpdatedAt)
	// Остальные поля не тронуты.
	require.Equal(t, 30, updated.AvgWorkoutDuration)
}

func TestUpdateLog_StrangerForbidden(t *testing.T) {
	svc, _, owner, _ := newService(t, true)
	entry := appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)

	_, err := svc.UpdateLog(context.Background(), uuid.New(), userdomain.RoleUser, entry.ID, workoutuc.LogUpdateInput{})
	require.ErrorIs(t, err, workoutuc.ErrForbidden)
}

func TestUpdateLog_ModeratorAllowed(t *testing.T) {
	svc, _, owner, _ := newService(t, true)
	entry := appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)

	content := "скорректировано модератором"
	updated, err := svc.UpdateLog(context.Background(), uuid.New(), userdomain.RoleModerator, entry.ID, workoutuc.LogUpdateInput{
		WorkoutContent: &content,
	})
	require.NoError(t, err)
	require.Equal(t, content, updated.WorkoutContent)
}

func TestUpdateLog_ValidationAppliesToResult(t *testing.T) {
	svc, logs, owner, _ := newService(t, true)
	entry := appendLog(t, svc, owner.ID, day(5), 0.1, 100, 30)

	badDuration := 0
	_, err := svc.UpdateLog(context.Background(), owner.ID, userdomain.RoleUser, entry.ID, workoutuc.LogUpdateInput{
		AvgWorkoutDuration: &badDuration,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	// Хранилище не изменилось.
	stored, getErr := logs.GetByID(context.Background(), entry.ID)
	require.NoError(t, getErr)
	require.Equal(t, 30, stored.AvgWorkoutDuration)
}

func TestUpdateLog_NotFound(t *testing.T) {
	svc, _, owner, _ := newService(t, true)

	_, err := svc.UpdateLog(context.Background(), owner.ID, userdomain.RoleUser, uuid.New(), workoutuc.LogUpdateInput{})
	require.ErrorIs(t, err, repo.ErrNotFound)
}
