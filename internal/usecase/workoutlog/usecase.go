package workoutlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	userdomain "personafit/internal/domain/user"
	domain "personafit/internal/domain/workoutlog"
	repo "personafit/internal/repository/interfaces"
	"personafit/pkg/clock"
)

// ErrForbidden возвращается, когда запись журнала пытается изменить
// не её владелец и не модератор/администратор.
var ErrForbidden = errors.New("not allowed to modify this workout log")

// ErrOwnerUnavailable возвращается при попытке добавить запись
// для несуществующего или удалённого пользователя.
var ErrOwnerUnavailable = errors.New("log owner not found or deleted")

// Service описывает usecase-слой журнала тренировок:
// добавление записей и агрегацию метрик за период.
type Service interface {
	// AppendLog валидирует и сохраняет новую запись журнала.
	// Владелец должен существовать и не быть удалённым.
	AppendLog(ctx context.Context, userID uuid.UUID, input LogInput) (*domain.DailyWorkoutLog, error)

	// Aggregate считает производные метрики по записям пользователя
	// за включительный диапазон дат. Пустой диапазон — нулевой результат.
	Aggregate(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.AggregateResult, error)

	// ListLogs возвращает записи пользователя за включительный диапазон дат.
	ListLogs(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.DailyWorkoutLog, error)

	// UpdateLog обновляет поля записи. Разрешено владельцу записи,
	// модератору или администратору; остальным — ErrForbidden.
	UpdateLog(ctx context.Context, actorID uuid.UUID, actorRole userdomain.Role, logID uuid.UUID, input LogUpdateInput) (*domain.DailyWorkoutLog, error)
}

// LogInput — данные новой записи журнала.
type LogInput struct {
	LogDate            time.Time
	WorkoutContent     string
	TotalWeightLost    float64
	TotalCaloriesBurnt float64
	AvgWorkoutDuration int
}

// LogUpdateInput — изменяемые поля записи. Все поля опциональны.
type LogUpdateInput struct {
	WorkoutContent     *string
	TotalWeightLost    *float64
	TotalCaloriesBurnt *float64
	AvgWorkoutDuration *int
}

type service struct {
	logs  repo.WorkoutLogRepository
	users repo.UserRepository
	clk   clock.Clock

	// allowNegativeWeightLost разрешает отрицательный total_weight_lost
	// (обратный набор веса); знак не зафиксирован схемой источника.
	allowNegativeWeightLost bool
}

// NewService создаёт новый сервис журнала тренировок.
func NewService(logs repo.WorkoutLogRepository, users repo.UserRepository, clk clock.Clock, allowNegativeWeightLost bool) Service {
	return &service{
		logs:                    logs,
		users:                   users,
		clk:                     clk,
		allowNegativeWeightLost: allowNegativeWeightLost,
	}
}

// AppendLog валидирует и сохраняет новую запись журнала.
func (s *service) AppendLog(ctx context.Context, userID uuid.UUID, input LogInput) (*domain.DailyWorkoutLog, error) {
	now := s.clk.Now()

	logDate := input.LogDate
	if logDate.IsZero() {
		// Дата не указана — используем сегодняшний день.
		logDate = now.Truncate(24 * time.Hour)
	}

	entry := &domain.DailyWorkoutLog{
		ID:                 uuid.New(),
		UserID:             userID,
		LogDate:            logDate,
		WorkoutContent:     input.WorkoutContent,
		TotalWeightLost:    input.TotalWeightLost,
		TotalCaloriesBurnt: input.TotalCaloriesBurnt,
		AvgWorkoutDuration: input.AvgWorkoutDuration,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// Валидация выполняется до обращения к хранилищу: некорректная
	// запись никогда не применяется частично.
	if err := entry.Validate(s.allowNegativeWeightLost); err != nil {
		return nil, err
	}

	// Запись должна ссылаться на существующего, не удалённого пользователя.
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOwnerUnavailable
		}
		return nil, err
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Aggregate считает метрики по записям за включительный диапазон дат.
func (s *service) Aggregate(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.AggregateResult, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: to is before from")
	}
	return s.logs.AggregateByDateRange(ctx, userID, from, to)
}

// ListLogs возвращает записи пользователя за включительный диапазон дат.
func (s *service) ListLogs(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.DailyWorkoutLog, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: to is before from")
	}
	return s.logs.ListByDateRange(ctx, userID, from, to)
}

// UpdateLog обновляет поля записи с проверкой прав:
// изменять запись может её владелец, модератор или администратор.
func (s *service) UpdateLog(ctx context.Context, actorID uuid.UUID, actorRole userdomain.Role, logID uuid.UUID, input LogUpdateInput) (*domain.DailyWorkoutLog, error) {
	entry, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	if entry.UserID != actorID && !userdomain.IsPrivileged(actorRole) {
		return nil, ErrForbidden
	}

	if input.WorkoutContent != nil {
		entry.WorkoutContent = *input.WorkoutContent
	}
	if input.TotalWeightLost != nil {
		entry.TotalWeightLost = *input.TotalWeightLost
	}
	if input.TotalCaloriesBurnt != nil {
		entry.TotalCaloriesBurnt = *input.TotalCaloriesBurnt
	}
	if input.AvgWorkoutDuration != nil {
		entry.AvgWorkoutDuration = *input.AvgWorkoutDuration
	}

	entry.UpdatedAt = s.clk.Now()

	if err := entry.Validate(s.allowNegativeWeightLost); err != nil {
		return nil, err
	}

	if err := s.logs.Update(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
