package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "personafit/internal/domain/workoutlog"
)

// WorkoutLogRepository определяет контракт для работы с журналом тренировок.
//
// Записи независимы друг от друга: вставка не требует межзаписной
// блокировки, а агрегация читает согласованный на момент запроса срез.
type WorkoutLogRepository interface {
	// Create сохраняет новую запись журнала.
	Create(ctx context.Context, log *domain.DailyWorkoutLog) error

	// GetByID возвращает запись по идентификатору.
	// Возвращает (nil, ErrNotFound), если записи нет.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DailyWorkoutLog, error)

	// ListByDateRange возвращает все записи пользователя за включительный
	// диапазон дат, отсортированные по дате и времени создания.
	ListByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.DailyWorkoutLog, error)

	// AggregateByDateRange считает производные метрики по записям
	// пользователя за включительный диапазон дат. Пустой диапазон —
	// нулевой результат, не ошибка. Записи за одну дату учитываются
	// каждая по отдельности.
	AggregateByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.AggregateResult, error)

	// Update обновляет изменяемые поля записи журнала.
	Update(ctx context.Context, log *domain.DailyWorkoutLog) error
}
