package workoutlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DailyWorkoutLog представляет одну запись журнала тренировок.
// На одну дату у пользователя может быть несколько записей
// (несколько тренировок за день) — уникальность по (user_id, log_date)
// намеренно не требуется.
type DailyWorkoutLog struct {
	ID     uuid.UUID // Уникальный идентификатор записи
	UserID uuid.UUID // Владелец записи (не владеющая ссылка на User)

	LogDate            time.Time // Дата тренировки (хранится как date)
	WorkoutContent     string    // Свободное описание тренировки
	TotalWeightLost    float64   // Потерянный вес, кг (знак настраивается политикой)
	TotalCaloriesBurnt float64   // Сожжённые калории (>= 0)
	AvgWorkoutDuration int       // Средняя длительность тренировки, минуты (>= 1)

	CreatedAt time.Time // Время создания (неизменяемое)
	UpdatedAt time.Time // Время последнего обновления
}

// AggregateResult — производные метрики по журналу за период.
// Метрики всегда выводятся из набора записей за период; скрытых
// накопителей, способных разойтись с журналом, нет.
type AggregateResult struct {
	TotalWeightLost    float64 // Сумма потерянного веса за период
	TotalCaloriesBurnt float64 // Сумма сожжённых калорий за период
	AvgDuration        float64 // Среднее арифметическое длительности по записям
	Entries            int64   // Число записей в периоде
}

// ValidationError описывает ошибку валидации записи журнала.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Validate проверяет инварианты записи.
// allowNegativeWeightLost управляет допустимостью отрицательного
// total_weight_lost (обратный набор веса).
func (l *DailyWorkoutLog) Validate(allowNegativeWeightLost bool) error {
	if l.UserID == uuid.Nil {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if l.LogDate.IsZero() {
		return &ValidationError{Field: "log_date", Reason: "is required"}
	}
	if l.AvgWorkoutDuration < 1 {
		return &ValidationError{Field: "avg_workout_duration", Reason: "must be >= 1 minute"}
	}
	if l.TotalCaloriesBurnt < 0 {
		return &ValidationError{Field: "total_calories_burnt", Reason: "must be >= 0"}
	}
	if !allowNegativeWeightLost && l.TotalWeightLost < 0 {
		return &ValidationError{Field: "total_weight_lost", Reason: "must be >= 0"}
	}
	return nil
}
