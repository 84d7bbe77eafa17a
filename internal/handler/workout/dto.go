package workout

import (
	"time"

	domain "personafit/internal/domain/workoutlog"
)

// dateLayout — формат дат журнала во внешнем API (только дата, без времени).
const dateLayout = "2006-01-02"

// CreateLogRequest описывает тело запроса добавления записи журнала.
type CreateLogRequest struct {
	// LogDate в формате YYYY-MM-DD; если не указана — текущий день.
	LogDate            string  `json:"log_date,omitempty"`
	WorkoutContent     string  `json:"workout_content,omitempty"`
	TotalWeightLost    float64 `json:"total_weight_lost"`
	TotalCaloriesBurnt float64 `json:"total_calories_burnt" binding:"gte=0"`
	AvgWorkoutDuration int     `json:"avg_workout_duration" binding:"required,gte=1"`
}

// UpdateLogRequest описывает тело запроса частичного обновления записи.
type UpdateLogRequest struct {
	WorkoutContent     *string  `json:"workout_content,omitempty"`
	TotalWeightLost    *float64 `json:"total_weight_lost,omitempty"`
	TotalCaloriesBurnt *float64 `json:"total_calories_burnt,omitempty" binding:"omitempty,gte=0"`
	AvgWorkoutDuration *int     `json:"avg_workout_duration,omitempty" binding:"omitempty,gte=1"`
}

// LogResponse — одна запись журнала в ответе API.
type LogResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	LogDate            string    `json:"log_date"`
	WorkoutContent     string    `json:"workout_content,omitempty"`
	TotalWeightLost    float64   `json:"total_weight_lost"`
	TotalCaloriesBurnt float64   `json:"total_calories_burnt"`
	AvgWorkoutDuration int       `json:"avg_workout_duration"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toLogResponse(l *domain.DailyWorkoutLog) LogResponse {
	return LogResponse{
		ID:                 l.ID.String(),
		UserID:             l.UserID.String(),
		LogDate:            l.LogDate.Format(dateLayout),
		WorkoutContent:     l.WorkoutContent,
		TotalWeightLost:    l.TotalWeightLost,
		TotalCaloriesBurnt: l.TotalCaloriesBurnt,
		AvgWorkoutDuration: l.AvgWorkoutDuration,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// ProgressResponse — агрегированные метрики журнала за период.
// Нулевые значения при отсутствии записей — нормальный результат, не ошибка.
type ProgressResponse struct {
	From               string  `json:"from"`
	To                 string  `json:"to"`
	TotalWeightLost    float64 `json:"total_weight_lost"`
	TotalCaloriesBurnt float64 `json:"total_calories_burnt"`
	AvgDuration        float64 `json:"avg_duration"`
	Entries            int64   `json:"entries"`
}
