package fitnessgoal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Допустимые значения цели тренировок.
const (
	GoalStrength    = "strength"
	GoalWeightLoss  = "weight_loss"
	GoalFlexibility = "flexibility"
)

// validGoals — множество допустимых целей.
var validGoals = map[string]struct{}{
	GoalStrength:    {},
	GoalWeightLoss:  {},
	GoalFlexibility: {},
}

// validRestDays — допустимые названия дней отдыха.
var validRestDays = map[string]struct{}{
	"Monday":    {},
	"Tuesday":   {},
	"Wednesday": {},
	"Thursday":  {},
	"Friday":    {},
	"Saturday":  {},
	"Sunday":    {},
}

// FitnessGoal представляет фитнес-цель пользователя.
// У пользователя может быть не более одной цели: повторная установка
// перезаписывает существующую.
type FitnessGoal struct {
	ID     uuid.UUID // Уникальный идентификатор цели
	UserID uuid.UUID // Владелец цели (одна цель на пользователя)

	Goal            string   // Цель: strength, weight_loss или flexibility
	DaysPerWeek     int      // Тренировочных дней в неделю (1..7)
	WorkoutDuration int      // Планируемая длительность тренировки, минуты (>= 10)
	RestDays        []string // Дни отдыха (названия дней недели)

	CreatedAt time.Time // Время создания (неизменяемое)
	UpdatedAt time.Time // Время последнего обновления
}

// ValidationError описывает ошибку валидации фитнес-цели.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Validate проверяет инварианты цели.
func (g *FitnessGoal) Validate() error {
	if g.UserID == uuid.Nil {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if _, ok := validGoals[g.Goal]; !ok {
		return &ValidationError{Field: "goal", Reason: "must be one of strength, weight_loss, flexibility"}
	}
	if g.DaysPerWeek < 1 || g.DaysPerWeek > 7 {
		return &ValidationError{Field: "days_per_week", Reason: "must be between 1 and 7"}
	}
	if g.WorkoutDuration < 10 {
		return &ValidationError{Field: "workout_duration", Reason: "must be at least 10 minutes"}
	}
	for _, day := range g.RestDays {
		if _, ok := validRestDays[day]; !ok {
			return &ValidationError{Field: "rest_days", Reason: fmt.Sprintf("invalid rest day: %s", day)}
		}
	}
	return nil
}
