package workout

import (
	"time"

	goaldomain "personafit/internal/domain/fitnessgoal"
)

// SetGoalRequest описывает тело запроса установки фитнес-цели.
type SetGoalRequest struct {
	Goal            string   `json:"goal" binding:"required,oneof=strength weight_loss flexibility"`
	DaysPerWeek     int      `json:"days_per_week" binding:"required,gte=1,lte=7"`
	WorkoutDuration int      `json:"workout_duration" binding:"required,gte=10"`
	RestDays        []string `json:"rest_days,omitempty"`
}

// UpdateGoalRequest описывает тело запроса частичного обновления цели.
// nil в rest_days означает "не менять".
type UpdateGoalRequest struct {
	Goal            *string  `json:"goal,omitempty" binding:"omitempty,oneof=strength weight_loss flexibility"`
	DaysPerWeek     *int     `json:"days_per_week,omitempty" binding:"omitempty,gte=1,lte=7"`
	WorkoutDuration *int     `json:"workout_duration,omitempty" binding:"omitempty,gte=10"`
	RestDays        []string `json:"rest_days,omitempty"`
}

// GoalResponse — фитнес-цель в ответе API.
type GoalResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Goal            string    `json:"goal"`
	DaysPerWeek     int       `json:"days_per_week"`
	WorkoutDuration int       `json:"workout_duration"`
	RestDays        []string  `json:"rest_days"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toGoalResponse(g *goaldomain.FitnessGoal) GoalResponse {
	restDays := g.RestDays
	if restDays == nil {
		restDays = []string{}
	}
	return GoalResponse{
		ID:              g.ID.String(),
		UserID:          g.UserID.String(),
		Goal:            g.Goal,
		DaysPerWeek:     g.DaysPerWeek,
		WorkoutDuration: g.WorkoutDuration,
		RestDays:        restDays,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}
