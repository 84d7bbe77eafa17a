package workoutlog_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"personafit/internal/domain/workoutlog"
)

func validLog() *workoutlog.DailyWorkoutLog {
	return &workoutlog.DailyWorkoutLog{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		LogDate:            time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TotalWeightLost:    0.2,
		TotalCaloriesBurnt: 250,
		AvgWorkoutDuration: 45,
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validLog().Validate(true))
	require.NoError(t, validLog().Validate(false))
}

func TestValidate_RequiredFields(t *testing.T) {
	l := validLog()
	l.UserID = uuid.Nil
	requireField(t, l.Validate(true), "user_id")

	l = validLog()
	l.LogDate = time.Time{}
	requireField(t, l.Validate(true), "log_date")
}

func TestValidate_DurationAtLeastOneMinute(t *testing.T) {
	l := validLog()
	l.AvgWorkoutDuration = 0
	requireField(t, l.Validate(true), "avg_workout_duration")

	l.AvgWorkoutDuration = 1
	require.NoError(t, l.Validate(true))
}

func TestValidate_CaloriesNonNegative(t *testing.T) {
	l := validLog()
	l.TotalCaloriesBurnt = -1
	requireField(t, l.Validate(true), "total_calories_burnt")

	l.TotalCaloriesBurnt = 0
	require.NoError(t, l.Validate(true))
}

func TestValidate_NegativeWeightLostByPolicy(t *testing.T) {
	l := validLog()
	l.TotalWeightLost = -0.5

	// Разрешено: отрицательное значение означает набор веса.
	require.NoError(t, l.Validate(true))

	// Запрещено политикой.
	requireField(t, l.Validate(false), "total_weight_lost")
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *workoutlog.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, field, vErr.Field)
}
