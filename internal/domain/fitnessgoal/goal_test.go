package fitnessgoal_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"personafit/internal/domain/fitnessgoal"
)

func validGoal() *fitnessgoal.FitnessGoal {
	return &fitnessgoal.FitnessGoal{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Goal:            fitnessgoal.GoalStrength,
		DaysPerWeek:     5,
		WorkoutDuration: 60,
		RestDays:        []string{"Saturday", "Sunday"},
	}
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *fitnessgoal.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, field, vErr.Field)
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validGoal().Validate())

	// Дни отдыха опциональны.
	g := validGoal()
	g.RestDays = nil
	require.NoError(t, g.Validate())
}

func TestValidate_Goal(t *testing.T) {
	for _, goal := range []string{fitnessgoal.GoalStrength, fitnessgoal.GoalWeightLoss, fitnessgoal.GoalFlexibility} {
		g := validGoal()
		g.Goal = goal
		require.NoError(t, g.Validate())
	}

	g := validGoal()
	g.Goal = "cardio"
	requireField(t, g.Validate(), "goal")

	g.Goal = ""
	requireField(t, g.Validate(), "goal")
}

func TestValidate_DaysPerWeek(t *testing.T) {
	g := validGoal()
	g.DaysPerWeek = 0
	requireField(t, g.Validate(), "days_per_week")

	g.DaysPerWeek = 8
	requireField(t, g.Validate(), "days_per_week")

	g.DaysPerWeek = 7
	require.NoError(t, g.Validate())
}

func TestValidate_WorkoutDuration(t *testing.T) {
	g := validGoal()
	g.WorkoutDuration = 9
	requireField(t, g.Validate(), "workout_duration")

	g.WorkoutDuration = 10
	require.NoError(t, g.Validate())
}

func TestValidate_RestDays(t *testing.T) {
	g := validGoal()
	g.RestDays = []string{"Saturday", "Funday"}
	requireField(t, g.Validate(), "rest_days")
}
