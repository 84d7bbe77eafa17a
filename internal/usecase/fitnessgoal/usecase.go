package fitnessgoal

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domain "personafit/internal/domain/fitnessgoal"
	repo "personafit/internal/repository/interfaces"
	"personafit/pkg/clock"
)

// ErrOwnerUnavailable возвращается при попытке установить цель
// для несуществующего или удалённого пользователя.
var ErrOwnerUnavailable = errors.New("goal owner not found or deleted")

// ErrNoFieldsToUpdate возвращается, когда частичное обновление
// не содержит ни одного поля.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// Service описывает usecase-слой фитнес-целей: у пользователя
// не более одной цели, установка перезаписывает существующую.
type Service interface {
	// Get возвращает цель пользователя.
	// Возвращает ErrNotFound из слоя хранилища, если цель не установлена.
	Get(ctx context.Context, userID uuid.UUID) (*domain.FitnessGoal, error)

	// Set валидирует и сохраняет цель пользователя, создавая новую
	// или перезаписывая существующую. Возвращает сохранённую цель
	// и признак того, что цель была создана впервые.
	Set(ctx context.Context, userID uuid.UUID, input GoalInput) (*domain.FitnessGoal, bool, error)

	// UpdateFields частично обновляет существующую цель.
	// Возвращает ErrNotFound, если цели нет, и ErrNoFieldsToUpdate
	// для пустого набора изменений.
	UpdateFields(ctx context.Context, userID uuid.UUID, input GoalUpdateInput) (*domain.FitnessGoal, error)
}

// GoalInput — данные устанавливаемой цели.
type GoalInput struct {
	Goal            string
	DaysPerWeek     int
	WorkoutDuration int
	RestDays        []string
}

// GoalUpdateInput — изменяемые поля цели. Все поля опциональны;
// nil в RestDays означает "не менять".
type GoalUpdateInput struct {
	Goal            *string
	DaysPerWeek     *int
	WorkoutDuration *int
	RestDays        []string
}

type service struct {
	goals repo.FitnessGoalRepository
	users repo.UserRepository
	clk   clock.Clock
}

// NewService создаёт новый сервис фитнес-целей.
func NewService(goals repo.FitnessGoalRepository, users repo.UserRepository, clk clock.Clock) Service {
	return &service{goals: goals, users: users, clk: clk}
}

// Get возвращает цель пользователя.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*domain.FitnessGoal, error) {
	return s.goals.GetByUserID(ctx, userID)
}

// Set валидирует и сохраняет цель, перезаписывая существующую.
func (s *service) Set(ctx context.Context, userID uuid.UUID, input GoalInput) (*domain.FitnessGoal, bool, error) {
	// Цель должна принадлежать существующему, не удалённому пользователю.
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrOwnerUnavailable
		}
		return nil, false, err
	}

	now := s.clk.Now()
	goal := &domain.FitnessGoal{
		ID:              uuid.New(),
		UserID:          userID,
		Goal:            input.Goal,
		DaysPerWeek:     input.DaysPerWeek,
		WorkoutDuration: input.WorkoutDuration,
		RestDays:        input.RestDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created := true
	if existing, err := s.goals.GetByUserID(ctx, userID); err == nil {
		// Перезапись: id и created_at существующей цели сохраняются.
		goal.ID = existing.ID
		goal.CreatedAt = existing.CreatedAt
		created = false
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	if err := goal.Validate(); err != nil {
		return nil, false, err
	}

	if err := s.goals.Upsert(ctx, goal); err != nil {
		return nil, false, err
	}
	return goal, created, nil
}

// UpdateFields частично обновляет существующую цель.
func (s *service) UpdateFields(ctx context.Context, userID uuid.UUID, input GoalUpdateInput) (*domain.FitnessGoal, error) {
	if input.Goal == nil && input.DaysPerWeek == nil && input.WorkoutDuration == nil && input.RestDays == nil {
		return nil, ErrNoFieldsToUpdate
	}

	goal, err := s.goals.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Goal != nil {
		goal.Goal = *input.Goal
	}
	if input.DaysPerWeek != nil {
		goal.DaysPerWeek = *input.DaysPerWeek
	}
	if input.WorkoutDuration != nil {
		goal.WorkoutDuration = *input.WorkoutDuration
	}
	if input.RestDays != nil {
		goal.RestDays = input.RestDays
	}

	goal.UpdatedAt = s.clk.Now()

	if err := goal.Validate(); err != nil {
		return nil, err
	}

	if err := s.goals.Upsert(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}
