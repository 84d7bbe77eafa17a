package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "personafit/internal/domain/fitnessgoal"
	repo "personafit/internal/repository/interfaces"
)

// pgFitnessGoal представляет ORM-модель для таблицы fitness_goals.
// Уникальное ограничение на user_id гарантирует не более одной цели
// на пользователя.
type pgFitnessGoal struct {
	ID              string         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string         `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Goal            string         `gorm:"column:goal;type:text;not null"`
	DaysPerWeek     int            `gorm:"column:days_per_week;not null"`
	WorkoutDuration int            `gorm:"column:workout_duration;not null"`
	RestDays        pq.StringArray `gorm:"column:rest_days;type:text[]"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (pgFitnessGoal) TableName() string {
	return "fitness_goals"
}

func (m *pgFitnessGoal) toDomain() (*domain.FitnessGoal, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}

	return &domain.FitnessGoal{
		ID:              id,
		UserID:          userID,
		Goal:            m.Goal,
		DaysPerWeek:     m.DaysPerWeek,
		WorkoutDuration: m.WorkoutDuration,
		RestDays:        []string(m.RestDays),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func fromDomainFitnessGoal(g *domain.FitnessGoal) *pgFitnessGoal {
	return &pgFitnessGoal{
		ID:              g.ID.String(),
		UserID:          g.UserID.String(),
		Goal:            g.Goal,
		DaysPerWeek:     g.DaysPerWeek,
		WorkoutDuration: g.WorkoutDuration,
		RestDays:        pq.StringArray(g.RestDays),
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

// FitnessGoalRepository реализует repo.FitnessGoalRepository на GORM/Postgres.
type FitnessGoalRepository struct {
	db *gorm.DB
}

// Убедимся на этапе компиляции, что структура реализует интерфейс.
var _ repo.FitnessGoalRepository = (*FitnessGoalRepository)(nil)

// NewFitnessGoalRepository создает новый репозиторий фитнес-целей.
func NewFitnessGoalRepository(db *gorm.DB) *FitnessGoalRepository {
	return &FitnessGoalRepository{db: db}
}

// GetByUserID возвращает цель пользователя.
func (r *FitnessGoalRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.FitnessGoal, error) {
	var model pgFitnessGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Take(&model).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain()
}

// Upsert создаёт цель или перезаписывает существующую цель пользователя.
// ON CONFLICT по user_id сохраняет id и created_at исходной записи,
// поэтому конкурентные установки цели не порождают дублей.
func (r *FitnessGoalRepository) Upsert(ctx context.Context, goal *domain.FitnessGoal) error {
	model := fromDomainFitnessGoal(goal)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"goal", "days_per_week", "workout_duration", "rest_days", "updated_at",
			}),
		}).
		Create(model).Error
}
