package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "personafit/internal/domain/workoutlog"
	repo "personafit/internal/repository/interfaces"
)

// pgWorkoutLog представляет ORM-модель для таблицы daily_workout_logs.
// Уникального ограничения на (user_id, log_date) нет: за один день
// допускается несколько записей.
type pgWorkoutLog struct {
	ID                 string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID             string    `gorm:"column:user_id;type:uuid;not null"`
	LogDate            time.Time `gorm:"column:log_date;type:date;not null"`
	WorkoutContent     string    `gorm:"column:workout_content;type:text"`
	TotalWeightLost    float64   `gorm:"column:total_weight_lost;not null"`
	TotalCaloriesBurnt float64   `gorm:"column:total_calories_burnt;not null"`
	AvgWorkoutDuration int       `gorm:"column:avg_workout_duration;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (pgWorkoutLog) TableName() string {
	return "daily_workout_logs"
}

func (m *pgWorkoutLog) toDomain() (*domain.DailyWorkoutLog, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}

	return &domain.DailyWorkoutLog{
		ID:                 id,
		UserID:             userID,
		LogDate:            m.LogDate,
		WorkoutContent:     m.WorkoutContent,
		TotalWeightLost:    m.TotalWeightLost,
		TotalCaloriesBurnt: m.TotalCaloriesBurnt,
		AvgWorkoutDuration: m.AvgWorkoutDuration,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

func fromDomainWorkoutLog(l *domain.DailyWorkoutLog) *pgWorkoutLog {
	return &pgWorkoutLog{
		ID:                 l.ID.String(),
		UserID:             l.UserID.String(),
		LogDate:            l.LogDate,
		WorkoutContent:     l.WorkoutContent,
		TotalWeightLost:    l.TotalWeightLost,
		TotalCaloriesBurnt: l.TotalCaloriesBurnt,
		AvgWorkoutDuration: l.AvgWorkoutDuration,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// WorkoutLogRepository реализует repo.WorkoutLogRepository на GORM/Postgres.
type WorkoutLogRepository struct {
	db *gorm.DB
}

// Убедимся на этапе компиляции, что структура реализует интерфейс.
var _ repo.WorkoutLogRepository = (*WorkoutLogRepository)(nil)

// NewWorkoutLogRepository создает новый репозиторий журнала тренировок.
func NewWorkoutLogRepository(db *gorm.DB) *WorkoutLogRepository {
	return &WorkoutLogRepository{db: db}
}

// Create сохраняет новую запись журнала.
func (r *WorkoutLogRepository) Create(ctx context.Context, log *domain.DailyWorkoutLog) error {
	model := fromDomainWorkoutLog(log)
	return r.db.WithContext(ctx).Create(model).Error
}

// GetByID возвращает запись по идентификатору.
func (r *WorkoutLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DailyWorkoutLog, error) {
	var model pgWorkoutLog
	err := r.db.WithContext(ctx).
		Where("id = ?", id.String()).
		Take(&model).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain()
}

// ListByDateRange возвращает все записи пользователя за включительный диапазон дат.
func (r *WorkoutLogRepository) ListByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.DailyWorkoutLog, error) {
	var models []pgWorkoutLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND log_date >= ? AND log_date <= ?", userID.String(), from, to).
		Order("log_date ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*domain.DailyWorkoutLog, 0, len(models))
	for i := range models {
		l, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// aggregateRow — строка результата агрегирующего запроса.
type aggregateRow struct {
	TotalWeightLost    float64
	TotalCaloriesBurnt float64
	AvgDuration        float64
	Entries            int64
}

// AggregateByDateRange считает метрики прямо в БД одним запросом.
// COALESCE даёт нулевой результат на пустом диапазоне вместо NULL,
// так что отсутствие записей — не ошибка.
func (r *WorkoutLogRepository) AggregateByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.AggregateResult, error) {
	var row aggregateRow
	err := r.db.WithContext(ctx).
		Model(&pgWorkoutLog{}).
		Select(
			"COALESCE(SUM(total_weight_lost), 0) AS total_weight_lost, " +
				"COALESCE(SUM(total_calories_burnt), 0) AS total_calories_burnt, " +
				"COALESCE(AVG(avg_workout_duration), 0) AS avg_duration, " +
				"COUNT(*) AS entries").
		Where("user_id = ? AND log_date >= ? AND log_date <= ?", userID.String(), from, to).
		Take(&row).Error
	if err != nil {
		return nil, err
	}

	return &domain.AggregateResult{
		TotalWeightLost:    row.TotalWeightLost,
		TotalCaloriesBurnt: row.TotalCaloriesBurnt,
		AvgDuration:        row.AvgDuration,
		Entries:            row.Entries,
	}, nil
}

// Update обновляет изменяемые поля записи журнала.
// id, user_id и created_at защищены от изменения.
func (r *WorkoutLogRepository) Update(ctx context.Context, log *domain.DailyWorkoutLog) error {
	model := fromDomainWorkoutLog(log)

	updates := map[string]interface{}{
		"log_date":             model.LogDate,
		"workout_content":      model.WorkoutContent,
		"total_weight_lost":    model.TotalWeightLost,
		"total_calories_burnt": model.TotalCaloriesBurnt,
		"avg_workout_duration": model.AvgWorkoutDuration,
		"updated_at":           model.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&pgWorkoutLog{}).
		Where("id = ?", model.ID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
