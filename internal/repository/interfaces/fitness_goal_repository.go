package interfaces

import (
	"context"

	"github.com/google/uuid"

	domain "personafit/internal/domain/fitnessgoal"
)

// FitnessGoalRepository определяет контракт для работы с фитнес-целями.
//
// У пользователя не более одной цели: уникальность по user_id
// обеспечивается хранилищем.
type FitnessGoalRepository interface {
	// GetByUserID возвращает цель пользователя.
	// Возвращает (nil, ErrNotFound), если цель не установлена.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.FitnessGoal, error)

	// Upsert сохраняет цель: создаёт новую или перезаписывает
	// существующую цель пользователя. id и created_at существующей
	// записи при перезаписи сохраняются.
	Upsert(ctx context.Context, goal *domain.FitnessGoal) error
}
