package workout

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	goaldomain "personafit/internal/domain/fitnessgoal"
	"personafit/internal/handler/response"
	repo "personafit/internal/repository/interfaces"
	goaluc "personafit/internal/usecase/fitnessgoal"
)

// GetGoal возвращает фитнес-цель текущего пользователя
// @Summary Фитнес-цель пользователя
// @Description Возвращает фитнес-цель текущего пользователя. 404, если цель не установлена.
// @Tags workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} GoalResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /workouts/fitness-goal [get]
func (h *Handler) GetGoal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	goal, err := h.goals.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "goal_not_found", "Фитнес-цель не установлена", nil)
			return
		}
		log.Printf("get fitness goal failed: user_id=%s err=%v", userID, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, toGoalResponse(goal))
}

// SetGoal создаёт или перезаписывает фитнес-цель
// @Summary Установка фитнес-цели
// @Description Создаёт фитнес-цель текущего пользователя или перезаписывает существующую
// @Tags workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetGoalRequest true "Данные цели"
// @Success 200 {object} GoalResponse
// @Success 201 {object} GoalResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /workouts/fitness-goal [post]
func (h *Handler) SetGoal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	goal, created, err := h.goals.Set(c.Request.Context(), userID, goaluc.GoalInput{
		Goal:            req.Goal,
		DaysPerWeek:     req.DaysPerWeek,
		WorkoutDuration: req.WorkoutDuration,
		RestDays:        req.RestDays,
	})
	if err != nil {
		h.respondGoalError(c, userID, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toGoalResponse(goal))
}

// UpdateGoal частично обновляет фитнес-цель
// @Summary Частичное обновление фитнес-цели
// @Description Обновляет отдельные поля существующей фитнес-цели текущего пользователя
// @Tags workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateGoalRequest true "Изменяемые поля"
// @Success 200 {object} GoalResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /workouts/fitness-goal [patch]
func (h *Handler) UpdateGoal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	goal, err := h.goals.UpdateFields(c.Request.Context(), userID, goaluc.GoalUpdateInput{
		Goal:            req.Goal,
		DaysPerWeek:     req.DaysPerWeek,
		WorkoutDuration: req.WorkoutDuration,
		RestDays:        req.RestDays,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "goal_not_found", "Фитнес-цель не установлена", nil)
			return
		}
		if errors.Is(err, goaluc.ErrNoFieldsToUpdate) {
			response.Error(c, http.StatusBadRequest, "no_fields_to_update", "Не указано ни одного поля для обновления", nil)
			return
		}
		h.respondGoalError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, toGoalResponse(goal))
}

// respondGoalError маппит общие ошибки usecase-слоя целей в HTTP-ответ.
func (h *Handler) respondGoalError(c *gin.Context, userID uuid.UUID, err error) {
	var vErr *goaldomain.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.Error(c, http.StatusBadRequest, "validation_failed", vErr.Error(), gin.H{"field": vErr.Field})
	case errors.Is(err, goaluc.ErrOwnerUnavailable):
		response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
	default:
		log.Printf("fitness goal operation failed: user_id=%s err=%v", userID.String(), err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
	}
}
