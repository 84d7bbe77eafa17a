package workout

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	userdomain "personafit/internal/domain/user"
	domain "personafit/internal/domain/workoutlog"
	"personafit/internal/handler/middleware"
	"personafit/internal/handler/response"
	repo "personafit/internal/repository/interfaces"
	goaluc "personafit/internal/usecase/fitnessgoal"
	workoutuc "personafit/internal/usecase/workoutlog"
)

// Handler обрабатывает HTTP-запросы журнала тренировок и фитнес-целей.
type Handler struct {
	logs  workoutuc.Service
	goals goaluc.Service
}

// NewHandler создаёт новый обработчик журнала тренировок.
func NewHandler(logs workoutuc.Service, goals goaluc.Service) *Handler {
	return &Handler{logs: logs, goals: goals}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.ContextUserIDKey)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("invalid user id in context: value=%q err=%v", raw, err)
		response.Error(c, http.StatusUnauthorized, "invalid_token", "Недействительный access-токен", nil)
		return uuid.Nil, false
	}
	return id, true
}

// parseDateRange читает query-параметры from/to (YYYY-MM-DD).
// Оба параметра обязательны; при ошибке отвечает 400 и возвращает false.
func parseDateRange(c *gin.Context) (from, to time.Time, ok bool) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_date_range", "Параметр from должен быть датой в формате YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_date_range", "Параметр to должен быть датой в формате YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		response.Error(c, http.StatusBadRequest, "invalid_date_range", "Дата to не может быть раньше from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Create добавляет запись в журнал тренировок
// @Summary Добавление записи журнала
// @Description Валидирует и сохраняет новую запись журнала тренировок текущего пользователя
// @Tags workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLogRequest true "Данные записи"
// @Success 201 {object} LogResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /workouts/logs [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	input := workoutuc.LogInput{
		WorkoutContent:     req.WorkoutContent,
		TotalWeightLost:    req.TotalWeightLost,
		TotalCaloriesBurnt: req.TotalCaloriesBurnt,
		AvgWorkoutDuration: req.AvgWorkoutDuration,
	}
	if req.LogDate != "" {
		logDate, err := time.Parse(dateLayout, req.LogDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid_log_date", "Поле log_date должно быть датой в формате YYYY-MM-DD", nil)
			return
		}
		input.LogDate = logDate
	}

	entry, err := h.logs.AppendLog(c.Request.Context(), userID, input)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.Error(c, http.StatusBadRequest, "validation_failed", vErr.Error(), gin.H{"field": vErr.Field})
		case errors.Is(err, workoutuc.ErrOwnerUnavailable):
			response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
		default:
			log.Printf("append workout log failed: user_id=%s err=%v", userID, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, toLogResponse(entry))
}

// List возвращает записи журнала за период
// @Summary Записи журнала за период
// @Description Возвращает записи журнала текущего пользователя за включительный диапазон дат
// @Tags workouts
// @Produce json
// @Security BearerAuth
// @Param from query string true "Начало периода (YYYY-MM-DD)"
// @Param to query string true "Конец периода (YYYY-MM-DD)"
// @Success 200 {array} LogResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /workouts/logs [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	entries, err := h.logs.ListLogs(c.Request.Context(), userID, from, to)
	if err != nil {
		log.Printf("list workout logs failed: user_id=%s err=%v", userID, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	out := make([]LogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLogResponse(e))
	}
	c.JSON(http.StatusOK, out)
}

// Update частично обновляет запись журнала
// @Summary Обновление записи журнала
// @Description Обновляет поля записи. Доступно владельцу записи, модератору и администратору.
// @Tags workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID записи"
// @Param request body UpdateLogRequest true "Изменяемые поля"
// @Success 200 {object} LogResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /workouts/logs/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_log_id", "Некорректный ID записи", nil)
		return
	}

	var req UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	role := userdomain.Role(c.GetString(middleware.ContextUserRoleKey))
	entry, err := h.logs.UpdateLog(c.Request.Context(), userID, role, logID, workoutuc.LogUpdateInput{
		WorkoutContent:     req.WorkoutContent,
		TotalWeightLost:    req.TotalWeightLost,
		TotalCaloriesBurnt: req.TotalCaloriesBurnt,
		AvgWorkoutDuration: req.AvgWorkoutDuration,
	})
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.Error(c, http.StatusBadRequest, "validation_failed", vErr.Error(), gin.H{"field": vErr.Field})
		case errors.Is(err, workoutuc.ErrForbidden):
			response.Error(c, http.StatusForbidden, "forbidden", "Недостаточно прав для изменения записи", nil)
		case errors.Is(err, repo.ErrNotFound):
			response.Error(c, http.StatusNotFound, "log_not_found", "Запись журнала не найдена", nil)
		default:
			log.Printf("update workout log failed: log_id=%s err=%v", logID, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, toLogResponse(entry))
}

// Progress возвращает агрегированные метрики за период
// @Summary Прогресс за период
// @Description Считает суммарный потерянный вес, суммарные калории и среднюю длительность тренировок за включительный диапазон дат. Пустой период — нулевые метрики.
// @Tags workouts
// @Produce json
// @Security BearerAuth
// @Param from query string true "Начало периода (YYYY-MM-DD)"
// @Param to query string true "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} ProgressResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /workouts/progress [get]
func (h *Handler) Progress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	agg, err := h.logs.Aggregate(c.Request.Context(), userID, from, to)
	if err != nil {
		log.Printf("aggregate workout logs failed: user_id=%s err=%v", userID, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{
		From:               from.Format(dateLayout),
		To:                 to.Format(dateLayout),
		TotalWeightLost:    agg.TotalWeightLost,
		TotalCaloriesBurnt: agg.TotalCaloriesBurnt,
		AvgDuration:        agg.AvgDuration,
		Entries:            agg.Entries,
	})
}
