package user

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "personafit/internal/domain/user"
	"personafit/internal/handler/middleware"
	"personafit/internal/handler/response"
	repo "personafit/internal/repository/interfaces"
	useruc "personafit/internal/usecase/user"
)

// Handler обрабатывает HTTP-запросы, связанные с профилем пользователя.
type Handler struct {
	users useruc.Service
}

// NewHandler создаёт новый обработчик пользователей.
func NewHandler(users useruc.Service) *Handler {
	return &Handler{users: users}
}

// currentUserID извлекает ID аутентифицированного пользователя из контекста Gin.
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

// GetMe возвращает профиль текущего пользователя
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль аутентифицированного пользователя
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	u, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
			return
		}
		log.Printf("get profile failed: user_id=%s err=%v", userID, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(u))
}

// UpdateMe обновляет профиль текущего пользователя
// @Summary Обновление профиля
// @Description Частично обновляет профиль аутентифицированного пользователя. Смена email сбрасывает подтверждение.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Изменяемые поля профиля"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /users/me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	input := useruc.ProfileUpdateInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		WeightKg:  req.WeightKg,
		HeightCm:  req.HeightCm,
	}
	if req.Avatar != nil {
		input.Avatar = &domain.Avatar{
			FileID: req.Avatar.FileID,
			URL:    req.Avatar.URL,
		}
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.Error(c, http.StatusBadRequest, "validation_failed", vErr.Error(), gin.H{"field": vErr.Field})
		case errors.Is(err, repo.ErrNotFound):
			response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
		case errors.Is(err, repo.ErrEmailExists):
			response.Error(c, http.StatusConflict, "email_exists", "Пользователь с таким email уже существует", nil)
		case errors.Is(err, repo.ErrUsernameExists):
			response.Error(c, http.StatusConflict, "username_exists", "Пользователь с таким username уже существует", nil)
		default:
			log.Printf("update profile failed: user_id=%s err=%v", userID, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(u))
}

// DeleteMe выполняет мягкое удаление аккаунта текущего пользователя
// @Summary Удаление аккаунта
// @Description Мягко удаляет аккаунт: запись сохраняется, но исчезает из выборок и логин становится невозможен
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/me [delete]
func (h *Handler) DeleteMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
			return
		}
		log.Printf("delete account failed: user_id=%s err=%v", userID, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Аккаунт удалён"})
}

// List возвращает список пользователей (административный эндпоинт)
// @Summary Список пользователей
// @Description Возвращает всех неудалённых пользователей. Доступно только привилегированным ролям.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ProfileResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		log.Printf("list users failed: err=%v", err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	out := make([]ProfileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfileResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// SetStatus изменяет статус аккаунта пользователя (модерация)
// @Summary Изменение статуса аккаунта
// @Description Устанавливает статус active/inactive/banned/deleted. Статус deleted выполняет мягкое удаление.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body SetStatusRequest true "Новый статус"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id}/status [put]
func (h *Handler) SetStatus(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_user_id", "Некорректный ID пользователя", nil)
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	if err := h.users.SetStatus(c.Request.Context(), targetID, domain.Status(req.Status)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "user_not_found", "Пользователь не найден", nil)
			return
		}
		log.Printf("set status failed: user_id=%s status=%s err=%v", targetID, req.Status, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Статус обновлён"})
}
