package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "personafit/internal/domain/user"
	"personafit/internal/handler/response"
	repo "personafit/internal/repository/interfaces"
	authuc "personafit/internal/usecase/auth"
	credstore "personafit/internal/usecase/credential"
)

// Handler обрабатывает HTTP-запросы, связанные с аутентификацией.
type Handler struct {
	auth authuc.Service
}

// NewHandler создаёт новый AuthHandler.
func NewHandler(auth authuc.Service) *Handler {
	return &Handler{auth: auth}
}

// Register обрабатывает регистрацию пользователя.
//
//	@Summary	Регистрация пользователя
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		RegisterRequest	true	"Данные регистрации"
//	@Success	201		{object}	RegisterResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Failure	409		{object}	response.ErrorBody
//	@Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.Is(err, repo.ErrEmailExists):
			log.Printf("email conflict in Register: email=%s err=%v", req.Email, err)
			response.Error(c, http.StatusConflict, "email_already_exists", "Указанный email уже используется", nil)
		case errors.Is(err, repo.ErrUsernameExists):
			log.Printf("username conflict in Register: username=%s err=%v", req.Username, err)
			response.Error(c, http.StatusConflict, "username_already_exists", "Указанный никнейм уже используется", nil)
		case errors.Is(err, credstore.ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, "weak_password", "Пароль слишком простой", err.Error())
		case errors.As(err, &vErr):
			response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректные данные", vErr.Error())
		default:
			log.Printf("internal error in Register: email=%s username=%s err=%v", req.Email, req.Username, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Message:  "Код подтверждения отправлен на email",
	})
}

// Login обрабатывает вход пользователя по email/username и паролю.
//
//	@Summary	Вход по email/username и паролю
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		LoginRequest	true	"Учётные данные"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	response.ErrorBody
//	@Failure	403		{object}	response.ErrorBody
//	@Failure	429		{object}	response.ErrorBody
//	@Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	user, access, refresh, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		var lockedErr *authuc.LockedError
		switch {
		case errors.As(err, &lockedErr):
			// Блокировка — ожидаемое, восстановимое состояние; в лог аномалий не пишем.
			c.Header("Retry-After", strconv.Itoa(int(lockedErr.RetryAfter.Seconds())+1))
			response.Error(c, http.StatusTooManyRequests, "account_locked",
				"Слишком много неудачных попыток входа, попробуйте позже", nil)
		case errors.Is(err, authuc.ErrAccountInactive):
			response.Error(c, http.StatusForbidden, "account_inactive", "Аккаунт заблокирован или удалён", nil)
		case errors.Is(err, authuc.ErrInvalidCredentials):
			// Не раскрываем, что именно неверно
			response.Error(c, http.StatusUnauthorized, "invalid_credentials", "Неверный идентификатор или пароль", nil)
		default:
			log.Printf("internal error in Login: identifier=%s err=%v", req.Identifier, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
}

// VerifyEmail обрабатывает подтверждение email по одноразовому коду.
//
//	@Summary	Подтверждение email
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		VerifyEmailRequest	true	"Email и код"
//	@Success	200		{object}	LoginResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Router		/auth/verify-email [post]
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	user, access, refresh, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, authuc.ErrEmailAlreadyVerified):
			response.Error(c, http.StatusConflict, "email_already_verified", "Email уже подтверждён", nil)
		case errors.Is(err, authuc.ErrVerificationCodeNotFound):
			response.Error(c, http.StatusBadRequest, "code_not_found", "Код не найден или истёк, запросите новый", nil)
		case errors.Is(err, authuc.ErrVerificationCodeInvalid):
			response.Error(c, http.StatusBadRequest, "code_invalid", "Неверный код подтверждения", nil)
		case errors.Is(err, authuc.ErrVerificationAttemptsExceeded):
			response.Error(c, http.StatusBadRequest, "attempts_exceeded", "Превышен лимит попыток, запросите новый код", nil)
		case errors.Is(err, repo.ErrNotFound):
			response.Error(c, http.StatusBadRequest, "code_invalid", "Неверный код подтверждения", nil)
		default:
			log.Printf("internal error in VerifyEmail: email=%s err=%v", req.Email, err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
}

// ResendCode обрабатывает повторную отправку кода подтверждения email.
//
//	@Summary	Повторная отправка кода подтверждения
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ResendCodeRequest	true	"Email"
//	@Success	200		{object}	MessageResponse
//	@Router		/auth/resend-code [post]
func (h *Handler) ResendCode(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	if err := h.auth.ResendVerificationCode(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, authuc.ErrEmailAlreadyVerified) {
			response.Error(c, http.StatusConflict, "email_already_verified", "Email уже подтверждён", nil)
			return
		}
		log.Printf("internal error in ResendCode: email=%s err=%v", req.Email, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Если аккаунт существует, код отправлен"})
}

// Refresh обрабатывает обновление пары токенов по refresh-токену.
//
//	@Summary	Обновление пары токенов
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		RefreshRequest	true	"Refresh-токен"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	response.ErrorBody
//	@Router		/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	user, access, refresh, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, authuc.ErrAccountInactive):
			response.Error(c, http.StatusForbidden, "account_inactive", "Аккаунт заблокирован или удалён", nil)
		case errors.Is(err, authuc.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "invalid_refresh_token", "Недействительный refresh-токен", nil)
		default:
			log.Printf("internal error in Refresh: err=%v", err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
}

// RequestReset обрабатывает запрос на выдачу токена сброса пароля.
// Ответ одинаков для существующих и несуществующих email.
//
//	@Summary	Запрос сброса пароля
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ResetRequest	true	"Email"
//	@Success	200		{object}	MessageResponse
//	@Router		/auth/password-reset [post]
func (h *Handler) RequestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	if err := h.auth.IssueReset(c.Request.Context(), req.Email); err != nil {
		log.Printf("internal error in RequestReset: email=%s err=%v", req.Email, err)
		response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Если аккаунт существует, письмо со ссылкой отправлено"})
}

// ConfirmReset обрабатывает установку нового пароля по токену сброса.
//
//	@Summary	Установка нового пароля по токену сброса
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ResetConfirmRequest	true	"Токен и новый пароль"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Router		/auth/password-reset/confirm [post]
func (h *Handler) ConfirmReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	if err := h.auth.ConsumeReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, authuc.ErrResetTokenExpired), errors.Is(err, authuc.ErrResetTokenNotFound):
			// Одинаковое тело ответа для неизвестного и просроченного токена,
			// чтобы нельзя было отличить существующие токены от несуществующих.
			// Внутреннее различие остаётся доступным для логирования.
			response.Error(c, http.StatusBadRequest, "invalid_or_expired_token",
				"Токен недействителен или истёк, запросите сброс заново", nil)
		case errors.Is(err, credstore.ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, "weak_password", "Пароль слишком простой", err.Error())
		default:
			log.Printf("internal error in ConfirmReset: err=%v", err)
			response.Error(c, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера", nil)
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Пароль обновлён"})
}
