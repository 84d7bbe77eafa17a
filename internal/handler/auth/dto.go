package auth

// RegisterRequest описывает тело запроса регистрации пользователя.
// Контракт намеренно минимальный: только данные, необходимые для аутентификации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required,min=3,max=50"`
}

// RegisterResponse — ответ при успешной регистрации.
// Токены не выдаются до подтверждения email.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// LoginRequest описывает тело запроса логина.
// Identifier — email или username.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// VerifyEmailRequest описывает тело запроса подтверждения email.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ResendCodeRequest описывает тело запроса повторной отправки кода подтверждения.
type ResendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TokenPair описывает пару access/refresh токенов.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse — ответ при успешной аутентификации.
// Содержит пару токенов и базовую идентифицирующую информацию о пользователе.
type LoginResponse struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Tokens   TokenPair `json:"tokens"`
}

// RefreshRequest описывает тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ResetRequest описывает тело запроса выдачи токена сброса пароля.
type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetConfirmRequest описывает тело запроса установки нового пароля по токену.
type ResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// MessageResponse — универсальный ответ с сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}
