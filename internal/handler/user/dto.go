package user

import (
	"time"

	domain "personafit/internal/domain/user"
)

// AvatarDTO описывает ссылку на аватар во внешнем файловом хранилище.
type AvatarDTO struct {
	FileID string `json:"file_id,omitempty"`
	URL    string `json:"url,omitempty"`
}

// ProfileResponse описывает профиль текущего пользователя.
// Этот контракт используется в защищённых эндпоинтах (/api/v1/users/me и т.п.).
type ProfileResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Avatar        *AvatarDTO `json:"avatar,omitempty"`
	Age           int        `json:"age,omitempty"`
	WeightKg      float64    `json:"weight_kg,omitempty"`
	HeightCm      float64    `json:"height_cm,omitempty"`
	Status        string     `json:"status"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// toProfileResponse маппит доменную модель в ответ API.
// Поля безопасности (хэш, токены, счётчики) наружу не выдаются.
func toProfileResponse(u *domain.User) ProfileResponse {
	resp := ProfileResponse{
		ID:            u.ID.String(),
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Age:           u.Age,
		WeightKg:      u.WeightKg,
		HeightCm:      u.HeightCm,
		Status:        string(u.Status),
		Role:          string(u.Role),
		EmailVerified: u.IsEmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.Avatar.FileID != "" || u.Avatar.URL != "" {
		resp.Avatar = &AvatarDTO{
			FileID: u.Avatar.FileID,
			URL:    u.Avatar.URL,
		}
	}
	return resp
}

// ProfileUpdateRequest описывает тело запроса обновления профиля.
type ProfileUpdateRequest struct {
	// Username при обновлении ограничен только буквами и цифрами.
	Username  *string    `json:"username,omitempty" binding:"omitempty,alphanum,min=3,max=50"`
	Email     *string    `json:"email,omitempty" binding:"omitempty,email"`
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	Avatar    *AvatarDTO `json:"avatar,omitempty"`
	Age       *int       `json:"age,omitempty" binding:"omitempty,gte=0,lte=150"`
	WeightKg  *float64   `json:"weight_kg,omitempty" binding:"omitempty,gte=0"`
	HeightCm  *float64   `json:"height_cm,omitempty" binding:"omitempty,gte=0"`
}

// SetStatusRequest описывает тело модерационного запроса изменения статуса.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive banned deleted"`
}
