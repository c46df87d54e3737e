// internal/domain/auth/dto.go
package auth

import "time"

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserInfo  `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserInfo is the caller's identity and effective permissions.
type UserInfo struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type CreateAgentRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateAgentRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Status   *Status `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

type RoleResponse struct {
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Available   []string  `json:"available"`
	UpdatedAt   time.Time `json:"updated_at"`
}
