package handler

import (
	"github.com/stylelab/platform/internal/core/domain"
)

// --- Request types ---

type registerRequest struct {
	Name         string `json:"name"         validate:"required"`
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=6"`
	ReferredCode string `json:"referredCode" validate:"omitempty,len=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type updateProfileRequest struct {
	FirstName        *string  `json:"firstName"        validate:"omitempty,min=1"`
	LastName         *string  `json:"lastName"         validate:"omitempty,min=1"`
	ProfileImage     *string  `json:"profileImage"     validate:"omitempty,url"`
	UserLevel        *string  `json:"userLevel"        validate:"omitempty,oneof=beginner expert"`
	PreferredStyles  []string `json:"preferredStyles"  validate:"omitempty,max=20,dive,max=64"`
	ExperienceLevels []string `json:"experienceLevels" validate:"omitempty,max=20,dive,max=64"`
	IsFirstLogin     *bool    `json:"isFirstLogin"`
}

type socialLoginRequest struct {
	Name  string         `json:"name"  validate:"required,oneof=Google Facebook"`
	Token string         `json:"token" validate:"required"`
	Meta  map[string]any `json:"meta"`
}

type listUsersQuery struct {
	Page  int    `query:"page"  validate:"omitempty,min=1,max=10000"`
	Limit int    `query:"limit" validate:"omitempty,min=1"`
	Role  string `query:"role"  validate:"omitempty,oneof=admin student"`
}

// --- Response types ---

type authResponse struct {
	AccessToken string            `json:"access_token"`
	User        domain.PublicUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listUsersResponse struct {
	Data       []domain.PublicUser `json:"data"`
	Pagination paginationResponse  `json:"pagination"`
}
