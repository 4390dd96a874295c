package ports

import (
	"context"

	"github.com/stylelab/platform/internal/core/domain"
)

// UpdateProfileInput carries optional profile edits; nil fields are left as-is.
type UpdateProfileInput struct {
	FirstName        *string
	LastName         *string
	ProfileImage     *string
	UserLevel        *string
	PreferredStyles  []string
	ExperienceLevels []string
	IsFirstLogin     *bool
}

// LinkSocialLoginInput links an identity provider to an account.
type LinkSocialLoginInput struct {
	Name  string
	Token string
	Meta  map[string]any
}

// ListUsersInput carries all parameters for the admin listing.
type ListUsersInput struct {
	Role  string
	Page  int
	Limit int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Items      []domain.PublicUser
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService defines profile and account-management use cases.
type UserService interface {
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error)
	LinkSocialLogin(ctx context.Context, userID string, in LinkSocialLoginInput) (*domain.User, error)
	UnlinkSocialLogin(ctx context.Context, userID, provider string) (*domain.User, error)
	Referrals(ctx context.Context, userID string) ([]domain.PublicUser, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}
