package ports

import (
	"context"

	"github.com/stylelab/platform/internal/core/domain"
)

// ListUsersFilter carries the query parameters for listing accounts.
type ListUsersFilter struct {
	Role  domain.Role // optional
	Page  int         // 1-based
	Limit int         // capped by the service
}

// UserRepository defines persistence operations for user records.
// Implementations apply defaults and validate before every write.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	ListReferredBy(ctx context.Context, referralCode string) ([]*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// NextUID returns the next value of the numeric user id sequence.
	NextUID(ctx context.Context) (int64, error)
}
