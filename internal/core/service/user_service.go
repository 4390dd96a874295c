package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 10000
)

// UserService implements profile edits, social-login linking and listings.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpdateProfile applies the non-nil fields of in. Identity, credentials and
// referral attribution are not editable here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.ProfileImage != nil {
		user.ProfileImage = strings.TrimSpace(*in.ProfileImage)
	}
	if in.UserLevel != nil {
		level, err := domain.ParseUserLevel(*in.UserLevel)
		if err != nil {
			return nil, err
		}
		user.UserLevel = level
	}
	if in.PreferredStyles != nil {
		user.PreferredStyles = dedupe(in.PreferredStyles)
	}
	if in.ExperienceLevels != nil {
		user.ExperienceLevels = dedupe(in.ExperienceLevels)
	}
	if in.IsFirstLogin != nil {
		user.IsFirstLogin = *in.IsFirstLogin
	}
	user.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Msg("profile updated")
	return updated, nil
}

// LinkSocialLogin attaches a provider to the account, replacing an existing
// link for the same provider in place so the list order is stable.
func (s *UserService) LinkSocialLogin(ctx context.Context, userID string, in ports.LinkSocialLoginInput) (*domain.User, error) {
	if in.Name != domain.ProviderGoogle && in.Name != domain.ProviderFacebook {
		return nil, fmt.Errorf("%w: unknown social login provider %q", domain.ErrValidation, in.Name)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	link := domain.SocialLogin{Name: in.Name, Token: in.Token, Meta: in.Meta}
	replaced := false
	for i := range user.SocialLogins {
		if user.SocialLogins[i].Name == in.Name {
			user.SocialLogins[i] = link
			replaced = true
			break
		}
	}
	if !replaced {
		user.SocialLogins = append(user.SocialLogins, link)
	}
	user.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("provider", in.Name).Bool("replaced", replaced).Msg("social login linked")
	return updated, nil
}

// UnlinkSocialLogin removes a provider; removing an absent provider is a no-op.
func (s *UserService) UnlinkSocialLogin(ctx context.Context, userID, provider string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := user.SocialLogins[:0]
	for _, sl := range user.SocialLogins {
		if sl.Name != provider {
			kept = append(kept, sl)
		}
	}
	if len(kept) == len(user.SocialLogins) {
		return user, nil
	}
	user.SocialLogins = kept
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, user)
}

// Referrals lists the accounts created from userID's invitations.
func (s *UserService) Referrals(ctx context.Context, userID string) ([]domain.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	referred, err := s.repo.ListReferredBy(ctx, user.ReferralCode)
	if err != nil {
		return nil, fmt.Errorf("referrals: %w", err)
	}
	out := make([]domain.PublicUser, len(referred))
	for i, u := range referred {
		out[i] = u.Public()
	}
	return out, nil
}

// ListUsers returns a page of accounts, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	var role domain.Role
	if strings.TrimSpace(in.Role) != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	users, total, err := s.repo.List(ctx, ports.ListUsersFilter{Role: role, Page: page, Limit: limit})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, err
	}

	items := make([]domain.PublicUser, len(users))
	for i, u := range users {
		items[i] = u.Public()
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// dedupe trims entries and drops blanks and repeats, keeping first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
