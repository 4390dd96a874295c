// Package memory holds process-local implementations of the persistence
// ports. They back `serve --in-memory` for local development and the HTTP
// round-trip tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string
	seq   int64
	ids   int
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func clone(u *domain.User) *domain.User {
	c := *u
	c.SocialLogins = append([]domain.SocialLogin(nil), u.SocialLogins...)
	c.PreferredStyles = append([]string(nil), u.PreferredStyles...)
	c.ExperienceLevels = append([]string(nil), u.ExperienceLevels...)
	return &c
}

// uniqueLocked enforces the same unique keys as the mongo indexes.
func (r *UserRepository) uniqueLocked(u *domain.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.ReferralCode == u.ReferralCode {
			return domain.ErrDuplicateReferral
		}
		if other.Email == u.Email || other.UID == u.UID {
			return domain.ErrUserExists
		}
	}
	return nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	u := clone(user)
	u.ApplyDefaults()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids++
	u.ID = fmt.Sprintf("%024x", r.ids)
	if err := r.uniqueLocked(u); err != nil {
		return nil, err
	}
	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return clone(u), nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	u := clone(user)
	u.ApplyDefaults()
	if err := u.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	// Attribution and identity are fixed at creation.
	u.CreatedAt = stored.CreatedAt
	u.ReferredCode = stored.ReferredCode
	u.ReferralCode = stored.ReferralCode
	u.UID = stored.UID
	if err := r.uniqueLocked(u); err != nil {
		return nil, err
	}
	r.users[u.ID] = u
	return clone(u), nil
}

func (r *UserRepository) findOne(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	return r.findOne(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return code != "" && u.ReferralCode == code })
}

func (r *UserRepository) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return token != "" && u.ResetPasswordToken == token })
}

func (r *UserRepository) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return token != "" && u.VerificationToken == token })
}

func (r *UserRepository) filter(match func(*domain.User) bool) []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.User{}
	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			out = append(out, clone(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

func (r *UserRepository) ListReferredBy(_ context.Context, code string) ([]*domain.User, error) {
	if code == "" {
		return []*domain.User{}, nil
	}
	return r.filter(func(u *domain.User) bool { return u.ReferredCode == code }), nil
}

func (r *UserRepository) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	all := r.filter(func(u *domain.User) bool { return f.Role == "" || u.Role == f.Role })
	total := int64(len(all))

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return all, total, nil
	}
	if page-1 >= (len(all)+limit-1)/limit {
		return []*domain.User{}, total, nil
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []*domain.User{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *UserRepository) NextUID(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

// SettingsRepository keeps the site settings document in memory.
type SettingsRepository struct {
	mu      sync.Mutex
	current *domain.SiteSettings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Get(_ context.Context) (*domain.SiteSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, domain.ErrSettingsNotFound
	}
	c := *r.current
	return &c, nil
}

func (r *SettingsRepository) EnsureDefaults(_ context.Context, s domain.SiteSettings) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return false, nil
	}
	if s.Key == "" {
		s.Key = domain.SiteSettingsKey
	}
	r.current = &s
	return true, nil
}

// SessionStore records revoked session ids with their expiry.
type SessionStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *SessionStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

func (s *SessionStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.revoked, jti)
		return false, nil
	}
	return true, nil
}
