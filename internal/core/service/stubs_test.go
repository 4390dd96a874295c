package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	seq     int64
	nextID  int
	failErr error
	// collisions makes the next N creates report a referral collision.
	collisions int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.SocialLogins = append([]domain.SocialLogin(nil), u.SocialLogins...)
	clone.PreferredStyles = append([]string(nil), u.PreferredStyles...)
	clone.ExperienceLevels = append([]string(nil), u.ExperienceLevels...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	if r.collisions > 0 {
		r.collisions--
		return nil, domain.ErrDuplicateReferral
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
		if u.ReferralCode == user.ReferralCode {
			return nil, domain.ErrDuplicateReferral
		}
	}
	c := cloneUser(user)
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.nextID++
	c.ID = fmt.Sprintf("id-%d", r.nextID)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	c := cloneUser(user)
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ReferralCode == code })
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return token != "" && u.ResetPasswordToken == token })
}

func (r *stubUserRepo) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return token != "" && u.VerificationToken == token })
}

func (r *stubUserRepo) ListReferredBy(_ context.Context, code string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.ReferredCode != "" && u.ReferredCode == code {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	if r.failErr != nil {
		return nil, 0, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })

	total := int64(len(all))
	if f.Page-1 >= (len(all)+f.Limit-1)/f.Limit {
		return []*domain.User{}, total, nil
	}
	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return []*domain.User{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubUserRepo) NextUID(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

type stubSessions struct {
	revoked map[string]time.Duration
	err     error
}

func newStubSessions() *stubSessions {
	return &stubSessions{revoked: make(map[string]time.Duration)}
}

func (s *stubSessions) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.revoked[jti] = ttl
	return nil
}

func (s *stubSessions) IsRevoked(_ context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[jti]
	return ok, nil
}

type stubSettings struct {
	current *domain.SiteSettings
	err     error
}

func (s *stubSettings) Get(_ context.Context) (*domain.SiteSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.current == nil {
		return nil, domain.ErrSettingsNotFound
	}
	c := *s.current
	return &c, nil
}

func (s *stubSettings) EnsureDefaults(_ context.Context, def domain.SiteSettings) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.current != nil {
		return false, nil
	}
	s.current = &def
	return true, nil
}

type stubNotifier struct {
	verifications map[string]string
	resets        map[string]string
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{verifications: map[string]string{}, resets: map[string]string{}}
}

func (n *stubNotifier) SendVerification(_ context.Context, email, token string) error {
	n.verifications[email] = token
	return nil
}

// SendPasswordReset records the token but still fails, so tests cover the
// non-fatal delivery path.
func (n *stubNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.resets[email] = token
	return errors.New("smtp down")
}
