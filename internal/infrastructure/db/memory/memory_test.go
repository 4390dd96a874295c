package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

func newUser(uid int64, email, code, referred string) *domain.User {
	return &domain.User{
		UID:          uid,
		FirstName:    "Test",
		LastName:     "User",
		Username:     email,
		Email:        email,
		ReferralCode: code,
		ReferredCode: referred,
	}
}

func TestUserRepository_CreateAppliesDefaultsAndValidates(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, newUser(1, "a@example.com", "AAAA2222", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Role != domain.RoleStudent || u.UserLevel != domain.LevelBeginner || u.CreatedAt.IsZero() {
		t.Fatalf("expected id, defaults and timestamps: %+v", u)
	}

	if _, err := repo.Create(ctx, newUser(2, "b@example.com", "", "")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing referral code, got %v", err)
	}
	if _, err := repo.Create(ctx, newUser(3, "a@example.com", "BBBB3333", "")); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := repo.Create(ctx, newUser(4, "c@example.com", "AAAA2222", "")); err != domain.ErrDuplicateReferral {
		t.Fatalf("expected ErrDuplicateReferral, got %v", err)
	}
}

func TestUserRepository_UpdateKeepsAttribution(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u, _ := repo.Create(ctx, newUser(1, "a@example.com", "AAAA2222", "ZZZZ9999"))

	u.ReferredCode = "CHANGED1"
	u.FirstName = "Renamed"
	updated, err := repo.Update(ctx, u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReferredCode != "ZZZZ9999" || updated.FirstName != "Renamed" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	u.Role = "superuser"
	if _, err := repo.Update(ctx, u); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestUserRepository_ListAndReferrals(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	inviter, _ := repo.Create(ctx, newUser(1, "a@example.com", "AAAA2222", ""))
	for i, email := range []string{"b@example.com", "c@example.com", "d@example.com"} {
		if _, err := repo.Create(ctx, newUser(int64(i+2), email, "CODE000"+string(rune('A'+i)), inviter.ReferralCode)); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}

	referred, err := repo.ListReferredBy(ctx, inviter.ReferralCode)
	if err != nil || len(referred) != 3 {
		t.Fatalf("expected 3 referrals, got %d (%v)", len(referred), err)
	}

	page, total, err := repo.List(ctx, ports.ListUsersFilter{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(page) != 1 || page[0].UID != 4 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(page))
	}
}

func TestUserRepository_ListPastTheEnd(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	for i, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := repo.Create(ctx, newUser(int64(i+1), email, "PAGE000"+string(rune('A'+i)), "")); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}

	for _, page := range []int{2, 92233720368547760} {
		users, total, err := repo.List(ctx, ports.ListUsersFilter{Page: page, Limit: 100})
		if err != nil {
			t.Fatalf("list page %d: %v", page, err)
		}
		if total != 2 || len(users) != 0 {
			t.Fatalf("page %d: expected empty page with total 2, got total=%d len=%d", page, total, len(users))
		}
	}
}

func TestSettingsRepository_EnsureDefaultsOnce(t *testing.T) {
	repo := NewSettingsRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx); err != domain.ErrSettingsNotFound {
		t.Fatalf("expected ErrSettingsNotFound, got %v", err)
	}
	inserted, err := repo.EnsureDefaults(ctx, domain.DefaultSiteSettings())
	if err != nil || !inserted {
		t.Fatalf("expected insert, got %v %v", inserted, err)
	}
	closed := domain.DefaultSiteSettings()
	closed.RegistrationOpen = false
	inserted, _ = repo.EnsureDefaults(ctx, closed)
	if inserted {
		t.Fatalf("second ensure must not insert")
	}
	got, _ := repo.Get(ctx)
	if !got.RegistrationOpen {
		t.Fatalf("existing settings must be kept")
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Revoke(ctx, "j1", time.Minute)
	if revoked, _ := store.IsRevoked(ctx, "j1"); !revoked {
		t.Fatalf("expected revoked")
	}
	now = now.Add(2 * time.Minute)
	if revoked, _ := store.IsRevoked(ctx, "j1"); revoked {
		t.Fatalf("revocation should lapse with the token")
	}
}
