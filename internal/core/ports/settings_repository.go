package ports

import (
	"context"

	"github.com/stylelab/platform/internal/core/domain"
)

// SettingsRepository stores the site-wide settings document.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	// EnsureDefaults writes s only when no settings document exists yet.
	// It reports whether a document was inserted.
	EnsureDefaults(ctx context.Context, s domain.SiteSettings) (bool, error)
}
