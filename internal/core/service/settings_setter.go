package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

// SettingsSetter seeds the site settings document on first boot. Running it
// again leaves an existing document untouched.
type SettingsSetter struct {
	repo     ports.SettingsRepository
	defaults domain.SiteSettings
	log      zerolog.Logger
}

func NewSettingsSetter(repo ports.SettingsRepository, log zerolog.Logger) *SettingsSetter {
	return &SettingsSetter{repo: repo, defaults: domain.DefaultSiteSettings(), log: log}
}

// Name identifies the job in logs and metrics.
func (s *SettingsSetter) Name() string { return "site_settings" }

func (s *SettingsSetter) Run(ctx context.Context) error {
	settings := s.defaults
	settings.UpdatedAt = time.Now().UTC()

	inserted, err := s.repo.EnsureDefaults(ctx, settings)
	if err != nil {
		return fmt.Errorf("settings setter: %w", err)
	}
	if inserted {
		s.log.Info().Str("key", settings.Key).Msg("default site settings written")
	} else {
		s.log.Debug().Str("key", settings.Key).Msg("site settings already present")
	}
	return nil
}
