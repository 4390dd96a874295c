package domain

import "time"

// SiteSettingsKey identifies the single settings document.
const SiteSettingsKey = "site"

// SiteSettings holds platform-wide switches seeded at startup.
type SiteSettings struct {
	Key              string    `json:"key"`
	RegistrationOpen bool      `json:"registrationOpen"`
	DefaultUserLevel UserLevel `json:"defaultUserLevel"`
	Styles           []string  `json:"styles"`
	ExperienceLevels []string  `json:"experienceLevels"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DefaultSiteSettings returns the document written on first boot.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		Key:              SiteSettingsKey,
		RegistrationOpen: true,
		DefaultUserLevel: LevelBeginner,
		Styles:           []string{"salsa", "bachata", "kizomba", "zouk", "tango", "swing"},
		ExperienceLevels: []string{"social", "performer", "instructor"},
	}
}
