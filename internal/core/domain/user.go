package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// ParseRole maps a raw value to a Role. An empty value yields the default
// role (student); anything outside the enumeration is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// UserLevel is the self-declared proficiency of a user.
type UserLevel string

const (
	LevelBeginner UserLevel = "beginner"
	LevelExpert   UserLevel = "expert"
)

// ParseUserLevel maps a raw value to a UserLevel, defaulting to beginner.
func ParseUserLevel(s string) (UserLevel, error) {
	switch UserLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return LevelBeginner, nil
	case LevelBeginner:
		return LevelBeginner, nil
	case LevelExpert:
		return LevelExpert, nil
	}
	return "", fmt.Errorf("%w: unknown user level %q", ErrValidation, s)
}

// Social login providers.
const (
	ProviderGoogle   = "Google"
	ProviderFacebook = "Facebook"
)

// SocialLogin links an external identity provider to an account.
type SocialLogin struct {
	Name  string         `json:"name" bson:"name"`
	Token string         `json:"-" bson:"token"`
	Meta  map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// User is the persisted account record. It carries secrets and must never be
// written to a client; use Public for that.
type User struct {
	ID                 string        `json:"id"`
	UID                int64         `json:"uid"`
	FirstName          string        `json:"firstName"`
	LastName           string        `json:"lastName"`
	Username           string        `json:"username"`
	Email              string        `json:"email"`
	Role               Role          `json:"role"`
	UserLevel          UserLevel     `json:"userLevel"`
	SocialLogins       []SocialLogin `json:"socialLogins,omitempty"`
	IsVerified         bool          `json:"isVerified"`
	IsFirstLogin       bool          `json:"isFirstLogin"`
	ReferralCode       string        `json:"referralCode"`
	ReferredCode       string        `json:"referredCode,omitempty"`
	ProfileImage       string        `json:"profileImage,omitempty"`
	PreferredStyles    []string      `json:"preferredStyles"`
	ExperienceLevels   []string      `json:"experienceLevels"`
	PasswordHash       string        `json:"-"`
	ResetPasswordToken string        `json:"-"`
	VerificationToken  string        `json:"-"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// ApplyDefaults fills the enumerated fields left empty by the caller.
func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.UserLevel == "" {
		u.UserLevel = LevelBeginner
	}
}

// Validate checks required fields and enum membership. It is run at the
// persistence boundary before every write.
func (u *User) Validate() error {
	var missing []string
	if strings.TrimSpace(u.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(u.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(u.Username) == "" {
		missing = append(missing, "username")
	}
	if u.UID <= 0 {
		missing = append(missing, "uid")
	}
	if u.ReferralCode == "" {
		missing = append(missing, "referralCode")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	// Stored values must already be canonical.
	if r, err := ParseRole(string(u.Role)); err != nil || r != u.Role {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, u.Role)
	}
	if lvl, err := ParseUserLevel(string(u.UserLevel)); err != nil || lvl != u.UserLevel {
		return fmt.Errorf("%w: invalid user level %q", ErrValidation, u.UserLevel)
	}
	for _, sl := range u.SocialLogins {
		if sl.Name != ProviderGoogle && sl.Name != ProviderFacebook {
			return fmt.Errorf("%w: unknown social login provider %q", ErrValidation, sl.Name)
		}
	}
	return nil
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the projection of a User that is safe to hand to clients.
// Password only reports whether a password is set.
type PublicUser struct {
	ID               string        `json:"_id"`
	UID              int64         `json:"uid"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Username         string        `json:"username"`
	Email            string        `json:"email"`
	Role             Role          `json:"role"`
	UserLevel        UserLevel     `json:"userLevel"`
	ReferralCode     string        `json:"referralCode"`
	ReferredCode     string        `json:"referredCode,omitempty"`
	IsFirstLogin     bool          `json:"isFirstLogin"`
	IsVerified       bool          `json:"isVerified"`
	ProfileImage     string        `json:"profileImage,omitempty"`
	PreferredStyles  []string      `json:"preferredStyles"`
	ExperienceLevels []string      `json:"experienceLevels"`
	SocialLogins     []SocialLogin `json:"socialLogins,omitempty"`
	Password         bool          `json:"password"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Public returns the client-safe projection of u. Social login tokens are
// stripped and every slice is copied.
func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:               u.ID,
		UID:              u.UID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		UserLevel:        u.UserLevel,
		ReferralCode:     u.ReferralCode,
		ReferredCode:     u.ReferredCode,
		IsFirstLogin:     u.IsFirstLogin,
		IsVerified:       u.IsVerified,
		ProfileImage:     u.ProfileImage,
		PreferredStyles:  nonNil(u.PreferredStyles),
		ExperienceLevels: nonNil(u.ExperienceLevels),
		Password:         u.PasswordHash != "",
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if len(u.SocialLogins) > 0 {
		p.SocialLogins = make([]SocialLogin, len(u.SocialLogins))
		for i, sl := range u.SocialLogins {
			p.SocialLogins[i] = SocialLogin{Name: sl.Name, Meta: sl.Meta}
		}
	}
	return p
}

// IsZero reports whether p is the empty projection.
func (p PublicUser) IsZero() bool {
	return p.ID == "" && p.UID == 0 && p.Email == "" && p.Username == ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
