package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrInvalidReferral    = errors.New("unknown referral code")
	ErrDuplicateReferral  = errors.New("referral code already taken")
	ErrValidation         = errors.New("validation failed")
	ErrSettingsNotFound   = errors.New("site settings not found")
)
