package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

// referralAlphabet omits 0/O and 1/I so codes survive being read aloud.
const (
	referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referralLength   = 8
)

type sessionClaims struct {
	UID  int64  `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func signSession(secret string, user *domain.User, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := sessionClaims{
		UID:  user.UID,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// parseSession verifies signature, algorithm and expiry.
func parseSession(secret, token string) (*ports.SessionClaims, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &ports.SessionClaims{
		UserID: claims.Subject,
		UID:    claims.UID,
		Role:   domain.Role(claims.Role),
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// generateReferralCode returns a random code drawn from referralAlphabet.
func generateReferralCode() (string, error) {
	b := make([]byte, referralLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("referral code: %w", err)
	}
	for i := range b {
		b[i] = referralAlphabet[int(b[i])%len(referralAlphabet)]
	}
	return string(b), nil
}

// generateSecret returns a hex-encoded random token for reset and
// verification links.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("secret token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
