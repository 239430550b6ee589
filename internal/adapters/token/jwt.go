package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hotel_booking/internal/domain"
)

type claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 token pairs with the per-device secret of a key store.
type Issuer struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (i *Issuer) IssueTokenPair(c domain.TokenClaims, secret string) (domain.TokenPair, error) {
	if secret == "" {
		return domain.TokenPair{}, errors.New("token: empty secret")
	}
	now := i.now()
	access, err := i.sign(c, secret, now, i.accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(c, secret, now, i.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(c domain.TokenClaims, secret string, now time.Time, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: c.Email,
		Role:  c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString([]byte(secret))
}
