package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

type Promoter struct {
	tokens domain.TokenIssuer
}

func NewPromoter(t domain.TokenIssuer) *Promoter { return &Promoter{tokens: t} }

// Promote turns a plain user into a hotelier and reissues their tokens for
// the calling device. It returns nil tokens when no promotion was needed.
func (p *Promoter) Promote(ctx context.Context, tx domain.Store, c Caller) (*domain.TokenPair, error) {
	switch c.Role {
	case domain.RoleUser:
	case domain.RoleHotelier, domain.RoleAdmin:
		return nil, nil
	default:
		return nil, domain.BadRequest(fmt.Sprintf("unknown role %q", c.Role))
	}

	secret, err := newSecretKey()
	if err != nil {
		return nil, err
	}
	pair, err := p.tokens.IssueTokenPair(domain.TokenClaims{UserID: c.UserID, Email: c.Email, Role: domain.RoleHotelier}, secret)
	if err != nil {
		return nil, domain.ServiceUnavailable("issue tokens", err)
	}

	_, err = tx.KeyStores().FindOneUpdate(ctx,
		domain.Where(domain.Eq("userId", c.UserID), domain.Eq("deviceId", c.DeviceID)),
		domain.Set(map[string]any{"secretKey": secret, "refreshToken": pair.RefreshToken}),
	)
	if errors.Is(err, domain.ErrNotFound) {
		err = tx.KeyStores().CreateOne(ctx, &domain.KeyStore{
			UserID:       c.UserID,
			DeviceID:     c.DeviceID,
			SecretKey:    secret,
			RefreshToken: pair.RefreshToken,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("store key: %w", err)
	}

	if _, err := tx.Users().FindByIDUpdate(ctx, c.UserID, domain.Set(map[string]any{"role": domain.RoleHotelier})); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Not found user")
		}
		return nil, fmt.Errorf("promote user: %w", err)
	}

	log.Info().Str("user", c.UserID).Str("device", c.DeviceID).Msg("user promoted to hotelier")
	return &pair, nil
}

func newSecretKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
