package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// MembershipPolicy decides what a failure to schedule the expiry job does to
// the hotel creation that triggered it.
type MembershipPolicy string

const (
	// PolicyStrict aborts hotel creation when the expiry job cannot be scheduled.
	PolicyStrict MembershipPolicy = "strict"
	// PolicyBestEffort logs scheduling failures and mirrors the membership
	// pointer into the cache.
	PolicyBestEffort MembershipPolicy = "best-effort"
)

func ParseMembershipPolicy(s string) (MembershipPolicy, error) {
	switch p := MembershipPolicy(s); p {
	case PolicyStrict, PolicyBestEffort:
		return p, nil
	}
	return "", fmt.Errorf("unknown membership policy %q", s)
}

func membershipKey(hotelID string) string { return "membership:" + hotelID }

type MembershipProvisioner struct {
	queue  domain.JobQueue
	cache  domain.Cache
	clock  domain.Clock
	policy MembershipPolicy
}

func NewMembershipProvisioner(q domain.JobQueue, c domain.Cache, clock domain.Clock, policy MembershipPolicy) *MembershipProvisioner {
	return &MembershipProvisioner{queue: q, cache: c, clock: clock, policy: policy}
}

// Provision grants the one-week membership of a first hotel and schedules its expiry.
func (p *MembershipProvisioner) Provision(ctx context.Context, tx domain.Store, ownerID, hotelID string) (*domain.Membership, error) {
	now := p.clock.Now()
	m := &domain.Membership{
		UserID:   ownerID,
		Package:  domain.PackageWeek,
		TimeEnd:  now.Add(domain.MembershipPeriod),
		IsExpire: false,
	}
	if err := tx.Memberships().CreateOne(ctx, m); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Duplicate("membership already issued")
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	payload, err := json.Marshal(domain.MembershipExpirePayload{MembershipID: m.ID, UserID: ownerID})
	if err != nil {
		return nil, err
	}
	remaining := m.TimeEnd.Sub(now)
	_, qerr := p.queue.Enqueue(ctx, domain.Job{Type: domain.JobMembershipExpire, Payload: payload}, remaining)

	switch p.policy {
	case PolicyStrict:
		if qerr != nil {
			observability.ObserveWorkflow("membership_schedule_failed")
			log.Error().Err(qerr).Str("membership", m.ID).Msg("schedule membership expiry failed")
			return nil, domain.BadRequest("can't provision membership, try again")
		}
	case PolicyBestEffort:
		if qerr != nil {
			observability.ObserveWorkflow("membership_schedule_failed")
			log.Warn().Err(qerr).Str("membership", m.ID).Msg("schedule membership expiry failed; continuing")
		}
		if p.cache != nil {
			ttl := int(remaining.Seconds())
			if err := p.cache.Set(ctx, membershipKey(hotelID), map[string]string{"membershipId": m.ID}, ttl); err != nil {
				log.Warn().Err(err).Str("hotel", hotelID).Msg("mirror membership into cache failed")
			}
		}
	default:
		return nil, fmt.Errorf("unknown membership policy %q", p.policy)
	}

	observability.ObserveWorkflow("membership_provisioned")
	log.Info().Str("membership", m.ID).Str("owner", ownerID).Time("time_end", m.TimeEnd).Msg("membership provisioned")
	return m, nil
}
