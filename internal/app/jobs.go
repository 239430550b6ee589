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

// JobService runs the delayed jobs the worker pulls off the queue.
type JobService struct {
	store   domain.Store
	cache   domain.Cache
	reviews *ReviewService
}

func NewJobService(s domain.Store, c domain.Cache, r *ReviewService) *JobService {
	return &JobService{store: s, cache: c, reviews: r}
}

func (s *JobService) Handle(ctx context.Context, job domain.Job) error {
	var err error
	switch job.Type {
	case domain.JobMembershipExpire:
		var p domain.MembershipExpirePayload
		if err = json.Unmarshal(job.Payload, &p); err == nil {
			err = s.ExpireMembership(ctx, p)
		}
	case domain.JobReviewOpen:
		var p domain.ReviewOpenPayload
		if err = json.Unmarshal(job.Payload, &p); err == nil {
			_, err = s.reviews.OpenReview(ctx, p)
		}
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.ObserveJob(string(job.Type), outcome)
	return err
}

// ExpireMembership marks the membership expired and moves every hotel of its
// owner to the FREE package. Running it twice is a no-op.
func (s *JobService) ExpireMembership(ctx context.Context, p domain.MembershipExpirePayload) error {
	var hotelIDs []string
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		m, err := tx.Memberships().FindOneUpdate(ctx,
			domain.Where(domain.Eq("_id", p.MembershipID), domain.Eq("isExpire", false)),
			domain.Set(map[string]any{"isExpire": true}),
		)
		if err != nil {
			return err
		}
		hotels, err := tx.Hotels().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.Eq("userId", m.UserID))})
		if err != nil {
			return err
		}
		for _, h := range hotels {
			hotelIDs = append(hotelIDs, h.ID)
		}
		_, err = tx.Hotels().UpdateMany(ctx,
			domain.Where(domain.Eq("userId", m.UserID)),
			domain.Set(map[string]any{"package": domain.PackageFree}),
		)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		log.Info().Str("membership", p.MembershipID).Msg("membership missing or already expired")
		return nil
	}
	if err != nil {
		return fmt.Errorf("expire membership %s: %w", p.MembershipID, err)
	}

	if s.cache != nil {
		for _, id := range hotelIDs {
			if err := s.cache.Del(ctx, hotelKey(id)); err != nil {
				log.Warn().Err(err).Str("hotel", id).Msg("hotel cache invalidation failed")
			}
			if err := s.cache.Del(ctx, membershipKey(id)); err != nil {
				log.Warn().Err(err).Str("hotel", id).Msg("membership cache invalidation failed")
			}
		}
	}
	observability.ObserveWorkflow("membership_expired")
	log.Info().Str("membership", p.MembershipID).Int("hotels", len(hotelIDs)).Msg("membership expired")
	return nil
}
