package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const maxRatingAttempts = 5

// errRatingConflict means the hotel aggregate moved between read and write.
var errRatingConflict = errors.New("hotel rating changed concurrently")

type ReviewService struct {
	store domain.Store
	cache domain.Cache
	clock domain.Clock
}

func NewReviewService(s domain.Store, c domain.Cache, clock domain.Clock) *ReviewService {
	return &ReviewService{store: s, cache: c, clock: clock}
}

// OpenReview creates the unrated placeholder a guest may fill after a stay.
// It is idempotent per booking.
func (s *ReviewService) OpenReview(ctx context.Context, p domain.ReviewOpenPayload) (*domain.Review, error) {
	hotel, err := s.store.Hotels().FindByID(ctx, p.HotelID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Not found hotel")
	}
	if err != nil {
		return nil, err
	}
	if p.BookingID != "" {
		existing, err := s.store.Reviews().FindOne(ctx, domain.Where(domain.Eq("bookingId", p.BookingID), domain.Eq("parent_slug", "")))
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	r := &domain.Review{
		Slug:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		Author:    domain.ReviewAuthor{AuthorID: p.AuthorID, Name: p.Name},
		Hotel:     domain.ReviewHotel{HotelID: hotel.ID, HotelName: hotel.HotelName},
		BookingID: p.BookingID,
		Images:    []string{},
	}
	if err := s.store.Reviews().CreateOne(ctx, r); err != nil {
		return nil, fmt.Errorf("create placeholder review: %w", err)
	}
	log.Info().Str("review", r.ID).Str("hotel", hotel.ID).Str("author", p.AuthorID).Msg("placeholder review opened")
	return r, nil
}

// CreateReview fills a placeholder (no parent slug) or, for the hotel owner,
// replies to a filled root review.
func (s *ReviewService) CreateReview(ctx context.Context, c Caller, reviewID string, in CreateReviewInput) (*domain.Review, error) {
	hotel, err := s.store.Hotels().FindByID(ctx, in.HotelID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Not found hotel")
	}
	if err != nil {
		return nil, err
	}
	isOwner := hotel.UserID == c.UserID

	review, err := s.store.Reviews().FindByID(ctx, reviewID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if review != nil && review.Hotel.HotelID != hotel.ID {
		return nil, domain.NotFound("Not found review")
	}

	if in.ParentSlug == "" {
		return s.fill(ctx, c, hotel, review, isOwner, in)
	}
	if review == nil {
		return nil, domain.NotFound("Not found review")
	}
	return s.reply(ctx, c, review, isOwner, in)
}

func (s *ReviewService) fill(ctx context.Context, c Caller, hotel *domain.Hotel, review *domain.Review, isOwner bool, in CreateReviewInput) (*domain.Review, error) {
	if review == nil || review.IsDelete {
		return nil, domain.NotAuthorized("User have already expired reviews")
	}
	switch review.State() {
	case domain.ReviewPlaceholder:
	case domain.ReviewFilled, domain.ReviewReplied:
		return nil, domain.NotAuthorized("Review has already been written")
	case domain.ReviewReply:
		return nil, domain.BadRequest("a reply cannot be rated")
	}
	if isOwner {
		return nil, domain.NotAuthorized("Hotelier can not review their hotel")
	}
	if review.Author.AuthorID != c.UserID {
		return nil, domain.NotAuthorized("Review belongs to another guest")
	}
	if in.StarRating == 0 {
		return nil, domain.BadRequest("starRating is required")
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	var filled *domain.Review
	err := s.withRatingRetry(ctx, func(tx domain.Store) error {
		var err error
		filled, err = tx.Reviews().FindOneUpdate(ctx,
			domain.Where(
				domain.Eq("_id", review.ID),
				domain.Eq("parent_slug", ""),
				domain.Eq("starRating", 0),
				domain.Eq("isDelete", false),
			),
			domain.Set(map[string]any{"context": in.Context, "images": images, "starRating": in.StarRating}),
		)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotAuthorized("Review has already been written")
		}
		if err != nil {
			return err
		}
		return adjustRating(ctx, tx, hotel.ID, func(r domain.StarRating) domain.StarRating {
			return r.Add(in.StarRating)
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidateHotel(ctx, hotel.ID)

	observability.ObserveWorkflow("review_filled")
	log.Info().Str("review", filled.ID).Str("hotel", hotel.ID).Float64("rating", in.StarRating).Msg("review filled")
	return filled, nil
}

func (s *ReviewService) reply(ctx context.Context, c Caller, root *domain.Review, isOwner bool, in CreateReviewInput) (*domain.Review, error) {
	if !isOwner {
		return nil, domain.NotAuthorized("Only hotelier can reply review")
	}
	if in.ParentSlug != root.Slug {
		return nil, domain.BadRequest("Wrong parent slug")
	}
	switch root.State() {
	case domain.ReviewFilled:
	case domain.ReviewReplied:
		return nil, domain.BadRequest("Review has already reply")
	case domain.ReviewPlaceholder:
		return nil, domain.BadRequest("Review has not been written yet")
	case domain.ReviewReply:
		return nil, domain.BadRequest("Can not reply to a reply")
	}

	// the reply is authored by the hotel owner, not the reviewing guest
	reply := &domain.Review{
		Slug:       domain.ReplySlug(root.Slug, s.clock.Now()),
		ParentSlug: root.Slug,
		Author:     domain.ReviewAuthor{AuthorID: c.UserID, Name: c.Name},
		Hotel:      root.Hotel,
		BookingID:  root.BookingID,
		Context:    in.Context,
		Images:     []string{},
		StarRating: root.StarRating,
	}
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		_, err := tx.Reviews().FindOneUpdate(ctx,
			domain.Where(domain.Eq("_id", root.ID), domain.Eq("slug", in.ParentSlug), domain.Eq("isReply", false)),
			domain.Set(map[string]any{"isReply": true}),
		)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BadRequest("Review has already reply")
		}
		if err != nil {
			return err
		}
		if err := tx.Reviews().CreateOne(ctx, reply); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.BadRequest("Review has already reply")
			}
			return fmt.Errorf("create reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ObserveWorkflow("review_replied")
	log.Info().Str("review", root.ID).Str("reply", reply.ID).Msg("review replied")
	return reply, nil
}

// UpdateReview lets the author edit or soft-delete their review, keeping the
// hotel aggregate in step with filled root reviews.
func (s *ReviewService) UpdateReview(ctx context.Context, c Caller, reviewID string, in UpdateReviewInput) (*domain.Review, error) {
	own := domain.Where(domain.Eq("_id", reviewID), domain.Eq("author.authorId", c.UserID), domain.Eq("isDelete", false))
	var (
		out     *domain.Review
		touched string // hotel whose aggregate moved
	)
	err := s.withRatingRetry(ctx, func(tx domain.Store) error {
		touched = ""
		cur, err := tx.Reviews().FindOne(ctx, own)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Not found review")
		}
		if err != nil {
			return err
		}
		rated := cur.State() == domain.ReviewFilled || cur.State() == domain.ReviewReplied

		if in.IsDelete {
			out, err = tx.Reviews().FindOneUpdate(ctx, own, domain.Set(map[string]any{"isDelete": true}))
			if err != nil {
				return err
			}
			if !rated {
				return nil
			}
			touched = cur.Hotel.HotelID
			return adjustRating(ctx, tx, cur.Hotel.HotelID, func(r domain.StarRating) domain.StarRating {
				return r.Remove(cur.StarRating)
			})
		}

		if cur.State() == domain.ReviewPlaceholder {
			return domain.BadRequest("Review has not been written yet")
		}
		if rated && in.StarRating == 0 {
			return domain.BadRequest("starRating is required")
		}
		images := in.Images
		if images == nil {
			images = []string{}
		}
		set := map[string]any{"context": in.Context, "images": images}
		if rated {
			set["starRating"] = in.StarRating
		}
		out, err = tx.Reviews().FindOneUpdate(ctx, own, domain.Set(set))
		if err != nil {
			return err
		}
		if !rated || cur.StarRating == in.StarRating {
			return nil
		}
		touched = cur.Hotel.HotelID
		return adjustRating(ctx, tx, cur.Hotel.HotelID, func(r domain.StarRating) domain.StarRating {
			return r.Replace(cur.StarRating, in.StarRating)
		})
	})
	if err != nil {
		return nil, err
	}
	if touched != "" {
		s.invalidateHotel(ctx, touched)
	}
	log.Info().Str("review", reviewID).Bool("deleted", in.IsDelete).Msg("review updated")
	return out, nil
}

// GetReviewsByUser lists a guest's own root reviews (statusBooking) or, for
// the owner, a hotel's reviews or replies (hotelId).
func (s *ReviewService) GetReviewsByUser(ctx context.Context, c Caller, q UserReviewsQuery) ([]domain.Review, error) {
	page, limit := pageOf(q.Page, q.Limit, defaultReviewLimit)

	if q.StatusBooking != "" {
		if q.StatusBooking != domain.StatusStay {
			return nil, domain.BadRequest("statusBooking must be " + domain.StatusStay)
		}
		f := domain.Where(
			domain.Eq("author.authorId", c.UserID),
			domain.Eq("parent_slug", ""),
			domain.Eq("isDelete", false),
		)
		if q.IsReview {
			f = f.And(domain.Gte("starRating", 0.5))
		} else {
			f = f.And(domain.Eq("starRating", 0))
		}
		return s.store.Reviews().FindMany(ctx, domain.PageQuery{Filter: f, Page: page, Limit: limit})
	}

	if q.HotelID != "" {
		hotel, err := s.store.Hotels().FindByID(ctx, q.HotelID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Not found hotel")
		}
		if err != nil {
			return nil, err
		}
		if hotel.UserID != c.UserID {
			return nil, domain.NotAuthorized("Only hotelier can get hotel`s review")
		}
		f := domain.Where(domain.Eq("hotel.hotelId", q.HotelID), domain.Eq("isDelete", false))
		if q.ParentSlug {
			f = f.And(domain.Ne("parent_slug", ""))
		} else {
			f = f.And(domain.Eq("parent_slug", ""), domain.Gte("starRating", 0.5))
		}
		return s.store.Reviews().FindMany(ctx, domain.PageQuery{Filter: f, Page: page, Limit: limit})
	}

	return nil, domain.BadRequest("Request must have one value")
}

// GetReviews is the public listing: one review by partial slug, or a page of
// a hotel's filled root reviews.
func (s *ReviewService) GetReviews(ctx context.Context, q ReviewsQuery) ([]domain.Review, error) {
	if q.ParentSlug != "" {
		r, err := s.store.Reviews().FindOne(ctx, domain.Where(domain.Like("slug", q.ParentSlug), domain.Eq("isDelete", false)))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Not found reviews")
		}
		if err != nil {
			return nil, err
		}
		return []domain.Review{*r}, nil
	}
	if q.HotelID != "" {
		page, limit := pageOf(q.Page, q.Limit, defaultReviewLimit)
		return s.store.Reviews().FindMany(ctx, domain.PageQuery{
			Filter: domain.Where(
				domain.Eq("hotel.hotelId", q.HotelID),
				domain.Eq("parent_slug", ""),
				domain.Gte("starRating", 0.5),
				domain.Eq("isDelete", false),
			),
			Page:  page,
			Limit: limit,
		})
	}
	return nil, domain.BadRequest("Request must have one value")
}

// withRatingRetry reruns fn in a fresh transaction while the hotel aggregate
// keeps moving underneath it.
func (s *ReviewService) withRatingRetry(ctx context.Context, fn func(tx domain.Store) error) error {
	var err error
	for attempt := 1; attempt <= maxRatingAttempts; attempt++ {
		err = s.store.WithTx(ctx, fn)
		if !errors.Is(err, errRatingConflict) {
			return err
		}
		log.Debug().Int("attempt", attempt).Msg("hotel rating conflict; retrying")
	}
	return domain.ServiceUnavailable("hotel rating is busy, try again", err)
}

// invalidateHotel drops the cached detail of a hotel whose rating changed.
func (s *ReviewService) invalidateHotel(ctx context.Context, hotelID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, hotelKey(hotelID)); err != nil {
		log.Warn().Err(err).Str("hotel", hotelID).Msg("hotel cache invalidation failed")
	}
}

// adjustRating rewrites the hotel aggregate only if nobody changed it since it was read.
func adjustRating(ctx context.Context, tx domain.Store, hotelID string, next func(domain.StarRating) domain.StarRating) error {
	h, err := tx.Hotels().FindByID(ctx, hotelID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Not found hotel")
	}
	if err != nil {
		return err
	}
	_, err = tx.Hotels().FindOneUpdate(ctx,
		domain.Where(
			domain.Eq("_id", hotelID),
			domain.Eq("starRating.countReview", h.StarRating.CountReview),
			domain.Eq("starRating.starAverage", h.StarRating.StarAverage),
		),
		domain.Set(map[string]any{"starRating": next(h.StarRating)}),
	)
	if errors.Is(err, domain.ErrNotFound) {
		return errRatingConflict
	}
	return err
}
