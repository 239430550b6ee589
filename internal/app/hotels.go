package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const (
	defaultHotelLimit  = 15
	defaultReviewLimit = 10
)

type HotelService struct {
	store      domain.Store
	membership *MembershipProvisioner
	promoter   *Promoter
	cache      domain.Cache
	cacheTTL   time.Duration
}

func NewHotelService(s domain.Store, m *MembershipProvisioner, p *Promoter, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{store: s, membership: m, promoter: p, cache: c, cacheTTL: ttl}
}

type CreateHotelResult struct {
	Hotel domain.HotelSummary
	// Tokens is set when the caller was promoted to hotelier by this creation.
	Tokens *domain.TokenPair
}

func (s *HotelService) CreateHotel(ctx context.Context, c Caller, in CreateHotelInput) (CreateHotelResult, error) {
	var res CreateHotelResult
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		owned, err := tx.Hotels().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.Eq("userId", c.UserID))})
		if err != nil {
			return fmt.Errorf("list owner hotels: %w", err)
		}
		for _, h := range owned {
			if !h.IsDelete && h.HotelName == in.HotelName {
				return domain.Duplicate("DuplicateError new hotel name")
			}
		}

		rooms := newRoomTypes(in.RoomTypes)
		if err := tx.RoomTypes().CreateMany(ctx, rooms); err != nil {
			return domain.ServiceUnavailable("create room types", err)
		}

		hotel := &domain.Hotel{
			UserID:       c.UserID,
			HotelName:    in.HotelName,
			Address:      in.Address,
			City:         in.City,
			Country:      in.Country,
			ZipCode:      in.ZipCode,
			PropertyType: in.PropertyType,
			Star:         in.Star,
			Images:       in.Images,
			RoomTypeIDs:  roomTypeIDs(rooms),
			Package:      packageFor(owned),
		}
		if err := tx.Hotels().CreateOne(ctx, hotel); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.Duplicate("DuplicateError new hotel name")
			}
			return domain.ServiceUnavailable("create hotel", err)
		}

		res = CreateHotelResult{Hotel: summarize(hotel)}
		if len(owned) > 0 {
			return nil
		}
		if _, err := s.membership.Provision(ctx, tx, c.UserID, hotel.ID); err != nil {
			return err
		}
		res.Tokens, err = s.promoter.Promote(ctx, tx, c)
		return err
	})
	if err != nil {
		return CreateHotelResult{}, err
	}

	observability.ObserveWorkflow("hotel_created")
	log.Info().Str("hotel", res.Hotel.ID).Str("owner", c.UserID).Str("package", string(res.Hotel.Package)).Msg("hotel created")
	return res, nil
}

// packageFor picks the package of a new hotel: WEEK for a first hotel,
// otherwise whatever the owner's most recent hotel carries.
func packageFor(owned []domain.Hotel) domain.Package {
	if len(owned) == 0 {
		return domain.PackageWeek
	}
	if owned[0].Package == "" {
		return domain.PackageFree
	}
	return owned[0].Package
}

func (s *HotelService) UpdateHotel(ctx context.Context, ownerID, hotelID string, p HotelPatch) (*domain.Hotel, error) {
	var (
		h   *domain.Hotel
		err error
	)
	if p.IsDelete != nil && *p.IsDelete {
		h, err = s.store.Hotels().FindOneUpdate(ctx,
			domain.Where(domain.Eq("_id", hotelID), domain.Eq("userId", ownerID)),
			domain.Set(map[string]any{"isDelete": true}),
		)
	} else {
		fields := p.fields()
		if len(fields) == 0 {
			return nil, domain.BadRequest("nothing to update")
		}
		h, err = s.store.Hotels().FindOneUpdate(ctx,
			domain.Where(domain.Eq("_id", hotelID), domain.Eq("userId", ownerID), domain.Eq("isDelete", false)),
			domain.Set(fields),
		)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.NotFound("Not found hotel")
	case errors.Is(err, domain.ErrDuplicate):
		return nil, domain.Duplicate("DuplicateError new hotel name")
	case err != nil:
		return nil, err
	}
	s.invalidate(ctx, hotelID)
	return h, nil
}

// CreateRoom adds room types and attaches them to one hotel or, with
// IsCreateMulti, to every active hotel of the owner. Room types that cannot
// be attached are removed again.
func (s *HotelService) CreateRoom(ctx context.Context, ownerID, hotelID string, in CreateRoomInput) ([]domain.RoomType, error) {
	var (
		rooms    []*domain.RoomType
		attached []string
	)
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		rooms = newRoomTypes(in.RoomTypes)
		if err := tx.RoomTypes().CreateMany(ctx, rooms); err != nil {
			return domain.ServiceUnavailable("create room types", err)
		}
		ids := roomTypeIDs(rooms)

		if in.IsCreateMulti {
			active := domain.Where(domain.Eq("userId", ownerID), domain.Eq("isDelete", false))
			owned, err := tx.Hotels().FindMany(ctx, domain.PageQuery{Filter: active})
			if err != nil {
				return err
			}
			if len(owned) == 0 {
				return s.detachRooms(ctx, tx, ids)
			}
			if _, err := tx.Hotels().UpdateMany(ctx, active, domain.AddToSet("roomTypeIds", ids)); err != nil {
				return err
			}
			for _, h := range owned {
				attached = append(attached, h.ID)
			}
			return nil
		}

		_, err := tx.Hotels().FindOneUpdate(ctx,
			domain.Where(domain.Eq("_id", hotelID), domain.Eq("userId", ownerID), domain.Eq("isDelete", false)),
			domain.AddToSet("roomTypeIds", ids),
		)
		if errors.Is(err, domain.ErrNotFound) {
			return s.detachRooms(ctx, tx, ids)
		}
		if err != nil {
			return err
		}
		attached = []string{hotelID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range attached {
		s.invalidate(ctx, id)
	}
	observability.ObserveWorkflow("room_types_created")
	log.Info().Str("owner", ownerID).Int("rooms", len(rooms)).Int("hotels", len(attached)).Msg("room types attached")
	return derefRooms(rooms), nil
}

// detachRooms is the compensating step for room types whose hotel is gone.
func (s *HotelService) detachRooms(ctx context.Context, tx domain.Store, ids []string) error {
	if _, err := tx.RoomTypes().DeleteMany(ctx, domain.Where(domain.InStrings("_id", ids))); err != nil {
		return fmt.Errorf("remove orphaned room types: %w", err)
	}
	log.Warn().Strs("rooms", ids).Msg("hotel not found; room types removed")
	return domain.NotFound("Not found hotel")
}

func (s *HotelService) UpdateRoomType(ctx context.Context, roomID string, p RoomTypePatch) (*domain.RoomType, error) {
	fields := p.fields()
	if len(fields) == 0 {
		return nil, domain.BadRequest("nothing to update")
	}
	rt, err := s.store.RoomTypes().FindByIDUpdate(ctx, roomID, domain.Set(fields))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Not found room")
	}
	if err != nil {
		return nil, err
	}

	// cached details embed the room, so drop every hotel that lists it
	owners, err := s.store.Hotels().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.Has("roomTypeIds", roomID))})
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("lookup hotels for cache invalidation failed")
		return rt, nil
	}
	for _, h := range owners {
		s.invalidate(ctx, h.ID)
	}
	return rt, nil
}

func (s *HotelService) GetHotels(ctx context.Context, f HotelFilter) ([]domain.Hotel, error) {
	page, limit := pageOf(f.Page, f.Limit, defaultHotelLimit)
	hotels, err := s.store.Hotels().FindMany(ctx, domain.PageQuery{Filter: f.filter(), Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	if len(hotels) == 0 {
		return nil, domain.NotFound("Not found hotel")
	}
	return hotels, nil
}

func hotelKey(id string) string { return "hotel:" + id }

// DetailHotel returns a hotel with its room types, served cache-aside.
func (s *HotelService) DetailHotel(ctx context.Context, hotelID string) (domain.HotelDetail, error) {
	key := hotelKey(hotelID)
	var hd domain.HotelDetail
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &hd); ok {
			return hd, nil
		}
	}

	h, err := s.store.Hotels().FindOne(ctx, domain.Where(domain.Eq("_id", hotelID), domain.Eq("isDelete", false)))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.HotelDetail{}, domain.NotFound("Not found hotel")
	}
	if err != nil {
		return domain.HotelDetail{}, err
	}
	hd = domain.HotelDetail{Hotel: *h, RoomTypes: []domain.RoomType{}}
	if len(h.RoomTypeIDs) > 0 {
		rooms, err := s.store.RoomTypes().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.InStrings("_id", h.RoomTypeIDs))})
		if err != nil {
			return domain.HotelDetail{}, err
		}
		hd.RoomTypes = rooms
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, hd, int(s.cacheTTL.Seconds()))
	}
	return hd, nil
}

func (s *HotelService) invalidate(ctx context.Context, hotelID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelKey(hotelID))
	}
}
