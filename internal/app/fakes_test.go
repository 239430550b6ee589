package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string][]byte
	ttl   map[string]int
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
		c.ttl = map[string]int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.ttl[key] = ttlSec
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type queued struct {
	job   domain.Job
	delay time.Duration
}

type fakeQueue struct {
	jobs []queued
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job domain.Job, delay time.Duration) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, queued{job: job, delay: delay})
	return "job-" + string(job.Type), nil
}

func (q *fakeQueue) Due(ctx context.Context, now time.Time, max int) ([]domain.Job, error) {
	return nil, nil
}

type fakeTokens struct{ issued []domain.TokenClaims }

func (f *fakeTokens) IssueTokenPair(c domain.TokenClaims, secret string) (domain.TokenPair, error) {
	f.issued = append(f.issued, c)
	return domain.TokenPair{AccessToken: "at-" + c.UserID, RefreshToken: "rt-" + c.UserID}, nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// ---- environment ----

type env struct {
	store   *memory.Store
	cache   *fakeCache
	queue   *fakeQueue
	tokens  *fakeTokens
	clock   *fixedClock
	hotels  *app.HotelService
	reviews *app.ReviewService
	jobs    *app.JobService
}

func newEnv(t *testing.T, policy app.MembershipPolicy) *env {
	t.Helper()
	e := &env{
		cache:  &fakeCache{},
		queue:  &fakeQueue{},
		tokens: &fakeTokens{},
		clock:  &fixedClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	e.store = memory.New(e.clock)
	prov := app.NewMembershipProvisioner(e.queue, e.cache, e.clock, policy)
	e.hotels = app.NewHotelService(e.store, prov, app.NewPromoter(e.tokens), e.cache, 15*time.Minute)
	e.reviews = app.NewReviewService(e.store, e.cache, e.clock)
	e.jobs = app.NewJobService(e.store, e.cache, e.reviews)
	return e
}

func (e *env) user(t *testing.T, id string, role domain.Role) app.Caller {
	t.Helper()
	u := &domain.User{ID: id, Email: id + "@example.com", Name: "name-" + id, Role: role}
	if err := e.store.Users().CreateOne(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return app.Caller{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, DeviceID: "10.0.0.1"}
}

func hotelInput(name string) app.CreateHotelInput {
	return app.CreateHotelInput{
		HotelName:    name,
		Address:      "1 Beach Road",
		City:         "Da Nang",
		Country:      "VN",
		ZipCode:      55000,
		PropertyType: domain.PropertyHotel,
		Star:         4,
		Images:       "https://img.example.com/h.jpg",
		RoomTypes:    []app.RoomTypeInput{roomInput("Deluxe")},
	}
}

func roomInput(name string) app.RoomTypeInput {
	return app.RoomTypeInput{
		RoomAmenities:   []domain.RoomAmenity{domain.AmenityWifi},
		NameOfRoom:      name,
		RateDescription: "Room only",
		Price:           120,
		Images:          []string{"https://img.example.com/r.jpg"},
		NumberOfRoom:    2,
	}
}

func (e *env) createHotel(t *testing.T, c app.Caller, name string) domain.HotelSummary {
	t.Helper()
	res, err := e.hotels.CreateHotel(context.Background(), c, hotelInput(name))
	if err != nil {
		t.Fatalf("create hotel %q: %v", name, err)
	}
	return res.Hotel
}

func (e *env) hotel(t *testing.T, id string) *domain.Hotel {
	t.Helper()
	h, err := e.store.Hotels().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find hotel %s: %v", id, err)
	}
	return h
}

func (e *env) placeholder(t *testing.T, hotelID string, guest app.Caller, booking string) *domain.Review {
	t.Helper()
	r, err := e.reviews.OpenReview(context.Background(), domain.ReviewOpenPayload{
		BookingID: booking, HotelID: hotelID, AuthorID: guest.UserID, Name: guest.Name,
	})
	if err != nil {
		t.Fatalf("open review: %v", err)
	}
	return r
}

func wantKind(t *testing.T, err error, kind *domain.Error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind.Message, err)
	}
}
