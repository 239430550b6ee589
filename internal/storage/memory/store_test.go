package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_booking/internal/domain"
)

type tick struct{ t time.Time }

func (c *tick) Now() time.Time { c.t = c.t.Add(time.Millisecond); return c.t }

func newStore() *Store { return New(&tick{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}) }

func TestCollection_CRUD(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	h := &domain.Hotel{UserID: "u1", HotelName: "Sea View", Package: domain.PackageWeek}
	if err := s.Hotels().CreateOne(ctx, h); err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID == "" || h.CreatedAt.IsZero() {
		t.Fatalf("not stamped: %+v", h)
	}

	got, err := s.Hotels().FindByID(ctx, h.ID)
	if err != nil || got.HotelName != "Sea View" {
		t.Fatalf("find: %+v err=%v", got, err)
	}
	if _, err := s.Hotels().FindByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// mutating the returned copy does not leak into the store
	got.HotelName = "changed"
	again, _ := s.Hotels().FindByID(ctx, h.ID)
	if again.HotelName != "Sea View" {
		t.Fatalf("store aliasing")
	}

	upd, err := s.Hotels().FindByIDUpdate(ctx, h.ID, domain.Set(map[string]any{"city": "Hue"}))
	if err != nil || upd.City != "Hue" || !upd.UpdatedAt.After(upd.CreatedAt) {
		t.Fatalf("update: %+v err=%v", upd, err)
	}

	if err := s.Hotels().CreateOne(ctx, &domain.Hotel{UserID: "u1", HotelName: "Hill"}); err != nil {
		t.Fatalf("second: %v", err)
	}
	n, err := s.Hotels().UpdateMany(ctx, domain.Where(domain.Eq("userId", "u1")), domain.Set(map[string]any{"package": domain.PackageFree}))
	if err != nil || n != 2 {
		t.Fatalf("update many: n=%d err=%v", n, err)
	}

	list, _ := s.Hotels().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.Eq("package", domain.PackageFree))})
	if len(list) != 2 || list[0].HotelName != "Hill" {
		t.Fatalf("newest first: %+v", list)
	}

	n, err = s.Hotels().DeleteMany(ctx, domain.Where(domain.Eq("hotelName", "Hill")))
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
}

func TestCollection_UniqueKeys(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	if err := s.Hotels().CreateOne(ctx, &domain.Hotel{UserID: "u1", HotelName: "Sea View"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.Hotels().CreateOne(ctx, &domain.Hotel{UserID: "u1", HotelName: "Sea View"})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	other := &domain.Hotel{UserID: "u1", HotelName: "Other"}
	_ = s.Hotels().CreateOne(ctx, other)
	_, err = s.Hotels().FindByIDUpdate(ctx, other.ID, domain.Set(map[string]any{"hotelName": "Sea View"}))
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("rename into duplicate: %v", err)
	}
	still, _ := s.Hotels().FindByID(ctx, other.ID)
	if still.HotelName != "Other" {
		t.Fatalf("failed update applied: %s", still.HotelName)
	}

	err = s.Reviews().CreateMany(ctx, []*domain.Review{{Slug: "s1"}, {Slug: "s1"}})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate slug in batch: %v", err)
	}
	if rs, _ := s.Reviews().FindMany(ctx, domain.PageQuery{}); len(rs) != 0 {
		t.Fatalf("partial batch stored: %d", len(rs))
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	_ = s.Users().CreateOne(ctx, &domain.User{ID: "u1", Role: domain.RoleUser})

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Users().FindByIDUpdate(ctx, "u1", domain.Set(map[string]any{"role": domain.RoleHotelier})); err != nil {
			return err
		}
		if err := tx.Memberships().CreateOne(ctx, &domain.Membership{UserID: "u1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	u, _ := s.Users().FindByID(ctx, "u1")
	if u.Role != domain.RoleUser {
		t.Fatalf("role survived rollback: %s", u.Role)
	}
	if ms, _ := s.Memberships().FindMany(ctx, domain.PageQuery{}); len(ms) != 0 {
		t.Fatalf("membership survived rollback")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = s.WithTx(cctx, func(tx domain.Store) error {
		return tx.Memberships().CreateOne(ctx, &domain.Membership{UserID: "u2"})
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if ms, _ := s.Memberships().FindMany(ctx, domain.PageQuery{}); len(ms) != 0 {
		t.Fatalf("write kept after cancel")
	}
}

func TestFindMany_Paging(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.RoomTypes().CreateOne(ctx, &domain.RoomType{NumberOfRoom: i})
	}
	page, _ := s.RoomTypes().FindMany(ctx, domain.PageQuery{Page: 2, Limit: 2})
	if len(page) != 2 || page[0].NumberOfRoom != 2 || page[1].NumberOfRoom != 1 {
		t.Fatalf("page 2: %+v", page)
	}
	if past, _ := s.RoomTypes().FindMany(ctx, domain.PageQuery{Page: 9, Limit: 2}); len(past) != 0 {
		t.Fatalf("past end: %+v", past)
	}
}
