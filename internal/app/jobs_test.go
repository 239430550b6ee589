package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func membershipOf(t *testing.T, e *env, ownerID string) domain.MembershipExpirePayload {
	t.Helper()
	m, err := e.store.Memberships().FindOne(context.Background(), domain.Where(domain.Eq("userId", ownerID)))
	if err != nil {
		t.Fatalf("membership of %s: %v", ownerID, err)
	}
	return domain.MembershipExpirePayload{MembershipID: m.ID, UserID: ownerID}
}

func TestExpireMembership_DemotesEveryHotelOnce(t *testing.T) {
	e := newEnv(t, app.PolicyBestEffort)
	ctx := context.Background()
	owner := e.user(t, "owner-a", domain.RoleUser)
	h1 := e.createHotel(t, owner, "Sea View")
	owner.Role = domain.RoleHotelier
	h2 := e.createHotel(t, owner, "Hill View")
	other := e.user(t, "owner-b", domain.RoleUser)
	h3 := e.createHotel(t, other, "Elsewhere")

	// the scheduled job carries the membership it expires
	var p domain.MembershipExpirePayload
	if err := json.Unmarshal(e.queue.jobs[0].job.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p != membershipOf(t, e, owner.UserID) {
		t.Fatalf("payload %+v", p)
	}

	e.clock.advance(domain.MembershipPeriod)
	if err := e.jobs.Handle(ctx, e.queue.jobs[0].job); err != nil {
		t.Fatalf("handle: %v", err)
	}

	for _, id := range []string{h1.ID, h2.ID} {
		if got := e.hotel(t, id).Package; got != domain.PackageFree {
			t.Fatalf("hotel %s package %s", id, got)
		}
	}
	if got := e.hotel(t, h3.ID).Package; got != domain.PackageWeek {
		t.Fatalf("other owner demoted: %s", got)
	}
	m, _ := e.store.Memberships().FindByID(ctx, p.MembershipID)
	if !m.IsExpire {
		t.Fatalf("membership not marked expired")
	}
	if _, ok := e.cache.store["membership:"+h1.ID]; ok {
		t.Fatalf("membership mirror survived expiry")
	}

	// a redelivered job is a no-op
	if err := e.jobs.Handle(ctx, e.queue.jobs[0].job); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	// hotels created after expiry inherit FREE
	res, err := e.hotels.CreateHotel(ctx, owner, hotelInput("New Place"))
	if err != nil || res.Hotel.Package != domain.PackageFree {
		t.Fatalf("post-expiry hotel: %+v err=%v", res.Hotel, err)
	}
}

func TestHandle_ReviewOpenAndUnknownJobs(t *testing.T) {
	e := newEnv(t, app.PolicyStrict)
	ctx := context.Background()
	owner := e.user(t, "owner-a", domain.RoleUser)
	guest := e.user(t, "guest-b", domain.RoleUser)
	h := e.createHotel(t, owner, "Sea View")

	payload, _ := json.Marshal(domain.ReviewOpenPayload{BookingID: "bk-1", HotelID: h.ID, AuthorID: guest.UserID, Name: guest.Name})
	job := domain.Job{Type: domain.JobReviewOpen, Payload: payload}
	for i := 0; i < 2; i++ {
		if err := e.jobs.Handle(ctx, job); err != nil {
			t.Fatalf("handle review.open: %v", err)
		}
	}
	rs, _ := e.store.Reviews().FindMany(ctx, domain.PageQuery{Filter: domain.Where(domain.Eq("bookingId", "bk-1"))})
	if len(rs) != 1 || rs[0].Author.AuthorID != guest.UserID {
		t.Fatalf("placeholders: %+v", rs)
	}

	if err := e.jobs.Handle(ctx, domain.Job{Type: "bogus"}); err == nil {
		t.Fatalf("unknown job accepted")
	}
	if err := e.jobs.Handle(ctx, domain.Job{Type: domain.JobMembershipExpire, Payload: json.RawMessage(`{`)}); err == nil {
		t.Fatalf("bad payload accepted")
	}
}
