package domain

import (
	"context"
	"encoding/json"
	"time"
)

type JobType string

const (
	JobMembershipExpire JobType = "membership.expire"
	JobReviewOpen       JobType = "review.open"
)

type Job struct {
	ID       string          `json:"id"`
	Type     JobType         `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

type MembershipExpirePayload struct {
	MembershipID string `json:"membershipId"`
	UserID       string `json:"userId"`
}

type ReviewOpenPayload struct {
	BookingID string `json:"bookingId"`
	HotelID   string `json:"hotelId"`
	AuthorID  string `json:"authorId"`
	Name      string `json:"name,omitempty"`
}

// JobQueue schedules jobs to become due after a delay.
type JobQueue interface {
	Enqueue(ctx context.Context, job Job, delay time.Duration) (string, error)
	Due(ctx context.Context, now time.Time, max int) ([]Job, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type TokenIssuer interface {
	IssueTokenPair(claims TokenClaims, secret string) (TokenPair, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock reads the wall clock in UTC.
func RealClock() Clock { return realClock{} }
