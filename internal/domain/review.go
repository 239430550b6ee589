package domain

import (
	"strconv"
	"strings"
	"time"
)

type ReviewAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name,omitempty"`
}

type ReviewHotel struct {
	HotelID   string `json:"hotelId"`
	HotelName string `json:"hotelName,omitempty"`
}

type Review struct {
	ID         string       `json:"_id"`
	Slug       string       `json:"slug"`
	ParentSlug string       `json:"parent_slug"`
	Author     ReviewAuthor `json:"author"`
	Hotel      ReviewHotel  `json:"hotel"`
	BookingID  string       `json:"bookingId,omitempty"`
	Context    string       `json:"context"`
	Images     []string     `json:"images"`
	StarRating float64      `json:"starRating"`
	IsReply    bool         `json:"isReply"`
	IsDelete   bool         `json:"isDelete"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

type ReviewState int

const (
	ReviewPlaceholder ReviewState = iota
	ReviewFilled
	ReviewReplied
	ReviewReply
)

func (s ReviewState) String() string {
	switch s {
	case ReviewPlaceholder:
		return "placeholder"
	case ReviewFilled:
		return "filled"
	case ReviewReplied:
		return "replied"
	case ReviewReply:
		return "reply"
	}
	return "unknown"
}

func (r Review) IsRoot() bool { return r.ParentSlug == "" }

func (r Review) State() ReviewState {
	switch {
	case !r.IsRoot():
		return ReviewReply
	case r.StarRating == 0:
		return ReviewPlaceholder
	case r.IsReply:
		return ReviewReplied
	default:
		return ReviewFilled
	}
}

// ReplySlug threads a reply under its root: "<root>/<unix millis>".
func ReplySlug(root string, at time.Time) string {
	return root + "/" + strconv.FormatInt(at.UnixMilli(), 10)
}

// RootSlug returns the root part of a threaded slug.
func RootSlug(slug string) string {
	if i := strings.IndexByte(slug, '/'); i >= 0 {
		return slug[:i]
	}
	return slug
}

// StatusStay is the only booking status for which a guest lists their own reviews.
const StatusStay = "STAY"
