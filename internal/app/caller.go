package app

import "hotel_booking/internal/domain"

// Caller is the authenticated user a request acts for.
type Caller struct {
	UserID   string
	Email    string
	Name     string
	Role     domain.Role
	DeviceID string
}
