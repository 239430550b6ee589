package domain

import "time"

// MembershipPeriod is how long the membership granted on a first hotel lasts.
const MembershipPeriod = 7 * 24 * time.Hour

type Membership struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Package   Package   `json:"package"`
	TimeEnd   time.Time `json:"timeEnd"`
	IsExpire  bool      `json:"isExpire"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Role string

const (
	RoleUser     Role = "USER"
	RoleHotelier Role = "HOTELIER"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// KeyStore holds the signing secret and current refresh token of one user device.
type KeyStore struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	SecretKey    string    `json:"secretKey"`
	RefreshToken string    `json:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
