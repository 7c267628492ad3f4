package model

import "time"

type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
)

type DeviceInfo struct {
	ID   string     `json:"deviceId"`
	Name string     `json:"deviceName"`
	Type DeviceType `json:"deviceType"`
}

type RefreshToken struct {
	ID              string
	Token           string
	UserID          string
	Device          DeviceInfo
	ExpiresAt       time.Time
	Revoked         bool
	ReplacedByToken *string
	CreatedAt       time.Time
}

// Usable reports whether the token may still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Session is the client-visible view of an active refresh token.
type Session struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"deviceId"`
	Name      string     `json:"deviceName"`
	Type      DeviceType `json:"deviceType"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Current   bool       `json:"current"`
}
