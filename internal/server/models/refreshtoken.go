package models

import "time"

// RefreshToken is one issued refresh token. IsValid only ever goes from
// true to false; rows are kept for audit.
type RefreshToken struct {
	ID         int64
	Token      string
	UserID     int64
	ExpiresAt  time.Time
	IsValid    bool
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}

// Usable reports whether the record can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.IsValid && t.ExpiresAt.After(now)
}

// ClientInfo is the request provenance stored with a refresh record.
type ClientInfo struct {
	DeviceInfo string
	IPAddress  string
}
