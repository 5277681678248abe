package rpc

import "time"

type RegisterRequest struct {
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	CompanyID  int64  `json:"companyId"`
	RoleID     int64  `json:"roleId"`
	IsOwner    bool   `json:"isOwner"`
	IsVerified bool   `json:"isVerified"`
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Company struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// UserSummary is the created-user projection. It never carries a password.
type UserSummary struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"firstName"`
	MiddleName string    `json:"middleName,omitempty"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	CompanyID  int64     `json:"companyId"`
	IsOwner    bool      `json:"isOwner"`
	IsVerified bool      `json:"isVerified"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	User         LoginUser `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	// ExpiresIn is the access token expiry as absolute epoch milliseconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// RefreshRequest carries the refresh token. When it is empty the server
// falls back to the bearer access token in the call metadata.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LogoutRequest optionally names the session to close.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type LogoutResponse struct{}

type SessionRequest struct{}

type SessionView struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	IsVerified bool      `json:"isVerified"`
	IsOwner    bool      `json:"isOwner"`
	CreatedAt  time.Time `json:"createdAt"`
	Role       Role      `json:"role"`
	Company    Company   `json:"company"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
