// Package models holds the server-side domain entities and the sanitized
// projections that are allowed to leave the process.
package models

import "time"

// User is a row of the users directory. Role and Company are only set when
// the lookup asked for them.
type User struct {
	ID         int64
	Username   string
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
	Password   string
	CompanyID  int64
	RoleID     int64
	IsOwner    bool
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Role    *Role
	Company *Company
}

// UserIdentity is the immutable snapshot carried in access token claims.
type UserIdentity struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// Identity projects u into token claims. The role name is empty unless the
// role relation was loaded.
func (u *User) Identity() UserIdentity {
	id := UserIdentity{ID: u.ID, Username: u.Username, Email: u.Email}
	if u.Role != nil {
		id.Role = u.Role.Name
	}
	return id
}

// UserSummary is the created-user projection: no password, sanitized role.
type UserSummary struct {
	ID         int64
	Username   string
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
	CompanyID  int64
	IsOwner    bool
	IsVerified bool
	Role       RoleSummary
	CreatedAt  time.Time
}

func (u *User) Summary() UserSummary {
	s := UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Email:      u.Email,
		CompanyID:  u.CompanyID,
		IsOwner:    u.IsOwner,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
	if u.Role != nil {
		s.Role = u.Role.Summary()
	}
	return s
}

// SessionView is what a signed-in user may learn about their own session.
type SessionView struct {
	ID         int64
	Username   string
	Email      string
	FirstName  string
	LastName   string
	IsVerified bool
	IsOwner    bool
	CreatedAt  time.Time
	Role       RoleSummary
	Company    CompanySummary
}

func (u *User) SessionView() SessionView {
	v := SessionView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsVerified: u.IsVerified,
		IsOwner:    u.IsOwner,
		CreatedAt:  u.CreatedAt,
	}
	if u.Role != nil {
		v.Role = u.Role.Summary()
	}
	if u.Company != nil {
		v.Company = u.Company.Summary()
	}
	return v
}
