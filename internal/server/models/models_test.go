package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleUser() *User {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &User{
		ID:        7,
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "a@x.com",
		Password:  "$2a$10$hash",
		CompanyID: 1,
		RoleID:    2,
		CreatedAt: now,
		Role:      &Role{ID: 2, Name: "manager", Description: "Manages cases", Priority: 50, CreatedAt: now, UpdatedAt: now},
		Company:   &Company{ID: 1, Name: "Acme", Address: "1 Road", PhoneNumber: "+1", Email: "info@acme.test", CreatedAt: now},
	}
}

func TestUser_Identity(t *testing.T) {
	u := sampleUser()
	assert.Equal(t, UserIdentity{ID: 7, Username: "alice", Email: "a@x.com", Role: "manager"}, u.Identity())

	u.Role = nil
	assert.Empty(t, u.Identity().Role)
}

func TestUser_SummaryStripsInternals(t *testing.T) {
	s := sampleUser().Summary()

	assert.Equal(t, RoleSummary{ID: 2, Name: "manager", Description: "Manages cases"}, s.Role)
	assert.Equal(t, "alice", s.Username)
}

func TestUser_SessionView(t *testing.T) {
	v := sampleUser().SessionView()

	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, RoleSummary{ID: 2, Name: "manager", Description: "Manages cases"}, v.Role)
	assert.Equal(t, CompanySummary{ID: 1, Name: "Acme", Address: "1 Road", PhoneNumber: "+1", Email: "info@acme.test"}, v.Company)
}

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Now()

	assert.True(t, (&RefreshToken{IsValid: true, ExpiresAt: now.Add(time.Minute)}).Usable(now))
	assert.False(t, (&RefreshToken{IsValid: false, ExpiresAt: now.Add(time.Minute)}).Usable(now))
	assert.False(t, (&RefreshToken{IsValid: true, ExpiresAt: now}).Usable(now))
}
