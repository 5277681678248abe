package models

import "time"

// Role is the full directory row. Priority and the timestamps are internal.
type Role struct {
	ID          int64
	Name        string
	Description string
	Priority    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RoleSummary struct {
	ID          int64
	Name        string
	Description string
}

func (r *Role) Summary() RoleSummary {
	return RoleSummary{ID: r.ID, Name: r.Name, Description: r.Description}
}
