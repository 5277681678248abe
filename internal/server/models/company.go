package models

import "time"

type Company struct {
	ID          int64
	Name        string
	Address     string
	PhoneNumber string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CompanySummary struct {
	ID          int64
	Name        string
	Address     string
	PhoneNumber string
	Email       string
}

func (c *Company) Summary() CompanySummary {
	return CompanySummary{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
	}
}
