// Package users declares the server-side contract for the user directory.
package users

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Include selects which relations a lookup loads alongside the user.
type Include struct {
	Role    bool
	Company bool
}

type Repository interface {
	// Create inserts user and fills its id and timestamps. A duplicate email
	// or username yields *common.ConstraintViolation; an unknown role or
	// company yields common.ErrorNotFound.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64, inc Include) (*models.User, error)
	GetByUsername(ctx context.Context, username string, inc Include) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
