// Package roles provides read access to the role directory.
package roles

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type Repository interface {
	// GetByID returns common.ErrorNotFound when the role does not exist.
	GetByID(ctx context.Context, id int64) (*models.Role, error)
}
