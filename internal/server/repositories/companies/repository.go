// Package companies provides read access to the company directory.
package companies

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type Repository interface {
	// GetByID returns common.ErrorNotFound when the company does not exist.
	GetByID(ctx context.Context, id int64) (*models.Company, error)
}
