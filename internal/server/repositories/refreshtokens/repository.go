// Package refreshtokens declares the store for issued refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository persists refresh token records. Records are never deleted;
// IsValid only ever moves from true to false.
type Repository interface {
	// Create inserts t and fills its id, IsValid and CreatedAt. A duplicate
	// token yields *common.ConstraintViolation with Field "token".
	Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error)

	// FindByToken returns the record with exactly this token, valid or not,
	// or common.ErrorNotFound.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindValidByUser returns the user's usable record with the lowest id,
	// or common.ErrorNotFound when the user has none.
	FindValidByUser(ctx context.Context, userID int64, now time.Time) (*models.RefreshToken, error)

	// Invalidate marks the token unusable. Unknown or already invalid
	// tokens are not an error.
	Invalidate(ctx context.Context, token string) error

	// Consume atomically invalidates the token if it is still usable at now
	// and returns the record as it was. A token that is missing, already
	// invalid or expired yields common.ErrorNotFound. Within a transaction
	// the row stays locked until commit, so concurrent callers with the same
	// token see exactly one success.
	Consume(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)

	// Revoke is Consume restricted to records owned by userID. It reports
	// common.ErrorNotFound when nothing was revoked, so a logout that lost
	// a race with a rotation does not look successful.
	Revoke(ctx context.Context, token string, userID int64, now time.Time) (*models.RefreshToken, error)
}
