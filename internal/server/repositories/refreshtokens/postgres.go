package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = `id, token, user_id, expires_at, is_valid, device_info, ip_address, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(row scanner) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	var device, ip sql.NullString
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.IsValid, &device, &ip, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.DeviceInfo = device.String
	t.IPAddress = ip.String
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, device_info, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_valid, created_at
	`
	err := r.db.QueryRowContext(ctx, query, t.Token, t.UserID, t.ExpiresAt, nullable(t.DeviceInfo), nullable(t.IPAddress)).
		Scan(&t.ID, &t.IsValid, &t.CreatedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, &common.ConstraintViolation{Field: "token", Value: t.Token}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + columns + `
		FROM refresh_tokens
		WHERE token = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) FindValidByUser(ctx context.Context, userID int64, now time.Time) (*models.RefreshToken, error) {
	query := `
		SELECT ` + columns + `
		FROM refresh_tokens
		WHERE user_id = $1 AND is_valid AND expires_at > $2
		ORDER BY id
		LIMIT 1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, userID, now))
}

func (r *PostgresRepository) Invalidate(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET is_valid = false
		WHERE token = $1 AND is_valid
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET is_valid = false
		WHERE token = $1 AND is_valid AND expires_at > $2
		RETURNING ` + columns + `
	`
	t, err := scanToken(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		return nil, err
	}
	// RETURNING reports the new row; the caller wants the state it consumed.
	t.IsValid = true
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string, userID int64, now time.Time) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET is_valid = false
		WHERE token = $1 AND user_id = $2 AND is_valid AND expires_at > $3
		RETURNING ` + columns + `
	`
	return scanToken(r.db.QueryRowContext(ctx, query, token, userID, now))
}
