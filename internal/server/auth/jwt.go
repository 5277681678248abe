// Package auth mints and verifies the signed access and refresh tokens,
// hashes passwords, and carries the caller identity through a context.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig is everything a TokenIssuer needs. The two secrets must
// differ so one leaked key cannot forge the other kind of token.
type TokenConfig struct {
	AccessSecret     []byte
	RefreshSecret    []byte
	AccessExpiresIn  string
	RefreshExpiresIn string
}

// AccessClaims identify the caller on every protected request.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (c *AccessClaims) Identity() models.UserIdentity {
	return models.UserIdentity{ID: c.UserID, Username: c.Username, Email: c.Email, Role: c.Role}
}

// RefreshClaims deliberately omit username and email.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Role   string `json:"role"`
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*TokenIssuer)

// WithClock replaces time.Now for both minting and verification.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) { i.now = now }
}

// NewTokenIssuer validates cfg and returns an issuer. Configuration
// problems surface here, at startup, as common.ErrorConfiguration.
func NewTokenIssuer(cfg TokenConfig, opts ...Option) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: empty token secret", common.ErrorConfiguration)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", common.ErrorConfiguration)
	}
	accessTTL, err := ParseExpiresIn(cfg.AccessExpiresIn)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := ParseExpiresIn(cfg.RefreshExpiresIn)
	if err != nil {
		return nil, err
	}

	i := &TokenIssuer{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// RefreshTTL is the lifetime of refresh tokens and of their stored records.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) registered(userID int64, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := i.now()
	exp := now.Add(ttl)
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}, exp
}

// IssueAccessToken signs an access token for identity and returns it with
// its absolute expiry.
func (i *TokenIssuer) IssueAccessToken(identity models.UserIdentity) (string, time.Time, error) {
	rc, exp := i.registered(identity.ID, i.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: rc,
		UserID:           identity.ID,
		Username:         identity.Username,
		Email:            identity.Email,
		Role:             identity.Role,
	})

	s, err := token.SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// IssueRefreshToken signs a refresh token. The random jti keeps every
// token string unique even when minted in the same second.
func (i *TokenIssuer) IssueRefreshToken(identity models.UserIdentity) (string, time.Time, error) {
	rc, exp := i.registered(identity.ID, i.refreshTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: rc,
		UserID:           identity.ID,
		Role:             identity.Role,
	})

	s, err := token.SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func (i *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret []byte, opts ...jwt.ParserOption) error {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

// VerifyAccessToken checks signature and expiry.
func (i *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret, jwt.WithExpirationRequired()); err != nil {
		return nil, err
	}
	return claims, nil
}

// IdentityFromAccessToken checks the signature but tolerates expiry for up
// to the refresh token lifetime. It exists only so a refresh call can
// locate the caller's session from an access token that has already
// lapsed; never use it to authorize a request. A token that expired longer
// ago than that, or carries no exp claim, yields common.ErrTokenExpired.
func (i *TokenIssuer) IdentityFromAccessToken(tokenString string) (models.UserIdentity, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret, jwt.WithoutClaimsValidation()); err != nil {
		return models.UserIdentity{}, err
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Add(i.refreshTTL).After(i.now()) {
		return models.UserIdentity{}, common.ErrTokenExpired
	}
	return claims.Identity(), nil
}

// VerifyRefreshToken checks a refresh token's signature and expiry. The
// store remains the authority on whether it is still usable.
func (i *TokenIssuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(tokenString, claims, i.refreshSecret, jwt.WithExpirationRequired()); err != nil {
		return nil, err
	}
	return claims, nil
}
