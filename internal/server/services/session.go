// Package services contains server-side business logic. SessionService
// registers users, opens sessions, rotates refresh tokens and closes
// sessions on top of the repositories and the auth primitives.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/audit"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
)

var (
	// Unknown user and wrong password share this error.
	errInvalidCredentials = common.NewPublicError(common.ErrorUnauthorized, "invalid username or password")
	errRefreshRejected    = common.NewPublicError(common.ErrorUnauthorized, "refresh token is invalid or expired")
	errNoActiveSession    = common.NewPublicError(common.ErrorNotFound, "no active session")
)

type RegisterInput struct {
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
}

// SessionUser is the minimal user projection returned by Login.
type SessionUser struct {
	ID       int64
	Username string
}

type LoginResult struct {
	User         SessionUser
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ExpiresIn is the access token expiry as absolute epoch milliseconds.
func (r *LoginResult) ExpiresIn() int64 { return r.ExpiresAt.UnixMilli() }

type RefreshResult struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (r *RefreshResult) ExpiresIn() int64 { return r.ExpiresAt.UnixMilli() }

type SessionService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	passwords   *auth.PasswordHasher
	ownerRoleID int64
	logger      logging.Logger
	audit       audit.Sink
	now         func() time.Time
}

type Option func(*SessionService)

func WithLogger(l logging.Logger) Option {
	return func(s *SessionService) { s.logger = l.With("module", "session_service") }
}

func WithAuditSink(a audit.Sink) Option {
	return func(s *SessionService) { s.audit = a }
}

// WithClock sets the clock used to judge refresh record expiry.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService wires the service. ownerRoleID is forced onto users
// registered as company owners.
func NewSessionService(tx dbx.Transactor, m repomanager.RepositoryManager, tokens *auth.TokenIssuer,
	passwords *auth.PasswordHasher, ownerRoleID int64, opts ...Option) *SessionService {
	s := &SessionService{
		tx:          tx,
		repomanager: m,
		tokens:      tokens,
		passwords:   passwords,
		ownerRoleID: ownerRoleID,
		logger:      logging.Nop(),
		audit:       audit.Nop,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// unexpected logs err and hides it behind kind. Context errors pass
// through so the transport can report cancellation and deadlines.
func (s *SessionService) unexpected(ctx context.Context, op string, err error, kind error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Error(ctx, "unexpected error", "op", op, "error", err)
	return kind
}

func (s *SessionService) record(ctx context.Context, e audit.Event) {
	e.Time = s.now()
	s.audit.Record(ctx, e)
}

// Register creates a user after checking that email and username are free
// and that the role and company exist.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.UserSummary, error) {
	conn := s.tx.Conn()
	userRepo := s.repomanager.Users(conn)

	if _, err := userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.NewPublicError(common.ErrorConflict, "user with email %s already exists", in.Email)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	if _, err := userRepo.GetByUsername(ctx, in.Username, users.Include{}); err == nil {
		return nil, common.NewPublicError(common.ErrorConflict, "user with username %s already exists", in.Username)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	roleID := in.RoleID
	if in.IsOwner {
		roleID = s.ownerRoleID
	}

	role, err := s.repomanager.Roles(conn).GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewPublicError(common.ErrorNotFound, "role %d not found", roleID)
		}
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	if _, err := s.repomanager.Companies(conn).GetByID(ctx, in.CompanyID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewPublicError(common.ErrorNotFound, "company %d not found", in.CompanyID)
		}
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	hash, err := s.passwords.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	user, err := userRepo.Create(ctx, &models.User{
		Username:   in.Username,
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
		Email:      in.Email,
		Password:   hash,
		CompanyID:  in.CompanyID,
		RoleID:     roleID,
		IsOwner:    in.IsOwner,
		IsVerified: in.IsVerified,
	})
	if err != nil {
		var cv *common.ConstraintViolation
		switch {
		case errors.As(err, &cv):
			// Lost a race with a concurrent registration.
			if cv.Value == "" {
				return nil, common.NewPublicError(common.ErrorConflict, "user already exists")
			}
			return nil, common.NewPublicError(common.ErrorConflict, "user with %s %s already exists", cv.Field, cv.Value)
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.NewPublicError(common.ErrorNotFound, "role or company not found")
		}
		return nil, s.unexpected(ctx, "register", err, common.ErrorInternal)
	}

	user.Role = role
	summary := user.Summary()

	s.record(ctx, audit.Event{Type: audit.EventRegister, UserID: user.ID, Username: user.Username})
	return &summary, nil
}

// Login checks credentials and opens a new session. Every login creates a
// new refresh record; existing sessions on other devices stay open.
func (s *SessionService) Login(ctx context.Context, username, password string, client models.ClientInfo) (*LoginResult, error) {
	conn := s.tx.Conn()

	user, err := s.repomanager.Users(conn).GetByUsername(ctx, username, users.Include{Role: true})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.unexpected(ctx, "login", err, common.ErrorUnauthorized)
		}
		if err := s.passwords.CompareDummy(ctx, password); err != nil {
			return nil, err
		}
		s.record(ctx, audit.Event{Type: audit.EventLoginFailed, Username: username,
			DeviceInfo: client.DeviceInfo, IPAddress: client.IPAddress, Reason: "unknown user"})
		return nil, errInvalidCredentials
	}

	ok, err := s.passwords.Compare(ctx, password, user.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.record(ctx, audit.Event{Type: audit.EventLoginFailed, UserID: user.ID, Username: username,
			DeviceInfo: client.DeviceInfo, IPAddress: client.IPAddress, Reason: "wrong password"})
		return nil, errInvalidCredentials
	}

	identity := user.Identity()

	access, accessExp, err := s.tokens.IssueAccessToken(identity)
	if err != nil {
		return nil, s.unexpected(ctx, "login", err, common.ErrorUnauthorized)
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, s.unexpected(ctx, "login", err, common.ErrorUnauthorized)
	}

	_, err = s.repomanager.RefreshTokens(conn).Create(ctx, &models.RefreshToken{
		Token:      refresh,
		UserID:     user.ID,
		ExpiresAt:  refreshExp,
		DeviceInfo: client.DeviceInfo,
		IPAddress:  client.IPAddress,
	})
	if err != nil {
		return nil, s.unexpected(ctx, "login", err, common.ErrorUnauthorized)
	}

	s.record(ctx, audit.Event{Type: audit.EventLogin, UserID: user.ID, Username: user.Username,
		DeviceInfo: client.DeviceInfo, IPAddress: client.IPAddress})

	return &LoginResult{
		User:         SessionUser{ID: user.ID, Username: user.Username},
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. The old record
// is invalidated, the user reloaded, the pair minted and the successor
// stored in one transaction; if any step fails nothing changes. Of several
// concurrent calls with the same token exactly one succeeds.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, errRefreshRejected
	}
	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		s.record(ctx, audit.Event{Type: audit.EventRefreshRejected, Reason: err.Error()})
		return nil, errRefreshRejected
	}

	var (
		result   *RefreshResult
		consumed *models.RefreshToken
	)

	err := s.tx.InTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokenRepo := s.repomanager.RefreshTokens(tx)

		old, err := tokenRepo.Consume(ctx, refreshToken, s.now())
		if err != nil {
			return err
		}
		consumed = old

		user, err := s.repomanager.Users(tx).GetByID(ctx, old.UserID, users.Include{Role: true})
		if err != nil {
			return err
		}
		identity := user.Identity()

		access, accessExp, err := s.tokens.IssueAccessToken(identity)
		if err != nil {
			return err
		}
		refresh, refreshExp, err := s.tokens.IssueRefreshToken(identity)
		if err != nil {
			return err
		}

		if _, err := tokenRepo.Create(ctx, &models.RefreshToken{
			Token:      refresh,
			UserID:     user.ID,
			ExpiresAt:  refreshExp,
			DeviceInfo: old.DeviceInfo,
			IPAddress:  old.IPAddress,
		}); err != nil {
			return err
		}

		result = &RefreshResult{UserID: user.ID, AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			e := audit.Event{Type: audit.EventRefreshRejected, Reason: "token not usable or user gone"}
			if consumed != nil {
				e.UserID = consumed.UserID
			}
			s.record(ctx, e)
			return nil, errRefreshRejected
		}
		return nil, s.unexpected(ctx, "refresh", err, common.ErrorUnauthorized)
	}

	s.record(ctx, audit.Event{Type: audit.EventRefresh, UserID: result.UserID,
		DeviceInfo: consumed.DeviceInfo, IPAddress: consumed.IPAddress})
	return result, nil
}

// RefreshWithAccessToken locates the caller's session from an access token
// whose signature is valid but which may already have expired, then
// rotates that session's refresh token. Expiry is ignored on this path
// only; every other caller must use VerifyAccessToken.
func (s *SessionService) RefreshWithAccessToken(ctx context.Context, accessToken string) (*RefreshResult, error) {
	identity, err := s.tokens.IdentityFromAccessToken(accessToken)
	if err != nil {
		s.record(ctx, audit.Event{Type: audit.EventRefreshRejected, Reason: err.Error()})
		return nil, errRefreshRejected
	}

	record, err := s.repomanager.RefreshTokens(s.tx.Conn()).FindValidByUser(ctx, identity.ID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.record(ctx, audit.Event{Type: audit.EventRefreshRejected, UserID: identity.ID, Reason: "no active session"})
			return nil, errRefreshRejected
		}
		return nil, s.unexpected(ctx, "refresh", err, common.ErrorUnauthorized)
	}

	return s.Refresh(ctx, record.Token)
}

// Logout closes one of the user's sessions: the valid record with the
// lowest id. Sessions on other devices stay open. If that record is
// rotated between the lookup and the revoke, nothing is closed and the
// caller gets errNoActiveSession.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	tokenRepo := s.repomanager.RefreshTokens(s.tx.Conn())

	record, err := tokenRepo.FindValidByUser(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errNoActiveSession
		}
		return s.unexpected(ctx, "logout", err, common.ErrorInternal)
	}

	return s.revoke(ctx, tokenRepo, userID, record.Token)
}

// LogoutSession closes the session identified by refreshToken, which must
// belong to userID and still be usable.
func (s *SessionService) LogoutSession(ctx context.Context, userID int64, refreshToken string) error {
	return s.revoke(ctx, s.repomanager.RefreshTokens(s.tx.Conn()), userID, refreshToken)
}

func (s *SessionService) revoke(ctx context.Context, tokenRepo refreshtokens.Repository, userID int64, token string) error {
	record, err := tokenRepo.Revoke(ctx, token, userID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errNoActiveSession
		}
		return s.unexpected(ctx, "logout", err, common.ErrorInternal)
	}

	s.record(ctx, audit.Event{Type: audit.EventLogout, UserID: userID,
		DeviceInfo: record.DeviceInfo, IPAddress: record.IPAddress})
	return nil
}

// SessionInfo returns the client-safe view of the signed-in user.
func (s *SessionService) SessionInfo(ctx context.Context, userID int64) (*models.SessionView, error) {
	user, err := s.repomanager.Users(s.tx.Conn()).GetByID(ctx, userID, users.Include{Role: true, Company: true})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewPublicError(common.ErrorNotFound, "user not found")
		}
		return nil, s.unexpected(ctx, "session", err, common.ErrorUnauthorized)
	}

	view := user.SessionView()
	return &view, nil
}

// VerifyAccessToken validates a bearer token for a protected call.
func (s *SessionService) VerifyAccessToken(token string) (models.UserIdentity, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return models.UserIdentity{}, err
	}
	return claims.Identity(), nil
}
