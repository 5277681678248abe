package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
)

// fakeSessions records its inputs and answers from canned fields.
type fakeSessions struct {
	mu sync.Mutex

	registerIn  services.RegisterInput
	registerOut *models.UserSummary
	registerErr error

	loginClient models.ClientInfo
	loginOut    *services.LoginResult
	loginErr    error

	refreshToken  string
	refreshAccess string
	refreshOut    *services.RefreshResult
	refreshErr    error

	logoutUser  int64
	logoutToken string
	logoutErr   error

	sessionOut *models.SessionView
	sessionErr error

	identities    map[string]models.UserIdentity
	expiredTokens map[string]bool
}

func (f *fakeSessions) Register(_ context.Context, in services.RegisterInput) (*models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerIn = in
	return f.registerOut, f.registerErr
}

func (f *fakeSessions) Login(_ context.Context, _, _ string, client models.ClientInfo) (*services.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginClient = client
	return f.loginOut, f.loginErr
}

func (f *fakeSessions) Refresh(_ context.Context, token string) (*services.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshToken = token
	return f.refreshOut, f.refreshErr
}

func (f *fakeSessions) RefreshWithAccessToken(_ context.Context, token string) (*services.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshAccess = token
	return f.refreshOut, f.refreshErr
}

func (f *fakeSessions) Logout(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutUser = userID
	return f.logoutErr
}

func (f *fakeSessions) LogoutSession(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutUser, f.logoutToken = userID, token
	return f.logoutErr
}

func (f *fakeSessions) SessionInfo(context.Context, int64) (*models.SessionView, error) {
	return f.sessionOut, f.sessionErr
}

func (f *fakeSessions) VerifyAccessToken(token string) (models.UserIdentity, error) {
	if f.expiredTokens[token] {
		return models.UserIdentity{}, common.ErrTokenExpired
	}
	id, ok := f.identities[token]
	if !ok {
		return models.UserIdentity{}, common.ErrInvalidToken
	}
	return id, nil
}

type observation struct {
	method string
	code   string
}

type fakeObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *fakeObserver) ObserveRequest(method, code string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{method, code})
}
