package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/audit"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/companies"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/roles"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the Postgres schema. Fault fields
// make the next matching call fail.
type memStore struct {
	mu sync.Mutex

	users     map[int64]*models.User
	roles     map[int64]*models.Role
	companies map[int64]*models.Company
	tokens    []*models.RefreshToken

	nextUserID  int64
	nextTokenID int64

	createUserErr  error
	createTokenErr error
	findUserErr    error

	// afterTokenLookup runs once a token lookup has returned, outside the
	// lock, so a test can slip another operation in before the next step.
	afterTokenLookup func()
}

func (s *memStore) tokenLookedUp() {
	s.mu.Lock()
	hook := s.afterTokenLookup
	s.afterTokenLookup = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func newMemStore() *memStore {
	return &memStore{
		users: map[int64]*models.User{},
		roles: map[int64]*models.Role{
			1: {ID: 1, Name: "owner", Description: "Company owner", Priority: 100},
			2: {ID: 2, Name: "member", Description: "Company member", Priority: 10},
		},
		companies: map[int64]*models.Company{
			1: {ID: 1, Name: "Default company", Address: "Main st 1", PhoneNumber: "+100", Email: "info@example.com"},
		},
	}
}

type memSnapshot struct {
	users       map[int64]models.User
	tokens      []models.RefreshToken
	nextUserID  int64
	nextTokenID int64
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{users: map[int64]models.User{}, nextUserID: s.nextUserID, nextTokenID: s.nextTokenID}
	for id, u := range s.users {
		snap.users[id] = *u
	}
	for _, t := range s.tokens {
		snap.tokens = append(snap.tokens, *t)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = map[int64]*models.User{}
	for id, u := range snap.users {
		u := u
		s.users[id] = &u
	}
	s.tokens = nil
	for _, t := range snap.tokens {
		t := t
		s.tokens = append(s.tokens, &t)
	}
	s.nextUserID, s.nextTokenID = snap.nextUserID, snap.nextTokenID
}

// validTokens returns copies of the usable records of userID.
func (s *memStore) validTokens(userID int64, now time.Time) []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.Usable(now) {
			out = append(out, *t)
		}
	}
	return out
}

func (s *memStore) token(token string) (models.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			return *t, true
		}
	}
	return models.RefreshToken{}, false
}

// memTransactor serializes transactions and rolls the store back when fn
// fails, which is what row locks plus rollback give on Postgres.
//
// With interleave set, transactions run concurrently and are never rolled
// back; the store's per-statement lock is then the only serialization, as
// with the conditional UPDATE on Postgres.
type memTransactor struct {
	store      *memStore
	mu         sync.Mutex
	interleave bool

	countMu   sync.Mutex
	commits   int
	rollbacks int
}

func (t *memTransactor) Conn() dbx.DBTX { return nil }

func (t *memTransactor) InTx(ctx context.Context, _ *sql.TxOptions, fn dbx.TxFunc) error {
	if t.interleave {
		err := fn(ctx, nil)
		t.count(err)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.snapshot()
	err := fn(ctx, nil)
	if err != nil {
		t.store.restore(snap)
	}
	t.count(err)
	return err
}

func (t *memTransactor) count(err error) {
	t.countMu.Lock()
	defer t.countMu.Unlock()
	if err != nil {
		t.rollbacks++
		return
	}
	t.commits++
}

type memManager struct {
	store *memStore
}

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.store} }
func (m *memManager) Roles(dbx.DBTX) roles.Repository              { return memRoles{m.store} }
func (m *memManager) Companies(dbx.DBTX) companies.Repository      { return memCompanies{m.store} }
func (m *memManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memTokens{m.store}
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.createUserErr; err != nil {
		r.s.createUserErr = nil
		return nil, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, &common.ConstraintViolation{Field: "email", Value: u.Email}
		}
		if existing.Username == u.Username {
			return nil, &common.ConstraintViolation{Field: "username", Value: u.Username}
		}
	}
	if r.s.roles[u.RoleID] == nil || r.s.companies[u.CompanyID] == nil {
		return nil, common.ErrorNotFound
	}
	r.s.nextUserID++
	u.ID = r.s.nextUserID
	u.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt
	stored := *u
	stored.Role, stored.Company = nil, nil
	r.s.users[u.ID] = &stored
	return u, nil
}

func (r memUsers) load(u *models.User, inc users.Include) *models.User {
	out := *u
	if inc.Role {
		role := *r.s.roles[u.RoleID]
		out.Role = &role
	}
	if inc.Company {
		company := *r.s.companies[u.CompanyID]
		out.Company = &company
	}
	return &out
}

func (r memUsers) GetByID(_ context.Context, id int64, inc users.Include) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findUserErr != nil {
		return nil, r.s.findUserErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.load(u, inc), nil
}

func (r memUsers) GetByUsername(_ context.Context, username string, inc users.Include) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findUserErr != nil {
		return nil, r.s.findUserErr
	}
	for _, u := range r.s.users {
		if u.Username == username {
			return r.load(u, inc), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findUserErr != nil {
		return nil, r.s.findUserErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return r.load(u, users.Include{}), nil
		}
	}
	return nil, common.ErrorNotFound
}

type memRoles struct{ s *memStore }

func (r memRoles) GetByID(_ context.Context, id int64) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *role
	return &out, nil
}

type memCompanies struct{ s *memStore }

func (r memCompanies) GetByID(_ context.Context, id int64) (*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(_ context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.createTokenErr; err != nil {
		r.s.createTokenErr = nil
		return nil, err
	}
	for _, existing := range r.s.tokens {
		if existing.Token == t.Token {
			return nil, &common.ConstraintViolation{Field: "token", Value: t.Token}
		}
	}
	r.s.nextTokenID++
	t.ID = r.s.nextTokenID
	t.IsValid = true
	stored := *t
	r.s.tokens = append(r.s.tokens, &stored)
	return t, nil
}

func (r memTokens) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	defer r.s.tokenLookedUp()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == token {
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) FindValidByUser(_ context.Context, userID int64, now time.Time) (*models.RefreshToken, error) {
	defer r.s.tokenLookedUp()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// tokens are appended in id order
	for _, t := range r.s.tokens {
		if t.UserID == userID && t.Usable(now) {
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) Invalidate(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == token {
			t.IsValid = false
		}
	}
	return nil
}

func (r memTokens) Consume(_ context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == token && t.Usable(now) {
			t.IsValid = false
			out := *t
			out.IsValid = true
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) Revoke(_ context.Context, token string, userID int64, now time.Time) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == token && t.UserID == userID && t.Usable(now) {
			t.IsValid = false
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// auditRecorder collects events for assertions.
type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *auditRecorder) Record(_ context.Context, e audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *auditRecorder) types() []audit.EventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.EventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}

// testClock is a settable clock shared by the issuer and the service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
