package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/keychain"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	kc keychain.Keychain

	addr        string
	registerReq *rpc.RegisterRequest
	loginUser   string
	loginPass   string
	loginErr    error
	refreshed   string
	loggedOut   bool
	closed      bool
}

func (f *fakeClient) Close() error                 { f.closed = true; return nil }
func (f *fakeClient) Ping(context.Context) error   { return nil }
func (f *fakeClient) Logout(context.Context) error { f.loggedOut = true; return keychain.ClearTokens(f.kc) }

func (f *fakeClient) Register(_ context.Context, req *rpc.RegisterRequest) (*rpc.UserSummary, error) {
	f.registerReq = req
	return &rpc.UserSummary{ID: 1, Username: req.Username, Role: rpc.Role{Name: "member"}}, nil
}

func (f *fakeClient) Login(_ context.Context, username, password string) (*rpc.LoginResponse, error) {
	f.loginUser, f.loginPass = username, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	err := keychain.SaveTokens(f.kc, keychain.Tokens{Username: username, AccessToken: "a", RefreshToken: "r"})
	return &rpc.LoginResponse{User: rpc.LoginUser{ID: 1, Username: username}}, err
}

func (f *fakeClient) Refresh(context.Context) (*rpc.RefreshResponse, error) {
	f.refreshed = "refresh-token"
	return &rpc.RefreshResponse{}, nil
}

func (f *fakeClient) RefreshWithAccessToken(context.Context) (*rpc.RefreshResponse, error) {
	f.refreshed = "access-token"
	return &rpc.RefreshResponse{}, nil
}

func (f *fakeClient) Session(context.Context) (*rpc.SessionView, error) {
	if _, err := keychain.LoadTokens(f.kc); err != nil {
		return nil, client.ErrNotLoggedIn
	}
	return &rpc.SessionView{ID: 1, Username: "alice", Company: rpc.Company{Name: "Default company"}}, nil
}

type testEnv struct {
	app    *App
	client *fakeClient
	kc     *keychain.Memory
	out    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	kc := keychain.NewMemory()
	fc := &fakeClient{kc: kc}
	app := &App{
		newKeychain: func(string) keychain.Keychain { return kc },
		newClient: func(addr string, _ keychain.Keychain) (client.Client, error) {
			fc.addr = addr
			return fc, nil
		},
	}
	return &testEnv{app: app, client: fc, kc: kc, out: &bytes.Buffer{}}
}

func (e *testEnv) run(stdin string, args ...string) error {
	cmd := e.app.RootCommand()
	cmd.SetOut(e.out)
	cmd.SetErr(e.out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	return cmd.Execute()
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func TestLoginCommand_WithFlags(t *testing.T) {
	e := newTestEnv(t)

	err := e.run("", "login", "--username", "alice", "--password", "secret1", "--server", "auth:50051")
	require.NoError(t, err)

	assert.Equal(t, "alice", e.client.loginUser)
	assert.Equal(t, "secret1", e.client.loginPass)
	assert.Equal(t, "auth:50051", e.client.addr)
	assert.True(t, e.client.closed)
	assert.Contains(t, e.out.String(), "Logged in as alice")

	tokens, err := keychain.LoadTokens(e.kc)
	require.NoError(t, err)
	assert.Equal(t, "r", tokens.RefreshToken)
}

func TestLoginCommand_Prompts(t *testing.T) {
	e := newTestEnv(t)
	stubPassword(t, "secret1")

	require.NoError(t, e.run("alice\n", "login"))
	assert.Equal(t, "alice", e.client.loginUser)
	assert.Equal(t, "secret1", e.client.loginPass)
}

func TestLoginCommand_Failure(t *testing.T) {
	e := newTestEnv(t)
	e.client.loginErr = client.ErrUnauthorized

	err := e.run("", "login", "--username", "alice", "--password", "nope")
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestRegisterCommand(t *testing.T) {
	e := newTestEnv(t)
	stubPassword(t, "secret1")

	err := e.run("", "register",
		"--username", "alice", "--first-name", "Alice", "--last-name", "Smith",
		"--email", "a@x.io", "--role", "2")
	require.NoError(t, err)

	require.NotNil(t, e.client.registerReq)
	assert.Equal(t, rpc.RegisterRequest{
		Username: "alice", FirstName: "Alice", LastName: "Smith",
		Email: "a@x.io", Password: "secret1", CompanyID: 1, RoleID: 2,
	}, *e.client.registerReq)
	assert.Contains(t, e.out.String(), "Registered alice (id=1, role=member)")
}

func TestRefreshCommand(t *testing.T) {
	e := newTestEnv(t)

	require.NoError(t, e.run("", "refresh"))
	assert.Equal(t, "refresh-token", e.client.refreshed)

	require.NoError(t, e.run("", "refresh", "--access-token"))
	assert.Equal(t, "access-token", e.client.refreshed)
}

func TestSessionAndLogoutCommands(t *testing.T) {
	e := newTestEnv(t)

	err := e.run("", "session")
	require.True(t, errors.Is(err, client.ErrNotLoggedIn), "got %v", err)

	require.NoError(t, e.run("", "login", "--username", "alice", "--password", "secret1"))
	require.NoError(t, e.run("", "session"))
	assert.Contains(t, e.out.String(), `"username": "alice"`)

	require.NoError(t, e.run("", "logout"))
	assert.True(t, e.client.loggedOut)
	_, err = keychain.LoadTokens(e.kc)
	require.ErrorIs(t, err, keychain.ErrNotFound)
}

func TestInitCommand(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "authctl.yaml")

	require.NoError(t, e.run("", "init", "--config", path, "--server", "auth.example.com:443"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "auth.example.com:443")

	err = e.run("", "init", "--config", path)
	require.Error(t, err)
	require.NoError(t, e.run("", "init", "--config", path, "--force"))

	require.NoError(t, e.run("", "ping", "--config", path))
	assert.Equal(t, "127.0.0.1:50051", e.client.addr)
}

func TestConfigFlagsOverrideFile(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "authctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_addr: from-file:1\n"), 0o600))

	require.NoError(t, e.run("", "ping", "--config", path))
	assert.Equal(t, "from-file:1", e.client.addr)

	require.NoError(t, e.run("", "ping", "--config", path, "-a", "from-flag:2"))
	assert.Equal(t, "from-flag:2", e.client.addr)
}
