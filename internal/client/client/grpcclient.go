package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/keychain"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const userAgent = "authctl"

// bearerMethods get the stored access token attached.
var bearerMethods = map[string]bool{
	rpc.MethodLogout:  true,
	rpc.MethodSession: true,
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.SessionServiceClient
	keychain    keychain.Keychain

	// refreshMu serializes token rotation so concurrent calls that all see
	// "token expired" rotate once.
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set("authorization", "Bearer "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if !bearerMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens, err := s.tokens()
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if !isTokenExpired(err) {
		return err
	}

	if err := s.rotate(ctx, tokens.AccessToken); err != nil {
		return err
	}

	tokens, err = s.tokens()
	if err != nil {
		return err
	}

	// Tokens refreshed, retrying with the new access token.
	return invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
}

// rotate refreshes the stored pair unless another caller already replaced
// the expired access token.
func (s *GRPCClient) rotate(ctx context.Context, expiredAccess string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tokens, err := s.tokens()
	if err != nil {
		return err
	}
	if tokens.AccessToken != expiredAccess {
		return nil
	}

	resp, err := s.client.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		return s.mapError(err)
	}
	return keychain.SaveTokens(s.keychain, keychain.Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
}

func (s *GRPCClient) tokens() (keychain.Tokens, error) {
	t, err := keychain.LoadTokens(s.keychain)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return keychain.Tokens{}, ErrNotLoggedIn
		}
		return keychain.Tokens{}, err
	}
	return t, nil
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended, which lets tests dial an in-memory listener.
func NewGRPCClient(endpointURL string, kc keychain.Keychain, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, keychain: kc}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithUserAgent(userAgent),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewSessionServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.UserSummary, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Login opens a session and stores its tokens in the keychain.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (*rpc.LoginResponse, error) {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	if err := keychain.SaveTokens(s.keychain, keychain.Tokens{
		Username:     resp.User.Username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Refresh rotates the stored refresh token.
func (s *GRPCClient) Refresh(ctx context.Context) (*rpc.RefreshResponse, error) {
	tokens, err := s.tokens()
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, &rpc.RefreshRequest{RefreshToken: tokens.RefreshToken})
}

// RefreshWithAccessToken asks the server to find the session from the
// stored access token alone, which may already have expired.
func (s *GRPCClient) RefreshWithAccessToken(ctx context.Context) (*rpc.RefreshResponse, error) {
	tokens, err := s.tokens()
	if err != nil {
		return nil, err
	}
	return s.refresh(withAccessToken(ctx, tokens.AccessToken), &rpc.RefreshRequest{})
}

func (s *GRPCClient) refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.RefreshResponse, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	resp, err := s.client.Refresh(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	if err := keychain.SaveTokens(s.keychain, keychain.Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout closes this client's session on the server and forgets the local
// tokens. A session the server no longer knows is treated as closed.
func (s *GRPCClient) Logout(ctx context.Context) error {
	tokens, err := s.tokens()
	if err != nil {
		return err
	}

	_, err = s.client.Logout(ctx, &rpc.LogoutRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		if mapped := s.mapError(err); !errors.Is(mapped, ErrNotFound) {
			return mapped
		}
	}

	return keychain.ClearTokens(s.keychain)
}

func (s *GRPCClient) Session(ctx context.Context) (*rpc.SessionView, error) {
	resp, err := s.client.Session(ctx, &rpc.SessionRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrConflict, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
