package client

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.UserSummary, error)
	Login(ctx context.Context, username, password string) (*rpc.LoginResponse, error)
	Refresh(ctx context.Context) (*rpc.RefreshResponse, error)
	RefreshWithAccessToken(ctx context.Context) (*rpc.RefreshResponse, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*rpc.SessionView, error)
}

var _ Client = (*GRPCClient)(nil)
