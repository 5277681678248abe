package grpc

import (
	"context"
	"net"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.UserSummary, error) {
	if err := validateRegister(req); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.sessions.Register(ctx, services.RegisterInput{
		Username:   req.Username,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   req.Password,
		CompanyID:  req.CompanyID,
		RoleID:     req.RoleID,
		IsOwner:    req.IsOwner,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", result.Username, "user_id", result.ID)
	return toUserSummary(result), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	if err := validateLogin(req); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.sessions.Login(ctx, req.Username, req.Password, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	return &rpc.LoginResponse{
		User:         rpc.LoginUser{ID: result.User.ID, Username: result.User.Username},
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn(),
	}, nil
}

// Refresh rotates the given refresh token. Without one it falls back to
// the caller's bearer access token, which may already have expired.
func (s *GRPCServer) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.RefreshResponse, error) {
	var (
		result *services.RefreshResult
		err    error
	)

	if req.RefreshToken != "" {
		result, err = s.sessions.Refresh(ctx, req.RefreshToken)
	} else {
		token, ok := bearerToken(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing refresh token")
		}
		result, err = s.sessions.RefreshWithAccessToken(ctx, token)
	}
	if err != nil {
		return nil, toStatus(err)
	}

	return &rpc.RefreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn(),
	}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *rpc.LogoutRequest) (*rpc.LogoutResponse, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	var err error
	if req.RefreshToken != "" {
		err = s.sessions.LogoutSession(ctx, identity.ID, req.RefreshToken)
	} else {
		err = s.sessions.Logout(ctx, identity.ID)
	}
	if err != nil {
		return nil, toStatus(err)
	}

	return &rpc.LogoutResponse{}, nil
}

func (s *GRPCServer) Session(ctx context.Context, _ *rpc.SessionRequest) (*rpc.SessionView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	view, err := s.sessions.SessionInfo(ctx, identity.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	return toSessionView(view), nil
}

func (s *GRPCServer) Ping(context.Context, *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

// clientInfo derives the session provenance: the user agent and the
// remote address, preferring x-forwarded-for when a proxy set it.
func clientInfo(ctx context.Context) models.ClientInfo {
	var info models.ClientInfo

	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get("user-agent"); len(v) > 0 {
		info.DeviceInfo = v[0]
	}
	if v := md.Get("x-forwarded-for"); len(v) > 0 {
		info.IPAddress = strings.TrimSpace(strings.Split(v[0], ",")[0])
	}

	if info.IPAddress == "" {
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			addr := p.Addr.String()
			if host, _, err := net.SplitHostPort(addr); err == nil {
				addr = host
			}
			info.IPAddress = addr
		}
	}

	return info
}

func toRole(r models.RoleSummary) rpc.Role {
	return rpc.Role{ID: r.ID, Name: r.Name, Description: r.Description}
}

func toUserSummary(u *models.UserSummary) *rpc.UserSummary {
	return &rpc.UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Email:      u.Email,
		CompanyID:  u.CompanyID,
		IsOwner:    u.IsOwner,
		IsVerified: u.IsVerified,
		Role:       toRole(u.Role),
		CreatedAt:  u.CreatedAt,
	}
}

func toSessionView(v *models.SessionView) *rpc.SessionView {
	return &rpc.SessionView{
		ID:         v.ID,
		Username:   v.Username,
		Email:      v.Email,
		FirstName:  v.FirstName,
		LastName:   v.LastName,
		IsVerified: v.IsVerified,
		IsOwner:    v.IsOwner,
		CreatedAt:  v.CreatedAt,
		Role:       toRole(v.Role),
		Company: rpc.Company{
			ID:          v.Company.ID,
			Name:        v.Company.Name,
			Address:     v.Company.Address,
			PhoneNumber: v.Company.PhoneNumber,
			Email:       v.Company.Email,
		},
	}
}
