package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SessionAPI is the business surface the gRPC boundary calls into.
// *services.SessionService implements it.
type SessionAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserSummary, error)
	Login(ctx context.Context, username, password string, client models.ClientInfo) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error)
	RefreshWithAccessToken(ctx context.Context, accessToken string) (*services.RefreshResult, error)
	Logout(ctx context.Context, userID int64) error
	LogoutSession(ctx context.Context, userID int64, refreshToken string) error
	SessionInfo(ctx context.Context, userID int64) (*models.SessionView, error)
	VerifyAccessToken(token string) (models.UserIdentity, error)
}

// RequestObserver receives one call per finished RPC.
type RequestObserver interface {
	ObserveRequest(method, code string, d time.Duration)
}

type GRPCServer struct {
	rpc.UnimplementedSessionServiceServer
	address        string
	sessions       SessionAPI
	logger         logging.Logger
	observer       RequestObserver
	requestTimeout time.Duration
	health         *health.Server
}

type Option func(*GRPCServer)

func WithRequestObserver(o RequestObserver) Option {
	return func(s *GRPCServer) { s.observer = o }
}

// WithRequestTimeout bounds calls that arrive without a deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *GRPCServer) { s.requestTimeout = d }
}

func NewGRPCServer(a string, l logging.Logger, sessions SessionAPI, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		health:   health.NewServer(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.metricsInterceptor,
		s.timeoutInterceptor,
		s.accessTokenInterceptor,
	))

	rpc.RegisterSessionServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
