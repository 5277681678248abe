package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer() *GRPCServer {
	return NewGRPCServer("", logging.Nop(), &fakeSessions{
		identities: map[string]models.UserIdentity{"good": {ID: 3, Username: "bob"}},
	})
}

func incoming(kv ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(kv...))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"no metadata", context.Background(), "", false},
		{"no header", incoming("x", "y"), "", false},
		{"bearer", incoming("authorization", "Bearer abc"), "abc", true},
		{"lower case scheme", incoming("authorization", "bearer abc"), "abc", true},
		{"basic", incoming("authorization", "Basic abc"), "", false},
		{"empty token", incoming("authorization", "Bearer "), "", false},
		{"no scheme", incoming("authorization", "abc"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bearerToken(tt.ctx)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("bearerToken() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInterceptor_PublicMethodAllowsWithoutToken(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: rpc.MethodLogin}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_ProtectedMethod(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: rpc.MethodSession}

	t.Run("missing token", func(t *testing.T) {
		h := func(ctx context.Context, req any) (any, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		}
		_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		h := func(ctx context.Context, req any) (any, error) {
			t.Fatal("handler should not be called for a bad token")
			return nil, nil
		}
		_, err := s.accessTokenInterceptor(incoming("authorization", "Bearer bad"), nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("good token", func(t *testing.T) {
		var got models.UserIdentity
		h := func(ctx context.Context, req any) (any, error) {
			got, _ = auth.IdentityFromContext(ctx)
			return nil, nil
		}
		_, err := s.accessTokenInterceptor(incoming("authorization", "Bearer good"), nil, info, h)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != 3 || got.Username != "bob" {
			t.Fatalf("identity not propagated: %+v", got)
		}
	})
}

func TestTimeoutInterceptor(t *testing.T) {
	s := newTestServer()
	s.requestTimeout = time.Minute
	info := &grpc.UnaryServerInfo{FullMethod: rpc.MethodPing}

	var deadline time.Time
	var hasDeadline bool
	h := func(ctx context.Context, req any) (any, error) {
		deadline, hasDeadline = ctx.Deadline()
		return nil, nil
	}

	_, _ = s.timeoutInterceptor(context.Background(), nil, info, h)
	if !hasDeadline || time.Until(deadline) > time.Minute {
		t.Fatalf("expected server deadline, got %v %v", deadline, hasDeadline)
	}

	clientCtx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := clientCtx.Deadline()
	_, _ = s.timeoutInterceptor(clientCtx, nil, info, h)
	if !deadline.Equal(want) {
		t.Fatalf("client deadline replaced: got %v want %v", deadline, want)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	s := newTestServer()
	o := &fakeObserver{}
	s.observer = o

	h := func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "x")
	}
	_, _ = s.metricsInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodLogout}, h)

	if len(o.obs) != 1 || o.obs[0] != (observation{rpc.MethodLogout, "NotFound"}) {
		t.Fatalf("unexpected observations: %+v", o.obs)
	}
}
