package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/audit"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestNewApp_WiresComponents(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	app, err := newApp(context.Background(), testConfig(), logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	if app.sessions == nil || app.metrics == nil {
		t.Fatal("components not wired")
	}
	if app.archive != nil {
		t.Fatal("S3 archive must be off by default")
	}
}

func TestNewApp_RejectsBadTokenConfig(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	c := testConfig()
	c.RefreshTokenSecret = c.AccessTokenSecret

	_, err = newApp(context.Background(), c, logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	if !errors.Is(err, common.ErrorConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAuditSink_FeedsMetrics(t *testing.T) {
	app := &App{config: testConfig(), logger: logging.Nop(), metrics: metrics.New()}

	sink, err := app.auditSink(context.Background())
	if err != nil {
		t.Fatalf("auditSink error: %v", err)
	}
	sink.Record(context.Background(), audit.Event{Type: audit.EventLogin, UserID: 1})

	rec := httptest.NewRecorder()
	app.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `sessionkeeper_session_events_total{event="login"} 1`) {
		t.Fatalf("login event not counted:\n%s", rec.Body.String())
	}
}

func TestAuditSink_S3Enabled(t *testing.T) {
	c := testConfig()
	c.AuditS3Enabled = true
	app := &App{config: c, logger: logging.Nop(), metrics: metrics.New()}

	if _, err := app.auditSink(context.Background()); err != nil {
		t.Fatalf("auditSink error: %v", err)
	}
	if app.archive == nil {
		t.Fatal("expected S3 archive to be configured")
	}
}
