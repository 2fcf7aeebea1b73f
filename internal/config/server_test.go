package config

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"InterviewLo/database/sqldb"
	"InterviewLo/internal/orchestrator"

	"github.com/sirupsen/logrus"
)

func TestOrchestratorSettingsFromEnv(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_TIMEOUT", "nonsense")
	t.Setenv("DISPATCH_TIMEOUT", "")
	t.Setenv("VAPI_SETUP_WORKFLOW_ID", "wf-1")

	got := OrchestratorSettingsFromEnv(logger)
	want := OrchestratorSettings{
		PollInterval:    500 * time.Millisecond,
		PollTimeout:     orchestrator.DefaultPollTimeout,
		DispatchTimeout: orchestrator.DefaultDispatchTimeout,
		WorkflowID:      "wf-1",
	}
	if got != want {
		t.Errorf("OrchestratorSettingsFromEnv() = %+v, want %+v", got, want)
	}
}

func TestNewValidator_JSONFieldNames(t *testing.T) {
	type form struct {
		InterviewID string `json:"interviewId" validate:"required"`
	}

	err := NewValidator().Struct(form{})
	if err == nil {
		t.Fatal("Struct() error = nil, want required failure")
	}
	if got := err.Error(); !strings.Contains(got, "interviewId") {
		t.Errorf("error %q does not name the JSON field", got)
	}
}

func TestServer_MountsRoutes(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqldb.New(sqldb.Config{Driver: sqldb.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("sqldb.New() error = %v", err)
	}
	if err := sqldb.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	srv, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithDB(db),
		WithMiddleware(),
		WithOrchestratorSettings(OrchestratorSettings{PollInterval: time.Second}),
	)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	srv.RegisterHandler()
	srv.mount()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	resp, err := srv.engine.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	var health map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || health["database"] != "ok" || health["voice"] != false {
		t.Errorf("GET /health = %d %v", resp.StatusCode, health)
	}

	resp, err = srv.engine.Test(httptest.NewRequest(http.MethodGet, "/api/v1/vapi/generate", nil), -1)
	if err != nil {
		t.Fatalf("GET /api/v1/vapi/generate error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/v1/vapi/generate = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("response has no X-Request-ID")
	}
}
