package sessionHandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/internal/middleware"
	"InterviewLo/internal/orchestrator"
	jwtPkg "InterviewLo/pkg/jwt"
	"InterviewLo/pkg/vapi"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type fakeClient struct {
	mu     sync.Mutex
	callID string
	vars   vapi.Variables
}

func (c *fakeClient) Start(_ context.Context, _ vapi.AssistantConfig, vars vapi.Variables) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars = vars
	return c.callID, nil
}

func (c *fakeClient) Stop(context.Context) error { return nil }

func (c *fakeClient) On(vapi.EventName, vapi.Handler) func() { return func() {} }

func (c *fakeClient) startVars() vapi.Variables {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vars
}

type fakeGenerator struct {
	mu    sync.Mutex
	specs []entity.InterviewSpec
}

func (g *fakeGenerator) Generate(_ context.Context, spec entity.InterviewSpec, _ string) (interview.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.specs = append(g.specs, spec)
	return interview.GenerateResult{Questions: []string{"Q1", "Q2", "Q3"}, InterviewID: "int-new"}, nil
}

type fakeInterviews map[string]entity.Interview

func (f fakeInterviews) GetInterview(_ context.Context, id string) (entity.Interview, error) {
	itv, ok := f[id]
	if !ok {
		return entity.Interview{}, interview.ErrInterviewNotFound
	}
	return itv, nil
}

type testEnv struct {
	app       *fiber.App
	mgr       *orchestrator.Manager
	client    *fakeClient
	generator *fakeGenerator
	available bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(middleware.AccessTokenSecret, "test-secret")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		client:    &fakeClient{callID: "call-1"},
		generator: &fakeGenerator{},
		available: true,
	}
	env.mgr = orchestrator.NewManager(orchestrator.Config{
		Log: logger,
		NewClient: func() (vapi.Client, error) {
			if !env.available {
				return nil, vapi.ErrProviderUnavailable
			}
			return env.client, nil
		},
		Generator: env.generator,
	})
	t.Cleanup(env.mgr.Close)

	interviews := fakeInterviews{
		"int-1": {ID: "int-1", Questions: []string{"What is a goroutine?", "Explain interfaces"}},
		"int-0": {ID: "int-0"},
	}

	mw := middleware.New(logger)
	env.app = fiber.New()
	env.app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, env.mgr, interviews).Start(env.app.Group("/api/v1"))
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, userID string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, _, err := jwtPkg.Sign(map[string]interface{}{"id": userID, "name": "Ayu"}, time.Hour)
		if err != nil {
			t.Fatalf("Sign() error = %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func sessionOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	sess, ok := body["session"].(map[string]any)
	if !ok {
		t.Fatalf("response has no session: %v", body)
	}
	return sess
}

func TestStartSession(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		env := newTestEnv(t)
		status, _ := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "")
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("setup", func(t *testing.T) {
		env := newTestEnv(t)
		status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")
		if status != http.StatusCreated {
			t.Fatalf("status = %d, body = %v", status, body)
		}

		sess := sessionOf(t, body)
		if sess["sessionId"] != "call-1" || sess["status"] != string(entity.StatusActive) || sess["userId"] != "u1" {
			t.Errorf("session = %v", sess)
		}
		vars := env.client.startVars()
		if vars["userid"] != "u1" || vars["username"] != "Ayu" {
			t.Errorf("start vars = %v", vars)
		}
	})

	t.Run("interview loads saved questions", func(t *testing.T) {
		env := newTestEnv(t)
		status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"INTERVIEW","interviewId":"int-1"}`, "u1")
		if status != http.StatusCreated {
			t.Fatalf("status = %d, body = %v", status, body)
		}
		if q := env.client.startVars()["questions"]; !strings.Contains(q, "- What is a goroutine?") {
			t.Errorf("questions var = %q", q)
		}
	})

	t.Run("interview without questions", func(t *testing.T) {
		env := newTestEnv(t)
		status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"INTERVIEW","interviewId":"int-0"}`, "u1")
		if status != http.StatusBadRequest || body["code"] != "MISSING_QUESTIONS" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		env := newTestEnv(t)
		status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"PRACTICE"}`, "u1")
		if status != http.StatusBadRequest || body["code"] != "VALIDATION_ERROR" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("provider unavailable then restart", func(t *testing.T) {
		env := newTestEnv(t)
		env.available = false

		status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")
		if status != http.StatusServiceUnavailable || body["code"] != "PROVIDER_UNAVAILABLE" {
			t.Fatalf("status = %d, body = %v", status, body)
		}
		data, _ := body["data"].(map[string]any)
		localID, _ := data["sessionId"].(string)
		if !strings.HasPrefix(localID, entity.LocalSessionPrefix) || data["status"] != string(entity.StatusInactive) {
			t.Fatalf("failed session = %v", data)
		}

		env.available = true
		status, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+localID+"/start", "", "u1")
		if status != http.StatusOK {
			t.Fatalf("restart status = %d, body = %v", status, body)
		}
		if sess := sessionOf(t, body); sess["sessionId"] != "call-1" {
			t.Errorf("restarted session = %v", sess)
		}
	})
}

func TestSessionOwnership(t *testing.T) {
	env := newTestEnv(t)
	if status, body := env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1"); status != http.StatusCreated {
		t.Fatalf("start status = %d, body = %v", status, body)
	}

	status, body := env.do(t, http.MethodGet, "/api/v1/sessions/call-1", "", "u2")
	if status != http.StatusNotFound || body["code"] != "SESSION_NOT_FOUND" {
		t.Errorf("other user: status = %d, body = %v", status, body)
	}

	status, _ = env.do(t, http.MethodPost, "/api/v1/sessions/call-1/end", "", "u2")
	if status != http.StatusNotFound {
		t.Errorf("other user end: status = %d", status)
	}

	status, body = env.do(t, http.MethodGet, "/api/v1/sessions/call-1", "", "u1")
	if status != http.StatusOK || sessionOf(t, body)["status"] != string(entity.StatusActive) {
		t.Errorf("owner: status = %d, body = %v", status, body)
	}
}

func TestSubmitManualSpec(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")

	status, body := env.do(t, http.MethodPost, "/api/v1/sessions/call-1/setup", `{"type":"Technical"}`, "u1")
	if status != http.StatusBadRequest {
		t.Errorf("incomplete form: status = %d, body = %v", status, body)
	}

	form := `{"type":"behavioral","role":"Product Manager","level":"senior","techstack":["Jira","SQL"],"amount":"5"}`
	status, body = env.do(t, http.MethodPost, "/api/v1/sessions/call-1/setup", form, "u1")
	if status != http.StatusOK || body["interviewId"] != "int-new" {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	env.generator.mu.Lock()
	defer env.generator.mu.Unlock()
	if len(env.generator.specs) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(env.generator.specs))
	}
	spec := env.generator.specs[0]
	if spec.Type != entity.TypeBehavioral || spec.Level != entity.LevelSenior || spec.Role != "Product Manager" || spec.Amount != 5 {
		t.Errorf("spec = %+v", spec)
	}
}

func TestInjectEvent(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")

	status, body := env.do(t, http.MethodPost, "/api/v1/sessions/call-1/events", `{"event":"speech-start"}`, "u1")
	if status != http.StatusAccepted {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	msg := `{"message":{"type":"transcript","transcriptType":"final","role":"user","transcript":"I want a senior Go interview"}}`
	if status, body := env.do(t, http.MethodPost, "/api/v1/sessions/call-1/events", msg, "u1"); status != http.StatusAccepted {
		t.Fatalf("message status = %d, body = %v", status, body)
	}

	if status, _ := env.do(t, http.MethodPost, "/api/v1/sessions/call-1/events", `{}`, "u1"); status != http.StatusBadRequest {
		t.Errorf("empty event status = %d, want 400", status)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/sessions/call-1", "", "u1")
	sess := sessionOf(t, body)
	if sess["speaking"] != true {
		t.Errorf("speaking = %v", sess["speaking"])
	}
	if tr, _ := sess["transcript"].([]any); len(tr) != 1 {
		t.Errorf("transcript = %v", sess["transcript"])
	}
}

func TestEndAndDisposeSession(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")

	status, body := env.do(t, http.MethodPost, "/api/v1/sessions/call-1/end", "", "u1")
	if status != http.StatusOK || sessionOf(t, body)["status"] != string(entity.StatusFinished) {
		t.Fatalf("end: status = %d, body = %v", status, body)
	}

	if status, _ := env.do(t, http.MethodDelete, "/api/v1/sessions/call-1", "", "u1"); status != http.StatusOK {
		t.Fatalf("dispose status = %d", status)
	}
	if env.mgr.Len() != 0 {
		t.Errorf("Len() = %d after dispose", env.mgr.Len())
	}
	if status, _ := env.do(t, http.MethodGet, "/api/v1/sessions/call-1", "", "u1"); status != http.StatusNotFound {
		t.Errorf("get after dispose status = %d, want 404", status)
	}
	if status, _ := env.do(t, http.MethodDelete, "/api/v1/sessions/call-1", "", "u1"); status != http.StatusOK {
		t.Errorf("second dispose status = %d, want 200", status)
	}
}

func TestStreamRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sessions", `{"mode":"SETUP"}`, "u1")

	status, _ := env.do(t, http.MethodGet, "/api/v1/sessions/call-1/ws", "", "u1")
	if status != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", status)
	}
}
