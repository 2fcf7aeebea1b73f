package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAPI_MissingKey(t *testing.T) {
	_, err := NewAPI(Config{})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("NewAPI() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestGetCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/call/call-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "call-1",
				"status": "ended",
				"transcript": "AI: hi\nUser: senior go",
				"messages": [
					{"role": "bot", "message": "hi"},
					{"role": "user", "content": "senior go"},
					{"role": "tool_calls", "message": "ignored"}
				],
				"analysis": {"extractedVariables": {"role": "Backend Developer", "amount": "7"}}
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	defer srv.Close()

	api, err := NewAPI(Config{APIKey: "secret", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAPI() error = %v", err)
	}

	call, err := api.GetCall(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("GetCall() error = %v", err)
	}
	if !call.Terminal() {
		t.Errorf("Terminal() = false for status %q", call.Status)
	}
	if got := call.Analysis.ExtractedVariables["role"]; got != "Backend Developer" {
		t.Errorf("analysis.extractedVariables.role = %v", got)
	}
	if len(call.Raw) == 0 {
		t.Errorf("Raw payload not kept")
	}

	utts := call.Utterances()
	if len(utts) != 2 {
		t.Fatalf("Utterances() = %+v, want 2 entries", utts)
	}
	if utts[0].Role != "assistant" || utts[0].Content != "hi" {
		t.Errorf("Utterances()[0] = %+v", utts[0])
	}
	if utts[1].Role != "user" || utts[1].Content != "senior go" {
		t.Errorf("Utterances()[1] = %+v", utts[1])
	}

	_, err = api.GetCall(context.Background(), "missing")
	if !errors.Is(err, ErrCallNotFound) {
		t.Errorf("GetCall(missing) error = %v, want ErrCallNotFound", err)
	}
}

func TestCreateWorkflowCall(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/call" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"wf-call","status":"queued"}`))
	}))
	defer srv.Close()

	api, _ := NewAPI(Config{APIKey: "k", BaseURL: srv.URL})
	call, err := api.CreateWorkflowCall(context.Background(), "wf-1", Variables{"userid": "u1"})
	if err != nil {
		t.Fatalf("CreateWorkflowCall() error = %v", err)
	}
	if call.ID != "wf-call" {
		t.Errorf("call.ID = %q", call.ID)
	}
	if got["workflowId"] != "wf-1" {
		t.Errorf("workflowId = %v", got["workflowId"])
	}
	overrides, _ := got["workflowOverrides"].(map[string]interface{})
	values, _ := overrides["variableValues"].(map[string]interface{})
	if values["userid"] != "u1" {
		t.Errorf("variableValues = %v", values)
	}
}

func TestCreateWorkflowCall_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad workflow`))
	}))
	defer srv.Close()

	api, _ := NewAPI(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := api.CreateWorkflowCall(context.Background(), "wf-1", nil)

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("CreateWorkflowCall() error = %v, want StatusError 400", err)
	}
}
