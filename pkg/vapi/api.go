package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"InterviewLo/internal/entity"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.vapi.ai"

var (
	ErrProviderUnavailable = errors.New("voice provider credentials are not configured")
	ErrCallNotFound        = errors.New("call not found")
)

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vapi API error: %d %s", e.StatusCode, e.Body)
}

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:  os.Getenv("VAPI_API_KEY"),
		BaseURL: os.Getenv("VAPI_BASE_URL"),
	}
}

type API interface {
	CreateWebCall(ctx context.Context, assistant AssistantConfig, vars Variables) (entity.CallRecord, error)
	CreateWorkflowCall(ctx context.Context, workflowID string, vars Variables) (entity.CallRecord, error)
	GetCall(ctx context.Context, callID string) (entity.CallRecord, error)
	EndCall(ctx context.Context, call entity.CallRecord) error
}

type restAPI struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

func NewAPI(cfg Config) (API, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrProviderUnavailable
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &restAPI{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    httpClient,
		log:     logger,
	}, nil
}

func (a *restAPI) CreateWebCall(ctx context.Context, assistant AssistantConfig, vars Variables) (entity.CallRecord, error) {
	body := map[string]interface{}{
		"assistant": assistant,
	}
	if len(vars) > 0 {
		body["assistantOverrides"] = map[string]interface{}{
			"variableValues": vars,
		}
	}

	var call entity.CallRecord
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/call/web", body, &call); err != nil {
		return entity.CallRecord{}, err
	}

	a.log.WithFields(logrus.Fields{
		"call_id":   call.ID,
		"assistant": assistant.Name,
	}).Info("Created web call")

	return call, nil
}

func (a *restAPI) CreateWorkflowCall(ctx context.Context, workflowID string, vars Variables) (entity.CallRecord, error) {
	if workflowID == "" {
		return entity.CallRecord{}, errors.New("missing workflow id")
	}

	body := map[string]interface{}{
		"type":       "webCall",
		"workflowId": workflowID,
	}
	if len(vars) > 0 {
		body["workflowOverrides"] = map[string]interface{}{
			"variableValues": vars,
		}
	}

	var call entity.CallRecord
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/call", body, &call); err != nil {
		return entity.CallRecord{}, err
	}

	a.log.WithFields(logrus.Fields{
		"call_id":     call.ID,
		"workflow_id": workflowID,
	}).Info("Created workflow call")

	return call, nil
}

func (a *restAPI) GetCall(ctx context.Context, callID string) (entity.CallRecord, error) {
	var raw json.RawMessage
	err := a.do(ctx, http.MethodGet, a.baseURL+"/call/"+callID, nil, &raw)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return entity.CallRecord{}, ErrCallNotFound
		}
		return entity.CallRecord{}, err
	}

	var call entity.CallRecord
	if err := json.Unmarshal(raw, &call); err != nil {
		return entity.CallRecord{}, fmt.Errorf("decode call: %w", err)
	}
	call.Raw = raw

	return call, nil
}

// EndCall asks the provider to hang up through the call's control URL.
func (a *restAPI) EndCall(ctx context.Context, call entity.CallRecord) error {
	if call.Monitor == nil || call.Monitor.ControlURL == "" {
		return nil
	}
	return a.do(ctx, http.MethodPost, call.Monitor.ControlURL, map[string]string{"type": "end-call"}, nil)
}

func (a *restAPI) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	return json.Unmarshal(respBody, out)
}
