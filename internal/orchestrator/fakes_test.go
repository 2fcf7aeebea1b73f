package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/vapi"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeClient struct {
	mu       sync.Mutex
	callID   string
	startErr error
	handlers map[vapi.EventName][]vapi.Handler
	vars     vapi.Variables
	started  int
	stopped  int
}

func newFakeClient(callID string) *fakeClient {
	return &fakeClient{callID: callID, handlers: make(map[vapi.EventName][]vapi.Handler)}
}

func (c *fakeClient) Start(_ context.Context, _ vapi.AssistantConfig, vars vapi.Variables) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	c.vars = vars
	if c.startErr != nil {
		return "", c.startErr
	}
	return c.callID, nil
}

func (c *fakeClient) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	return nil
}

func (c *fakeClient) On(name vapi.EventName, h vapi.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = append(c.handlers[name], h)
	idx := len(c.handlers[name]) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handlers[name][idx] = nil
	}
}

func (c *fakeClient) emit(ev vapi.Event) {
	c.mu.Lock()
	hs := append([]vapi.Handler(nil), c.handlers[ev.Name]...)
	c.mu.Unlock()
	for _, h := range hs {
		if h != nil {
			h(ev)
		}
	}
}

func (c *fakeClient) transcript(role, text string) {
	c.emit(vapi.Event{Name: vapi.EventMessage, Message: &vapi.Message{
		Type: vapi.MessageTranscript, Role: role, TranscriptType: "final", Transcript: text,
	}})
}

func (c *fakeClient) stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	specs []entity.InterviewSpec
	res   interview.GenerateResult
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, spec entity.InterviewSpec, _ string) (interview.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.specs = append(g.specs, spec)
	if g.err != nil {
		return interview.GenerateResult{}, g.err
	}
	return g.res, nil
}

func (g *fakeGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeFeedback struct {
	calls atomic.Int32
	id    string
	err   error
	last  interview.CreateFeedbackRequest
}

func (f *fakeFeedback) CreateFeedback(_ context.Context, req interview.CreateFeedbackRequest) (interview.CreateFeedbackResponse, error) {
	f.calls.Add(1)
	f.last = req
	if f.err != nil {
		return interview.CreateFeedbackResponse{}, f.err
	}
	return interview.CreateFeedbackResponse{Success: f.id != "", FeedbackID: f.id}, nil
}

type fakeLookup struct {
	mu      sync.Mutex
	calls   int
	records []entity.CallRecord
	errs    []error
}

func (l *fakeLookup) CallStatus(_ context.Context, _ string) (entity.CallRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	l.calls++
	if i < len(l.errs) && l.errs[i] != nil {
		return entity.CallRecord{}, l.errs[i]
	}
	if i >= len(l.records) {
		return l.records[len(l.records)-1], nil
	}
	return l.records[i], nil
}

func (l *fakeLookup) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type fakeCalls struct {
	callID string
	ended  atomic.Int32
}

func (c *fakeCalls) CreateWorkflowCall(context.Context, string, vapi.Variables) (entity.CallRecord, error) {
	if c.callID == "" {
		return entity.CallRecord{}, errors.New("boom")
	}
	return entity.CallRecord{ID: c.callID, Status: "queued"}, nil
}

func (c *fakeCalls) EndCall(context.Context, entity.CallRecord) error {
	c.ended.Add(1)
	return nil
}

// recorder captures callbacks.
type recorder struct {
	mu        sync.Mutex
	statuses  []entity.SessionStatus
	prefills  []entity.InterviewSpec
	completes []interview.GenerateResult
	paths     []string
	errs      []error
	finished  chan struct{}
	once      sync.Once
}

func newRecorder() *recorder {
	return &recorder{finished: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStatusChange: func(sess entity.Session) {
			r.mu.Lock()
			r.statuses = append(r.statuses, sess.Status)
			r.mu.Unlock()
			if sess.Status == entity.StatusFinished {
				r.once.Do(func() { close(r.finished) })
			}
		},
		OnManualInput: func(p entity.InterviewSpec) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.prefills = append(r.prefills, p)
		},
		OnSetupComplete: func(res interview.GenerateResult) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completes = append(r.completes, res)
		},
		OnNavigate: func(path string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.paths = append(r.paths, path)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) waitFinished(t *testing.T) {
	t.Helper()
	select {
	case <-r.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("session never reached FINISHED")
	}
}

type recorded struct {
	statuses  []entity.SessionStatus
	prefills  []entity.InterviewSpec
	completes []interview.GenerateResult
	paths     []string
	errs      []error
}

func (r *recorder) snapshot() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorded{
		statuses:  append([]entity.SessionStatus(nil), r.statuses...),
		prefills:  append([]entity.InterviewSpec(nil), r.prefills...),
		completes: append([]interview.GenerateResult(nil), r.completes...),
		paths:     append([]string(nil), r.paths...),
		errs:      append([]error(nil), r.errs...),
	}
}

func baseConfig(client *fakeClient) Config {
	return Config{
		Log: quietLogger(),
		NewClient: func() (vapi.Client, error) {
			return client, nil
		},
	}
}
