package orchestrator

import (
	"context"
	"sync"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/response"
	"InterviewLo/pkg/vapi"

	"github.com/sirupsen/logrus"
)

type UpdateType string

const (
	UpdateStatus        UpdateType = "status"
	UpdateTranscript    UpdateType = "transcript"
	UpdateSpeech        UpdateType = "speech"
	UpdateManualInput   UpdateType = "manual-input"
	UpdateSetupComplete UpdateType = "setup-complete"
	UpdateNavigate      UpdateType = "navigate"
	UpdateError         UpdateType = "error"
)

// Update is one notification pushed to subscribers of a session.
type Update struct {
	Type        UpdateType            `json:"type"`
	SessionID   string                `json:"sessionId"`
	Session     *entity.Session       `json:"session,omitempty"`
	Utterance   *entity.Utterance     `json:"utterance,omitempty"`
	Speaking    *bool                 `json:"speaking,omitempty"`
	Prefill     *entity.InterviewSpec `json:"prefill,omitempty"`
	Questions   []string              `json:"questions,omitempty"`
	InterviewID string                `json:"interviewId,omitempty"`
	Path        string                `json:"path,omitempty"`
	Error       string                `json:"error,omitempty"`
	Code        string                `json:"code,omitempty"`
}

const subscriberBuffer = 32

type entry struct {
	id      string
	machine *Machine
	subs    map[int]chan Update
}

// Manager keeps the live sessions of this process and fans their callbacks
// out to subscribers.
type Manager struct {
	cfg Config
	log *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*entry
	byCall   map[string]string
	nextSub  int
	closed   bool
}

func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:      cfg,
		log:      cfg.Log,
		sessions: make(map[string]*entry),
		byCall:   make(map[string]string),
	}
}

// Start creates a session and starts its call. The session is registered even
// when the start fails so the caller can read the error from its snapshot.
func (mgr *Manager) Start(ctx context.Context, opts Options) (entity.Session, error) {
	mgr.mu.Lock()
	if mgr.closed {
		mgr.mu.Unlock()
		return entity.Session{}, interview.ErrSessionNotFound
	}
	mgr.mu.Unlock()

	e := &entry{subs: make(map[int]chan Update)}
	var m *Machine
	m = NewMachine(mgr.cfg, opts, mgr.callbacks(e, func() *Machine { return m }))
	e.machine = m

	startErr := m.StartCall(ctx)
	snap := m.Snapshot()

	mgr.mu.Lock()
	if mgr.closed {
		mgr.mu.Unlock()
		m.Close()
		return entity.Session{}, interview.ErrSessionNotFound
	}
	e.id = snap.ID
	mgr.sessions[snap.ID] = e
	if snap.CallID != "" {
		mgr.byCall[snap.CallID] = snap.ID
	}
	mgr.mu.Unlock()

	mgr.log.WithFields(logrus.Fields{
		"session_id": snap.ID,
		"call_id":    snap.CallID,
		"mode":       snap.Mode,
		"status":     snap.Status,
	}).Info("Session registered")

	return snap, startErr
}

// Restart retries the call of a session whose start failed. The session may
// come back under a new id once the provider assigns one; the old id keeps
// resolving to it.
func (mgr *Manager) Restart(ctx context.Context, id string) (entity.Session, error) {
	m, err := mgr.Get(id)
	if err != nil {
		return entity.Session{}, err
	}
	err = m.StartCall(ctx)
	return m.Snapshot(), err
}

func (mgr *Manager) Get(id string) (*Machine, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if e, ok := mgr.sessions[id]; ok {
		return e.machine, nil
	}
	if sid, ok := mgr.byCall[id]; ok {
		if e, ok := mgr.sessions[sid]; ok {
			return e.machine, nil
		}
	}
	return nil, interview.ErrSessionNotFound
}

func (mgr *Manager) Snapshot(id string) (entity.Session, error) {
	m, err := mgr.Get(id)
	if err != nil {
		return entity.Session{}, err
	}
	return m.Snapshot(), nil
}

func (mgr *Manager) EndCall(ctx context.Context, id string) (entity.Session, error) {
	m, err := mgr.Get(id)
	if err != nil {
		return entity.Session{}, err
	}
	if err := m.EndCall(ctx); err != nil {
		return m.Snapshot(), err
	}
	return m.Snapshot(), nil
}

// HandleEvent routes a provider event to the session owning id, which may be
// either the session id or the provider call id.
func (mgr *Manager) HandleEvent(id string, ev vapi.Event) error {
	m, err := mgr.Get(id)
	if err != nil {
		return err
	}
	return m.HandleEvent(ev)
}

func (mgr *Manager) SubmitManualSpec(ctx context.Context, id string, spec entity.InterviewSpec) (interview.GenerateResult, error) {
	m, err := mgr.Get(id)
	if err != nil {
		return interview.GenerateResult{}, err
	}
	return m.SubmitManualSpec(ctx, spec)
}

// Subscribe returns a channel of updates for the session and a function that
// cancels the subscription. The channel is closed when the session is disposed.
func (mgr *Manager) Subscribe(id string) (<-chan Update, func(), error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	sid := id
	if mapped, ok := mgr.byCall[id]; ok {
		sid = mapped
	}
	e, ok := mgr.sessions[sid]
	if !ok {
		return nil, nil, interview.ErrSessionNotFound
	}

	mgr.nextSub++
	subID := mgr.nextSub
	ch := make(chan Update, subscriberBuffer)
	e.subs[subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			mgr.mu.Lock()
			defer mgr.mu.Unlock()
			if c, ok := e.subs[subID]; ok {
				delete(e.subs, subID)
				close(c)
			}
		})
	}

	return ch, cancel, nil
}

// Dispose closes the session and drops it from the registry.
func (mgr *Manager) Dispose(id string) error {
	mgr.mu.Lock()
	sid := id
	if mapped, ok := mgr.byCall[id]; ok {
		sid = mapped
	}
	e, ok := mgr.sessions[sid]
	if !ok {
		mgr.mu.Unlock()
		return interview.ErrSessionNotFound
	}
	delete(mgr.sessions, sid)
	for callID, s := range mgr.byCall {
		if s == sid {
			delete(mgr.byCall, callID)
		}
	}
	for subID, ch := range e.subs {
		delete(e.subs, subID)
		close(ch)
	}
	mgr.mu.Unlock()

	e.machine.Close()
	if f, ok := mgr.cfg.Guard.(sessionForgetter); ok {
		f.Forget(sid)
	}

	mgr.log.WithField("session_id", sid).Info("Session disposed")
	return nil
}

// Close disposes every live session.
func (mgr *Manager) Close() {
	mgr.mu.Lock()
	mgr.closed = true
	ids := make([]string, 0, len(mgr.sessions))
	for id := range mgr.sessions {
		ids = append(ids, id)
	}
	mgr.mu.Unlock()

	for _, id := range ids {
		_ = mgr.Dispose(id)
	}
}

func (mgr *Manager) Len() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.sessions)
}

func (mgr *Manager) publish(sessionID string, u Update) {
	u.SessionID = sessionID

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	e, ok := mgr.sessions[sessionID]
	if !ok {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
			mgr.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"update":     u.Type,
			}).Warn("Dropping update for slow subscriber")
		}
	}
}

// disposeLater removes a session once its terminal dispatch is done. It runs
// on its own goroutine because callbacks may fire from the machine's own
// goroutines, which Close waits for.
func (mgr *Manager) disposeLater(id string) {
	go func() {
		if err := mgr.Dispose(id); err != nil {
			mgr.log.WithField("session_id", id).Debug("Session already disposed")
		}
	}()
}

func (mgr *Manager) callbacks(e *entry, machine func() *Machine) Callbacks {
	id := func() string { return machine().ID() }

	return Callbacks{
		OnStatusChange: func(sess entity.Session) {
			mgr.mu.Lock()
			if e.id != "" && e.id != sess.ID && mgr.sessions[e.id] == e {
				delete(mgr.sessions, e.id)
				mgr.sessions[sess.ID] = e
				mgr.byCall[e.id] = sess.ID
				e.id = sess.ID
			}
			if sess.CallID != "" {
				mgr.byCall[sess.CallID] = sess.ID
			}
			mgr.mu.Unlock()
			mgr.publish(sess.ID, Update{Type: UpdateStatus, Session: &sess})
		},
		OnTranscript: func(u entity.Utterance) {
			mgr.publish(id(), Update{Type: UpdateTranscript, Utterance: &u})
		},
		OnSpeech: func(speaking bool) {
			mgr.publish(id(), Update{Type: UpdateSpeech, Speaking: &speaking})
		},
		OnManualInput: func(prefill entity.InterviewSpec) {
			mgr.publish(id(), Update{Type: UpdateManualInput, Prefill: &prefill})
		},
		OnSetupComplete: func(res interview.GenerateResult) {
			sid := id()
			mgr.publish(sid, Update{Type: UpdateSetupComplete, Questions: res.Questions, InterviewID: res.InterviewID})
			mgr.disposeLater(sid)
		},
		OnNavigate: func(path string) {
			sid := id()
			mgr.publish(sid, Update{Type: UpdateNavigate, Path: path})
			mgr.disposeLater(sid)
		},
		OnError: func(err error) {
			mgr.publish(id(), Update{Type: UpdateError, Error: err.Error(), Code: response.KindOf(err)})
		},
	}
}
