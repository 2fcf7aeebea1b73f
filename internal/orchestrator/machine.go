// Package orchestrator runs voice interview sessions: one state machine per
// call, fed by provider events, that dispatches question generation or
// feedback scoring once the call is over.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/log"
	"InterviewLo/pkg/nlp"
	"InterviewLo/pkg/response"
	"InterviewLo/pkg/vapi"

	"github.com/sirupsen/logrus"
)

type genState uint8

const (
	genIdle genState = iota
	genRunning
	genSucceeded
	genFailed
)

// Machine owns one session. Events are applied in arrival order under a
// single lock; side effects run after the lock is released.
type Machine struct {
	cfg      Config
	opts     Options
	cb       Callbacks
	log      *logrus.Logger
	generate *GenerationDispatcher
	feedback *FeedbackDispatcher

	mu                 sync.Mutex
	sess               entity.Session
	client             vapi.Client
	call               entity.CallRecord
	offs               []func()
	startCancel        context.CancelFunc
	pollCancel         context.CancelFunc
	fieldsFromProvider bool
	gen                genState
	closed             bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewMachine(cfg Config, opts Options, cb Callbacks) *Machine {
	cfg = cfg.withDefaults()
	if !opts.Mode.Valid() {
		opts.Mode = entity.ModeSetup
	}

	now := cfg.Now()
	ctx, cancel := context.WithCancel(context.Background())

	return &Machine{
		cfg:      cfg,
		opts:     opts,
		cb:       cb,
		log:      cfg.Log,
		generate: NewGenerationDispatcher(cfg.Generator, cfg.Log),
		feedback: NewFeedbackDispatcher(cfg.Feedback, cfg.Log),
		sess: entity.Session{
			ID:          cfg.NewID(),
			UserID:      opts.UserID,
			Username:    opts.Username,
			InterviewID: opts.InterviewID,
			FeedbackID:  opts.FeedbackID,
			Mode:        opts.Mode,
			Status:      entity.StatusInactive,
			Questions:   append([]string(nil), opts.Questions...),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *Machine) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.ID
}

func (m *Machine) CallID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.CallID
}

func (m *Machine) Snapshot() entity.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Clone()
}

// StartCall moves INACTIVE to CONNECTING, starts the provider call and moves
// to ACTIVE once the provider acknowledges it. On failure the session falls
// back to INACTIVE so the caller may retry.
func (m *Machine) StartCall(ctx context.Context) error {
	var fx effects

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return interview.ErrSessionNotFound
	}
	if !m.transitionLocked(entity.StatusConnecting, &fx) {
		m.mu.Unlock()
		return interview.ErrInvalidTransition
	}
	m.sess.LastError = ""
	startCtx, cancel := context.WithCancel(ctx)
	m.startCancel = cancel
	m.mu.Unlock()
	defer cancel()

	fx.run()

	var (
		callID    string
		sessionID string
		client    vapi.Client
		err       error
	)
	if m.opts.ServerManaged {
		callID, err = m.startWorkflowCall(startCtx)
		if callID != "" {
			sessionID = entity.ServerSessionPrefix + callID
		}
	} else {
		callID, client, err = m.startDirectCall(startCtx)
		sessionID = callID
	}

	fx = nil
	m.mu.Lock()
	m.startCancel = nil

	if m.closed {
		m.client = nil
		m.mu.Unlock()
		m.stopClient(client)
		return interview.ErrSessionNotFound
	}

	// A provider error may have reset the session while the call was starting.
	// The reset's stop can run before the call exists, so stop it again here.
	if err == nil && m.sess.Status == entity.StatusInactive {
		err = response.Wrap(interview.ErrCallStartFailed, errors.New(m.sess.LastError))
		m.mu.Unlock()
		m.stopClient(client)
		return err
	}

	if err != nil {
		m.sess.LastError = err.Error()
		m.transitionLocked(entity.StatusInactive, &fx)
		m.mu.Unlock()
		fx.run()

		m.logger().WithField("error", err.Error()).Warn("Call start failed")
		m.cb.failed(err)
		return err
	}

	m.sess.CallID = callID
	if sessionID != "" {
		m.sess.ID = sessionID
	}
	m.transitionLocked(entity.StatusActive, &fx)
	m.mu.Unlock()
	fx.run()

	return nil
}

func (m *Machine) startDirectCall(ctx context.Context) (string, vapi.Client, error) {
	if m.cfg.NewClient == nil {
		return "", nil, interview.ErrProviderUnavailable
	}

	client, err := m.cfg.NewClient()
	if err != nil {
		if errors.Is(err, vapi.ErrProviderUnavailable) {
			return "", nil, response.Wrap(interview.ErrProviderUnavailable, err)
		}
		return "", nil, response.Wrap(interview.ErrCallStartFailed, err)
	}

	handler := func(ev vapi.Event) { _ = m.HandleEvent(ev) }
	offs := []func(){
		client.On(vapi.EventCallStart, handler),
		client.On(vapi.EventCallEnd, handler),
		client.On(vapi.EventSpeechStart, handler),
		client.On(vapi.EventSpeechEnd, handler),
		client.On(vapi.EventMessage, handler),
		client.On(vapi.EventError, handler),
	}

	m.mu.Lock()
	m.client = client
	m.offs = offs
	m.mu.Unlock()

	assistant, vars := m.callPlan()
	callID, err := client.Start(ctx, assistant, vars)
	if err != nil {
		return "", client, response.Wrap(interview.ErrCallStartFailed, err)
	}

	return callID, client, nil
}

func (m *Machine) startWorkflowCall(ctx context.Context) (string, error) {
	if m.cfg.Calls == nil {
		return "", interview.ErrProviderUnavailable
	}

	_, vars := m.callPlan()
	call, err := m.cfg.Calls.CreateWorkflowCall(ctx, m.cfg.WorkflowID, vars)
	if err != nil {
		return "", response.Wrap(interview.ErrCallStartFailed, err)
	}
	if call.ID == "" {
		return "", response.Wrap(interview.ErrCallStartFailed, errors.New("provider returned no call id"))
	}

	m.mu.Lock()
	m.call = call
	m.mu.Unlock()

	return call.ID, nil
}

func (m *Machine) callPlan() (vapi.AssistantConfig, vapi.Variables) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.Mode == entity.ModeInterview {
		return vapi.Interviewer(), vapi.Variables{
			"questions": vapi.FormatQuestions(m.sess.Questions),
		}
	}
	return vapi.SetupAssistant(), vapi.Variables{
		"username": m.sess.Username,
		"userid":   m.sess.UserID,
	}
}

// EndCall is the user's disconnect. Ending a finished session is a no-op and
// ending one that is still connecting aborts the start.
func (m *Machine) EndCall(ctx context.Context) error {
	var fx effects

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return interview.ErrSessionNotFound
	}

	switch m.sess.Status {
	case entity.StatusFinished:
		m.mu.Unlock()
		return nil
	case entity.StatusInactive:
		m.mu.Unlock()
		return interview.ErrInvalidTransition
	case entity.StatusConnecting:
		cancel := m.startCancel
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	}

	client := m.client
	call := m.call
	m.transitionLocked(entity.StatusFinished, &fx)
	m.mu.Unlock()

	if client != nil {
		if err := client.Stop(ctx); err != nil {
			m.logger().WithField("error", err.Error()).Warn("Failed to stop provider call")
		}
	} else if m.opts.ServerManaged && m.cfg.Calls != nil {
		if err := m.cfg.Calls.EndCall(ctx, call); err != nil {
			m.logger().WithField("error", err.Error()).Warn("Failed to end workflow call")
		}
	}

	fx.run()
	return nil
}

// HandleEvent applies one provider event. Events that do not fit the current
// state are ignored.
func (m *Machine) HandleEvent(ev vapi.Event) error {
	var fx effects

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return interview.ErrSessionNotFound
	}

	switch ev.Name {
	case vapi.EventCallStart:
		m.transitionLocked(entity.StatusActive, &fx)
	case vapi.EventCallEnd:
		m.transitionLocked(entity.StatusFinished, &fx)
	case vapi.EventSpeechStart, vapi.EventSpeechEnd:
		m.speechLocked(ev.Name == vapi.EventSpeechStart, &fx)
	case vapi.EventError:
		m.providerErrorLocked(ev, &fx)
	case vapi.EventMessage:
		if ev.Message != nil {
			m.messageLocked(*ev.Message, &fx)
		}
	default:
		m.entryLocked().WithField("event", ev.Name).Debug("Ignoring unknown event")
	}
	m.mu.Unlock()

	fx.run()
	return nil
}

// SubmitManualSpec sends a spec from the manual input form to the generation
// dispatcher. It is the recovery path after voice extraction, so it may be
// retried after a failed attempt but not after a successful one.
func (m *Machine) SubmitManualSpec(ctx context.Context, spec entity.InterviewSpec) (interview.GenerateResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return interview.GenerateResult{}, interview.ErrSessionNotFound
	}
	if m.sess.Mode != entity.ModeSetup {
		m.mu.Unlock()
		return interview.GenerateResult{}, interview.ErrInvalidTransition
	}
	if m.gen == genRunning || m.gen == genSucceeded {
		m.mu.Unlock()
		return interview.GenerateResult{}, interview.ErrDispatchInFlight
	}
	m.gen = genRunning
	m.mu.Unlock()

	res, err := m.dispatchGeneration(ctx, spec)
	m.completeGeneration(res, err, false)
	return res, err
}

// Close releases the provider subscription and the poll timer. It blocks
// until the reconciler has exited.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.stopPollingLocked()
		if m.startCancel != nil {
			m.startCancel()
		}
		client := m.client
		m.client = nil
		offs := m.offs
		m.offs = nil
		live := m.sess.Status == entity.StatusConnecting || m.sess.Status == entity.StatusActive
		m.mu.Unlock()

		for _, off := range offs {
			off()
		}
		if live {
			m.stopClient(client)
		}

		m.cancel()
		m.wg.Wait()
	})
}

var transitions = map[entity.SessionStatus][]entity.SessionStatus{
	entity.StatusInactive:   {entity.StatusConnecting},
	entity.StatusConnecting: {entity.StatusActive, entity.StatusInactive},
	entity.StatusActive:     {entity.StatusFinished, entity.StatusInactive},
}

func canTransition(from, to entity.SessionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (m *Machine) transitionLocked(next entity.SessionStatus, fx *effects) bool {
	cur := m.sess.Status
	if !canTransition(cur, next) {
		if cur != next {
			m.entryLocked().WithFields(logrus.Fields{
				"status": cur,
				"next":   next,
			}).Debug("Ignoring transition")
		}
		return false
	}

	m.sess.Status = next
	m.sess.UpdatedAt = m.cfg.Now()
	if next != entity.StatusActive {
		m.stopPollingLocked()
		m.sess.Speaking = false
	}

	snap := m.sess.Clone()
	fx.add(func() { m.publishStatus(snap) })

	switch next {
	case entity.StatusActive:
		if m.opts.ServerManaged {
			m.startPollingLocked()
		}
	case entity.StatusInactive:
		client := m.client
		m.releaseSubscriptionLocked(fx)
		m.stopClientLocked(client)
	case entity.StatusFinished:
		m.releaseSubscriptionLocked(fx)
		m.finishedLocked(fx)
	}

	return true
}

func (m *Machine) releaseSubscriptionLocked(fx *effects) {
	offs := m.offs
	m.offs = nil
	m.client = nil
	if len(offs) == 0 {
		return
	}
	fx.add(func() {
		for _, off := range offs {
			off()
		}
	})
}

// finishedLocked decides what the end of the call triggers. It runs exactly
// once per session because FINISHED is terminal.
func (m *Machine) finishedLocked(fx *effects) {
	snap := m.sess.Clone()

	if m.cfg.Archiver != nil && len(snap.Transcript) > 0 {
		fx.add(func() { m.archive(snap) })
	}

	switch snap.Mode {
	case entity.ModeInterview:
		if len(snap.Transcript) == 0 {
			m.entryLocked().Warn("Interview ended without transcript, skipping feedback")
			fx.add(func() { m.cb.navigate("/") })
			return
		}
		fx.add(func() { m.runFeedback(snap) })

	case entity.ModeSetup:
		switch m.gen {
		case genIdle:
			if m.fieldsFromProvider && m.sess.ExtractedFields != nil {
				m.gen = genRunning
				spec := m.sess.ExtractedFields.Clone()
				fx.add(func() { m.runAutoGeneration(spec) })
				return
			}
			m.manualInputLocked(fx)
		case genFailed:
			m.manualInputLocked(fx)
		}
	}
}

// manualInputLocked surfaces the manual form prefilled with whatever was
// extracted, running the transcript extractor when nothing was.
func (m *Machine) manualInputLocked(fx *effects) {
	if m.sess.ExtractedFields == nil {
		spec := m.extractFromTranscriptLocked("")
		m.sess.ExtractedFields = &spec
	}
	prefill := m.sess.ExtractedFields.Clone()
	fx.add(func() { m.cb.manualInput(prefill) })
}

func (m *Machine) extractFromTranscriptLocked(raw string) entity.InterviewSpec {
	var (
		spec      entity.InterviewSpec
		defaulted []string
	)
	if len(m.sess.Transcript) > 0 || raw == "" {
		spec, defaulted = nlp.ExtractFromTranscript(m.sess.Transcript)
	} else {
		spec, defaulted = nlp.ExtractWithReport(raw)
	}

	if len(defaulted) > 0 {
		m.entryLocked().WithField("defaulted_fields", strings.Join(defaulted, ",")).Warn("ExtractionDefaulted")
	}
	return spec
}

// adoptVariablesLocked sets the extracted fields from provider variables
// unless they are already set.
func (m *Machine) adoptVariablesLocked(vars entity.Variables, source string) bool {
	if m.sess.ExtractedFields != nil {
		return false
	}

	spec, defaulted := SpecFromVariables(vars)
	m.sess.ExtractedFields = &spec
	m.fieldsFromProvider = true

	e := m.entryLocked().WithField("source", source)
	if len(defaulted) > 0 {
		e.WithField("defaulted_fields", strings.Join(defaulted, ",")).Warn("ExtractionDefaulted")
	} else {
		e.Info("Adopted provider variables")
	}
	return true
}

func (m *Machine) messageLocked(msg vapi.Message, fx *effects) {
	switch {
	case msg.IsFinalTranscript():
		if m.sess.Status != entity.StatusConnecting && m.sess.Status != entity.StatusActive {
			return
		}
		text := strings.TrimSpace(msg.Transcript)
		if text == "" {
			return
		}
		u := entity.Utterance{Role: entity.NormalizeRole(msg.Role), Content: text}
		m.sess.Transcript = append(m.sess.Transcript, u)
		m.sess.UpdatedAt = m.cfg.Now()
		fx.add(func() { m.cb.transcript(u) })

	case msg.Type == vapi.MessageWorkflowVariableExtraction, msg.Type == vapi.MessageWorkflowCompleted:
		vars := msg.Vars()
		if len(vars) == 0 {
			if msg.Type == vapi.MessageWorkflowCompleted {
				m.entryLocked().Info("Workflow completed without variables")
			}
			return
		}
		m.adoptVariablesLocked(vars, "event:"+msg.Type)

		if msg.Type == vapi.MessageWorkflowCompleted && m.sess.Mode == entity.ModeSetup &&
			m.gen == genIdle && m.fieldsFromProvider && m.sess.Status != entity.StatusInactive {
			m.gen = genRunning
			spec := m.sess.ExtractedFields.Clone()
			fx.add(func() { m.runAutoGeneration(spec) })
		}
	}
}

func (m *Machine) speechLocked(speaking bool, fx *effects) {
	if m.sess.Status != entity.StatusActive || m.sess.Speaking == speaking {
		return
	}
	m.sess.Speaking = speaking
	fx.add(func() { m.cb.speech(speaking) })
}

func (m *Machine) providerErrorLocked(ev vapi.Event, fx *effects) {
	cur := m.sess.Status
	if cur != entity.StatusConnecting && cur != entity.StatusActive {
		return
	}

	detail := "provider error"
	if ev.Err != nil {
		detail = ev.Err.Error()
	} else if ev.Message != nil && ev.Message.Error != "" {
		detail = ev.Message.Error
	}

	base := interview.ErrProviderUnavailable
	if cur == entity.StatusConnecting {
		base = interview.ErrCallStartFailed
	}
	err := response.Wrap(base, errors.New(detail))

	m.sess.LastError = err.Error()
	m.transitionLocked(entity.StatusInactive, fx)
	fx.add(func() { m.cb.failed(err) })
}

func (m *Machine) runAutoGeneration(spec entity.InterviewSpec) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DispatchTimeout)
	defer cancel()

	res, err := m.dispatchGeneration(ctx, spec)
	m.completeGeneration(res, err, true)
}

func (m *Machine) dispatchGeneration(ctx context.Context, spec entity.InterviewSpec) (interview.GenerateResult, error) {
	m.mu.Lock()
	id := m.sess.ID
	userID := m.sess.UserID
	m.mu.Unlock()

	key := GuardKey(dispatchGenerate, id)
	ok, err := m.cfg.Guard.Acquire(ctx, key)
	if err != nil {
		m.logger().WithField("error", err.Error()).Warn("Dispatch guard unavailable, relying on session state")
		ok = true
	}
	if !ok {
		return interview.GenerateResult{}, interview.ErrDispatchInFlight
	}

	res, err := m.generate.Dispatch(ctx, spec, userID)
	if err != nil {
		if rerr := m.cfg.Guard.Release(context.Background(), key); rerr != nil {
			m.logger().WithField("error", rerr.Error()).Warn("Failed to release dispatch guard")
		}
		return interview.GenerateResult{}, err
	}

	return res, nil
}

func (m *Machine) completeGeneration(res interview.GenerateResult, err error, auto bool) {
	var fx effects

	m.mu.Lock()
	if err != nil {
		m.gen = genFailed
		m.sess.LastError = err.Error()
		fx.add(func() { m.cb.failed(err) })
		if auto && m.sess.Status == entity.StatusFinished && m.sess.Mode == entity.ModeSetup {
			m.manualInputLocked(&fx)
		}
	} else {
		m.gen = genSucceeded
		m.sess.LastError = ""
		m.sess.InterviewID = res.InterviewID
		m.sess.Questions = append([]string(nil), res.Questions...)
		fx.add(func() { m.cb.setupComplete(res) })
	}
	m.sess.UpdatedAt = m.cfg.Now()
	m.mu.Unlock()

	if err == nil {
		m.logger().WithFields(logrus.Fields{
			"interview_id": res.InterviewID,
			"questions":    len(res.Questions),
			"auto":         auto,
		}).Info("Questions generated")
	}

	fx.run()
}

func (m *Machine) runFeedback(snap entity.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DispatchTimeout)
	defer cancel()

	key := GuardKey(dispatchFeedback, snap.ID)
	ok, err := m.cfg.Guard.Acquire(ctx, key)
	if err != nil {
		m.logger().WithField("error", err.Error()).Warn("Dispatch guard unavailable, relying on session state")
		ok = true
	}
	if !ok {
		m.logger().Info("Feedback already dispatched for session")
		return
	}

	feedbackID, err := m.feedback.Dispatch(ctx, FeedbackInput{
		InterviewID: snap.InterviewID,
		UserID:      snap.UserID,
		Transcript:  snap.Transcript,
		FeedbackID:  snap.FeedbackID,
	})
	if err != nil {
		m.mu.Lock()
		m.sess.LastError = err.Error()
		m.mu.Unlock()

		m.cb.failed(err)
		m.cb.navigate("/")
		return
	}

	m.mu.Lock()
	m.sess.FeedbackID = feedbackID
	m.sess.UpdatedAt = m.cfg.Now()
	m.mu.Unlock()

	m.logger().WithField("feedback_id", feedbackID).Info("Feedback saved")
	m.cb.navigate(fmt.Sprintf("/interview/%s/feedback", snap.InterviewID))
}

func (m *Machine) publishStatus(snap entity.Session) {
	log.WithSession(m.log, snap.ID, snap.CallID).WithField("status", snap.Status).Info("Session status changed")

	m.cb.statusChanged(snap)

	if m.cfg.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.cfg.Store.SaveSession(ctx, snap); err != nil {
		log.WithSession(m.log, snap.ID, snap.CallID).WithField("error", err.Error()).Error("Failed to persist session snapshot")
	}
}

func (m *Machine) archive(snap entity.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	location, err := m.cfg.Archiver.ArchiveTranscript(ctx, snap)
	if err != nil {
		log.WithSession(m.log, snap.ID, snap.CallID).WithField("error", err.Error()).Warn("Failed to archive transcript")
		return
	}
	log.WithSession(m.log, snap.ID, snap.CallID).WithField("location", location).Info("Transcript archived")
}

// stopClientLocked ends the provider call on a tracked goroutine. Errors
// arrive from the client's own read loop, which Stop waits for.
func (m *Machine) stopClientLocked(client vapi.Client) {
	if client == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.stopClient(client)
	}()
}

func (m *Machine) stopClient(client vapi.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Stop(ctx); err != nil {
		m.logger().WithField("error", err.Error()).Warn("Failed to stop provider call")
	}
}

func (m *Machine) entryLocked() *logrus.Entry {
	return log.WithSession(m.log, m.sess.ID, m.sess.CallID)
}

func (m *Machine) logger() *logrus.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryLocked()
}
