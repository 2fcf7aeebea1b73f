package orchestrator

import (
	"context"
	"time"

	"InterviewLo/internal/entity"
)

// startPollingLocked launches the reconciler for a server-brokered call. It
// is a no-op when a poll loop is already running or the machine is closed.
func (m *Machine) startPollingLocked() {
	if m.cfg.Lookup == nil || m.closed || m.pollCancel != nil || m.sess.CallID == "" {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.pollCancel = cancel
	callID := m.sess.CallID

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconcile(ctx, callID)
	}()
}

func (m *Machine) stopPollingLocked() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

// reconcile polls the call status once per interval, one request at a time,
// until the call turns terminal or ctx is cancelled. Lookup errors are retried
// on the next tick.
func (m *Machine) reconcile(ctx context.Context, callID string) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if m.poll(ctx, callID) {
			return
		}
	}
}

func (m *Machine) poll(ctx context.Context, callID string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.PollTimeout)
	defer cancel()

	rec, err := m.cfg.Lookup.CallStatus(reqCtx, callID)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		m.logger().WithField("error", err.Error()).Debug("Call status lookup failed, retrying next interval")
		return false
	}

	return m.applyCallRecord(rec)
}

// applyCallRecord merges a polled call into the session and reports whether
// polling should stop.
func (m *Machine) applyCallRecord(rec entity.CallRecord) bool {
	var fx effects

	m.mu.Lock()
	if m.closed || m.sess.Status != entity.StatusActive {
		m.mu.Unlock()
		return true
	}

	utts := rec.Utterances()
	if len(utts) == 0 && rec.Transcript != "" {
		utts = entity.ParseTranscript(rec.Transcript)
	}
	if len(utts) > len(m.sess.Transcript) {
		added := append([]entity.Utterance(nil), utts[len(m.sess.Transcript):]...)
		m.sess.Transcript = utts
		m.sess.UpdatedAt = m.cfg.Now()
		fx.add(func() {
			for _, u := range added {
				m.cb.transcript(u)
			}
		})
	}

	if vars, source := ResolveVariables(rec); len(vars) > 0 {
		m.adoptVariablesLocked(vars, source)
	}

	terminal := rec.Terminal()
	if terminal {
		if m.sess.ExtractedFields == nil {
			spec := m.extractFromTranscriptLocked(rec.Transcript)
			m.sess.ExtractedFields = &spec
		}
		m.transitionLocked(entity.StatusFinished, &fx)
	}
	m.mu.Unlock()

	fx.run()
	return terminal
}
