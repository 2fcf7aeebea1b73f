package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
)

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func serverConfig(lookup *fakeLookup, calls *fakeCalls, gen *fakeGenerator) Config {
	return Config{
		Log:          quietLogger(),
		Calls:        calls,
		WorkflowID:   "wf-setup",
		Lookup:       lookup,
		Generator:    gen,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestReconciler_StopsAfterEnded(t *testing.T) {
	lookup := &fakeLookup{records: []entity.CallRecord{
		{ID: "c1", Status: "in-progress", Transcript: "AI: Which role?\nUser: senior frontend"},
		{
			ID:         "c1",
			Status:     "ended",
			Transcript: "AI: Which role?\nUser: senior frontend\nAI: Thanks",
			Analysis: &entity.CallAnalysis{ExtractedVariables: entity.Variables{
				"role": "Frontend Developer", "level": "senior", "amount": 4.0,
			}},
		},
	}}
	gen := &fakeGenerator{res: interview.GenerateResult{Questions: []string{"Q1"}, InterviewID: "int-1"}}
	rec := newRecorder()

	m := NewMachine(serverConfig(lookup, &fakeCalls{callID: "c1"}, gen),
		Options{Mode: entity.ModeSetup, UserID: "user-1", ServerManaged: true}, rec.callbacks())
	defer m.Close()

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if got := m.ID(); got != "srv-c1" {
		t.Errorf("ID = %q, want srv-c1", got)
	}

	rec.waitFinished(t)
	eventually(t, func() bool { return len(rec.snapshot().completes) == 1 }, "setup never completed")

	time.Sleep(50 * time.Millisecond)
	if got := lookup.count(); got != 2 {
		t.Errorf("lookups = %d, want 2", got)
	}
	if got := gen.count(); got != 1 {
		t.Errorf("generator called %d times, want 1", got)
	}
	if spec := gen.specs[0]; spec.Role != "Frontend Developer" || spec.Level != entity.LevelSenior || spec.Amount != 4 {
		t.Errorf("generated from %+v", spec)
	}

	snap := m.Snapshot()
	if len(snap.Transcript) != 3 {
		t.Errorf("transcript = %+v, want 3 utterances", snap.Transcript)
	}
	if snap.Transcript[1].Role != entity.RoleUser {
		t.Errorf("second utterance role = %s, want user", snap.Transcript[1].Role)
	}
}

func TestReconciler_RetriesLookupErrors(t *testing.T) {
	lookup := &fakeLookup{
		errs:    []error{errors.New("timeout")},
		records: []entity.CallRecord{{}, {ID: "c2", Status: "ended", Transcript: "User: mixed junior qa"}},
	}
	rec := newRecorder()

	m := NewMachine(serverConfig(lookup, &fakeCalls{callID: "c2"}, &fakeGenerator{}),
		Options{Mode: entity.ModeSetup, UserID: "user-1", ServerManaged: true}, rec.callbacks())
	defer m.Close()

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	rec.waitFinished(t)
	eventually(t, func() bool { return len(rec.snapshot().prefills) == 1 }, "manual input never shown")

	prefill := rec.snapshot().prefills[0]
	if prefill.Type != entity.TypeMixed || prefill.Level != entity.LevelJunior || prefill.Role != "QA Engineer" {
		t.Errorf("prefill = %+v", prefill)
	}
	if got := lookup.count(); got != 2 {
		t.Errorf("lookups = %d, want 2", got)
	}
}

func TestReconciler_CloseStopsPolling(t *testing.T) {
	lookup := &fakeLookup{records: []entity.CallRecord{{ID: "c3", Status: "in-progress"}}}

	m := NewMachine(serverConfig(lookup, &fakeCalls{callID: "c3"}, nil),
		Options{Mode: entity.ModeSetup, UserID: "user-1", ServerManaged: true}, Callbacks{})

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	eventually(t, func() bool { return lookup.count() >= 2 }, "reconciler never polled")

	m.Close()
	after := lookup.count()
	time.Sleep(50 * time.Millisecond)
	if got := lookup.count(); got != after {
		t.Errorf("lookups after Close = %d, want %d", got, after)
	}
}

func TestReconciler_EndCallStopsPolling(t *testing.T) {
	lookup := &fakeLookup{records: []entity.CallRecord{{ID: "c4", Status: "in-progress"}}}
	calls := &fakeCalls{callID: "c4"}
	rec := newRecorder()

	m := NewMachine(serverConfig(lookup, calls, &fakeGenerator{}),
		Options{Mode: entity.ModeSetup, UserID: "user-1", ServerManaged: true}, rec.callbacks())
	defer m.Close()

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	eventually(t, func() bool { return lookup.count() >= 1 }, "reconciler never polled")

	if err := m.EndCall(context.Background()); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if got := calls.ended.Load(); got != 1 {
		t.Errorf("EndCall on provider = %d, want 1", got)
	}

	after := lookup.count()
	time.Sleep(50 * time.Millisecond)
	if got := lookup.count(); got > after+1 {
		t.Errorf("lookups kept going after FINISHED: %d -> %d", after, got)
	}
	if len(rec.snapshot().prefills) != 1 {
		t.Errorf("manual input not shown after user hang-up")
	}
}

func TestMachine_WorkflowCallFailure(t *testing.T) {
	m := NewMachine(serverConfig(&fakeLookup{}, &fakeCalls{}, nil),
		Options{Mode: entity.ModeSetup, ServerManaged: true}, Callbacks{})
	defer m.Close()

	if err := m.StartCall(context.Background()); !errors.Is(err, interview.ErrCallStartFailed) {
		t.Fatalf("StartCall() error = %v, want ErrCallStartFailed", err)
	}
	if got := m.Snapshot().Status; got != entity.StatusInactive {
		t.Errorf("Status = %s, want INACTIVE", got)
	}
}
