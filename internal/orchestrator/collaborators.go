package orchestrator

import (
	"context"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/vapi"
)

type Generator interface {
	Generate(ctx context.Context, spec entity.InterviewSpec, userID string) (interview.GenerateResult, error)
}

type FeedbackCreator interface {
	CreateFeedback(ctx context.Context, req interview.CreateFeedbackRequest) (interview.CreateFeedbackResponse, error)
}

// StatusLookup fetches the provider's current view of a call.
type StatusLookup interface {
	CallStatus(ctx context.Context, callID string) (entity.CallRecord, error)
}

// CallAPI creates and ends server-brokered calls.
type CallAPI interface {
	CreateWorkflowCall(ctx context.Context, workflowID string, vars vapi.Variables) (entity.CallRecord, error)
	EndCall(ctx context.Context, call entity.CallRecord) error
}

type SessionStore interface {
	SaveSession(ctx context.Context, sess entity.Session) error
}

type TranscriptArchiver interface {
	ArchiveTranscript(ctx context.Context, sess entity.Session) (string, error)
}

// ClientFactory returns a fresh provider client for one direct call.
type ClientFactory func() (vapi.Client, error)
