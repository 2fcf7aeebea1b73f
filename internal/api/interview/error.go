package interview

import "InterviewLo/pkg/response"

var (
	ErrProviderUnavailable = response.NewKindError(503, "PROVIDER_UNAVAILABLE", "voice provider is unavailable")
	ErrCallStartFailed     = response.NewKindError(502, "CALL_START_FAILED", "failed to start call")
	ErrMissingUser         = response.NewKindError(401, "MISSING_USER", "user identity is required to generate questions")
	ErrGenerationFailed    = response.NewKindError(502, "GENERATION_FAILED", "failed to generate questions")
	ErrFeedbackSaveFailed  = response.NewKindError(500, "FEEDBACK_SAVE_FAILED", "failed to save feedback")
	ErrMissingFields       = response.NewKindError(400, "MISSING_FIELDS", "missing required fields")
	ErrSessionNotFound     = response.NewKindError(404, "SESSION_NOT_FOUND", "session not found")
	ErrInvalidTransition   = response.NewKindError(409, "INVALID_TRANSITION", "session cannot make this transition")
	ErrDispatchInFlight    = response.NewKindError(409, "DISPATCH_IN_FLIGHT", "session has already been dispatched")
	ErrMissingCallID       = response.NewKindError(400, "MISSING_CALL_ID", "callId is required")
	ErrCallLookupFailed    = response.NewKindError(500, "CALL_LOOKUP_FAILED", "failed to get call status")
	ErrInterviewNotFound   = response.NewKindError(404, "INTERVIEW_NOT_FOUND", "interview not found")
	ErrFeedbackNotFound    = response.NewKindError(404, "FEEDBACK_NOT_FOUND", "feedback not found")
	ErrInvalidRequest      = response.NewKindError(400, "INVALID_REQUEST", "invalid request body")
)
