package session

import "InterviewLo/pkg/response"

var (
	ErrSessionForbidden = response.NewKindError(404, "SESSION_NOT_FOUND", "session not found")
	ErrUnauthorized     = response.NewKindError(401, "UNAUTHORIZED", "unauthorized")
	ErrMissingQuestions = response.NewKindError(400, "MISSING_QUESTIONS", "interview has no questions")
)
