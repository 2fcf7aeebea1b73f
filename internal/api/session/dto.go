package session

import (
	"errors"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/vapi"
)

type StartSessionRequest struct {
	Mode          entity.SessionMode `json:"mode" validate:"required,oneof=SETUP INTERVIEW"`
	InterviewID   string             `json:"interviewId,omitempty" validate:"required_if=Mode INTERVIEW"`
	FeedbackID    string             `json:"feedbackId,omitempty"`
	Questions     []string           `json:"questions,omitempty" validate:"omitempty,dive,required"`
	ServerManaged bool               `json:"serverManaged,omitempty"`
}

type SessionResponse struct {
	Success bool           `json:"success"`
	Session entity.Session `json:"session"`
}

// ManualSpecRequest is the manual input form. Values are parsed leniently and
// normalised before generation.
type ManualSpecRequest struct {
	Type      string           `json:"type" validate:"required"`
	Role      string           `json:"role" validate:"required"`
	Level     string           `json:"level" validate:"required"`
	Techstack entity.Techstack `json:"techstack" validate:"required,min=1"`
	Amount    interview.Count  `json:"amount" validate:"gte=1"`
}

func (r ManualSpecRequest) Spec() entity.InterviewSpec {
	return interview.GenerateRequest{
		Type:      r.Type,
		Role:      r.Role,
		Level:     r.Level,
		Techstack: r.Techstack,
		Amount:    r.Amount,
	}.Spec()
}

type ManualSpecResponse struct {
	Success     bool     `json:"success"`
	Questions   []string `json:"questions"`
	InterviewID string   `json:"interviewId"`
}

// EventRequest injects one provider event into a session. Clients relaying
// the browser SDK send the event name; webhook style clients send only the
// message and the event is derived from it.
type EventRequest struct {
	Event   vapi.EventName `json:"event,omitempty" validate:"omitempty,oneof=call-start call-end speech-start speech-end message error"`
	Message *vapi.Message  `json:"message,omitempty" validate:"required_without=Event"`
	Error   string         `json:"error,omitempty"`
}

func (r EventRequest) ToEvent() vapi.Event {
	if r.Event == "" {
		return vapi.EventFromMessage(*r.Message)
	}

	ev := vapi.Event{Name: r.Event, Message: r.Message}
	if r.Event == vapi.EventError {
		msg := r.Error
		if msg == "" && r.Message != nil {
			msg = r.Message.Error
		}
		if msg == "" {
			msg = "provider error"
		}
		ev.Err = errors.New(msg)
	}
	return ev
}

type AckResponse struct {
	Success bool `json:"success"`
}
