package vapi

import (
	"encoding/json"
	"strings"

	"InterviewLo/internal/entity"
)

type EventName string

const (
	EventCallStart   EventName = "call-start"
	EventCallEnd     EventName = "call-end"
	EventSpeechStart EventName = "speech-start"
	EventSpeechEnd   EventName = "speech-end"
	EventMessage     EventName = "message"
	EventError       EventName = "error"
)

// Message types carried by EventMessage.
const (
	MessageTranscript                 = "transcript"
	MessageStatusUpdate               = "status-update"
	MessageSpeechUpdate               = "speech-update"
	MessageWorkflowVariableExtraction = "workflow-variable-extraction"
	MessageWorkflowCompleted          = "workflow-completed"
	MessageConversationUpdate         = "conversation-update"
	MessageEndOfCallReport            = "end-of-call-report"
)

const TranscriptFinal = "final"

// Message is one JSON frame pushed by the provider, either over the call
// monitor socket or to the server webhook.
type Message struct {
	Type               string             `json:"type"`
	Role               string             `json:"role,omitempty"`
	TranscriptType     string             `json:"transcriptType,omitempty"`
	Transcript         string             `json:"transcript,omitempty"`
	Status             string             `json:"status,omitempty"`
	EndedReason        string             `json:"endedReason,omitempty"`
	Variables          entity.Variables   `json:"variables,omitempty"`
	ExtractedVariables entity.Variables   `json:"extractedVariables,omitempty"`
	Call               *entity.CallRecord `json:"call,omitempty"`
	Error              string             `json:"error,omitempty"`
}

// IsFinalTranscript reports whether m is a finalized transcript line.
func (m Message) IsFinalTranscript() bool {
	return m.Type == MessageTranscript && strings.EqualFold(m.TranscriptType, TranscriptFinal)
}

// Vars returns the extracted variables, preferring extractedVariables.
func (m Message) Vars() entity.Variables {
	if len(m.ExtractedVariables) > 0 {
		return m.ExtractedVariables
	}
	return m.Variables
}

type Event struct {
	Name    EventName
	Message *Message
	Err     error
}

type Handler func(Event)

// EventFromMessage maps a provider message onto the event it represents.
// Status and speech updates become lifecycle events; everything else is a
// message.
func EventFromMessage(msg Message) Event {
	switch msg.Type {
	case MessageStatusUpdate:
		switch strings.ToLower(msg.Status) {
		case "in-progress":
			return Event{Name: EventCallStart, Message: &msg}
		case "ended":
			return Event{Name: EventCallEnd, Message: &msg}
		}
	case MessageSpeechUpdate:
		switch strings.ToLower(msg.Status) {
		case "started":
			return Event{Name: EventSpeechStart, Message: &msg}
		case "stopped":
			return Event{Name: EventSpeechEnd, Message: &msg}
		}
	}

	return Event{Name: EventMessage, Message: &msg}
}

func decodeFrame(data []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, err
	}
	return EventFromMessage(msg), nil
}
