package entity

import (
	"strings"
	"time"
)

type SessionMode string

const (
	ModeSetup     SessionMode = "SETUP"
	ModeInterview SessionMode = "INTERVIEW"
)

func (m SessionMode) Valid() bool {
	return m == ModeSetup || m == ModeInterview
}

type SessionStatus string

const (
	StatusInactive   SessionStatus = "INACTIVE"
	StatusConnecting SessionStatus = "CONNECTING"
	StatusActive     SessionStatus = "ACTIVE"
	StatusFinished   SessionStatus = "FINISHED"
)

var statusRank = map[SessionStatus]int{
	StatusInactive:   0,
	StatusConnecting: 1,
	StatusActive:     2,
	StatusFinished:   3,
}

// Rank orders statuses along the lifecycle. Unknown statuses rank below INACTIVE.
func (s SessionStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// NormalizeRole maps provider speaker labels onto the three transcript roles.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "customer", "human":
		return RoleUser
	case "assistant", "bot", "ai":
		return RoleAssistant
	default:
		return RoleSystem
	}
}

type Utterance struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session prefixes identify who issued the id.
const (
	ServerSessionPrefix = "srv-"
	LocalSessionPrefix  = "local-"
)

type Session struct {
	ID              string         `json:"sessionId"`
	CallID          string         `json:"callId,omitempty"`
	UserID          string         `json:"userId,omitempty"`
	Username        string         `json:"username,omitempty"`
	InterviewID     string         `json:"interviewId,omitempty"`
	FeedbackID      string         `json:"feedbackId,omitempty"`
	Mode            SessionMode    `json:"mode"`
	Status          SessionStatus  `json:"status"`
	Transcript      []Utterance    `json:"transcript"`
	ExtractedFields *InterviewSpec `json:"extractedFields,omitempty"`
	Questions       []string       `json:"questions,omitempty"`
	Speaking        bool           `json:"speaking"`
	LastError       string         `json:"lastError,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ServerManaged reports whether the call was brokered through the provider
// REST API, in which case no push events arrive and status must be polled.
func (s Session) ServerManaged() bool {
	return strings.HasPrefix(s.ID, ServerSessionPrefix)
}

// TranscriptText joins the transcript into one "role: content" line per utterance.
func (s Session) TranscriptText() string {
	var b strings.Builder
	for i, u := range s.Transcript {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(u.Role))
		b.WriteString(": ")
		b.WriteString(u.Content)
	}
	return b.String()
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s Session) Clone() Session {
	out := s
	out.Transcript = append([]Utterance(nil), s.Transcript...)
	out.Questions = append([]string(nil), s.Questions...)
	if s.ExtractedFields != nil {
		spec := s.ExtractedFields.Clone()
		out.ExtractedFields = &spec
	}
	return out
}
