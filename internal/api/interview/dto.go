package interview

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"InterviewLo/internal/entity"
)

// Count accepts a JSON number or a numeric string; provider workflows send both.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*c = Count(n)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*c = Count(int(f))
	return nil
}

type GenerateRequest struct {
	Type      string           `json:"type"`
	Role      string           `json:"role"`
	Level     string           `json:"level"`
	Techstack entity.Techstack `json:"techstack"`
	Amount    Count            `json:"amount"`
	UserID    string           `json:"userid"`
}

// MissingFields lists the request fields left empty, in wire order.
func (r GenerateRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(r.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(r.Level) == "" {
		missing = append(missing, "level")
	}
	if len(r.Techstack) == 0 {
		missing = append(missing, "techstack")
	}
	if r.Amount == 0 {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(r.UserID) == "" {
		missing = append(missing, "userid")
	}
	return missing
}

func (r GenerateRequest) Spec() entity.InterviewSpec {
	typ, _ := entity.ParseInterviewType(r.Type)
	level, _ := entity.ParseLevel(r.Level)
	return entity.InterviewSpec{
		Type:      typ,
		Role:      strings.TrimSpace(r.Role),
		Level:     level,
		Techstack: r.Techstack,
		Amount:    int(r.Amount),
	}
}

type GenerateResponse struct {
	Success     bool     `json:"success"`
	Questions   []string `json:"questions,omitempty"`
	InterviewID string   `json:"interviewId,omitempty"`
	Message     string   `json:"message,omitempty"`
}

type GenerateResult struct {
	Questions   []string
	InterviewID string
}

type CallStatusCall struct {
	ID                 string             `json:"id"`
	Status             string             `json:"status"`
	ExtractedVariables entity.Variables   `json:"extractedVariables,omitempty"`
	Messages           []entity.Utterance `json:"messages,omitempty"`
	Transcript         string             `json:"transcript,omitempty"`
}

type CallStatusResponse struct {
	Success bool           `json:"success"`
	Status  string         `json:"status"`
	Call    CallStatusCall `json:"call"`
}

type CreateFeedbackRequest struct {
	InterviewID string             `json:"interviewId" validate:"required"`
	UserID      string             `json:"userId" validate:"required"`
	Transcript  []entity.Utterance `json:"transcript" validate:"required,min=1"`
	FeedbackID  string             `json:"feedbackId,omitempty"`
}

type CreateFeedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

type GenerateDescription struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Method   string   `json:"method"`
	Required []string `json:"required"`
}

type InterviewResponse struct {
	Success   bool             `json:"success"`
	Interview entity.Interview `json:"interview"`
}

type FeedbackResponse struct {
	Success  bool            `json:"success"`
	Feedback entity.Feedback `json:"feedback"`
}

type WebhookResponse struct {
	Success     bool     `json:"success"`
	Handled     bool     `json:"handled"`
	SessionID   string   `json:"sessionId,omitempty"`
	Questions   []string `json:"questions,omitempty"`
	InterviewID string   `json:"interviewId,omitempty"`
}
