package entity

import (
	"encoding/json"
	"strings"
)

// Variables are key/value pairs a provider workflow extracted from a call.
type Variables map[string]any

// CallRecord is the provider's view of a call as returned by the call lookup.
type CallRecord struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	Type               string          `json:"type,omitempty"`
	EndedReason        string          `json:"endedReason,omitempty"`
	Transcript         string          `json:"transcript,omitempty"`
	Messages           []CallMessage   `json:"messages,omitempty"`
	ExtractedVariables Variables       `json:"extractedVariables,omitempty"`
	Variables          Variables       `json:"variables,omitempty"`
	WorkflowVariables  Variables       `json:"workflowVariables,omitempty"`
	Metadata           *CallMetadata   `json:"metadata,omitempty"`
	Analysis           *CallAnalysis   `json:"analysis,omitempty"`
	Monitor            *CallMonitor    `json:"monitor,omitempty"`
	Raw                json.RawMessage `json:"-"`
}

type CallMetadata struct {
	Variables Variables `json:"variables,omitempty"`
}

type CallAnalysis struct {
	ExtractedVariables Variables `json:"extractedVariables,omitempty"`
	Variables          Variables `json:"variables,omitempty"`
	WorkflowVariables  Variables `json:"workflowVariables,omitempty"`
	// Summary is usually prose; some workflows put an object with variables here.
	Summary json.RawMessage `json:"summary,omitempty"`
}

// SummaryVariables decodes analysis.summary.variables when the summary is an object.
func (a *CallAnalysis) SummaryVariables() Variables {
	if a == nil || len(a.Summary) == 0 || a.Summary[0] != '{' {
		return nil
	}
	var s struct {
		Variables Variables `json:"variables"`
	}
	if err := json.Unmarshal(a.Summary, &s); err != nil {
		return nil
	}
	return s.Variables
}

type CallMonitor struct {
	ListenURL  string `json:"listenUrl,omitempty"`
	ControlURL string `json:"controlUrl,omitempty"`
}

type CallMessage struct {
	Role       string  `json:"role"`
	Message    string  `json:"message,omitempty"`
	Content    string  `json:"content,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Time       float64 `json:"time,omitempty"`
}

// Text returns the first populated of message, content and transcript.
func (m CallMessage) Text() string {
	for _, s := range []string{m.Message, m.Content, m.Transcript} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Terminal reports whether the provider considers the call over.
func (c CallRecord) Terminal() bool {
	switch strings.ToLower(c.Status) {
	case "ended", "completed":
		return true
	}
	return false
}

// Utterances converts provider messages into transcript lines, skipping empty
// ones and provider bookkeeping roles such as tool calls.
func (c CallRecord) Utterances() []Utterance {
	out := make([]Utterance, 0, len(c.Messages))
	for _, m := range c.Messages {
		text := strings.TrimSpace(m.Text())
		if text == "" {
			continue
		}
		role := NormalizeRole(m.Role)
		if role == RoleSystem && !strings.EqualFold(m.Role, "system") {
			continue
		}
		out = append(out, Utterance{Role: role, Content: text})
	}
	return out
}

// ParseTranscript splits a provider transcript of "Speaker: text" lines into
// utterances. Lines without a speaker continue the previous utterance.
func ParseTranscript(text string) []Utterance {
	var out []Utterance
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		speaker, content, ok := strings.Cut(line, ":")
		role := NormalizeRole(speaker)
		if ok && (role != RoleSystem || strings.EqualFold(strings.TrimSpace(speaker), "system")) {
			content = strings.TrimSpace(content)
			if content != "" {
				out = append(out, Utterance{Role: role, Content: content})
			}
			continue
		}

		if len(out) > 0 {
			out[len(out)-1].Content += " " + line
		} else {
			out = append(out, Utterance{Role: RoleSystem, Content: line})
		}
	}
	return out
}
