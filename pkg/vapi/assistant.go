package vapi

import (
	"fmt"
	"strings"
)

type Transcriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

type Voice struct {
	Provider string  `json:"provider"`
	VoiceID  string  `json:"voiceId"`
	Speed    float64 `json:"speed,omitempty"`
}

type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Model struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []ModelMessage `json:"messages"`
}

// AssistantConfig is the inline assistant definition sent with a web call.
type AssistantConfig struct {
	Name         string      `json:"name"`
	FirstMessage string      `json:"firstMessage,omitempty"`
	Transcriber  Transcriber `json:"transcriber"`
	Voice        Voice       `json:"voice"`
	Model        Model       `json:"model"`
}

// Variables are the {{placeholders}} substituted into assistant prompts.
type Variables map[string]string

func SetupAssistant() AssistantConfig {
	return AssistantConfig{
		Name:         "Interview Setup Assistant",
		FirstMessage: "Hi! I'll ask a few quick questions to set up your mock interview.",
		Transcriber:  Transcriber{Provider: "deepgram", Model: "nova-2", Language: "en"},
		Voice:        Voice{Provider: "11labs", VoiceID: "sarah", Speed: 0.9},
		Model: Model{
			Provider: "openai",
			Model:    "gpt-4",
			Messages: []ModelMessage{{Role: "system", Content: setupPrompt}},
		},
	}
}

func Interviewer() AssistantConfig {
	return AssistantConfig{
		Name:         "Interviewer",
		FirstMessage: "Hi there! Can you hear me clearly?",
		Transcriber:  Transcriber{Provider: "deepgram", Model: "nova-2", Language: "en"},
		Voice:        Voice{Provider: "vapi", VoiceID: "Elliot", Speed: 0.9},
		Model: Model{
			Provider: "openai",
			Model:    "gpt-4",
			Messages: []ModelMessage{{Role: "system", Content: interviewerPrompt}},
		},
	}
}

// FormatQuestions renders questions as "- q" lines for the {{questions}} variable.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, fmt.Sprintf("- %s", q))
	}
	return strings.Join(lines, "\n")
}

const setupPrompt = `You collect the details needed to build a personalised mock interview for {{username}}.

Ask, one at a time and conversationally:
1. Which type of interview: Technical, Behavioral or Mixed?
2. Which role or position are they preparing for?
3. Their experience level: Junior, Mid or Senior?
4. Which technologies or skills to focus on?
5. How many questions, between 3 and 10?

Repeat each answer back in a short sentence using their words. When everything is collected, summarise it in one sentence and tell them the interview will be ready shortly.

Keep every reply to one short sentence; this is a voice conversation.`

const interviewerPrompt = `You are a professional interviewer running a live voice interview.

Introduce yourself briefly, ask the candidate to describe their recent experience, then work through these questions in order:
{{questions}}

Acknowledge answers naturally. If an answer is vague, ask one follow-up. If it is wrong, offer a small hint before moving on.

Keep replies to one or two sentences. When the questions are done, thank the candidate and tell them feedback will follow shortly.`
