package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"InterviewLo/internal/entity"

	"github.com/sashabaranov/go-openai"
)

var ErrMissingCategory = errors.New("feedback is missing a category score")

type IChatGPT interface {
	ScoreInterview(ctx context.Context, transcript []entity.Utterance) (*Assessment, error)
}

// Assessment is the scored evaluation of one interview transcript.
type Assessment struct {
	TotalScore          int                    `json:"totalScore"`
	CategoryScores      []entity.CategoryScore `json:"categoryScores"`
	Strengths           []string               `json:"strengths"`
	AreasForImprovement []string               `json:"areasForImprovement"`
	FinalAssessment     string                 `json:"finalAssessment"`
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

func NewChatGPT() IChatGPT {
	apiKey := os.Getenv("OPENAI_API_KEY")
	cfg := openai.DefaultConfig(apiKey)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return NewChatGPTWithConfig(cfg, os.Getenv("OPENAI_CHAT_MODEL"))
}

func NewChatGPTWithConfig(cfg openai.ClientConfig, model string) IChatGPT {
	if model == "" {
		model = openai.GPT4oMini
	}

	return &chatGPTService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// FormatTranscript renders utterances as "- role: content" lines.
func FormatTranscript(transcript []entity.Utterance) string {
	var sb strings.Builder
	for _, u := range transcript {
		fmt.Fprintf(&sb, "- %s: %s\n", u.Role, u.Content)
	}
	return sb.String()
}

func scoringPrompt() string {
	return `You are an AI interviewer analyzing a mock interview. Evaluate the candidate thoroughly and be strict: do not be lenient, point out mistakes and areas for improvement.

IMPORTANT: Return ONLY valid JSON, nothing else.

Format:
{
  "totalScore": 72,
  "categoryScores": [
    {"name": "Communication Skills", "score": 80, "comment": "..."},
    {"name": "Technical Knowledge", "score": 70, "comment": "..."},
    {"name": "Problem Solving", "score": 65, "comment": "..."},
    {"name": "Cultural Fit", "score": 75, "comment": "..."},
    {"name": "Confidence and Clarity", "score": 70, "comment": "..."}
  ],
  "strengths": ["..."],
  "areasForImprovement": ["..."],
  "finalAssessment": "..."
}

Rules:
- Scores are integers from 0 to 100.
- categoryScores must contain exactly these names, in this order: ` + strings.Join(entity.FeedbackCategories, ", ") + `.`
}

func (c *chatGPTService) ScoreInterview(ctx context.Context, transcript []entity.Utterance) (*Assessment, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: scoringPrompt(),
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: "Transcript:\n" + FormatTranscript(transcript),
		},
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: 0.3,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)

	if err != nil {
		return nil, fmt.Errorf("ChatGPT API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from ChatGPT")
	}

	return ParseAssessment(resp.Choices[0].Message.Content)
}

// ParseAssessment decodes a model reply and orders its category scores by
// entity.FeedbackCategories. Every category must be present.
func ParseAssessment(raw string) (*Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return nil, fmt.Errorf("failed to parse assessment: %w", err)
	}

	byName := make(map[string]entity.CategoryScore, len(a.CategoryScores))
	for _, cs := range a.CategoryScores {
		byName[strings.ToLower(strings.TrimSpace(cs.Name))] = cs
	}

	ordered := make([]entity.CategoryScore, 0, len(entity.FeedbackCategories))
	for _, name := range entity.FeedbackCategories {
		cs, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingCategory, name)
		}
		cs.Name = name
		cs.Score = clampScore(cs.Score)
		ordered = append(ordered, cs)
	}
	a.CategoryScores = ordered
	a.TotalScore = clampScore(a.TotalScore)

	return &a, nil
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
