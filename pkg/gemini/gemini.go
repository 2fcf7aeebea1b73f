package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"InterviewLo/internal/entity"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrEmptyResponse = errors.New("no response from Gemini API")
	ErrNotQuestions  = errors.New("invalid questions format - expected array of strings")
)

type IGemini interface {
	GenerateQuestions(ctx context.Context, spec entity.InterviewSpec) ([]string, error)
	Close()
}

type geminiClient struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {

	apiKey := os.Getenv("GEMINI_API_KEY")

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash-001"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    client,
	}, nil
}

// QuestionPrompt renders the instruction sent to the model for spec.
func QuestionPrompt(spec entity.InterviewSpec) string {
	return fmt.Sprintf(
		`Prepare %d questions for a %s level %s role. Techstack: %s. Focus: %s. Return as: ["Q1", "Q2", "Q3"]`,
		spec.Amount, strings.ToLower(string(spec.Level)), spec.Role, spec.Techstack.String(), strings.ToLower(string(spec.Type)),
	)
}

func (g *geminiClient) GenerateQuestions(ctx context.Context, spec entity.InterviewSpec) ([]string, error) {
	model := g.client.GenerativeModel(g.modelName)

	res, err := model.GenerateContent(ctx, genai.Text(QuestionPrompt(spec)))
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	return ParseQuestions(sb.String())
}

// ParseQuestions reads a JSON array of questions out of a model reply,
// tolerating a surrounding markdown code fence.
func ParseQuestions(raw string) ([]string, error) {
	cleaned := StripCodeFence(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotQuestions, err)
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, ErrNotQuestions
		}
		if s = strings.TrimSpace(s); s != "" {
			questions = append(questions, s)
		}
	}
	if len(questions) == 0 {
		return nil, ErrNotQuestions
	}

	return questions, nil
}

func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
