package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type InterviewType string

const (
	TypeTechnical  InterviewType = "Technical"
	TypeBehavioral InterviewType = "Behavioral"
	TypeMixed      InterviewType = "Mixed"
)

type Level string

const (
	LevelJunior Level = "Junior"
	LevelMid    Level = "Mid"
	LevelSenior Level = "Senior"
)

const (
	MinQuestions = 3
	MaxQuestions = 10

	DefaultRole      = "Software Engineer"
	DefaultAmount    = 5
	DefaultTechstack = "JavaScript,React,Node.js"
)

// Techstack is an ordered set of technologies. It travels as a comma joined
// string and is accepted as either a string or a JSON array.
type Techstack []string

func ParseTechstack(s string) Techstack {
	parts := strings.Split(s, ",")
	out := make(Techstack, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (t Techstack) String() string {
	return strings.Join(t, ",")
}

func (t Techstack) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Techstack) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTechstack(s)
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*t = ParseTechstack(strings.Join(items, ","))
		return nil
	}

	return errors.New("techstack must be a string or an array of strings")
}

type InterviewSpec struct {
	Type      InterviewType `json:"type" validate:"required,oneof=Technical Behavioral Mixed"`
	Role      string        `json:"role" validate:"required"`
	Level     Level         `json:"level" validate:"required,oneof=Junior Mid Senior"`
	Techstack Techstack     `json:"techstack" validate:"required,min=1"`
	Amount    int           `json:"amount" validate:"min=3,max=10"`
}

func DefaultInterviewSpec() InterviewSpec {
	return InterviewSpec{
		Type:      TypeTechnical,
		Role:      DefaultRole,
		Level:     LevelMid,
		Techstack: ParseTechstack(DefaultTechstack),
		Amount:    DefaultAmount,
	}
}

// Normalize fills every missing or unknown field with its default on its own
// and clamps Amount into [MinQuestions, MaxQuestions].
func (s InterviewSpec) Normalize() InterviewSpec {
	out := s.Clone()
	def := DefaultInterviewSpec()

	switch out.Type {
	case TypeTechnical, TypeBehavioral, TypeMixed:
	default:
		out.Type = def.Type
	}

	out.Role = strings.TrimSpace(out.Role)
	if out.Role == "" {
		out.Role = def.Role
	}

	switch out.Level {
	case LevelJunior, LevelMid, LevelSenior:
	default:
		out.Level = def.Level
	}

	out.Techstack = ParseTechstack(out.Techstack.String())
	if len(out.Techstack) == 0 {
		out.Techstack = def.Techstack
	}

	out.Amount = ClampAmount(out.Amount)

	return out
}

func (s InterviewSpec) Clone() InterviewSpec {
	out := s
	out.Techstack = append(Techstack(nil), s.Techstack...)
	return out
}

// ParseInterviewType matches s against the known types ignoring case.
func ParseInterviewType(s string) (InterviewType, bool) {
	for _, t := range []InterviewType{TypeTechnical, TypeBehavioral, TypeMixed} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return InterviewType(s), false
}

func ParseLevel(s string) (Level, bool) {
	for _, l := range []Level{LevelJunior, LevelMid, LevelSenior} {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return Level(s), false
}

func ClampAmount(n int) int {
	if n == 0 {
		return DefaultAmount
	}
	if n < MinQuestions {
		return MinQuestions
	}
	if n > MaxQuestions {
		return MaxQuestions
	}
	return n
}

type Interview struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	Role       string        `json:"role"`
	Type       InterviewType `json:"type"`
	Level      Level         `json:"level"`
	Techstack  []string      `json:"techstack"`
	Questions  []string      `json:"questions"`
	Finalized  bool          `json:"finalized"`
	CoverImage string        `json:"coverImage"`
	CreatedAt  time.Time     `json:"createdAt"`
}
