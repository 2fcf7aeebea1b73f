package nlp

import (
	"reflect"
	"strings"
	"testing"

	"InterviewLo/internal/entity"
)

func TestExtract_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		got := Extract(in)
		want := entity.DefaultInterviewSpec()
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Extract(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestExtract_DefaultSpecShape(t *testing.T) {
	got := Extract("")
	if got.Type != entity.TypeTechnical || got.Role != "Software Engineer" || got.Level != entity.LevelMid ||
		got.Techstack.String() != "JavaScript,React,Node.js" || got.Amount != 5 {
		t.Errorf("Extract(\"\") = %+v", got)
	}
}

func TestExtract_SeniorBackend(t *testing.T) {
	got := Extract("I want a senior backend interview with 7 questions focusing on python and aws")

	if got.Type != entity.TypeTechnical {
		t.Errorf("Type = %s, want Technical", got.Type)
	}
	if got.Role != "Backend Developer" {
		t.Errorf("Role = %s, want Backend Developer", got.Role)
	}
	if got.Level != entity.LevelSenior {
		t.Errorf("Level = %s, want Senior", got.Level)
	}
	if got.Amount != 7 {
		t.Errorf("Amount = %d, want 7", got.Amount)
	}
	stack := got.Techstack.String()
	if !strings.Contains(stack, "python") || !strings.Contains(stack, "aws") {
		t.Errorf("Techstack = %q, want python and aws", stack)
	}
}

func TestExtract_Fields(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(entity.InterviewSpec) bool
	}{
		{"behavioral", "Let's do a Behavioral round", func(s entity.InterviewSpec) bool { return s.Type == entity.TypeBehavioral }},
		{"british spelling", "a behavioural interview", func(s entity.InterviewSpec) bool { return s.Type == entity.TypeBehavioral }},
		{"mixed", "a combination of both", func(s entity.InterviewSpec) bool { return s.Type == entity.TypeMixed }},
		{"technical is default", "technical please", func(s entity.InterviewSpec) bool { return s.Type == entity.TypeTechnical }},
		{"frontend before developer", "frontend developer role", func(s entity.InterviewSpec) bool { return s.Role == "Frontend Developer" }},
		{"full stack", "I am a full stack engineer", func(s entity.InterviewSpec) bool { return s.Role == "Full Stack Developer" }},
		{"ios word", "iOS engineer", func(s entity.InterviewSpec) bool { return s.Role == "iOS Developer" }},
		{"ios inside word ignored", "real world scenarios", func(s entity.InterviewSpec) bool { return s.Role == "Software Engineer" }},
		{"qa word", "a qa role please", func(s entity.InterviewSpec) bool { return s.Role == "QA Engineer" }},
		{"qa inside word ignored", "based in qatar", func(s entity.InterviewSpec) bool { return s.Role == "Software Engineer" }},
		{"junior wins over senior", "junior, maybe senior later", func(s entity.InterviewSpec) bool { return s.Level == entity.LevelJunior }},
		{"entry level", "an entry level job", func(s entity.InterviewSpec) bool { return s.Level == entity.LevelJunior }},
		{"principal", "principal engineer", func(s entity.InterviewSpec) bool { return s.Level == entity.LevelSenior }},
		{"diacritics", "SÉNIOR back-end", func(s entity.InterviewSpec) bool {
			return s.Level == entity.LevelSenior && s.Role == "Backend Developer"
		}},
		{"spelled amount", "give me eight questions", func(s entity.InterviewSpec) bool { return s.Amount == 8 }},
		{"prepare amount", "prepare 4 for me", func(s entity.InterviewSpec) bool { return s.Amount == 4 }},
		{"mock amount", "6 mock interviews", func(s entity.InterviewSpec) bool { return s.Amount == 6 }},
		{"out of range skipped", "20 questions, no make it 9 questions", func(s entity.InterviewSpec) bool { return s.Amount == 9 }},
		{"out of range defaults", "2 questions", func(s entity.InterviewSpec) bool { return s.Amount == 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !tt.check(got) {
				t.Errorf("Extract(%q) = %+v", tt.text, got)
			}
		})
	}
}

func TestExtract_TechstackVocabularyOrder(t *testing.T) {
	got := Extract("docker, then python, then react")
	if got.Techstack.String() != "react,python,docker" {
		t.Errorf("Techstack = %q, want react,python,docker", got.Techstack.String())
	}
}

func TestExtract_AlwaysValid(t *testing.T) {
	inputs := []string{
		"hello",
		"100 questions",
		"0 mock",
		"¿qué?",
		strings.Repeat("senior ", 500),
		"prepare 99999999999999999999999 questions",
	}

	for _, in := range inputs {
		got := Extract(in)
		if got.Amount < entity.MinQuestions || got.Amount > entity.MaxQuestions {
			t.Errorf("Extract(%q).Amount = %d out of range", in, got.Amount)
		}
		if got.Role == "" || got.Type == "" || got.Level == "" || len(got.Techstack) == 0 {
			t.Errorf("Extract(%q) has empty fields: %+v", in, got)
		}
	}
}

func TestExtractWithReport_Defaulted(t *testing.T) {
	_, defaulted := ExtractWithReport("senior python")
	want := []string{FieldType, FieldRole, FieldAmount}
	if !reflect.DeepEqual(defaulted, want) {
		t.Errorf("defaulted = %v, want %v", defaulted, want)
	}
}

func TestExtractFromTranscript_ConfirmedReadBack(t *testing.T) {
	transcript := []entity.Utterance{
		{Role: entity.RoleAssistant, Content: "So a senior backend role with 7 questions?"},
		{Role: entity.RoleUser, Content: "yes exactly"},
	}

	got, defaulted := ExtractFromTranscript(transcript)
	if got.Role != "Backend Developer" {
		t.Errorf("Role = %s, want Backend Developer", got.Role)
	}
	if got.Level != entity.LevelSenior {
		t.Errorf("Level = %s, want Senior", got.Level)
	}
	if got.Amount != 7 {
		t.Errorf("Amount = %d, want 7", got.Amount)
	}
	for _, f := range defaulted {
		if f == FieldRole || f == FieldLevel || f == FieldAmount {
			t.Errorf("defaulted = %v, want role, level and amount extracted", defaulted)
		}
	}
}

func TestExtractFromTranscript_ArrivalOrder(t *testing.T) {
	transcript := []entity.Utterance{
		{Role: entity.RoleUser, Content: "I want a frontend interview"},
		{Role: entity.RoleAssistant, Content: "Noted, and how many questions?"},
		{Role: entity.RoleUser, Content: "Three questions about react"},
	}

	got, _ := ExtractFromTranscript(transcript)
	if got.Role != "Frontend Developer" || got.Amount != 3 {
		t.Errorf("ExtractFromTranscript() = %+v", got)
	}
	if got.Techstack.String() != "react" {
		t.Errorf("Techstack = %q, want react", got.Techstack.String())
	}
}

func TestExtractFromTranscript_AssistantOnly(t *testing.T) {
	transcript := []entity.Utterance{
		{Role: entity.RoleAssistant, Content: "Setting up a mixed interview for a data analyst"},
	}

	got, _ := ExtractFromTranscript(transcript)
	if got.Type != entity.TypeMixed || got.Role != "Data Analyst" {
		t.Errorf("ExtractFromTranscript() = %+v", got)
	}
}
