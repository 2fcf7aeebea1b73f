package orchestrator

import (
	"encoding/json"
	"reflect"
	"testing"

	"InterviewLo/internal/entity"
	"InterviewLo/pkg/nlp"
)

func TestResolveVariables(t *testing.T) {
	tests := []struct {
		name       string
		call       entity.CallRecord
		wantSource string
		wantRole   any
	}{
		{
			name:       "nothing",
			call:       entity.CallRecord{ID: "c"},
			wantSource: "",
		},
		{
			name: "analysis extracted wins over top level",
			call: entity.CallRecord{
				Variables: entity.Variables{"role": "top"},
				Analysis:  &entity.CallAnalysis{ExtractedVariables: entity.Variables{"role": "analysis"}},
			},
			wantSource: "analysis.extractedVariables",
			wantRole:   "analysis",
		},
		{
			name: "empty set is skipped",
			call: entity.CallRecord{
				ExtractedVariables: entity.Variables{},
				Metadata:           &entity.CallMetadata{Variables: entity.Variables{"role": "meta"}},
			},
			wantSource: "metadata.variables",
			wantRole:   "meta",
		},
		{
			name: "workflow variables",
			call: entity.CallRecord{
				WorkflowVariables: entity.Variables{"role": "wf"},
			},
			wantSource: "workflowVariables",
			wantRole:   "wf",
		},
		{
			name: "summary variables last",
			call: entity.CallRecord{
				Analysis: &entity.CallAnalysis{Summary: json.RawMessage(`{"variables":{"role":"summary"}}`)},
			},
			wantSource: "analysis.summary.variables",
			wantRole:   "summary",
		},
		{
			name: "summary as plain text",
			call: entity.CallRecord{
				Analysis: &entity.CallAnalysis{Summary: json.RawMessage(`"the candidate wants a backend role"`)},
			},
			wantSource: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars, source := ResolveVariables(tt.call)
			if source != tt.wantSource {
				t.Fatalf("source = %q, want %q", source, tt.wantSource)
			}
			if tt.wantSource == "" {
				return
			}
			if vars["role"] != tt.wantRole {
				t.Errorf("role = %v, want %v", vars["role"], tt.wantRole)
			}
		})
	}
}

func TestSpecFromVariables(t *testing.T) {
	tests := []struct {
		name          string
		vars          entity.Variables
		want          entity.InterviewSpec
		wantDefaulted []string
	}{
		{
			name: "all present and lenient",
			vars: entity.Variables{
				"Type": "Behavioural", "role": " Data Engineer ", "level": "mid-level",
				"techstack": "spark, SQL, spark", "amount": "eight",
			},
			want: entity.InterviewSpec{
				Type: entity.TypeBehavioral, Role: "Data Engineer", Level: entity.LevelMid,
				Techstack: entity.Techstack{"spark", "SQL"}, Amount: 8,
			},
		},
		{
			name: "numeric amount is clamped",
			vars: entity.Variables{"type": "technical", "role": "Dev", "level": "junior", "techstack": []any{"go", 3, "rust"}, "amount": 42.0},
			want: entity.InterviewSpec{
				Type: entity.TypeTechnical, Role: "Dev", Level: entity.LevelJunior,
				Techstack: entity.Techstack{"go", "rust"}, Amount: entity.MaxQuestions,
			},
		},
		{
			name:          "garbage amount defaults",
			vars:          entity.Variables{"role": "Dev", "amount": "lots"},
			want:          withRole(entity.DefaultInterviewSpec(), "Dev"),
			wantDefaulted: []string{nlp.FieldType, nlp.FieldLevel, nlp.FieldTechstack, nlp.FieldAmount},
		},
		{
			name:          "empty",
			vars:          nil,
			want:          entity.DefaultInterviewSpec(),
			wantDefaulted: []string{nlp.FieldType, nlp.FieldRole, nlp.FieldLevel, nlp.FieldTechstack, nlp.FieldAmount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := SpecFromVariables(tt.vars)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SpecFromVariables() = %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(defaulted, tt.wantDefaulted) {
				t.Errorf("defaulted = %v, want %v", defaulted, tt.wantDefaulted)
			}
		})
	}
}

func withRole(s entity.InterviewSpec, role string) entity.InterviewSpec {
	s.Role = role
	return s
}
