package orchestrator

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"InterviewLo/internal/entity"
	"InterviewLo/pkg/nlp"
)

type variableSource struct {
	name string
	get  func(entity.CallRecord) entity.Variables
}

// variableSources lists where providers put extracted variables, most
// specific first. The first populated location wins.
var variableSources = []variableSource{
	{"analysis.extractedVariables", func(c entity.CallRecord) entity.Variables {
		if c.Analysis == nil {
			return nil
		}
		return c.Analysis.ExtractedVariables
	}},
	{"analysis.variables", func(c entity.CallRecord) entity.Variables {
		if c.Analysis == nil {
			return nil
		}
		return c.Analysis.Variables
	}},
	{"extractedVariables", func(c entity.CallRecord) entity.Variables { return c.ExtractedVariables }},
	{"variables", func(c entity.CallRecord) entity.Variables { return c.Variables }},
	{"metadata.variables", func(c entity.CallRecord) entity.Variables {
		if c.Metadata == nil {
			return nil
		}
		return c.Metadata.Variables
	}},
	{"workflowVariables", func(c entity.CallRecord) entity.Variables { return c.WorkflowVariables }},
	{"analysis.workflowVariables", func(c entity.CallRecord) entity.Variables {
		if c.Analysis == nil {
			return nil
		}
		return c.Analysis.WorkflowVariables
	}},
	{"analysis.summary.variables", func(c entity.CallRecord) entity.Variables { return c.Analysis.SummaryVariables() }},
}

// ResolveVariables returns the first populated variable set and where it was found.
func ResolveVariables(c entity.CallRecord) (entity.Variables, string) {
	for _, src := range variableSources {
		if vars := src.get(c); len(vars) > 0 {
			return vars, src.name
		}
	}
	return nil, ""
}

// SpecFromVariables converts provider variables into a spec. Values are matched
// leniently ("mid-level", "7", ["react","go"]) and missing ones default.
func SpecFromVariables(vars entity.Variables) (entity.InterviewSpec, []string) {
	spec := entity.DefaultInterviewSpec()
	var defaulted []string

	if s := stringVar(vars, "type"); s != "" {
		spec.Type = nlp.Extract(s).Type
	} else {
		defaulted = append(defaulted, nlp.FieldType)
	}

	if s := stringVar(vars, "role"); s != "" {
		spec.Role = s
	} else {
		defaulted = append(defaulted, nlp.FieldRole)
	}

	if s := stringVar(vars, "level"); s != "" {
		spec.Level = nlp.Extract(s).Level
	} else {
		defaulted = append(defaulted, nlp.FieldLevel)
	}

	if ts := techstackVar(vars, "techstack"); len(ts) > 0 {
		spec.Techstack = ts
	} else {
		defaulted = append(defaulted, nlp.FieldTechstack)
	}

	if n, ok := intVar(vars, "amount"); ok {
		spec.Amount = entity.ClampAmount(n)
	} else {
		defaulted = append(defaulted, nlp.FieldAmount)
	}

	return spec, defaulted
}

func lookup(vars entity.Variables, key string) (any, bool) {
	if v, ok := vars[key]; ok {
		return v, true
	}
	for k, v := range vars {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func stringVar(vars entity.Variables, key string) string {
	v, ok := lookup(vars, key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func techstackVar(vars entity.Variables, key string) entity.Techstack {
	v, ok := lookup(vars, key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		return entity.ParseTechstack(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return entity.ParseTechstack(strings.Join(items, ","))
	case []string:
		return entity.ParseTechstack(strings.Join(t, ","))
	}
	return nil
}

func intVar(vars entity.Variables, key string) (int, bool) {
	v, ok := lookup(vars, key)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if s == "" {
			return 0, false
		}
		spec, defaulted := nlp.ExtractWithReport(s + " questions")
		if !slices.Contains(defaulted, nlp.FieldAmount) {
			return spec.Amount, true
		}
	}
	return 0, false
}
