// Package nlp turns free conversational text into an interview spec using
// keyword and pattern heuristics. Every field is resolved on its own and
// falls back to its default, so extraction never fails.
package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"InterviewLo/internal/entity"
)

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*questions?`),
	regexp.MustCompile(`\b(three|four|five|six|seven|eight|nine|ten)\s*questions?`),
	regexp.MustCompile(`prepare\s+(\d+)`),
	regexp.MustCompile(`(\d+)\s*mock`),
}

// Extract maps text onto an interview spec. Empty text yields the default spec.
func Extract(text string) entity.InterviewSpec {
	spec, _ := ExtractWithReport(text)
	return spec
}

// ExtractWithReport is Extract that also names the fields that fell back to
// their defaults.
func ExtractWithReport(text string) (entity.InterviewSpec, []string) {
	spec := entity.DefaultInterviewSpec()
	normalized := normalize(text)
	if normalized == "" {
		return spec, []string{FieldType, FieldRole, FieldLevel, FieldTechstack, FieldAmount}
	}

	var defaulted []string

	if t, ok := extractType(normalized); ok {
		spec.Type = t
	} else {
		defaulted = append(defaulted, FieldType)
	}

	if r, ok := extractRole(normalized); ok {
		spec.Role = r
	} else {
		defaulted = append(defaulted, FieldRole)
	}

	if l, ok := extractLevel(normalized); ok {
		spec.Level = l
	} else {
		defaulted = append(defaulted, FieldLevel)
	}

	if ts, ok := extractTechstack(normalized); ok {
		spec.Techstack = ts
	} else {
		defaulted = append(defaulted, FieldTechstack)
	}

	if n, ok := extractAmount(normalized); ok {
		spec.Amount = n
	} else {
		defaulted = append(defaulted, FieldAmount)
	}

	return spec, defaulted
}

// ExtractFromTranscript runs Extract over every turn in arrival order. The
// assistant often reads the details back and the user only confirms them.
func ExtractFromTranscript(transcript []entity.Utterance) (entity.InterviewSpec, []string) {
	parts := make([]string, 0, len(transcript))
	for _, u := range transcript {
		parts = append(parts, u.Content)
	}
	return ExtractWithReport(strings.Join(parts, " "))
}

func extractType(text string) (entity.InterviewType, bool) {
	for _, kw := range typeKeywords {
		if strings.Contains(text, kw.key) {
			return entity.InterviewType(kw.value), true
		}
	}
	return entity.TypeTechnical, false
}

func extractRole(text string) (string, bool) {
	for _, kw := range roleKeywords {
		if containsWord(text, kw.key) {
			return kw.value, true
		}
	}
	return entity.DefaultRole, false
}

func extractLevel(text string) (entity.Level, bool) {
	for _, k := range juniorKeywords {
		if strings.Contains(text, k) {
			return entity.LevelJunior, true
		}
	}
	for _, k := range seniorKeywords {
		if strings.Contains(text, k) {
			return entity.LevelSenior, true
		}
	}
	return entity.LevelMid, false
}

func extractTechstack(text string) (entity.Techstack, bool) {
	var found entity.Techstack
	for _, tech := range techVocabulary {
		if strings.Contains(text, tech) {
			found = append(found, tech)
		}
	}
	if len(found) == 0 {
		return entity.ParseTechstack(entity.DefaultTechstack), false
	}
	return found, true
}

func extractAmount(text string) (int, bool) {
	for _, re := range amountPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, ok := parseCount(m[1])
			if ok && n >= entity.MinQuestions && n <= entity.MaxQuestions {
				return n, true
			}
		}
	}
	return entity.DefaultAmount, false
}

func parseCount(s string) (int, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// containsWord matches short keys like "ios" only on word boundaries so they
// do not fire inside "scenarios" or "studios"; longer keys match as substrings.
func containsWord(text, key string) bool {
	if len(key) > 3 {
		return strings.Contains(text, key)
	}
	for i := 0; ; {
		j := strings.Index(text[i:], key)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(key)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
