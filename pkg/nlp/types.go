package nlp

import "InterviewLo/internal/entity"

type keyword struct {
	key   string
	value string
}

// roleKeywords are checked in order; the first key found in the text wins, so
// a key must come before any shorter key it contains.
var roleKeywords = []keyword{
	{"frontend", "Frontend Developer"},
	{"front-end", "Frontend Developer"},
	{"front end", "Frontend Developer"},
	{"backend", "Backend Developer"},
	{"back-end", "Backend Developer"},
	{"back end", "Backend Developer"},
	{"full stack", "Full Stack Developer"},
	{"fullstack", "Full Stack Developer"},
	{"full-stack", "Full Stack Developer"},
	{"data scientist", "Data Scientist"},
	{"data analyst", "Data Analyst"},
	{"data engineer", "Data Engineer"},
	{"machine learning", "Machine Learning Engineer"},
	{"product manager", "Product Manager"},
	{"devops", "DevOps Engineer"},
	{"quality assurance", "QA Engineer"},
	{"qa", "QA Engineer"},
	{"mobile", "Mobile Developer"},
	{"android", "Android Developer"},
	{"ios", "iOS Developer"},
	{"software engineer", "Software Engineer"},
	{"developer", "Software Developer"},
}

var typeKeywords = []keyword{
	{"behavioral", string(entity.TypeBehavioral)},
	{"behavioural", string(entity.TypeBehavioral)},
	{"mixed", string(entity.TypeMixed)},
	{"combination", string(entity.TypeMixed)},
}

var juniorKeywords = []string{"junior", "entry", "beginner"}

var seniorKeywords = []string{"senior", "lead", "principal"}

// techVocabulary is reported in this order regardless of where each term
// appears in the text.
var techVocabulary = []string{
	"react", "angular", "vue", "svelte", "javascript", "typescript",
	"python", "java", "node", "nodejs", "express", "mongodb",
	"mysql", "postgresql", "sql", "aws", "docker", "kubernetes",
	"git", "html", "css", "sass", "redux", "graphql",
	"rest", "api", "microservices", "spring", "django", "flask",
	"laravel", "php", "ruby", "rails", "golang", "rust",
	"c++", "c#", "dotnet", ".net",
}

var numberWords = map[string]int{
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
	"ten":   10,
}

// Field names reported by ExtractWithReport.
const (
	FieldType      = "type"
	FieldRole      = "role"
	FieldLevel     = "level"
	FieldTechstack = "techstack"
	FieldAmount    = "amount"
)
