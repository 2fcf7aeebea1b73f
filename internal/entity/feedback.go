package entity

import "time"

var FeedbackCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem Solving",
	"Cultural Fit",
	"Confidence and Clarity",
}

type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

type Feedback struct {
	ID                  string          `json:"id"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}
