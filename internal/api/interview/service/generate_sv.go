package interviewService

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/response"

	"github.com/sirupsen/logrus"
)

var interviewCovers = []string{
	"/adobe.png",
	"/amazon.png",
	"/facebook.png",
	"/hostinger.png",
	"/pinterest.png",
	"/quora.png",
	"/reddit.png",
	"/skype.png",
	"/spotify.png",
	"/telegram.png",
	"/tiktok.png",
	"/yahoo.png",
}

func randomCover() string {
	return interviewCovers[rand.IntN(len(interviewCovers))]
}

func (s *interviewService) Generate(ctx context.Context, spec entity.InterviewSpec, userID string) (interview.GenerateResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return interview.GenerateResult{}, interview.ErrMissingUser
	}
	if s.gemini == nil {
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, errors.New("question generator is not configured"))
	}

	spec = spec.Normalize()

	questions, err := s.gemini.GenerateQuestions(ctx, spec)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"role":       spec.Role,
			"error":      err.Error(),
		}).Error("Failed to generate questions")
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, err)
	}

	now := time.Now().UTC()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate interview ID")
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, err)
	}

	iv := entity.Interview{
		ID:         id,
		UserID:     userID,
		Role:       spec.Role,
		Type:       spec.Type,
		Level:      spec.Level,
		Techstack:  []string(spec.Techstack),
		Questions:  questions,
		Finalized:  true,
		CoverImage: randomCover(),
		CreatedAt:  now,
	}

	repo, err := s.interviewRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, err)
	}

	if err := repo.Interviews.CreateInterview(ctx, iv); err != nil {
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   requestID,
		"interview_id": id,
		"questions":    len(questions),
	}).Info("Interview generated")

	return interview.GenerateResult{Questions: questions, InterviewID: id}, nil
}

func (s *interviewService) GetInterview(ctx context.Context, id string) (entity.Interview, error) {
	repo, err := s.interviewRepo.NewClient(false)
	if err != nil {
		return entity.Interview{}, err
	}
	return repo.Interviews.GetInterviewByID(ctx, id)
}
