package interviewService

import (
	"context"
	"errors"
	"strings"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/response"

	"github.com/sirupsen/logrus"
)

// CreateFeedback scores a transcript and stores the result. A given FeedbackID
// is updated in place, or created under that id when it does not exist yet.
func (s *interviewService) CreateFeedback(ctx context.Context, req interview.CreateFeedbackRequest) (interview.CreateFeedbackResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var missing []string
	if strings.TrimSpace(req.InterviewID) == "" {
		missing = append(missing, "interviewId")
	}
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "userId")
	}
	if len(req.Transcript) == 0 {
		missing = append(missing, "transcript")
	}
	if len(missing) > 0 {
		return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrMissingFields, errors.New(strings.Join(missing, ", ")))
	}
	if s.chatGPT == nil {
		return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, errors.New("feedback scorer is not configured"))
	}

	assessment, err := s.chatGPT.ScoreInterview(ctx, req.Transcript)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"interview_id": req.InterviewID,
			"error":        err.Error(),
		}).Error("Failed to score interview")
		return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
	}

	now := time.Now().UTC()
	fb := entity.Feedback{
		ID:                  req.FeedbackID,
		InterviewID:         req.InterviewID,
		UserID:              req.UserID,
		TotalScore:          assessment.TotalScore,
		CategoryScores:      assessment.CategoryScores,
		Strengths:           assessment.Strengths,
		AreasForImprovement: assessment.AreasForImprovement,
		FinalAssessment:     assessment.FinalAssessment,
		CreatedAt:           now,
	}

	repo, err := s.interviewRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
	}
	defer repo.Rollback()

	create := fb.ID == ""
	if !create {
		err = repo.Feedback.UpdateFeedback(ctx, fb)
		if errors.Is(err, interview.ErrFeedbackNotFound) {
			create = true
		} else if err != nil {
			return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
		}
	}

	if create {
		if fb.ID == "" {
			fb.ID, err = s.utils.NewULIDFromTimestamp(now)
			if err != nil {
				return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
			}
		}
		if err := repo.Feedback.CreateFeedback(ctx, fb); err != nil {
			return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
		}
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit feedback")
		return interview.CreateFeedbackResponse{}, response.Wrap(interview.ErrFeedbackSaveFailed, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   requestID,
		"interview_id": fb.InterviewID,
		"feedback_id":  fb.ID,
		"total_score":  fb.TotalScore,
	}).Info("Feedback saved")

	return interview.CreateFeedbackResponse{Success: true, FeedbackID: fb.ID}, nil
}

func (s *interviewService) GetFeedback(ctx context.Context, interviewID, userID string) (entity.Feedback, error) {
	repo, err := s.interviewRepo.NewClient(false)
	if err != nil {
		return entity.Feedback{}, err
	}
	return repo.Feedback.GetFeedbackByInterview(ctx, interviewID, userID)
}
