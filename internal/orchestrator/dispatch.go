package orchestrator

import (
	"context"
	"errors"
	"strings"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/response"

	"github.com/sirupsen/logrus"
)

type GenerationDispatcher struct {
	generator Generator
	log       *logrus.Logger
}

func NewGenerationDispatcher(generator Generator, log *logrus.Logger) *GenerationDispatcher {
	return &GenerationDispatcher{generator: generator, log: log}
}

// Dispatch asks the generator for questions exactly once. A missing user is
// rejected before the generator is called, and failures are never retried.
func (d *GenerationDispatcher) Dispatch(ctx context.Context, spec entity.InterviewSpec, userID string) (interview.GenerateResult, error) {
	if strings.TrimSpace(userID) == "" {
		return interview.GenerateResult{}, interview.ErrMissingUser
	}
	if d.generator == nil {
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, errors.New("no question generator configured"))
	}

	spec = spec.Normalize()

	res, err := d.generator.Generate(ctx, spec, userID)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"user_id": userID,
			"role":    spec.Role,
			"error":   err.Error(),
		}).Error("Question generation failed")
		if errors.Is(err, interview.ErrGenerationFailed) {
			return interview.GenerateResult{}, err
		}
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, err)
	}

	questions := make([]string, 0, len(res.Questions))
	for _, q := range res.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return interview.GenerateResult{}, response.Wrap(interview.ErrGenerationFailed, errors.New("generator returned no questions"))
	}
	res.Questions = questions

	return res, nil
}

type FeedbackDispatcher struct {
	creator FeedbackCreator
	log     *logrus.Logger
}

func NewFeedbackDispatcher(creator FeedbackCreator, log *logrus.Logger) *FeedbackDispatcher {
	return &FeedbackDispatcher{creator: creator, log: log}
}

type FeedbackInput struct {
	InterviewID string
	UserID      string
	Transcript  []entity.Utterance
	FeedbackID  string
}

// Dispatch creates feedback and returns its id. A response without an id
// counts as a failed save.
func (d *FeedbackDispatcher) Dispatch(ctx context.Context, in FeedbackInput) (string, error) {
	if d.creator == nil {
		return "", response.Wrap(interview.ErrFeedbackSaveFailed, errors.New("no feedback creator configured"))
	}

	resp, err := d.creator.CreateFeedback(ctx, interview.CreateFeedbackRequest{
		InterviewID: in.InterviewID,
		UserID:      in.UserID,
		Transcript:  in.Transcript,
		FeedbackID:  in.FeedbackID,
	})
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"interview_id": in.InterviewID,
			"error":        err.Error(),
		}).Error("Feedback creation failed")
		if errors.Is(err, interview.ErrFeedbackSaveFailed) {
			return "", err
		}
		return "", response.Wrap(interview.ErrFeedbackSaveFailed, err)
	}

	if !resp.Success || resp.FeedbackID == "" {
		return "", interview.ErrFeedbackSaveFailed
	}

	return resp.FeedbackID, nil
}
