package interviewService

import (
	"context"

	"InterviewLo/internal/api/interview"
	interviewRepository "InterviewLo/internal/api/interview/repository"
	"InterviewLo/internal/entity"
	"InterviewLo/pkg/gemini"
	chatGPT "InterviewLo/pkg/openai"
	"InterviewLo/pkg/utils"
	"InterviewLo/pkg/vapi"

	"github.com/sirupsen/logrus"
)

type IInterviewService interface {
	Generate(ctx context.Context, spec entity.InterviewSpec, userID string) (interview.GenerateResult, error)
	GetInterview(ctx context.Context, id string) (entity.Interview, error)

	CreateFeedback(ctx context.Context, req interview.CreateFeedbackRequest) (interview.CreateFeedbackResponse, error)
	GetFeedback(ctx context.Context, interviewID, userID string) (entity.Feedback, error)

	CallStatus(ctx context.Context, callID string) (entity.CallRecord, error)
	LookupCall(ctx context.Context, callID string) (interview.CallStatusResponse, error)

	SaveSession(ctx context.Context, session entity.Session) error
}

type interviewService struct {
	log           *logrus.Logger
	interviewRepo interviewRepository.Repository
	gemini        gemini.IGemini
	chatGPT       chatGPT.IChatGPT
	calls         vapi.API
	utils         utils.IUtils
}

func NewInterviewService(
	log *logrus.Logger,
	interviewRepo interviewRepository.Repository,
	gemini gemini.IGemini,
	chatGPT chatGPT.IChatGPT,
	calls vapi.API,
	utils utils.IUtils,
) IInterviewService {
	return &interviewService{
		log:           log,
		interviewRepo: interviewRepo,
		gemini:        gemini,
		chatGPT:       chatGPT,
		calls:         calls,
		utils:         utils,
	}
}
