package interviewHandler

import (
	"os"

	interviewService "InterviewLo/internal/api/interview/service"
	"InterviewLo/internal/middleware"
	"InterviewLo/pkg/vapi"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SessionRouter delivers provider events to the live session that owns a call.
type SessionRouter interface {
	HandleEvent(id string, ev vapi.Event) error
}

type InterviewHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	interviewService interviewService.IInterviewService
	sessions         SessionRouter
	webhookSecret    string
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	is interviewService.IInterviewService,
	sessions SessionRouter,
) *InterviewHandler {
	return &InterviewHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		interviewService: is,
		sessions:         sessions,
		webhookSecret:    os.Getenv("VAPI_WEBHOOK_SECRET"),
	}
}

func (h *InterviewHandler) Start(srv fiber.Router) {
	provider := srv.Group("/vapi")
	provider.Get("/generate", h.DescribeGenerate)
	provider.Post("/generate", h.middleware.NewRateLimiter, h.Generate)
	provider.Get("/call-status", h.CallStatus)
	provider.Post("/webhook", h.Webhook)

	srv.Post("/feedback", h.middleware.NewTokenMiddleware, h.CreateFeedback)

	interviews := srv.Group("/interviews")
	interviews.Use(h.middleware.NewTokenMiddleware)
	interviews.Get("/:id", h.GetInterview)
	interviews.Get("/:id/feedback", h.GetFeedback)
}
