package sessionHandler

import (
	"context"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/internal/middleware"
	"InterviewLo/internal/orchestrator"
	"InterviewLo/pkg/vapi"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// SessionManager is the registry of live sessions.
type SessionManager interface {
	Start(ctx context.Context, opts orchestrator.Options) (entity.Session, error)
	Restart(ctx context.Context, id string) (entity.Session, error)
	Snapshot(id string) (entity.Session, error)
	EndCall(ctx context.Context, id string) (entity.Session, error)
	HandleEvent(id string, ev vapi.Event) error
	SubmitManualSpec(ctx context.Context, id string, spec entity.InterviewSpec) (interview.GenerateResult, error)
	Subscribe(id string) (<-chan orchestrator.Update, func(), error)
	Dispose(id string) error
}

// InterviewSource loads saved interviews so an interview session can be
// started from its id alone.
type InterviewSource interface {
	GetInterview(ctx context.Context, id string) (entity.Interview, error)
}

type SessionHandler struct {
	log        *logrus.Logger
	validator  *validator.Validate
	middleware middleware.Middleware
	sessions   SessionManager
	interviews InterviewSource
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	sessions SessionManager,
	interviews InterviewSource,
) *SessionHandler {
	return &SessionHandler{
		log:        log,
		validator:  validate,
		middleware: middleware,
		sessions:   sessions,
		interviews: interviews,
	}
}

func (h *SessionHandler) Start(srv fiber.Router) {
	sessions := srv.Group("/sessions")
	sessions.Use(h.middleware.NewTokenMiddleware)

	sessions.Post("/", h.StartSession)
	sessions.Get("/:id", h.GetSession)
	sessions.Delete("/:id", h.DisposeSession)
	sessions.Post("/:id/start", h.RestartSession)
	sessions.Post("/:id/end", h.EndSession)
	sessions.Post("/:id/setup", h.SubmitManualSpec)
	sessions.Post("/:id/events", h.InjectEvent)

	sessions.Get("/:id/ws", h.upgrade, websocket.New(h.stream))
}
