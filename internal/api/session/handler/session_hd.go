package sessionHandler

import (
	"errors"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/api/session"
	"InterviewLo/internal/entity"
	"InterviewLo/internal/orchestrator"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/handlerUtil"
	jwtPkg "InterviewLo/pkg/jwt"
	"InterviewLo/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// owned returns the snapshot of a session that belongs to the caller. Sessions
// of other users are reported as missing.
func (h *SessionHandler) owned(ctx *fiber.Ctx) (entity.Session, error) {
	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return entity.Session{}, session.ErrUnauthorized
	}

	snap, err := h.sessions.Snapshot(ctx.Params("id"))
	if err != nil {
		return entity.Session{}, err
	}
	if snap.UserID != user.ID {
		return entity.Session{}, session.ErrSessionForbidden
	}
	return snap, nil
}

func (h *SessionHandler) StartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req session.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	questions := req.Questions
	if req.Mode == entity.ModeInterview && len(questions) == 0 {
		if h.interviews == nil {
			return errHandler.Handle(ctx, requestID, session.ErrMissingQuestions, ctx.Path(), "start_session")
		}
		itv, err := h.interviews.GetInterview(c, req.InterviewID)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
		}
		if len(itv.Questions) == 0 {
			return errHandler.Handle(ctx, requestID, session.ErrMissingQuestions, ctx.Path(), "start_session")
		}
		questions = itv.Questions
	}

	snap, err := h.sessions.Start(c, orchestrator.Options{
		Mode:          req.Mode,
		UserID:        userData.ID,
		Username:      userData.Name,
		InterviewID:   req.InterviewID,
		FeedbackID:    req.FeedbackID,
		Questions:     questions,
		ServerManaged: req.ServerManaged,
	})
	if err != nil {
		if snap.ID == "" {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
		}
		return errHandler.HandleWithData(ctx, requestID, err, ctx.Path(), "start_session", snap)
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": snap.ID,
		"mode":       snap.Mode,
	}).Info("Session started")

	return errHandler.HandleSuccess(ctx, fiber.StatusCreated, session.SessionResponse{
		Success: true,
		Session: snap,
	})
}

func (h *SessionHandler) RestartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.owned(ctx); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "restart_session")
	}

	snap, err := h.sessions.Restart(c, ctx.Params("id"))
	if err != nil {
		return errHandler.HandleWithData(ctx, requestID, err, ctx.Path(), "restart_session", snap)
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.SessionResponse{
		Success: true,
		Session: snap,
	})
}

func (h *SessionHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	snap, err := h.owned(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.SessionResponse{
		Success: true,
		Session: snap,
	})
}

func (h *SessionHandler) EndSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.owned(ctx); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "end_session")
	}

	snap, err := h.sessions.EndCall(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "end_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.SessionResponse{
		Success: true,
		Session: snap,
	})
}

func (h *SessionHandler) SubmitManualSpec(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 90*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.owned(ctx); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "submit_manual_spec")
	}

	var req session.ManualSpecRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.sessions.SubmitManualSpec(c, ctx.Params("id"), req.Spec())
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "submit_manual_spec")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.ManualSpecResponse{
			Success:     true,
			Questions:   res.Questions,
			InterviewID: res.InterviewID,
		})
	}
}

func (h *SessionHandler) InjectEvent(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if _, err := h.owned(ctx); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "inject_event")
	}

	var req session.EventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.sessions.HandleEvent(ctx.Params("id"), req.ToEvent()); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "inject_event")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusAccepted, session.AckResponse{Success: true})
}

func (h *SessionHandler) DisposeSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if _, err := h.owned(ctx); err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			// Already disposed after its terminal dispatch.
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.AckResponse{Success: true})
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "dispose_session")
	}

	if err := h.sessions.Dispose(ctx.Params("id")); err != nil && !errors.Is(err, interview.ErrSessionNotFound) {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "dispose_session")
	}
	log.WithRequestID(ctx.UserContext()).WithField(log.SessionIDKey, ctx.Params("id")).Info("Session disposed")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, session.AckResponse{Success: true})
}
