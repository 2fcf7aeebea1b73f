package interviewHandler

import (
	"errors"
	"time"

	"InterviewLo/internal/api/interview"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/handlerUtil"
	jwtPkg "InterviewLo/pkg/jwt"
	"InterviewLo/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *InterviewHandler) CreateFeedback(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req interview.CreateFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}
	if req.UserID == "" {
		req.UserID = userData.ID
	}
	if req.UserID != userData.ID {
		return errHandler.HandleUnauthorized(ctx, requestID, "Cannot create feedback for another user")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id":   requestID,
		"interview_id": req.InterviewID,
		"utterances":   len(req.Transcript),
	}).Debug("Creating feedback")

	resp, err := h.interviewService.CreateFeedback(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_feedback")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, resp)
	}
}

func (h *InterviewHandler) GetInterview(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	itv, err := h.interviewService.GetInterview(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_interview")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.InterviewResponse{
		Success:   true,
		Interview: itv,
	})
}

func (h *InterviewHandler) GetFeedback(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	fb, err := h.interviewService.GetFeedback(c, ctx.Params("id"), userData.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_feedback")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.FeedbackResponse{
		Success:  true,
		Feedback: fb,
	})
}
