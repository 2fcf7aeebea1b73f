package interviewHandler

import (
	"errors"
	"time"

	"InterviewLo/internal/api/interview"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/handlerUtil"
	"InterviewLo/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *InterviewHandler) DescribeGenerate(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, interview.GenerateDescription{
		Success:  true,
		Message:  "Generates interview questions and saves the interview",
		Method:   fiber.MethodPost,
		Required: []string{"type", "role", "level", "techstack", "amount", "userid"},
	})
}

func (h *InterviewHandler) Generate(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req interview.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		return errHandler.HandleMissingFields(ctx, requestID, missing)
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    req.UserID,
		"role":       req.Role,
		"amount":     int(req.Amount),
	}).Debug("Generating interview questions")

	res, err := h.interviewService.Generate(c, req.Spec(), req.UserID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "generate_questions")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.GenerateResponse{
			Success:     true,
			Questions:   res.Questions,
			InterviewID: res.InterviewID,
		})
	}
}
