package interviewHandler

import (
	"time"

	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *InterviewHandler) CallStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	resp, err := h.interviewService.LookupCall(c, ctx.Query("callId"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "call_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}
