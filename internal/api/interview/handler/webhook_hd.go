package interviewHandler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/internal/orchestrator"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/handlerUtil"
	"InterviewLo/pkg/log"
	"InterviewLo/pkg/vapi"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// webhookEnvelope accepts both the provider's {"message": {...}} wrapper and a
// bare message body.
type webhookEnvelope struct {
	Message *vapi.Message `json:"message"`
	CallID  string        `json:"callId"`
}

func decodeWebhook(body []byte) (vapi.Message, string, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return vapi.Message{}, "", err
	}

	var msg vapi.Message
	if env.Message != nil {
		msg = *env.Message
	} else if err := json.Unmarshal(body, &msg); err != nil {
		return vapi.Message{}, "", err
	}

	callID := env.CallID
	if callID == "" && msg.Call != nil {
		callID = msg.Call.ID
	}
	return msg, callID, nil
}

func (h *InterviewHandler) Webhook(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if h.webhookSecret != "" &&
		subtle.ConstantTimeCompare([]byte(ctx.Get("X-Vapi-Secret")), []byte(h.webhookSecret)) != 1 {
		return errHandler.HandleUnauthorized(ctx, requestID, "Invalid webhook secret")
	}

	msg, callID, err := decodeWebhook(ctx.Body())
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("request body must be valid JSON"), ctx.Path())
	}

	fields := log.Fields{
		"request_id": requestID,
		"call_id":    callID,
		"type":       msg.Type,
	}

	if callID != "" && h.sessions != nil {
		err := h.sessions.HandleEvent(callID, vapi.EventFromMessage(msg))
		switch {
		case err == nil:
			h.log.WithFields(fields).Debug("Webhook routed to session")
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.WebhookResponse{
				Success:   true,
				Handled:   true,
				SessionID: callID,
			})
		case !errors.Is(err, interview.ErrSessionNotFound):
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "webhook")
		}
	}

	if msg.Type == vapi.MessageWorkflowCompleted && len(msg.Vars()) > 0 {
		return h.generateFromWorkflow(c, ctx, requestID, msg.Vars())
	}

	h.log.WithFields(fields).Debug("Webhook acknowledged")
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.WebhookResponse{Success: true})
}

// generateFromWorkflow serves workflow completions for calls this process
// does not own, such as calls started from another instance.
func (h *InterviewHandler) generateFromWorkflow(c context.Context, ctx *fiber.Ctx, requestID string, vars entity.Variables) error {
	errHandler := handlerUtil.New(h.log)

	spec, defaulted := orchestrator.SpecFromVariables(vars)
	userID, _ := vars["userid"].(string)
	if userID == "" {
		userID, _ = vars["userId"].(string)
	}

	if len(defaulted) > 0 {
		h.log.WithFields(log.Fields{
			"request_id":       requestID,
			"defaulted_fields": defaulted,
		}).Warn("ExtractionDefaulted")
	}

	res, err := h.interviewService.Generate(c, spec, userID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "webhook_generate")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, interview.WebhookResponse{
		Success:     true,
		Handled:     true,
		Questions:   res.Questions,
		InterviewID: res.InterviewID,
	})
}
