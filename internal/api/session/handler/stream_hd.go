package sessionHandler

import (
	"time"

	"InterviewLo/internal/orchestrator"
	"InterviewLo/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const streamWriteTimeout = 5 * time.Second

func (h *SessionHandler) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Status(fiber.StatusUpgradeRequired).JSON(handlerUtil.ErrorResponse{
			Error: "websocket upgrade required",
			Code:  "UPGRADE_REQUIRED",
		})
	}
	if _, err := h.owned(ctx); err != nil {
		return handlerUtil.New(h.log).Handle(ctx, h.middleware.GetRequestID(ctx), err, ctx.Path(), "stream_session")
	}
	return ctx.Next()
}

// stream pushes session updates to the client until the session is disposed
// or the client goes away. The first frame is the current snapshot.
func (h *SessionHandler) stream(c *websocket.Conn) {
	id := c.Params("id")
	entry := h.log.WithField("session_id", id)

	updates, cancel, err := h.sessions.Subscribe(id)
	if err != nil {
		entry.WithField("error", err.Error()).Warn("Stream subscribe failed")
		_ = c.WriteJSON(orchestrator.Update{Type: orchestrator.UpdateError, SessionID: id, Error: err.Error()})
		return
	}
	defer cancel()

	entry.Debug("Session stream connected")
	defer entry.Debug("Session stream disconnected")

	if snap, err := h.sessions.Snapshot(id); err == nil {
		if err := h.write(c, orchestrator.Update{Type: orchestrator.UpdateStatus, SessionID: snap.ID, Session: &snap}); err != nil {
			return
		}
	}

	// Client frames are ignored; a read error means the client left.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for u := range updates {
		if err := h.write(c, u); err != nil {
			entry.WithFields(logrus.Fields{
				"update": u.Type,
				"error":  err.Error(),
			}).Debug("Stream write failed")
			return
		}
	}
}

func (h *SessionHandler) write(c *websocket.Conn, u orchestrator.Update) error {
	if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(u)
}
