package vapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"InterviewLo/internal/entity"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client drives one direct call: it creates the call, follows its monitor
// stream and fans provider events out to subscribers.
type Client interface {
	Start(ctx context.Context, assistant AssistantConfig, vars Variables) (string, error)
	Stop(ctx context.Context) error
	On(name EventName, h Handler) (off func())
}

type subscription struct {
	id int
	h  Handler
}

type webClient struct {
	api    API
	dialer *websocket.Dialer
	log    *logrus.Logger

	mu       sync.Mutex
	subs     map[EventName][]subscription
	nextID   int
	call     entity.CallRecord
	conn     *websocket.Conn
	stopping bool
	done     chan struct{}
}

func NewClient(api API, log *logrus.Logger) Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &webClient{
		api: api,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		log:  log,
		subs: make(map[EventName][]subscription),
	}
}

func (c *webClient) On(name EventName, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs[name] = append(c.subs[name], subscription{id: id, h: h})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		subs := c.subs[name]
		for i, s := range subs {
			if s.id == id {
				c.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Start creates the web call and attaches to its monitor stream. The returned
// id is the provider call id.
func (c *webClient) Start(ctx context.Context, assistant AssistantConfig, vars Variables) (string, error) {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return "", errors.New("call already started")
	}
	c.done = make(chan struct{})
	c.mu.Unlock()

	call, err := c.api.CreateWebCall(ctx, assistant, vars)
	if err != nil {
		c.closeDone()
		return "", err
	}

	c.mu.Lock()
	c.call = call
	c.mu.Unlock()

	if call.Monitor == nil || call.Monitor.ListenURL == "" {
		c.log.WithField("call_id", call.ID).Warn("Call has no monitor url, events will not be streamed")
		c.closeDone()
		return call.ID, nil
	}

	conn, _, err := c.dialer.DialContext(ctx, call.Monitor.ListenURL, nil)
	if err != nil {
		c.closeDone()
		return call.ID, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn, call.ID)

	return call.ID, nil
}

func (c *webClient) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.stopping = true
	call := c.call
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	var err error
	if call.ID != "" {
		err = c.api.EndCall(ctx, call)
	}

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

func (c *webClient) readLoop(conn *websocket.Conn, callID string) {
	defer c.closeDone()
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stopping := c.stopping
			c.mu.Unlock()

			if stopping || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}

			c.log.WithFields(logrus.Fields{
				"call_id": callID,
				"error":   err.Error(),
			}).Warn("Call monitor stream closed unexpectedly")
			c.emit(Event{Name: EventError, Err: err})
			return
		}

		// Binary frames carry audio.
		if msgType != websocket.TextMessage {
			continue
		}

		ev, err := decodeFrame(data)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"call_id": callID,
				"error":   err.Error(),
			}).Debug("Skipping undecodable monitor frame")
			continue
		}

		c.emit(ev)

		if ev.Name == EventCallEnd {
			return
		}
	}
}

func (c *webClient) emit(ev Event) {
	c.mu.Lock()
	subs := append([]subscription(nil), c.subs[ev.Name]...)
	c.mu.Unlock()

	for _, s := range subs {
		s.h(ev)
	}
}

func (c *webClient) closeDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done == nil {
		return
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
