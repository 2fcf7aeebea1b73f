package orchestrator

import (
	"time"

	"InterviewLo/internal/entity"
	"InterviewLo/pkg/utils"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollTimeout     = 10 * time.Second
	DefaultDispatchTimeout = 90 * time.Second
)

// Config carries the collaborators shared by every session.
type Config struct {
	Log        *logrus.Logger
	NewClient  ClientFactory
	Calls      CallAPI
	WorkflowID string
	Lookup     StatusLookup
	Generator  Generator
	Feedback   FeedbackCreator
	Guard      Guard
	Store      SessionStore
	Archiver   TranscriptArchiver

	PollInterval    time.Duration
	PollTimeout     time.Duration
	DispatchTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = logrus.StandardLogger()
	}
	if c.Guard == nil {
		c.Guard = NewMemoryGuard()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		u := utils.New()
		now := c.Now
		c.NewID = func() string {
			id, err := u.NewULIDFromTimestamp(now())
			if err != nil {
				return entity.LocalSessionPrefix + now().Format("20060102150405.000000000")
			}
			return entity.LocalSessionPrefix + id
		}
	}
	return c
}

// Options describe one session.
type Options struct {
	Mode          entity.SessionMode
	UserID        string
	Username      string
	InterviewID   string
	FeedbackID    string
	Questions     []string
	ServerManaged bool
}
