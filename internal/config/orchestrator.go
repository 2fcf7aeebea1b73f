package config

import (
	"os"
	"time"

	"InterviewLo/internal/orchestrator"

	"github.com/sirupsen/logrus"
)

// OrchestratorSettings are the env driven knobs of the session manager.
type OrchestratorSettings struct {
	PollInterval    time.Duration
	PollTimeout     time.Duration
	DispatchTimeout time.Duration
	WorkflowID      string
}

func OrchestratorSettingsFromEnv(log *logrus.Logger) OrchestratorSettings {
	return OrchestratorSettings{
		PollInterval:    durationEnv(log, "POLL_INTERVAL", orchestrator.DefaultPollInterval),
		PollTimeout:     durationEnv(log, "POLL_TIMEOUT", orchestrator.DefaultPollTimeout),
		DispatchTimeout: durationEnv(log, "DISPATCH_TIMEOUT", orchestrator.DefaultDispatchTimeout),
		WorkflowID:      os.Getenv("VAPI_SETUP_WORKFLOW_ID"),
	}
}

func durationEnv(log *logrus.Logger, key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.WithFields(logrus.Fields{
			"key":     key,
			"value":   raw,
			"default": def.String(),
		}).Warn("Invalid duration, using default")
		return def
	}
	return d
}
