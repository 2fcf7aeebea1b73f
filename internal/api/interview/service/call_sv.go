package interviewService

import (
	"context"
	"errors"
	"strings"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	"InterviewLo/internal/orchestrator"
	contextPkg "InterviewLo/pkg/context"
	"InterviewLo/pkg/nlp"
	"InterviewLo/pkg/response"
	"InterviewLo/pkg/vapi"

	"github.com/sirupsen/logrus"
)

func (s *interviewService) CallStatus(ctx context.Context, callID string) (entity.CallRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)

	callID = strings.TrimSpace(callID)
	if callID == "" {
		return entity.CallRecord{}, interview.ErrMissingCallID
	}
	if s.calls == nil {
		return entity.CallRecord{}, interview.ErrProviderUnavailable
	}

	rec, err := s.calls.GetCall(ctx, callID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"call_id":    callID,
			"error":      err.Error(),
		}).Warn("Call status lookup failed")
		if errors.Is(err, vapi.ErrProviderUnavailable) {
			return entity.CallRecord{}, response.Wrap(interview.ErrProviderUnavailable, err)
		}
		return entity.CallRecord{}, response.Wrap(interview.ErrCallLookupFailed, err)
	}

	return rec, nil
}

// LookupCall returns the call status with its extracted variables. When the
// provider recorded none, the transcript extractor fills them in.
func (s *interviewService) LookupCall(ctx context.Context, callID string) (interview.CallStatusResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	rec, err := s.CallStatus(ctx, callID)
	if err != nil {
		return interview.CallStatusResponse{}, err
	}

	utterances := rec.Utterances()
	vars, source := orchestrator.ResolveVariables(rec)
	if len(vars) == 0 && (rec.Transcript != "" || len(utterances) > 0) {
		var (
			spec      entity.InterviewSpec
			defaulted []string
		)
		if len(utterances) > 0 {
			spec, defaulted = nlp.ExtractFromTranscript(utterances)
		} else {
			spec, defaulted = nlp.ExtractWithReport(rec.Transcript)
		}
		vars = specVariables(spec)
		source = "transcript"
		if len(defaulted) > 0 {
			s.log.WithFields(logrus.Fields{
				"request_id":       requestID,
				"call_id":          rec.ID,
				"defaulted_fields": strings.Join(defaulted, ","),
			}).Warn("ExtractionDefaulted")
		}
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"call_id":    rec.ID,
		"status":     rec.Status,
		"source":     source,
	}).Debug("Call status resolved")

	return interview.CallStatusResponse{
		Success: true,
		Status:  rec.Status,
		Call: interview.CallStatusCall{
			ID:                 rec.ID,
			Status:             rec.Status,
			ExtractedVariables: vars,
			Messages:           utterances,
			Transcript:         rec.Transcript,
		},
	}, nil
}

func specVariables(spec entity.InterviewSpec) entity.Variables {
	return entity.Variables{
		"type":      strings.ToLower(string(spec.Type)),
		"role":      spec.Role,
		"level":     strings.ToLower(string(spec.Level)),
		"techstack": spec.Techstack.String(),
		"amount":    spec.Amount,
	}
}

func (s *interviewService) SaveSession(ctx context.Context, session entity.Session) error {
	repo, err := s.interviewRepo.NewClient(false)
	if err != nil {
		return err
	}
	return repo.Sessions.SaveSession(ctx, session)
}
