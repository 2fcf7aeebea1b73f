package interviewRepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
	contextPkg "InterviewLo/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SessionDB struct {
	ID              sql.NullString `db:"id"`
	CallID          sql.NullString `db:"call_id"`
	UserID          sql.NullString `db:"user_id"`
	InterviewID     sql.NullString `db:"interview_id"`
	FeedbackID      sql.NullString `db:"feedback_id"`
	Mode            sql.NullString `db:"mode"`
	Status          sql.NullString `db:"status"`
	Transcript      sql.NullString `db:"transcript"`
	ExtractedFields sql.NullString `db:"extracted_fields"`
	LastError       sql.NullString `db:"last_error"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// SaveSession writes the latest snapshot of a session, replacing any earlier one.
func (r *sessionRepository) SaveSession(ctx context.Context, session entity.Session) error {
	requestID := contextPkg.GetRequestID(ctx)

	transcript := session.Transcript
	if transcript == nil {
		transcript = []entity.Utterance{}
	}
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal session transcript")
		return err
	}

	var extracted sql.NullString
	if session.ExtractedFields != nil {
		raw, err := json.Marshal(session.ExtractedFields)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to marshal extracted fields")
			return err
		}
		extracted = sql.NullString{String: string(raw), Valid: true}
	}

	argsKV := map[string]interface{}{
		"id":               session.ID,
		"call_id":          session.CallID,
		"user_id":          session.UserID,
		"interview_id":     session.InterviewID,
		"feedback_id":      session.FeedbackID,
		"mode":             string(session.Mode),
		"status":           string(session.Status),
		"transcript":       string(transcriptJSON),
		"extracted_fields": extracted,
		"last_error":       session.LastError,
		"created_at":       session.CreatedAt,
		"updated_at":       session.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryUpsertSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for SaveSession")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Database error when saving session")
		return err
	}

	return nil
}

// GetSessionByID accepts either the session id or the provider call id.
func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (entity.Session, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var sessDB SessionDB

	query, args, err := sqlx.Named(queryGetSessionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.Session{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&sessDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Session{}, interview.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.Session{}, err
	}

	return makeSession(sessDB), nil
}

func makeSession(sessDB SessionDB) entity.Session {
	var transcript []entity.Utterance
	if sessDB.Transcript.Valid && sessDB.Transcript.String != "" {
		_ = json.Unmarshal([]byte(sessDB.Transcript.String), &transcript)
	}

	var extracted *entity.InterviewSpec
	if sessDB.ExtractedFields.Valid && sessDB.ExtractedFields.String != "" {
		var spec entity.InterviewSpec
		if err := json.Unmarshal([]byte(sessDB.ExtractedFields.String), &spec); err == nil {
			extracted = &spec
		}
	}

	return entity.Session{
		ID:              sessDB.ID.String,
		CallID:          sessDB.CallID.String,
		UserID:          sessDB.UserID.String,
		InterviewID:     sessDB.InterviewID.String,
		FeedbackID:      sessDB.FeedbackID.String,
		Mode:            entity.SessionMode(sessDB.Mode.String),
		Status:          entity.SessionStatus(sessDB.Status.String),
		Transcript:      transcript,
		ExtractedFields: extracted,
		LastError:       sessDB.LastError.String,
		CreatedAt:       sessDB.CreatedAt,
		UpdatedAt:       sessDB.UpdatedAt,
	}
}
