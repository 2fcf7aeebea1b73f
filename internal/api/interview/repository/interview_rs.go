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

type InterviewDB struct {
	ID         sql.NullString `db:"id"`
	UserID     sql.NullString `db:"user_id"`
	Role       sql.NullString `db:"role"`
	Type       sql.NullString `db:"type"`
	Level      sql.NullString `db:"level"`
	Techstack  sql.NullString `db:"techstack"`
	Questions  sql.NullString `db:"questions"`
	Finalized  sql.NullBool   `db:"finalized"`
	CoverImage sql.NullString `db:"cover_image"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *interviewRepository) CreateInterview(ctx context.Context, iv entity.Interview) error {
	requestID := contextPkg.GetRequestID(ctx)

	techstackJSON, err := json.Marshal(iv.Techstack)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal interview techstack")
		return err
	}
	questionsJSON, err := json.Marshal(iv.Questions)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal interview questions")
		return err
	}

	argsKV := map[string]interface{}{
		"id":          iv.ID,
		"user_id":     iv.UserID,
		"role":        iv.Role,
		"type":        string(iv.Type),
		"level":       string(iv.Level),
		"techstack":   string(techstackJSON),
		"questions":   string(questionsJSON),
		"finalized":   iv.Finalized,
		"cover_image": iv.CoverImage,
		"created_at":  iv.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateInterview, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateInterview")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating interview")
		return err
	}

	return nil
}

func (r *interviewRepository) GetInterviewByID(ctx context.Context, id string) (entity.Interview, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var ivDB InterviewDB

	query, args, err := sqlx.Named(queryGetInterviewByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInterviewByID named query preparation err")
		return entity.Interview{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&ivDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id":   requestID,
				"interview_id": id,
			}).Debug("GetInterviewByID not found")
			return entity.Interview{}, interview.ErrInterviewNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInterviewByID execution err")
		return entity.Interview{}, err
	}

	return makeInterview(ivDB), nil
}

func (r *interviewRepository) GetInterviewsByUserID(ctx context.Context, userID string, limit int) ([]entity.Interview, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if limit <= 0 {
		limit = 20
	}

	query, args, err := sqlx.Named(queryGetInterviewsByUserID, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInterviewsByUserID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []InterviewDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInterviewsByUserID execution err")
		return nil, err
	}

	out := make([]entity.Interview, 0, len(rows))
	for _, row := range rows {
		out = append(out, makeInterview(row))
	}
	return out, nil
}

func makeInterview(ivDB InterviewDB) entity.Interview {
	var techstack, questions []string
	if ivDB.Techstack.Valid && ivDB.Techstack.String != "" {
		_ = json.Unmarshal([]byte(ivDB.Techstack.String), &techstack)
	}
	if ivDB.Questions.Valid && ivDB.Questions.String != "" {
		_ = json.Unmarshal([]byte(ivDB.Questions.String), &questions)
	}

	return entity.Interview{
		ID:         ivDB.ID.String,
		UserID:     ivDB.UserID.String,
		Role:       ivDB.Role.String,
		Type:       entity.InterviewType(ivDB.Type.String),
		Level:      entity.Level(ivDB.Level.String),
		Techstack:  techstack,
		Questions:  questions,
		Finalized:  ivDB.Finalized.Bool,
		CoverImage: ivDB.CoverImage.String,
		CreatedAt:  ivDB.CreatedAt,
	}
}
