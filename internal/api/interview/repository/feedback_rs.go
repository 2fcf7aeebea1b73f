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

type FeedbackDB struct {
	ID                  sql.NullString `db:"id"`
	InterviewID         sql.NullString `db:"interview_id"`
	UserID              sql.NullString `db:"user_id"`
	TotalScore          sql.NullInt64  `db:"total_score"`
	CategoryScores      sql.NullString `db:"category_scores"`
	Strengths           sql.NullString `db:"strengths"`
	AreasForImprovement sql.NullString `db:"areas_for_improvement"`
	FinalAssessment     sql.NullString `db:"final_assessment"`
	CreatedAt           time.Time      `db:"created_at"`
}

func feedbackArgs(fb entity.Feedback) (map[string]interface{}, error) {
	scores, err := json.Marshal(fb.CategoryScores)
	if err != nil {
		return nil, err
	}
	strengths, err := json.Marshal(nonNil(fb.Strengths))
	if err != nil {
		return nil, err
	}
	areas, err := json.Marshal(nonNil(fb.AreasForImprovement))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":                    fb.ID,
		"interview_id":          fb.InterviewID,
		"user_id":               fb.UserID,
		"total_score":           fb.TotalScore,
		"category_scores":       string(scores),
		"strengths":             string(strengths),
		"areas_for_improvement": string(areas),
		"final_assessment":      fb.FinalAssessment,
		"created_at":            fb.CreatedAt,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *feedbackRepository) CreateFeedback(ctx context.Context, fb entity.Feedback) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV, err := feedbackArgs(fb)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal feedback")
		return err
	}

	query, args, err := sqlx.Named(queryCreateFeedback, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateFeedback")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating feedback")
		return err
	}

	return nil
}

func (r *feedbackRepository) UpdateFeedback(ctx context.Context, fb entity.Feedback) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV, err := feedbackArgs(fb)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal feedback")
		return err
	}

	query, args, err := sqlx.Named(queryUpdateFeedback, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateFeedback named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateFeedback execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateFeedback rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"feedback_id": fb.ID,
		}).Warn("UpdateFeedback no rows affected")
		return interview.ErrFeedbackNotFound
	}

	return nil
}

func (r *feedbackRepository) GetFeedbackByInterview(ctx context.Context, interviewID, userID string) (entity.Feedback, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var fbDB FeedbackDB

	query, args, err := sqlx.Named(queryGetFeedbackByInterview, map[string]interface{}{
		"interview_id": interviewID,
		"user_id":      userID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetFeedbackByInterview named query preparation err")
		return entity.Feedback{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&fbDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Feedback{}, interview.ErrFeedbackNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetFeedbackByInterview execution err")
		return entity.Feedback{}, err
	}

	return makeFeedback(fbDB), nil
}

func makeFeedback(fbDB FeedbackDB) entity.Feedback {
	var (
		scores    []entity.CategoryScore
		strengths []string
		areas     []string
	)
	if fbDB.CategoryScores.Valid {
		_ = json.Unmarshal([]byte(fbDB.CategoryScores.String), &scores)
	}
	if fbDB.Strengths.Valid {
		_ = json.Unmarshal([]byte(fbDB.Strengths.String), &strengths)
	}
	if fbDB.AreasForImprovement.Valid {
		_ = json.Unmarshal([]byte(fbDB.AreasForImprovement.String), &areas)
	}

	return entity.Feedback{
		ID:                  fbDB.ID.String,
		InterviewID:         fbDB.InterviewID.String,
		UserID:              fbDB.UserID.String,
		TotalScore:          int(fbDB.TotalScore.Int64),
		CategoryScores:      scores,
		Strengths:           strengths,
		AreasForImprovement: areas,
		FinalAssessment:     fbDB.FinalAssessment.String,
		CreatedAt:           fbDB.CreatedAt,
	}
}
