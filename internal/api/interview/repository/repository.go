package interviewRepository

import (
	"InterviewLo/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		var err error
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Interviews: &interviewRepository{q: sqlExecutor, log: r.log},
		Feedback:   &feedbackRepository{q: sqlExecutor, log: r.log},
		Sessions:   &sessionRepository{q: sqlExecutor, log: r.log},
		Commit:     commitFunc,
		Rollback:   rollbackFunc,
	}, nil
}

type Client struct {
	Interviews interface {
		CreateInterview(ctx context.Context, interview entity.Interview) error
		GetInterviewByID(ctx context.Context, id string) (entity.Interview, error)
		GetInterviewsByUserID(ctx context.Context, userID string, limit int) ([]entity.Interview, error)
	}

	Feedback interface {
		CreateFeedback(ctx context.Context, feedback entity.Feedback) error
		UpdateFeedback(ctx context.Context, feedback entity.Feedback) error
		GetFeedbackByInterview(ctx context.Context, interviewID, userID string) (entity.Feedback, error)
	}

	Sessions interface {
		SaveSession(ctx context.Context, session entity.Session) error
		GetSessionByID(ctx context.Context, id string) (entity.Session, error)
	}

	Commit   func() error
	Rollback func() error
}

type interviewRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type feedbackRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type sessionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
