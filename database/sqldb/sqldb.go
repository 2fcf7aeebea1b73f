package sqldb

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string
	DSN    string
}

// ConfigFromEnv reads DB_DRIVER and DB_DSN. Without a DSN postgres is built from
// the DB_HOST, DB_USER and related variables.
func ConfigFromEnv() Config {
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = DriverPostgres
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" && driver == DriverPostgres {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			os.Getenv("DB_HOST"),
			envOr("DB_PORT", "5432"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			envOr("DB_SSLMODE", "disable"),
		)
	}
	if dsn == "" && driver == DriverSQLite {
		dsn = "file:interview.db?_pragma=busy_timeout(5000)"
	}

	return Config{Driver: driver, DSN: dsn}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func New(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		techstack TEXT NOT NULL,
		questions TEXT NOT NULL,
		finalized BOOLEAN NOT NULL DEFAULT FALSE,
		cover_image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews(user_id)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		total_score INTEGER NOT NULL,
		category_scores TEXT NOT NULL,
		strengths TEXT NOT NULL,
		areas_for_improvement TEXT NOT NULL,
		final_assessment TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_interview ON feedback(interview_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		call_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		interview_id TEXT NOT NULL DEFAULT '',
		feedback_id TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		transcript TEXT NOT NULL,
		extracted_fields TEXT,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_call ON sessions(call_id)`,
}

func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
