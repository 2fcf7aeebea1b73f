package sqldb

import (
	"testing"
)

func TestNew_SQLite(t *testing.T) {
	db, err := New(Config{Driver: DriverSQLite, DSN: "file:sqldbtest?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"interviews", "feedback", "sessions"} {
		var n int
		if err := db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}

	if err := Migrate(db); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New(Config{Driver: "mysql", DSN: "x"}); err == nil {
		t.Error("New() with mysql succeeded")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "")

	cfg := ConfigFromEnv()
	if cfg.Driver != DriverSQLite || cfg.DSN == "" {
		t.Errorf("ConfigFromEnv() = %+v", cfg)
	}

	t.Setenv("DB_DRIVER", "")
	for _, k := range []string{"DB_USER", "DB_PASSWORD", "DB_PORT", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "interviews")
	cfg = ConfigFromEnv()
	if cfg.Driver != DriverPostgres || cfg.DSN != "host=db port=5432 user= password= dbname=interviews sslmode=disable" {
		t.Errorf("ConfigFromEnv() = %+v", cfg)
	}
}
