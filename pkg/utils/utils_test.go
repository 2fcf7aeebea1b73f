package utils

import (
	"testing"
	"time"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	a, err := u.NewULIDFromTimestamp(now)
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp() error = %v", err)
	}
	b, err := u.NewULIDFromTimestamp(now.Add(time.Millisecond))
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp() error = %v", err)
	}

	if len(a) != 26 {
		t.Errorf("len(id) = %d, want 26", len(a))
	}
	if a >= b {
		t.Errorf("ids not ordered by time: %s >= %s", a, b)
	}
}
