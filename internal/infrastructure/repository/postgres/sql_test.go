package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if isNotFound(fmt.Errorf("boom")) {
		t.Fatalf("expected false for unrelated error")
	}
	if isNotFound(nil) {
		t.Fatalf("expected false for nil error")
	}
}

func TestOptionalString(t *testing.T) {
	if got := optionalString(""); got != nil {
		t.Fatalf("expected nil for empty string, got %v", got)
	}
	got := optionalString("x")
	if got == nil || *got != "x" {
		t.Fatalf("expected pointer to x, got %v", got)
	}
}

func TestNullTimeToPtr(t *testing.T) {
	if got := nullTimeToPtr(sql.NullTime{}); got != nil {
		t.Fatalf("expected nil for null time, got %v", got)
	}

	at := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	got := nullTimeToPtr(sql.NullTime{Time: at, Valid: true})
	if got == nil || !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
}

func TestNullInt64ToPtr(t *testing.T) {
	if got := nullInt64ToPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil for null int, got %v", got)
	}
	got := nullInt64ToPtr(sql.NullInt64{Int64: 3, Valid: true})
	if got == nil || *got != 3 {
		t.Fatalf("expected pointer to 3, got %v", got)
	}
}

func TestMarshalPayload(t *testing.T) {
	got, err := marshalPayload(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "{}" {
		t.Fatalf("expected empty object, got %s", got)
	}

	got, err = marshalPayload(map[string]any{"gameweek": 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"gameweek":10}` {
		t.Fatalf("unexpected payload json: %s", got)
	}
}
