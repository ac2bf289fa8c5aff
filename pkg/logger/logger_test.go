package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf, Level: zerolog.InfoLevel})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithEvaluationID(ctx, "eval-1")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log json: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("request_id missing: %v", entry)
	}
	if entry["evaluation_id"] != "eval-1" {
		t.Fatalf("evaluation_id missing: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("service missing: %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("expected info fallback")
	}
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("expected debug")
	}
}
