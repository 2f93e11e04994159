package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNew_WritesJSONToOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Encoding: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := ContextWithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, log).Info("hello")
	_ = log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["request_id"] != "req-1" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(Config{Level: "warn", Output: &buf})
	log.Info("dropped")
	_ = log.Sync()
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}

func TestWithRequestID_NoID(t *testing.T) {
	log, _ := New(Config{Output: &bytes.Buffer{}})
	if got := WithRequestID(context.Background(), log); got != log {
		t.Error("expected base logger when no request id")
	}
}
