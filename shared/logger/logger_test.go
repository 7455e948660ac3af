package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit_JSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := initWithOutput("tasks", "debug", &buf)

	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}

	WithRequestID(l, "req-1").Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if rec["service"] != "tasks" {
		t.Fatalf("expected service=tasks, got %v", rec["service"])
	}
	if rec["request_id"] != "req-1" {
		t.Fatalf("expected request_id=req-1, got %v", rec["request_id"])
	}
	if rec["message"] != "hello" {
		t.Fatalf("expected message=hello, got %v", rec["message"])
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("expected ts field: %v", rec)
	}
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := initWithOutput("tasks", "loud", &buf)
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", l.GetLevel())
	}
}

func TestWithRequestID_EmptyOmitsField(t *testing.T) {
	var buf bytes.Buffer
	l := initWithOutput("", "info", &buf)
	WithRequestID(l, "").Info("x")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := rec["request_id"]; ok {
		t.Fatalf("request_id must be absent: %v", rec)
	}
	if _, ok := rec["service"]; ok {
		t.Fatalf("service must be absent without a name: %v", rec)
	}
}
