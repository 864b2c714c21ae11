package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONOutputCarriesRequestFields(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	req := httptest.NewRequest("POST", "/api/edit-video", nil)
	req.Header.Set("X-Request-ID", "req-42")
	log.WithRequest(req).Info("edit received")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["req_id"] != "req-42" || entry["path"] != "/api/edit-video" {
		t.Fatalf("missing request fields: %v", entry)
	}
}

func TestWithRequestGeneratesID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)
	log.WithRequest(httptest.NewRequest("GET", "/healthz", nil)).Info("health")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id, _ := entry["req_id"].(string); len(id) != 36 {
		t.Fatalf("expected generated uuid, got %v", entry["req_id"])
	}
}

func TestWithErrorAndLevel(t *testing.T) {
	t.Setenv("ENVIRONMENT", "local")
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	log.Info("hidden")
	log.WithError(errors.New("boom")).Warn("visible")
	log.WithRun("run-1").Warn("tagged")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "run_id=run-1") {
		t.Fatalf("missing fields in %q", out)
	}
}
