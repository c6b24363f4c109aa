package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intellichat/intellichat/sessions"
	"intellichat/intellichat/utils/logging"
)

func TestHealthCheck(t *testing.T) {
	logging.InitTestLogger()
	manager := sessions.NewManager(time.Hour)
	manager.Create(nil)
	hc := NewHealthController(manager)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
	}

	var body struct {
		Status   string `json:"status"`
		Service  string `json:"service"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Service != "intellichat" {
		t.Errorf("expected service intellichat, got %q", body.Service)
	}
	if body.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", body.Sessions)
	}
}
