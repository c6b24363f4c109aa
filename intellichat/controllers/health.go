package controllers

import (
	"encoding/json"
	"net/http"

	"intellichat/intellichat/sessions"
)

type HealthController struct {
	manager *sessions.Manager
}

func NewHealthController(manager *sessions.Manager) *HealthController {
	return &HealthController{manager: manager}
}

// HealthCheck reports liveness plus the number of active chat sessions.
func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"service":  "intellichat",
		"sessions": h.manager.Len(),
	})
}
