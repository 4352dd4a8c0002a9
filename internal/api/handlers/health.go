package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
)

// ServiceName identifies the service in health responses
const ServiceName = "SAP CX WhatsApp Agent"

// HealthHandler serves the health check endpoint
type HealthHandler struct {
	version string
}

// NewHealthHandler creates the health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Handle serves GET / and GET /health
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": ServiceName,
		"version": h.version,
		"domains": domain.Strings(),
	})
}
