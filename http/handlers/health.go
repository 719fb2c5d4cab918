package handlers

import (
	"database/sql"
	"net/http"

	"eduplatform/http/response"
	"eduplatform/services/kafka"
)

// HealthHandler reports process liveness, store reachability and event
// publishing state.
type HealthHandler struct {
	db       *sql.DB
	producer *kafka.Producer
}

func NewHealthHandler(db *sql.DB, producer *kafka.Producer) *HealthHandler {
	return &HealthHandler{db: db, producer: producer}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"server": "ok", "database": "ok", "kafka": "disabled"}
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	if h.producer.Enabled() {
		status["kafka"] = "ok"
	}

	response.SendJSON(w, code, status)
}
