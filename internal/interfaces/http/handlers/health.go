package handlers

import (
	"net/http"
	"time"

	httpContracts "github.com/pausewise/pausewise/internal/http"
)

// Health handles GET /health. Reports degraded with a 503 when the backing
// store fails its check, so load balancers rotate the instance out.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	check := h.app.HealthCheck(r.Context())

	status := "ok"
	code := http.StatusOK
	if !check.Healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, httpContracts.HealthResponse{
		Status:    status,
		Version:   h.version,
		Driver:    h.driver,
		Storage:   check,
		Timestamp: time.Now().UTC(),
	})
}
