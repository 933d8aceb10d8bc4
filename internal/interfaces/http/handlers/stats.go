package handlers

import (
	"net/http"
	"strconv"
	"time"

	httpContracts "github.com/pausewise/pausewise/internal/http"
)

// SavingsStats handles GET /v1/savings/stats. window_days bounds the
// windowed totals; zero or absent means all time.
func (h *Handlers) SavingsStats(w http.ResponseWriter, r *http.Request) {
	windowDays := 0
	if windowStr := r.URL.Query().Get("window_days"); windowStr != "" {
		if parsed, err := strconv.Atoi(windowStr); err == nil && parsed > 0 {
			windowDays = parsed
		}
	}

	userID := requestUser(r)
	summary, err := h.app.GetSavingsStats(r.Context(), userID, windowDays)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, httpContracts.StatsResponse{
		UserID:     userID,
		WindowDays: windowDays,
		Stats:      summary,
		Timestamp:  time.Now().UTC(),
	})
}
