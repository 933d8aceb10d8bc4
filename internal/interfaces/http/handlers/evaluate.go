package handlers

import (
	"net/http"
	"time"

	"github.com/pausewise/pausewise/internal/domain"
	httpContracts "github.com/pausewise/pausewise/internal/http"
)

// Evaluate handles POST /v1/interventions/evaluate. The snapshot in the
// body is evaluated as the authenticated user at their subscribed tier;
// any user id in the payload is ignored.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req httpContracts.EvaluateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	userID := requestUser(r)
	tier := requestTier(r)

	snap := req.Snapshot
	snap.UserID = userID
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}

	results, err := h.app.EvaluateIntervention(r.Context(), &snap, tier)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := httpContracts.EvaluateResponse{
		UserID:    userID,
		Tier:      string(tier),
		Results:   results,
		Count:     len(results),
		Timestamp: time.Now().UTC(),
	}
	if len(results) > 0 {
		response.HighestRisk = string(domain.HighestRisk(results))
	}

	h.writeJSON(w, http.StatusOK, response)
}
