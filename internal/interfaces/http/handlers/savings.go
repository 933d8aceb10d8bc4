package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pausewise/pausewise/internal/domain"
	httpContracts "github.com/pausewise/pausewise/internal/http"
	"github.com/pausewise/pausewise/internal/ledger"
)

// AppendSaving handles POST /v1/savings
func (h *Handlers) AppendSaving(w http.ResponseWriter, r *http.Request) {
	var req httpContracts.AppendSavingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		h.writeError(w, r, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("unknown category %q", req.Category))
		return
	}
	trigger, ok := domain.ParseTriggerType(req.TriggerType)
	if !ok {
		h.writeError(w, r, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("unknown trigger_type %q", req.TriggerType))
		return
	}

	entry, err := h.app.RecordSaving(r.Context(), ledger.NewEntry{
		UserID:      requestUser(r),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Category:    category,
		TriggerType: trigger,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, httpContracts.SavingResponse{
		Entry:     httpContracts.NewSavingEntry(entry),
		Timestamp: time.Now().UTC(),
	})
}

// ConfirmSaving handles POST /v1/savings/confirm. Category and trigger are
// optional here; when absent the confirmation inherits the estimate's.
func (h *Handlers) ConfirmSaving(w http.ResponseWriter, r *http.Request) {
	var req httpContracts.ConfirmSavingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var category domain.Category
	if req.Category != "" {
		parsed, ok := domain.ParseCategory(req.Category)
		if !ok {
			h.writeError(w, r, http.StatusBadRequest, "validation_failed",
				fmt.Sprintf("unknown category %q", req.Category))
			return
		}
		category = parsed
	}

	var trigger domain.TriggerType
	if req.TriggerType != "" {
		parsed, ok := domain.ParseTriggerType(req.TriggerType)
		if !ok {
			h.writeError(w, r, http.StatusBadRequest, "validation_failed",
				fmt.Sprintf("unknown trigger_type %q", req.TriggerType))
			return
		}
		trigger = parsed
	}

	entry, err := h.app.ConfirmSavings(r.Context(), ledger.ConfirmInput{
		UserID:             requestUser(r),
		OriginalEstimateID: req.OriginalEstimateID,
		OriginalAmount:     req.OriginalAmount,
		ActualAmount:       req.ActualAmount,
		Category:           category,
		TriggerType:        trigger,
		Reason:             req.Reason,
		Metadata:           req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, httpContracts.SavingResponse{
		Entry:     httpContracts.NewSavingEntry(entry),
		Timestamp: time.Now().UTC(),
	})
}

// GetSaving handles GET /v1/savings/{id}
func (h *Handlers) GetSaving(w http.ResponseWriter, r *http.Request) {
	entry, err := h.app.GetSaving(r.Context(), requestUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, httpContracts.SavingResponse{
		Entry:     httpContracts.NewSavingEntry(entry),
		Timestamp: time.Now().UTC(),
	})
}

// SavingsHistory handles GET /v1/savings/history with an optional limit
func (h *Handlers) SavingsHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0 // service default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	userID := requestUser(r)
	entries, err := h.app.GetSavingsHistory(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, httpContracts.HistoryResponse{
		UserID:    userID,
		Entries:   httpContracts.NewSavingEntries(entries),
		Count:     len(entries),
		Timestamp: time.Now().UTC(),
	})
}
