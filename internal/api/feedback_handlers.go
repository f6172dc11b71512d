package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yojanahub/avsar/internal/feedback"
	"github.com/yojanahub/avsar/internal/middleware"
)

// maxFeedbackBodyBytes bounds feedback request bodies.
const maxFeedbackBodyBytes = 64 << 10 // 64 KB

// FeedbackHandlers provides the feedback recording and multiplier
// inspection endpoints.
type FeedbackHandlers struct {
	ledger *feedback.Ledger
	logger *slog.Logger
}

// NewFeedbackHandlers creates feedback HTTP handlers.
func NewFeedbackHandlers(ledger *feedback.Ledger, logger *slog.Logger) *FeedbackHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackHandlers{
		ledger: ledger,
		logger: logger,
	}
}

// FeedbackRequestBody is the JSON payload for POST /v1/feedback.
type FeedbackRequestBody struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
	Label  string `json:"label"`

	// Factors optionally attributes the interaction to scoring factors.
	Factors []string `json:"factors,omitempty"`
}

// FeedbackResponse acknowledges a recorded event.
type FeedbackResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// Record handles POST /v1/feedback.
// Stores the interaction and returns 202; multipliers update in the
// background.
func (h *FeedbackHandlers) Record(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var body FeedbackRequestBody
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	ctx := middleware.SetUserID(r.Context(), body.UserID)
	middleware.UpdateResponseContext(w, ctx)

	event, err := h.ledger.Record(ctx, body.UserID, body.ItemID, body.Label, body.Factors...)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrUnknownLabel):
			ctx := middleware.SetErrorCode(ctx, ErrCodeUnknownLabel)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeUnknownLabel,
				"Unknown label; expected one of: "+strings.Join(feedback.Labels(), ", "))
		case errors.Is(err, feedback.ErrMissingUserID), errors.Is(err, feedback.ErrMissingItemID):
			ctx := middleware.SetErrorCode(ctx, ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to record feedback", "error", err)
			ctx := middleware.SetErrorCode(ctx, ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record feedback")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(FeedbackResponse{EventID: event.ID, Status: "accepted"}); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode feedback response", "error", err)
	}
}

// MultipliersResponse carries a user's current factor multipliers.
type MultipliersResponse struct {
	UserID      string             `json:"user_id"`
	Multipliers map[string]float64 `json:"multipliers"`
}

// Multipliers handles GET /v1/users/{id}/multipliers.
// Returns the user's derived factor multipliers for inspection.
func (h *FeedbackHandlers) Multipliers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	// Path shape: /v1/users/{id}/multipliers
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "multipliers" || parts[2] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}
	userID := parts[2]

	ctx := middleware.SetUserID(r.Context(), userID)
	middleware.UpdateResponseContext(w, ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	response := MultipliersResponse{
		UserID:      userID,
		Multipliers: h.ledger.MultipliersForUser(userID),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode multipliers response", "error", err)
	}
}
