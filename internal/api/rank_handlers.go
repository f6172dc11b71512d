package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yojanahub/avsar/internal/catalog"
	"github.com/yojanahub/avsar/internal/middleware"
	"github.com/yojanahub/avsar/internal/ranking"
)

// maxRankBodyBytes bounds rank request bodies.
const maxRankBodyBytes = 4 << 20 // 4 MB

// RankHandlers provides the ranking endpoint.
type RankHandlers struct {
	engine *ranking.Engine
	logger *slog.Logger
}

// NewRankHandlers creates ranking HTTP handlers.
func NewRankHandlers(engine *ranking.Engine, logger *slog.Logger) *RankHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankHandlers{
		engine: engine,
		logger: logger,
	}
}

// RankRequestBody is the JSON payload for POST /v1/rank.
type RankRequestBody struct {
	Profile    catalog.Profile       `json:"profile"`
	Candidates []catalog.Opportunity `json:"candidates"`

	// TopK is optional; omitting it selects the server default, while an
	// explicit 0 requests an empty result list.
	TopK *int `json:"top_k,omitempty"`

	IncludeReasoning bool `json:"include_reasoning,omitempty"`
	MaxItems         int  `json:"max_items,omitempty"`
}

// Rank handles POST /v1/rank.
// Scores the candidate batch against the profile and returns the ranked
// result list with per-factor breakdowns and confidence.
func (h *RankHandlers) Rank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var body RankRequestBody
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRankBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	topK := -1
	if body.TopK != nil {
		if *body.TopK < 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "top_k must not be negative")
			return
		}
		topK = *body.TopK
	}

	ctx := middleware.SetUserID(r.Context(), body.Profile.UserID)
	middleware.UpdateResponseContext(w, ctx)

	result, err := h.engine.Rank(ctx, ranking.RankRequest{
		Profile:          body.Profile,
		Candidates:       body.Candidates,
		TopK:             topK,
		IncludeReasoning: body.IncludeReasoning,
		MaxItems:         body.MaxItems,
	})
	if err != nil {
		var validationErr *ranking.ValidationError
		if errors.As(err, &validationErr) {
			ctx := middleware.SetErrorCode(ctx, ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, validationErr.Error())
			return
		}
		h.logger.ErrorContext(ctx, "ranking failed", "error", err)
		ctx := middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to rank candidates")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode rank response", "error", err)
	}
}
