package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yojanahub/avsar/internal/ranking"
)

func newTestRankHandlers(t *testing.T) *RankHandlers {
	t.Helper()
	engine, err := ranking.NewEngine(ranking.EngineConfig{Weights: *ranking.DefaultWeights()})
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	return NewRankHandlers(engine, nil)
}

const rankBody = `{
	"profile": {
		"user_id": "user-1",
		"education": "graduate",
		"age": 25,
		"state": "Bihar",
		"categories": ["Railway"]
	},
	"candidates": [
		{"id": "bank-po", "category": "Bank", "education_required": "postgraduate", "age_min": 21, "age_max": 28, "state": "Delhi", "salary": "₹50,000"},
		{"id": "railway-clerk", "category": "Railway", "education_required": "graduate", "age_min": 18, "age_max": 30, "state": "all", "salary": "₹35,000"}
	]
}`

// TestRankEndpoint verifies the happy path response shape and ordering.
func TestRankEndpoint(t *testing.T) {
	handlers := newTestRankHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(rankBody))
	rec := httptest.NewRecorder()
	handlers.Rank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result ranking.RankResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Results))
	}
	if result.Results[0].ID != "railway-clerk" {
		t.Errorf("top result = %s, want railway-clerk", result.Results[0].ID)
	}
	if result.ScoringMethod != ranking.MethodRule {
		t.Errorf("scoring method = %q, want %q", result.ScoringMethod, ranking.MethodRule)
	}
	if result.Results[0].Confidence <= 0 || result.Results[0].Confidence > 1 {
		t.Errorf("confidence %f outside (0,1]", result.Results[0].Confidence)
	}
}

// TestRankEndpointTopKZero verifies an explicit zero yields an empty
// list rather than the server default.
func TestRankEndpointTopKZero(t *testing.T) {
	handlers := newTestRankHandlers(t)

	body := strings.Replace(rankBody, `"candidates"`, `"top_k": 0, "candidates"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.Rank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result ranking.RankResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("got %d results, want 0 for top_k=0", len(result.Results))
	}
}

// TestRankEndpointErrors covers the error envelope for bad requests.
func TestRankEndpointErrors(t *testing.T) {
	handlers := newTestRankHandlers(t)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       "",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "invalid json",
			method:     http.MethodPost,
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			body:       `{"profile":{"user_id":"u"},"sort_by":"salary"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "missing user id",
			method:     http.MethodPost,
			body:       `{"profile":{"age":25},"candidates":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "negative top_k",
			method:     http.MethodPost,
			body:       `{"profile":{"user_id":"u"},"candidates":[],"top_k":-1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/rank", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handlers.Rank(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", errResp.Error.Code, tt.wantCode)
			}
			if errResp.Error.Message == "" {
				t.Error("error message is empty")
			}
		})
	}
}

// TestRankEndpointSkippedCandidates verifies partial batches surface
// skipped entries.
func TestRankEndpointSkippedCandidates(t *testing.T) {
	handlers := newTestRankHandlers(t)

	body := `{
		"profile": {"user_id": "user-1", "education": "graduate", "age": 25, "state": "Bihar", "categories": ["Railway"]},
		"candidates": [
			{"id": "", "category": "Railway"},
			{"id": "ok", "category": "Railway", "state": "all"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.Rank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result ranking.RankResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Results) != 1 || len(result.Skipped) != 1 {
		t.Errorf("got %d results and %d skipped, want 1 and 1", len(result.Results), len(result.Skipped))
	}
}
