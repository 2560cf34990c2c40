// ABOUTME: HTTP handlers for the capacity planner API
// ABOUTME: Shared handler state plus JSON request and response helpers

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/markalston/inference-capacity-planner/cache"
	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/config"
	"github.com/markalston/inference-capacity-planner/middleware"
	"github.com/markalston/inference-capacity-planner/models"
	"github.com/markalston/inference-capacity-planner/services"
)

// maxRequestBodySize limits JSON request bodies to 1MB
const maxRequestBodySize = 1 << 20

// Error codes for failures outside the planner itself
const (
	errCodeBadRequest  = "BAD_REQUEST"
	errCodeUnavailable = "CATALOG_UNAVAILABLE"
	errCodeInternal    = "INTERNAL"
	errCodeReload      = "CATALOG_RELOAD_FAILED"
)

type Handler struct {
	cfg    *config.Config
	store  *catalog.Store
	ranker *services.Ranker
	cache  *cache.Cache[*models.RankResponse]
}

// NewHandler wires the API. A nil cfg uses the built-in ranking defaults and
// a nil cache disables response caching.
func NewHandler(cfg *config.Config, store *catalog.Store, c *cache.Cache[*models.RankResponse]) *Handler {
	defaults := services.DefaultRankDefaults
	if cfg != nil {
		defaults = services.RankDefaults{
			Alpha:            cfg.DefaultAlpha,
			Beta:             cfg.DefaultBeta,
			OutputTokenRatio: cfg.DefaultOutputTokenRatio,
		}
	}

	return &Handler{
		cfg:    cfg,
		store:  store,
		ranker: services.NewRanker(defaults),
		cache:  c,
	}
}

// snapshot returns the active catalog or writes a 503
func (h *Handler) snapshot(w http.ResponseWriter) (*catalog.Snapshot, bool) {
	if h.store == nil {
		h.writeErrorCode(w, "Catalog not configured", errCodeUnavailable, http.StatusServiceUnavailable)
		return nil, false
	}
	snap := h.store.Snapshot()
	if snap == nil {
		h.writeErrorCode(w, "Catalog snapshot not loaded", errCodeUnavailable, http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeErrorCode(w, message, "", code)
}

func (h *Handler) writeErrorCode(w http.ResponseWriter, message, errorCode string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error:     message,
		Code:      code,
		ErrorCode: errorCode,
	})
}

// writePlannerError maps pipeline errors onto HTTP statuses. Unexpected
// errors are logged and reported without detail.
func (h *Handler) writePlannerError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *models.PlannerError
	switch {
	case errors.As(err, &perr) && perr.Code == models.ErrCodeInvalidInput:
		resp := models.ErrorResponse{
			Error:     perr.Message,
			Code:      http.StatusBadRequest,
			ErrorCode: perr.Code,
		}
		if perr.Field != "" {
			resp.Details = "field: " + perr.Field
		}
		h.writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, catalog.ErrNoSnapshot):
		h.writeErrorCode(w, "Catalog snapshot not loaded", errCodeUnavailable, http.StatusServiceUnavailable)
	default:
		slog.Error("Ranking failed",
			"request_id", middleware.RequestID(r.Context()),
			"error", err)
		h.writeErrorCode(w, "Internal server error", errCodeInternal, http.StatusInternalServerError)
	}
}

// decodeJSON reads a size-limited JSON body into v, writing a 400 on failure
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.writeErrorCode(w, "Request body too large", errCodeBadRequest, http.StatusBadRequest)
		case errors.Is(err, io.EOF):
			h.writeErrorCode(w, "Request body is empty", errCodeBadRequest, http.StatusBadRequest)
		default:
			h.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Error:     "Invalid JSON",
				Details:   err.Error(),
				Code:      http.StatusBadRequest,
				ErrorCode: errCodeBadRequest,
			})
		}
		return false
	}
	return true
}
