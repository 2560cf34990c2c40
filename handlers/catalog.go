// ABOUTME: HTTP handlers for health and catalog listings
// ABOUTME: Exposes providers, model buckets, traffic patterns, and catalog reload

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/markalston/inference-capacity-planner/middleware"
	"github.com/markalston/inference-capacity-planner/models"
)

// Health reports whether a catalog snapshot is loaded. Returns 503 until the
// first successful load so orchestrators hold traffic back.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Snapshot() == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "unavailable"})
		return
	}

	snap := h.store.Snapshot()
	h.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:         "ok",
		CatalogVersion: snap.Version,
		Offerings:      len(snap.Offerings),
		Providers:      len(snap.ProviderIDs()),
		LoadedAt:       snap.LoadedAt,
		Source:         snap.Source,
	})
}

// Providers lists catalog providers with their offering counts.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Providers())
}

// Models lists model buckets with their memory requirement.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.ModelInfos())
}

// TrafficPatterns returns the traffic profile table.
func (h *Handler) TrafficPatterns(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.TrafficPatternInfos())
}

// ReloadCatalog re-reads the configured catalog source. Cached rankings are
// dropped when the version changes; on failure the previous snapshot stays.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeErrorCode(w, "Catalog not configured", errCodeUnavailable, http.StatusServiceUnavailable)
		return
	}

	var previous string
	if prev := h.store.Snapshot(); prev != nil {
		previous = prev.Version
	}

	snap, err := h.store.Reload(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusBadGateway, models.ErrorResponse{
			Error:     "Catalog reload failed",
			Details:   err.Error(),
			Code:      http.StatusBadGateway,
			ErrorCode: errCodeReload,
		})
		return
	}

	changed := snap.Version != previous
	if changed {
		if h.cache != nil {
			h.cache.Purge()
		}
		slog.Info("Catalog reloaded via API",
			"request_id", middleware.RequestID(r.Context()),
			"previous_version", previous,
			"catalog_version", snap.Version)
	}

	h.writeJSON(w, http.StatusOK, models.ReloadResponse{
		CatalogVersion:  snap.Version,
		PreviousVersion: previous,
		Offerings:       len(snap.Offerings),
		Changed:         changed,
	})
}
