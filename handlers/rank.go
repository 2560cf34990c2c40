// ABOUTME: Ranking endpoint handler
// ABOUTME: Validates the workload, serves cached rankings, and records metrics

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/markalston/inference-capacity-planner/metrics"
	"github.com/markalston/inference-capacity-planner/middleware"
	"github.com/markalston/inference-capacity-planner/models"
	"github.com/markalston/inference-capacity-planner/services"
)

// Rank returns the cheapest risk-adjusted plans for a workload.
// HTTP method validation handled by Go 1.22+ router pattern matching.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	var req models.RankRequest
	if !h.decodeJSON(w, r, &req) {
		metrics.RecordRankOutcome(metrics.OutcomeInvalidInput)
		return
	}

	snap, ok := h.snapshot(w)
	if !ok {
		metrics.RecordRankOutcome(metrics.OutcomeError)
		return
	}

	spec, opts, err := services.ResolveRequest(req, h.ranker.Defaults())
	if err != nil {
		metrics.RecordRankOutcome(metrics.OutcomeInvalidInput)
		h.writePlannerError(w, r, err)
		return
	}

	requestID := middleware.RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	key := rankCacheKey(snap.Version, spec, opts)
	if h.cache != nil {
		cached, found := h.cache.Get(key)
		metrics.RecordCacheLookup(found)
		if found {
			resp := *cached
			resp.RequestID = requestID
			resp.Cached = true
			metrics.RecordRankOutcome(metrics.OutcomeCached)
			h.writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	start := time.Now()
	resp, err := h.ranker.Rank(snap, spec, opts)
	if err != nil {
		metrics.RecordRankOutcome(metrics.OutcomeError)
		h.writePlannerError(w, r, err)
		return
	}
	metrics.RecordRank(time.Since(start), resp)

	slog.Info("Ranking completed",
		"request_id", requestID,
		"catalog_version", snap.Version,
		"model", spec.ModelBucket,
		"pattern", spec.TrafficPattern,
		"plans", len(resp.Plans),
		"excluded", resp.ExcludedCount)

	if h.cache != nil {
		h.cache.Set(key, resp)
	}

	out := *resp
	out.RequestID = requestID
	h.writeJSON(w, http.StatusOK, out)
}

// rankCacheKey identifies a ranking by catalog version and resolved inputs,
// so requests differing only in spelling or omitted defaults share an entry.
func rankCacheKey(version string, spec models.WorkloadSpec, opts models.RankOptions) string {
	b, err := json.Marshal(struct {
		Spec models.WorkloadSpec `json:"spec"`
		Opts models.RankOptions  `json:"opts"`
	}{spec, opts})
	if err != nil {
		// Unreachable for these plain structs; fall back to no sharing.
		return "rank:" + version + ":" + uuid.NewString()
	}
	return "rank:" + version + ":" + string(b)
}
