// ABOUTME: Ranker orchestrating normalization, enumeration, capacity, cost, and risk
// ABOUTME: Single-pass and stateless; safe to call concurrently against one snapshot

package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/models"
)

// WarningOverBudget is added when the budget filter removes every feasible candidate
const WarningOverBudget = "every feasible configuration exceeds the monthly budget"

// Ranker composes the planning pipeline
type Ranker struct {
	defaults RankDefaults
}

// NewRanker creates a ranker using defaults for omitted request knobs
func NewRanker(defaults RankDefaults) *Ranker {
	return &Ranker{defaults: defaults}
}

// Defaults returns the knobs applied to requests that omit them
func (r *Ranker) Defaults() RankDefaults {
	return r.defaults
}

// RankRequest validates an exposed request and ranks it
func (r *Ranker) RankRequest(snap *catalog.Snapshot, req models.RankRequest) (*models.RankResponse, error) {
	spec, opts, err := ResolveRequest(req, r.defaults)
	if err != nil {
		return nil, err
	}
	return r.Rank(snap, spec, opts)
}

type candidate struct {
	cfg      models.PlannerConfig
	capacity models.CapacityEstimate
	cost     models.CostBreakdown
	risk     models.RiskAssessment
	effCost  float64
	score    float64
}

// Rank runs the pipeline for a validated workload
func (r *Ranker) Rank(snap *catalog.Snapshot, spec models.WorkloadSpec, opts models.RankOptions) (*models.RankResponse, error) {
	if snap == nil {
		return nil, catalog.ErrNoSnapshot
	}

	workload, err := NormalizeTraffic(spec.TokensPerDay, spec.TrafficPattern, snap.TrafficProfiles)
	if err != nil {
		return nil, err
	}

	if _, ok := snap.Models[spec.ModelBucket]; !ok {
		return nil, models.NewInvalidInputError("model_bucket",
			fmt.Sprintf("model bucket %s is not in catalog %s", spec.ModelBucket, snap.Version))
	}

	enum := EnumerateConfigs(snap, spec.ModelBucket, opts.ProviderIDs, opts.OutputTokenRatio)
	diagnostics := enum.Diagnostics
	warnings := enum.Warnings

	candidates := make([]candidate, 0, len(enum.Configs))
	for _, cfg := range enum.Configs {
		c, diag, err := r.evaluate(snap, cfg, spec, workload, opts)
		if err != nil {
			return nil, err
		}
		if diag != nil {
			slog.Debug("Offering excluded", "offering", cfg.OfferingID, "status", diag.Status, "reason", diag.Reason)
			diagnostics = append(diagnostics, *diag)
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.cfg.ProviderID != b.cfg.ProviderID {
			return a.cfg.ProviderID < b.cfg.ProviderID
		}
		return a.cfg.OfferingID < b.cfg.OfferingID
	})

	summary := summarize(candidates)

	feasible := len(candidates)
	if opts.MonthlyBudgetMaxUSD != nil {
		budget := *opts.MonthlyBudgetMaxUSD
		within := candidates[:0:0]
		for _, c := range candidates {
			if c.cost.MonthlyCostUSD > budget {
				diagnostics = append(diagnostics, models.Diagnostic{
					Provider:   c.cfg.ProviderID,
					OfferingID: c.cfg.OfferingID,
					Status:     models.StatusOverBudget,
					Reason:     fmt.Sprintf("monthly cost $%.2f exceeds budget $%.2f", c.cost.MonthlyCostUSD, budget),
				})
				continue
			}
			within = append(within, c)
		}
		candidates = within
	}

	if len(candidates) > opts.TopK && opts.TopK > 0 {
		candidates = candidates[:opts.TopK]
	}

	plans := make([]models.RankedPlan, len(candidates))
	for i, c := range candidates {
		plans[i] = buildPlan(i+1, c, spec, workload, opts)
	}

	if len(plans) == 0 {
		warnings = append(warnings, models.WarningNoFeasible)
		if feasible > 0 {
			warnings = append(warnings, WarningOverBudget)
		}
	}

	for i := range diagnostics {
		diagnostics[i].Code = models.DiagnosticCode(diagnostics[i].Status)
	}

	slog.Debug("Ranking completed",
		"model", spec.ModelBucket,
		"pattern", spec.TrafficPattern,
		"candidates", feasible,
		"plans", len(plans),
		"excluded", len(diagnostics))

	return &models.RankResponse{
		CatalogVersion:      snap.Version,
		Workload:            workload,
		Plans:               plans,
		ProviderDiagnostics: nonNilDiagnostics(diagnostics),
		Warnings:            nonNilStrings(warnings),
		ExcludedCount:       len(diagnostics),
		Summary:             summary,
	}, nil
}

// evaluate returns a candidate, or a diagnostic when the config is skipped.
// A non-nil error aborts the whole ranking call.
func (r *Ranker) evaluate(snap *catalog.Snapshot, cfg models.PlannerConfig, spec models.WorkloadSpec, workload models.NormalizedWorkload, opts models.RankOptions) (candidate, *models.Diagnostic, error) {
	c := candidate{cfg: cfg}

	if cfg.BillingMode.IsGPUBacked() {
		est, err := ResolveCapacity(snap, cfg, spec.ModelBucket, workload, spec.UtilTarget)
		if err != nil {
			return c, nil, err
		}
		if !est.Feasible {
			return c, &models.Diagnostic{
				Provider:   cfg.ProviderID,
				OfferingID: cfg.OfferingID,
				Status:     models.StatusInsufficientCapacity,
				Reason:     est.Reason,
			}, nil
		}
		c.capacity = est
		c.risk = AssessRisk(est, spec, opts.Beta)
	} else {
		c.capacity = models.CapacityEstimate{Feasible: true, GPUCount: 1}
		c.risk = PerTokenRisk()
	}

	cost, err := CalculateCost(cfg, c.capacity.GPUCount, workload, spec.TokensPerDay)
	if err != nil {
		var perr *models.PlannerError
		if errors.As(err, &perr) && perr.Recoverable {
			return c, &models.Diagnostic{
				Provider:   cfg.ProviderID,
				OfferingID: cfg.OfferingID,
				Status:     models.StatusInvalidCatalogEntry,
				Reason:     perr.Message,
			}, nil
		}
		return c, nil, err
	}
	c.cost = cost

	c.effCost = cost.MonthlyCostUSD + c.risk.Penalties.Total
	c.score = c.effCost * (1 + opts.Alpha*c.risk.Risk.TotalRisk)
	return c, nil, nil
}

func buildPlan(rank int, c candidate, spec models.WorkloadSpec, workload models.NormalizedWorkload, opts models.RankOptions) models.RankedPlan {
	assumptions := map[string]float64{
		"util_target":     spec.UtilTarget,
		"alpha":           opts.Alpha,
		"beta":            opts.Beta,
		"hours_per_month": models.HoursPerMonth,
		"active_ratio":    workload.ActiveRatio,
		"efficiency":      workload.Efficiency,
		"batch_mult":      workload.BatchMult,
		"burst_factor":    workload.BurstFactor,
	}
	if c.cfg.BillingMode.IsGPUBacked() {
		assumptions["raw_tps"] = c.capacity.RawTPS
		assumptions["effective_gpu_tps"] = c.capacity.EffectiveGPUTPS
		assumptions["hourly_rate"] = c.cfg.HourlyRate
	} else {
		assumptions["price_per_m_tokens"] = c.cfg.PricePerMTokens
		if c.cfg.Blended {
			assumptions["output_token_ratio"] = opts.OutputTokenRatio
		}
	}

	return models.RankedPlan{
		Rank:                rank,
		OfferingID:          c.cfg.OfferingID,
		ProviderID:          c.cfg.ProviderID,
		ProviderName:        c.cfg.ProviderName,
		BillingMode:         c.cfg.BillingMode,
		GPUType:             c.cfg.GPUType,
		GPUCount:            c.capacity.GPUCount,
		MonthlyCostUSD:      c.cost.MonthlyCostUSD,
		EffectiveCostUSD:    c.effCost,
		Score:               c.score,
		CostPerMTokens:      c.cost.CostPerMTokens,
		IdleWasteUSD:        c.cost.IdleWasteUSD,
		IdleWastePct:        c.cost.IdleWastePct,
		ActiveHoursPerMonth: c.cost.ActiveHoursPerMonth,
		UtilizationRatio:    c.capacity.UtilizationRatio,
		UtilizationAtPeak:   c.capacity.UtilizationAfter,
		RiskBand:            c.risk.Band,
		Risk:                c.risk.Risk,
		Penalties:           c.risk.Penalties,
		Confidence:          c.cfg.Confidence,
		Assumptions:         assumptions,
		Why:                 explain(c),
	}
}

func explain(c candidate) string {
	var b strings.Builder
	if c.cfg.BillingMode == models.BillingPerToken {
		fmt.Fprintf(&b, "%s per-token at $%.2f/M tokens costs $%.2f/mo with no capacity to manage",
			c.cfg.ProviderID, c.cfg.PricePerMTokens, c.cost.MonthlyCostUSD)
		if c.cfg.Blended {
			b.WriteString(" (blended input/output price)")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%d x %s on %s (%s) costs $%.2f/mo at %.0f%% peak utilization, %s risk",
		c.capacity.GPUCount, c.cfg.GPUType, c.cfg.ProviderID, c.cfg.BillingMode,
		c.cost.MonthlyCostUSD, c.capacity.UtilizationAfter*100, c.risk.Band)
	if c.cost.IdleWastePct > 0 {
		fmt.Fprintf(&b, "; %.0f%% of spend is idle", c.cost.IdleWastePct)
	}
	if c.risk.Penalties.Total > 0 {
		fmt.Fprintf(&b, "; includes $%.0f in penalties", c.risk.Penalties.Total)
	}
	return b.String()
}

func summarize(candidates []candidate) models.CostSummary {
	if len(candidates) == 0 {
		return models.CostSummary{}
	}
	costs := make([]float64, len(candidates))
	for i, c := range candidates {
		costs[i] = c.cost.MonthlyCostUSD
	}
	sort.Float64s(costs)

	return models.CostSummary{
		Candidates:       len(costs),
		MinMonthlyUSD:    floats.Min(costs),
		MedianMonthlyUSD: stat.Quantile(0.5, stat.Empirical, costs, nil),
		MeanMonthlyUSD:   stat.Mean(costs, nil),
		MaxMonthlyUSD:    floats.Max(costs),
	}
}

func nonNilDiagnostics(d []models.Diagnostic) []models.Diagnostic {
	if d == nil {
		return []models.Diagnostic{}
	}
	return d
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
