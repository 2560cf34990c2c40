// ABOUTME: Tests for enumeration, capacity scaling, cost, and risk scoring
// ABOUTME: Uses the embedded catalog plus hand-built configs for edge cases

package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/models"
)

func configIDs(configs []models.PlannerConfig) []string {
	ids := make([]string, len(configs))
	for i, c := range configs {
		ids[i] = c.OfferingID
	}
	return ids
}

func TestBlendTokenPrice(t *testing.T) {
	assert.InDelta(t, 0.16, BlendTokenPrice(0.10, 0.18, 3), 1e-12)
	assert.InDelta(t, 0.10, BlendTokenPrice(0.10, 0.18, 0), 1e-12)
	assert.InDelta(t, 0.14, BlendTokenPrice(0.10, 0.18, 1), 1e-12)
}

func TestEnumerateConfigs_MemoryGate(t *testing.T) {
	snap := defaultSnapshot(t)

	enum := EnumerateConfigs(snap, models.Model405B, []string{"runpod"}, 3)

	assert.Empty(t, enum.Configs)
	require.Len(t, enum.Diagnostics, 1)
	assert.Equal(t, models.Diagnostic{
		Provider:   "runpod",
		OfferingID: "runpod-a100-80gb",
		Status:     models.StatusInsufficient,
		Reason:     "requires 400gb, has 80gb",
	}, enum.Diagnostics[0])
}

func TestEnumerateConfigs_SortedAndFiltered(t *testing.T) {
	snap := defaultSnapshot(t)

	enum := EnumerateConfigs(snap, models.Model70B, nil, 3)

	assert.Equal(t, []string{
		"baseten-h100-80gb-x8",
		"fireworks-a100-80gb",
		"fireworks-b200-180gb",
		"fireworks-h100-80gb",
		"fireworks-h200-141gb",
		"replicate-a100-80gb",
		"runpod-a100-80gb",
		"together-llama-70b",
		"vast_ai-a100-80gb",
	}, configIDs(enum.Configs))

	require.Len(t, enum.Diagnostics, 1)
	assert.Equal(t, "modal", enum.Diagnostics[0].Provider)
	assert.Equal(t, models.StatusInsufficient, enum.Diagnostics[0].Status)
	assert.Equal(t, "requires 80gb, has 40gb", enum.Diagnostics[0].Reason)
}

func TestEnumerateConfigs_BlendsSplitSKUs(t *testing.T) {
	snap := defaultSnapshot(t)

	enum := EnumerateConfigs(snap, models.Model8B, []string{"together"}, 3)

	require.Len(t, enum.Configs, 1)
	cfg := enum.Configs[0]
	assert.Equal(t, "together-llama-8b", cfg.OfferingID)
	assert.Equal(t, models.BillingPerToken, cfg.BillingMode)
	assert.True(t, cfg.Blended)
	assert.InDelta(t, 0.16, cfg.PricePerMTokens, 1e-12)
}

func TestEnumerateConfigs_UnpairedSKUUsesAvailableSide(t *testing.T) {
	snap := defaultSnapshot(t)
	snap.Offerings = []catalog.Offering{{
		OfferingID:      "acme-8b-output",
		ProviderID:      "acme",
		BillingMode:     "per_token",
		ModelBucket:     "8b",
		TokenDirection:  catalog.DirectionOutput,
		PricePerMTokens: 0.4,
	}}

	enum := EnumerateConfigs(snap, models.Model8B, nil, 3)

	require.Len(t, enum.Configs, 1)
	assert.False(t, enum.Configs[0].Blended)
	assert.InDelta(t, 0.4, enum.Configs[0].PricePerMTokens, 1e-12)
	assert.Equal(t, defaultConfidence, enum.Configs[0].Confidence)
}

func TestEnumerateConfigs_DuplicateDirectionSKU(t *testing.T) {
	snap := defaultSnapshot(t)
	row := func(id, direction string, price float64) catalog.Offering {
		return catalog.Offering{
			OfferingID:      id,
			ProviderID:      "acme",
			BillingMode:     "per_token",
			ModelBucket:     "8b",
			TokenDirection:  direction,
			PricePerMTokens: price,
		}
	}
	snap.Offerings = []catalog.Offering{
		row("acme-8b-input", catalog.DirectionInput, 0.10),
		row("acme-8b-output", catalog.DirectionOutput, 0.18),
		row("acme-8b-input-v2", catalog.DirectionInput, 0.50),
	}

	enum := EnumerateConfigs(snap, models.Model8B, nil, 3)

	require.Len(t, enum.Configs, 1)
	assert.Equal(t, "acme-8b", enum.Configs[0].OfferingID)
	assert.InDelta(t, 0.16, enum.Configs[0].PricePerMTokens, 1e-12)

	require.Len(t, enum.Diagnostics, 1)
	d := enum.Diagnostics[0]
	assert.Equal(t, "acme-8b-input-v2", d.OfferingID)
	assert.Equal(t, models.StatusInvalidCatalogEntry, d.Status)
	assert.Contains(t, d.Reason, "acme-8b-input")
}

func TestEnumerateConfigs_UnknownAndUnavailableProviders(t *testing.T) {
	snap := defaultSnapshot(t)

	enum := EnumerateConfigs(snap, models.ModelMixtral8x7B, []string{"together", "nosuch"}, 3)

	assert.Empty(t, enum.Configs)
	require.Len(t, enum.Diagnostics, 2)
	assert.Equal(t, models.StatusUnknownProvider, enum.Diagnostics[0].Status)
	assert.Equal(t, "nosuch", enum.Diagnostics[0].Provider)
	assert.Equal(t, models.StatusModelUnavailable, enum.Diagnostics[1].Status)
	assert.Equal(t, "together", enum.Diagnostics[1].Provider)
	require.Len(t, enum.Warnings, 1)
	assert.Contains(t, enum.Warnings[0], "nosuch")
}

func TestEnumerateConfigs_CanonicalizesThroughputKeys(t *testing.T) {
	snap := defaultSnapshot(t)

	enum := EnumerateConfigs(snap, models.Model405B, []string{"baseten"}, 3)

	require.Len(t, enum.Configs, 1)
	assert.InDelta(t, 22400, enum.Configs[0].ThroughputByModel[models.Model405B], 1e-9)
	assert.Equal(t, 640, enum.Configs[0].MemoryGB)
}

func TestGPUCount(t *testing.T) {
	tests := []struct {
		ratio, target float64
		want          int
	}{
		{1.8, 0.75, 3},
		{0.75, 0.75, 1},
		{0.76, 0.75, 2},
		{0.0005, 0.75, 1},
		{4.0, 1.0, 4},
		{7.5, 0.75, 10},
		{1024, 1.0, 1024},
	}

	for _, tt := range tests {
		got, ok := GPUCount(tt.ratio, tt.target)
		assert.True(t, ok, "ratio=%v target=%v", tt.ratio, tt.target)
		assert.Equal(t, tt.want, got, "ratio=%v target=%v", tt.ratio, tt.target)
	}
}

func TestGPUCount_RefusesCountsPastCap(t *testing.T) {
	for _, tt := range []struct{ ratio, target float64 }{
		{1025, 1.0},
		{0.5, 1e-300},
		{math.Inf(1), 0.75},
	} {
		_, ok := GPUCount(tt.ratio, tt.target)
		assert.False(t, ok, "ratio=%v target=%v", tt.ratio, tt.target)
	}
}

func TestResolveCapacity_OverCapIsInfeasible(t *testing.T) {
	snap := defaultSnapshot(t)
	cfg := models.PlannerConfig{OfferingID: "x", GPUType: "a100_80gb", BillingMode: models.BillingDedicatedHourly}
	// 8500 effective tps per GPU; 2000 GPUs worth of demand
	workload := models.NormalizedWorkload{RequiredPeakTPS: 8500 * 2000, Efficiency: 0.85, BatchMult: 1.25, ActiveRatio: 1}

	est, err := ResolveCapacity(snap, cfg, models.Model70B, workload, 1.0)
	require.NoError(t, err)
	assert.False(t, est.Feasible)
	assert.Contains(t, est.Reason, "more than 1024")
}

func TestResolveCapacity_ScalesOut(t *testing.T) {
	snap := defaultSnapshot(t)
	cfg := models.PlannerConfig{OfferingID: "x", GPUType: "a100_80gb", BillingMode: models.BillingDedicatedHourly}
	// 8000 raw * 0.85 * 1.25 = 8500 effective; 15300 / 8500 = 1.8
	workload := models.NormalizedWorkload{RequiredPeakTPS: 15300, Efficiency: 0.85, BatchMult: 1.25, ActiveRatio: 1}

	est, err := ResolveCapacity(snap, cfg, models.Model70B, workload, 0.75)
	require.NoError(t, err)

	assert.True(t, est.Feasible)
	assert.InDelta(t, 8000, est.RawTPS, 1e-9)
	assert.InDelta(t, 8500, est.EffectiveGPUTPS, 1e-9)
	assert.InDelta(t, 1.8, est.UtilizationRatio, 1e-9)
	assert.Equal(t, 3, est.GPUCount)
	assert.InDelta(t, 0.6, est.UtilizationAfter, 1e-9)
	assert.LessOrEqual(t, est.UtilizationAfter, est.UtilizationRatio)
}

func TestRawThroughput_Precedence(t *testing.T) {
	snap := defaultSnapshot(t)

	override := models.PlannerConfig{
		GPUType:           "a100_80gb",
		ThroughputByModel: map[models.ModelBucket]float64{models.Model70B: 9999},
	}
	tps, ok := RawThroughput(snap, override, models.Model70B)
	assert.True(t, ok)
	assert.InDelta(t, 9999, tps, 1e-9)

	table := models.PlannerConfig{GPUType: "a100_80gb"}
	tps, _ = RawThroughput(snap, table, models.Model70B)
	assert.InDelta(t, 8000, tps, 1e-9)

	fallback := models.PlannerConfig{GPUType: "h100_80gb_x8"}
	tps, _ = RawThroughput(snap, fallback, models.Model70B)
	assert.InDelta(t, 120000, tps, 1e-9)

	_, ok = RawThroughput(snap, models.PlannerConfig{GPUType: "tpu_v5"}, models.Model70B)
	assert.False(t, ok)
}

func TestResolveCapacity_InfeasibleIsTaggedResult(t *testing.T) {
	snap := defaultSnapshot(t)
	cfg := models.PlannerConfig{OfferingID: "x", GPUType: "tpu_v5"}

	est, err := ResolveCapacity(snap, cfg, models.Model8B, models.NormalizedWorkload{Efficiency: 1, BatchMult: 1}, 0.75)
	require.NoError(t, err)
	assert.False(t, est.Feasible)
	assert.Contains(t, est.Reason, "tpu_v5")
}

func TestResolveCapacity_NonPositiveEffectiveThroughput(t *testing.T) {
	snap := defaultSnapshot(t)
	cfg := models.PlannerConfig{OfferingID: "x", GPUType: "a100_80gb"}

	_, err := ResolveCapacity(snap, cfg, models.Model8B, models.NormalizedWorkload{Efficiency: 0, BatchMult: 1}, 0.75)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestCalculateCost_Autoscale(t *testing.T) {
	cfg := models.PlannerConfig{BillingMode: models.BillingAutoscale, HourlyRate: 4.0}
	workload := models.NormalizedWorkload{ActiveRatio: 0.4}

	cost, err := CalculateCost(cfg, 2, workload, 1_000_000)
	require.NoError(t, err)

	assert.InDelta(t, 288, cost.ActiveHoursPerMonth, 1e-9)
	assert.InDelta(t, 2304, cost.MonthlyCostUSD, 1e-9)
	assert.Zero(t, cost.IdleWasteUSD)
	assert.Zero(t, cost.IdleWastePct)
	assert.InDelta(t, 76.8, cost.CostPerMTokens, 1e-9)
}

func TestCalculateCost_DedicatedBusinessHours(t *testing.T) {
	cfg := models.PlannerConfig{BillingMode: models.BillingDedicatedHourly, HourlyRate: 1.89}
	workload := models.NormalizedWorkload{ActiveRatio: 0.238}

	cost, err := CalculateCost(cfg, 1, workload, 1_000_000)
	require.NoError(t, err)

	assert.InDelta(t, 1360.80, cost.MonthlyCostUSD, 1e-9)
	assert.InDelta(t, 171.36, cost.ActiveHoursPerMonth, 1e-9)
	assert.InDelta(t, 1036.93, cost.IdleWasteUSD, 1e-9)
	assert.InDelta(t, 76.2, cost.IdleWastePct, 1e-9)
	assert.LessOrEqual(t, cost.IdleWasteUSD, cost.MonthlyCostUSD)
}

func TestCalculateCost_PerToken(t *testing.T) {
	cfg := models.PlannerConfig{BillingMode: models.BillingPerToken, PricePerMTokens: 2.0}

	cost, err := CalculateCost(cfg, 7, models.NormalizedWorkload{ActiveRatio: 1}, 1_000_000)
	require.NoError(t, err)

	assert.InDelta(t, 60, cost.MonthlyCostUSD, 1e-9)
	assert.InDelta(t, 30_000_000, cost.MonthlyTokens, 1e-9)
	assert.InDelta(t, 2.0, cost.CostPerMTokens, 1e-9)
	assert.Zero(t, cost.IdleWasteUSD)
}

func TestCalculateCost_DedicatedSteadyHasNoIdle(t *testing.T) {
	cfg := models.PlannerConfig{BillingMode: models.BillingDedicatedPerSecond, HourlyRate: 10.08}

	cost, err := CalculateCost(cfg, 1, models.NormalizedWorkload{ActiveRatio: 1}, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 7257.6, cost.MonthlyCostUSD, 1e-9)
	assert.Zero(t, cost.IdleWasteUSD)
	assert.Zero(t, cost.IdleWastePct)
}

func TestCalculateCost_InvalidRates(t *testing.T) {
	tests := []models.PlannerConfig{
		{OfferingID: "a", BillingMode: models.BillingDedicatedHourly, HourlyRate: 0},
		{OfferingID: "b", BillingMode: models.BillingAutoscale, HourlyRate: -1},
		{OfferingID: "c", BillingMode: models.BillingPerToken, PricePerMTokens: 0},
	}

	for _, cfg := range tests {
		_, err := CalculateCost(cfg, 1, models.NormalizedWorkload{ActiveRatio: 1}, 1000)
		require.Error(t, err, cfg.OfferingID)
		assert.True(t, errors.Is(err, models.ErrInvalidCatalogEntry), cfg.OfferingID)
	}
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, models.RiskLow, BandFor(0.0))
	assert.Equal(t, models.RiskLow, BandFor(0.50))
	assert.Equal(t, models.RiskMedium, BandFor(0.51))
	assert.Equal(t, models.RiskMedium, BandFor(0.75))
	assert.Equal(t, models.RiskHigh, BandFor(0.76))
}

func TestAssessRisk_Penalties(t *testing.T) {
	strict := models.WorkloadSpec{UtilTarget: 0.75, LatencyRequirementMs: ptr(200)}
	relaxed := models.WorkloadSpec{UtilTarget: 0.75, LatencyRequirementMs: ptr(500)}
	atThreshold := models.WorkloadSpec{UtilTarget: 0.75, LatencyRequirementMs: ptr(300)}

	tests := []struct {
		name     string
		est      models.CapacityEstimate
		spec     models.WorkloadSpec
		overload float64
		scaling  float64
		latency  float64
	}{
		{"quiet", models.CapacityEstimate{UtilizationAfter: 0.3, GPUCount: 1}, strict, 0, 0, 0},
		{"at overload threshold", models.CapacityEstimate{UtilizationAfter: 0.90, GPUCount: 1}, relaxed, 0, 0, 0},
		{"overloaded strict", models.CapacityEstimate{UtilizationAfter: 0.95, GPUCount: 1}, strict, 10_000, 0, 30_000},
		{"overloaded relaxed", models.CapacityEstimate{UtilizationAfter: 0.95, GPUCount: 1}, relaxed, 10_000, 0, 0},
		{"beyond full", models.CapacityEstimate{UtilizationAfter: 1.2, GPUCount: 1}, relaxed, 60_000, 0, 0},
		{"eight gpus", models.CapacityEstimate{UtilizationAfter: 0.6, GPUCount: 8}, strict, 0, 0, 0},
		{"ten gpus", models.CapacityEstimate{UtilizationAfter: 0.6, GPUCount: 10}, strict, 0, 100_000, 0},
		{"high band strict", models.CapacityEstimate{UtilizationAfter: 0.8, GPUCount: 2}, strict, 0, 0, 30_000},
		{"high band at latency threshold", models.CapacityEstimate{UtilizationAfter: 0.8, GPUCount: 2}, atThreshold, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AssessRisk(tt.est, tt.spec, 0.08)
			assert.InDelta(t, tt.overload, r.Penalties.Overload, 1e-6)
			assert.InDelta(t, tt.scaling, r.Penalties.Scaling, 1e-6)
			assert.InDelta(t, tt.latency, r.Penalties.Latency, 1e-6)
			assert.InDelta(t, tt.overload+tt.scaling+tt.latency, r.Penalties.Total, 1e-6)
		})
	}
}

func TestAssessRisk_TotalRisk(t *testing.T) {
	spec := models.WorkloadSpec{UtilTarget: 0.75}

	r := AssessRisk(models.CapacityEstimate{UtilizationAfter: 0.6, GPUCount: 3}, spec, 0.08)
	assert.Equal(t, models.RiskMedium, r.Band)
	assert.Zero(t, r.Risk.RiskOverload)
	assert.InDelta(t, 0.16, r.Risk.RiskComplexity, 1e-9)
	assert.InDelta(t, 0.064, r.Risk.TotalRisk, 1e-9)

	r = AssessRisk(models.CapacityEstimate{UtilizationAfter: 0.95, GPUCount: 1}, spec, 0.08)
	assert.InDelta(t, 0.8, r.Risk.RiskOverload, 1e-9)
	assert.Zero(t, r.Risk.RiskComplexity)
	assert.InDelta(t, 0.48, r.Risk.TotalRisk, 1e-9)

	r = AssessRisk(models.CapacityEstimate{UtilizationAfter: 2.0, GPUCount: 40}, spec, 0.08)
	assert.InDelta(t, 1.0, r.Risk.TotalRisk, 1e-9)
}

func TestAssessRisk_FullUtilTarget(t *testing.T) {
	spec := models.WorkloadSpec{UtilTarget: 1.0}

	assert.Zero(t, AssessRisk(models.CapacityEstimate{UtilizationAfter: 0.99, GPUCount: 1}, spec, 0).Risk.RiskOverload)
	assert.InDelta(t, 1.0, AssessRisk(models.CapacityEstimate{UtilizationAfter: 1.01, GPUCount: 1}, spec, 0).Risk.RiskOverload, 1e-9)
}

func TestPerTokenRisk(t *testing.T) {
	r := PerTokenRisk()
	assert.Equal(t, models.RiskLow, r.Band)
	assert.Zero(t, r.Penalties.Total)
	assert.Zero(t, r.Risk.TotalRisk)
}
