// ABOUTME: Risk and penalty scorer for post-scaling utilization
// ABOUTME: Produces a risk band, dollar penalties, and a normalized total risk

package services

import "github.com/markalston/inference-capacity-planner/models"

// Penalty ramps and thresholds
const (
	lowBandMax    = 0.50
	mediumBandMax = 0.75

	overloadThreshold  = 0.90
	overloadRampWidth  = 0.10
	overloadPenaltyUSD = 20_000.0
	scalingPenaltyUSD  = 50_000.0
	latencyPenaltyUSD  = 30_000.0

	overloadWeight   = 0.6
	complexityWeight = 0.4
)

// BandFor classifies post-scaling utilization
func BandFor(utilizationAfter float64) models.RiskBand {
	switch {
	case utilizationAfter <= lowBandMax:
		return models.RiskLow
	case utilizationAfter <= mediumBandMax:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// AssessRisk scores a feasible GPU-backed capacity estimate
func AssessRisk(est models.CapacityEstimate, spec models.WorkloadSpec, beta float64) models.RiskAssessment {
	band := BandFor(est.UtilizationAfter)

	var p models.Penalties
	if est.UtilizationAfter > overloadThreshold {
		p.Overload = overloadPenaltyUSD * (est.UtilizationAfter - overloadThreshold) / overloadRampWidth
	}
	if est.GPUCount > models.MaxGPUsBeforePenalty {
		p.Scaling = scalingPenaltyUSD * float64(est.GPUCount-models.MaxGPUsBeforePenalty)
	}
	if spec.StrictLatency() && band == models.RiskHigh {
		p.Latency = latencyPenaltyUSD
	}
	p.Total = p.Overload + p.Scaling + p.Latency

	overload := overloadRisk(est.UtilizationAfter, spec.UtilTarget)
	excess := float64(max(0, est.GPUCount-models.MaxGPUsBeforePenalty)) / models.MaxGPUsBeforePenalty
	complexity := clamp01(beta*float64(est.GPUCount-1) + excess)

	return models.RiskAssessment{
		Band: band,
		Risk: models.RiskScore{
			RiskOverload:   overload,
			RiskComplexity: complexity,
			TotalRisk:      clamp01(overloadWeight*overload + complexityWeight*complexity),
		},
		Penalties: p,
	}
}

// PerTokenRisk is the assessment for per-token billing, where the provider owns capacity
func PerTokenRisk() models.RiskAssessment {
	return models.RiskAssessment{Band: models.RiskLow}
}

func overloadRisk(utilization, target float64) float64 {
	if target >= 1 {
		if utilization <= 1 {
			return 0
		}
		return 1
	}
	return clamp01((utilization - target) / (1 - target))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
