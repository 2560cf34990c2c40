// ABOUTME: Capacity resolver for single-GPU throughput and multi-GPU scaling
// ABOUTME: Infeasibility is returned as a tagged result, not an error

package services

import (
	"fmt"
	"math"

	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/models"
)

// RawThroughput picks the single-GPU tokens/sec for a config and model.
// Precedence: offering override, then capacity table, then GPU default.
// Non-positive values are treated as absent.
func RawThroughput(snap *catalog.Snapshot, cfg models.PlannerConfig, bucket models.ModelBucket) (float64, bool) {
	if tps := cfg.ThroughputByModel[bucket]; tps > 0 {
		return tps, true
	}
	if tps := snap.CapacityTable[cfg.GPUType][bucket]; tps > 0 {
		return tps, true
	}
	if tps := snap.GPUs[cfg.GPUType].TokensPerSecond; tps > 0 {
		return tps, true
	}
	return 0, false
}

// ResolveCapacity computes utilization and GPU count for a GPU-backed config.
// An error means the snapshot produced a non-positive effective throughput.
func ResolveCapacity(snap *catalog.Snapshot, cfg models.PlannerConfig, bucket models.ModelBucket, workload models.NormalizedWorkload, utilTarget float64) (models.CapacityEstimate, error) {
	raw, ok := RawThroughput(snap, cfg, bucket)
	if !ok {
		return models.CapacityEstimate{
			Feasible: false,
			Reason:   fmt.Sprintf("no throughput data for %s on %s", bucket, cfg.GPUType),
		}, nil
	}

	effective := raw * workload.Efficiency * workload.BatchMult
	if effective <= 0 {
		return models.CapacityEstimate{}, models.NewInvalidInputError("effective_gpu_tps",
			fmt.Sprintf("non-positive effective throughput %g for offering %s", effective, cfg.OfferingID))
	}

	ratio := workload.RequiredPeakTPS / effective
	count, ok := GPUCount(ratio, utilTarget)
	if !ok {
		reason := fmt.Sprintf("needs more than %d x %s at %.0f%% target utilization",
			models.MaxGPUCount, cfg.GPUType, utilTarget*100)
		return models.CapacityEstimate{Feasible: false, Reason: reason}, nil
	}

	return models.CapacityEstimate{
		Feasible:         true,
		RawTPS:           raw,
		EffectiveGPUTPS:  effective,
		UtilizationRatio: ratio,
		GPUCount:         count,
		UtilizationAfter: ratio / float64(count),
	}, nil
}

// GPUCount scales out only when utilization exceeds the target.
// It reports false when the count would exceed models.MaxGPUCount.
func GPUCount(utilizationRatio, utilTarget float64) (int, bool) {
	if utilizationRatio <= utilTarget {
		return 1, true
	}
	needed := math.Ceil(utilizationRatio / utilTarget)
	if math.IsNaN(needed) || needed > models.MaxGPUCount {
		return 0, false
	}
	return int(needed), true
}
