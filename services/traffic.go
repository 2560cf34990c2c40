// ABOUTME: Traffic normalizer converting daily token volume into peak throughput
// ABOUTME: Applies the pattern's active ratio and burst factor

package services

import (
	"fmt"

	"github.com/markalston/inference-capacity-planner/models"
)

// NormalizeTraffic converts tokens/day into the peak tokens/sec a deployment must sustain.
// Pure function: profiles come from the caller's snapshot.
func NormalizeTraffic(tokensPerDay int64, pattern models.TrafficPattern, profiles map[models.TrafficPattern]models.TrafficProfile) (models.NormalizedWorkload, error) {
	if tokensPerDay <= 0 {
		return models.NormalizedWorkload{}, models.NewInvalidInputError("tokens_per_day",
			fmt.Sprintf("must be positive, got %d", tokensPerDay))
	}

	profile, ok := profiles[pattern]
	if !ok {
		return models.NormalizedWorkload{}, models.NewInvalidInputError("traffic_pattern",
			fmt.Sprintf("no traffic profile for %q", pattern))
	}

	avg := float64(tokensPerDay) / models.SecondsPerDay

	return models.NormalizedWorkload{
		Pattern:         pattern,
		AvgTokS:         avg,
		RequiredPeakTPS: (avg / profile.ActiveRatio) * profile.BurstFactor,
		Efficiency:      profile.Efficiency,
		BatchMult:       profile.BatchMult,
		ActiveRatio:     profile.ActiveRatio,
		BurstFactor:     profile.BurstFactor,
	}, nil
}
