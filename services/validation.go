// ABOUTME: Input validation and defaulting for ranking requests
// ABOUTME: Turns an exposed RankRequest into a WorkloadSpec plus resolved options

package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markalston/inference-capacity-planner/models"
)

// providerIDPattern matches catalog provider ids (alphanumeric, hyphens, underscores, dots)
var providerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// RankDefaults supplies values for optional request knobs
type RankDefaults struct {
	Alpha            float64
	Beta             float64
	OutputTokenRatio float64
}

// DefaultRankDefaults are used when no configuration overrides them
var DefaultRankDefaults = RankDefaults{Alpha: 1.0, Beta: 0.08, OutputTokenRatio: 3.0}

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// ValidateProviderID validates that a provider id has a safe format
func ValidateProviderID(id string) error {
	if id == "" {
		return models.NewInvalidInputError("provider_ids", "provider id cannot be empty")
	}
	if !providerIDPattern.MatchString(id) {
		return models.NewInvalidInputError("provider_ids",
			fmt.Sprintf("invalid provider id format: %s", sanitizeForLog(id)))
	}
	return nil
}

// ResolveRequest validates req and fills defaults. Any failure is an INVALID_INPUT
// PlannerError and no computation should run.
func ResolveRequest(req models.RankRequest, defaults RankDefaults) (models.WorkloadSpec, models.RankOptions, error) {
	var spec models.WorkloadSpec
	var opts models.RankOptions

	if req.TokensPerDay <= 0 {
		return spec, opts, models.NewInvalidInputError("tokens_per_day",
			fmt.Sprintf("must be positive, got %d", req.TokensPerDay))
	}

	bucket, err := models.ParseModelBucket(req.ModelBucket)
	if err != nil {
		return spec, opts, err
	}

	pattern, err := models.ParseTrafficPattern(req.TrafficPattern)
	if err != nil {
		return spec, opts, err
	}

	utilTarget := req.UtilTarget
	if utilTarget == 0 {
		utilTarget = models.DefaultUtilTarget
	}
	if utilTarget < models.MinUtilTarget || utilTarget > 1 {
		return spec, opts, models.NewInvalidInputError("util_target",
			fmt.Sprintf("must be in [%g, 1], got %g", models.MinUtilTarget, req.UtilTarget))
	}

	if req.LatencyRequirementMs != nil && *req.LatencyRequirementMs <= 0 {
		return spec, opts, models.NewInvalidInputError("latency_requirement_ms",
			fmt.Sprintf("must be positive when set, got %d", *req.LatencyRequirementMs))
	}

	topK := req.TopK
	if topK == 0 {
		topK = models.DefaultTopK
	}
	if topK < 1 || topK > models.MaxTopK {
		return spec, opts, models.NewInvalidInputError("top_k",
			fmt.Sprintf("must be between 1 and %d, got %d", models.MaxTopK, req.TopK))
	}

	alpha, err := nonNegative("alpha", req.Alpha, defaults.Alpha)
	if err != nil {
		return spec, opts, err
	}
	beta, err := nonNegative("beta", req.Beta, defaults.Beta)
	if err != nil {
		return spec, opts, err
	}
	ratio, err := nonNegative("output_token_ratio", req.OutputTokenRatio, defaults.OutputTokenRatio)
	if err != nil {
		return spec, opts, err
	}

	if req.MonthlyBudgetMaxUSD != nil && *req.MonthlyBudgetMaxUSD <= 0 {
		return spec, opts, models.NewInvalidInputError("monthly_budget_max_usd",
			fmt.Sprintf("must be positive when set, got %g", *req.MonthlyBudgetMaxUSD))
	}

	providers := make([]string, 0, len(req.ProviderIDs))
	for _, id := range req.ProviderIDs {
		id = strings.ToLower(strings.TrimSpace(id))
		if err := ValidateProviderID(id); err != nil {
			return spec, opts, err
		}
		providers = append(providers, id)
	}

	spec = models.WorkloadSpec{
		TokensPerDay:         req.TokensPerDay,
		ModelBucket:          bucket,
		TrafficPattern:       pattern,
		LatencyRequirementMs: req.LatencyRequirementMs,
		UtilTarget:           utilTarget,
	}
	opts = models.RankOptions{
		ProviderIDs:         providers,
		Alpha:               alpha,
		Beta:                beta,
		OutputTokenRatio:    ratio,
		MonthlyBudgetMaxUSD: req.MonthlyBudgetMaxUSD,
		TopK:                topK,
	}
	return spec, opts, nil
}

func nonNegative(field string, value *float64, fallback float64) (float64, error) {
	if value == nil {
		return fallback, nil
	}
	if *value < 0 {
		return 0, models.NewInvalidInputError(field, fmt.Sprintf("must be >= 0, got %g", *value))
	}
	return *value, nil
}
