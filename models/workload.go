// ABOUTME: Workload request models for LLM capacity planning
// ABOUTME: Model buckets, traffic patterns, and the normalized workload shape

package models

import (
	"fmt"
	"sort"
	"strings"
)

// ModelBucket identifies a class of model with shared memory and throughput traits
type ModelBucket string

const (
	Model8B          ModelBucket = "8b"
	Model70B         ModelBucket = "70b"
	Model405B        ModelBucket = "405b"
	ModelMixtral8x7B ModelBucket = "mixtral_8x7b"
	ModelMistral7B   ModelBucket = "mistral_7b"
)

// AllModelBuckets lists every supported bucket in display order
var AllModelBuckets = []ModelBucket{Model8B, Model70B, Model405B, ModelMixtral8x7B, ModelMistral7B}

// modelAliases maps accepted spellings to canonical buckets
var modelAliases = map[string]ModelBucket{
	"8b":           Model8B,
	"llama_8b":     Model8B,
	"llama3_8b":    Model8B,
	"70b":          Model70B,
	"llama_70b":    Model70B,
	"llama3_70b":   Model70B,
	"405b":         Model405B,
	"llama_405b":   Model405B,
	"llama3_405b":  Model405B,
	"mixtral_8x7b": ModelMixtral8x7B,
	"mixtral":      ModelMixtral8x7B,
	"mistral_7b":   ModelMistral7B,
	"mistral":      ModelMistral7B,
}

// ParseModelBucket normalizes a user-supplied model name
func ParseModelBucket(s string) (ModelBucket, error) {
	key := normalizeKey(s)
	if b, ok := modelAliases[key]; ok {
		return b, nil
	}
	valid := make([]string, len(AllModelBuckets))
	for i, b := range AllModelBuckets {
		valid[i] = string(b)
	}
	return "", NewInvalidInputError("model_bucket",
		fmt.Sprintf("unknown model bucket %q, valid options: %s", s, strings.Join(valid, ", ")))
}

// Valid reports whether b is one of the canonical buckets
func (b ModelBucket) Valid() bool {
	for _, known := range AllModelBuckets {
		if b == known {
			return true
		}
	}
	return false
}

// TrafficPattern describes how daily traffic is distributed over time
type TrafficPattern string

const (
	PatternSteady        TrafficPattern = "steady"
	PatternBusinessHours TrafficPattern = "business_hours"
	PatternBursty        TrafficPattern = "bursty"
)

// AllTrafficPatterns lists the supported patterns
var AllTrafficPatterns = []TrafficPattern{PatternSteady, PatternBusinessHours, PatternBursty}

// ParseTrafficPattern accepts case-insensitive names with spaces or hyphens
func ParseTrafficPattern(s string) (TrafficPattern, error) {
	key := normalizeKey(s)
	for _, p := range AllTrafficPatterns {
		if key == string(p) {
			return p, nil
		}
	}
	valid := make([]string, len(AllTrafficPatterns))
	for i, p := range AllTrafficPatterns {
		valid[i] = string(p)
	}
	sort.Strings(valid)
	return "", NewInvalidInputError("traffic_pattern",
		fmt.Sprintf("unknown traffic pattern %q, valid options: %s", s, strings.Join(valid, ", ")))
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "_")
	return s
}

// TrafficProfile holds the fixed shaping factors for one traffic pattern
type TrafficProfile struct {
	ActiveRatio float64 `json:"active_ratio" yaml:"active_ratio"` // Fraction of hours with traffic
	Efficiency  float64 `json:"efficiency" yaml:"efficiency"`     // Scheduling overhead correction
	BurstFactor float64 `json:"burst_factor" yaml:"burst_factor"` // Peak over average while active
	BatchMult   float64 `json:"batch_mult" yaml:"batch_mult"`     // Batching throughput gain
}

// WorkloadSpec is the validated user request for one ranking call
type WorkloadSpec struct {
	TokensPerDay         int64          `json:"tokens_per_day"`
	ModelBucket          ModelBucket    `json:"model_bucket"`
	TrafficPattern       TrafficPattern `json:"traffic_pattern"`
	LatencyRequirementMs *int           `json:"latency_requirement_ms,omitempty"`
	UtilTarget           float64        `json:"util_target"`
}

// StrictLatency reports whether the workload has a sub-300ms latency requirement
func (w WorkloadSpec) StrictLatency() bool {
	return w.LatencyRequirementMs != nil && *w.LatencyRequirementMs < StrictLatencyThresholdMs
}

// NormalizedWorkload is traffic converted to the throughput a deployment must sustain
type NormalizedWorkload struct {
	Pattern         TrafficPattern `json:"traffic_pattern"`
	AvgTokS         float64        `json:"avg_tok_s"`
	RequiredPeakTPS float64        `json:"required_peak_tps"`
	Efficiency      float64        `json:"efficiency"`
	BatchMult       float64        `json:"batch_mult"`
	ActiveRatio     float64        `json:"active_ratio"`
	BurstFactor     float64        `json:"burst_factor"`
}

// Calendar and threshold constants shared by the planner
const (
	SecondsPerDay = 86400
	HoursPerMonth = 720
	DaysPerMonth  = 30

	DefaultUtilTarget        = 0.75
	MinUtilTarget            = 0.05
	DefaultTopK              = 3
	MaxTopK                  = 50
	MaxGPUsBeforePenalty     = 8
	MaxGPUCount              = 1024
	StrictLatencyThresholdMs = 300
)
