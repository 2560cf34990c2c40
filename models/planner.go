// ABOUTME: Candidate provider configuration models used by the ranking pipeline
// ABOUTME: Billing modes and the strongly-typed PlannerConfig built from catalog rows

package models

import (
	"fmt"
	"strings"
)

// BillingMode defines the pricing semantics of a provider offering
type BillingMode string

const (
	BillingAutoscale               BillingMode = "autoscale"
	BillingDedicatedHourly         BillingMode = "dedicated_hourly"
	BillingDedicatedPerSecond      BillingMode = "dedicated_per_second"
	BillingDedicatedHourlyVariable BillingMode = "dedicated_hourly_variable"
	BillingPerToken                BillingMode = "per_token"
)

var billingAliases = map[string]BillingMode{
	"autoscale":                 BillingAutoscale,
	"autoscaling":               BillingAutoscale,
	"autoscale_hourly":          BillingAutoscale,
	"dedicated_hourly":          BillingDedicatedHourly,
	"hourly":                    BillingDedicatedHourly,
	"dedicated_per_second":      BillingDedicatedPerSecond,
	"per_second":                BillingDedicatedPerSecond,
	"dedicated_hourly_variable": BillingDedicatedHourlyVariable,
	"hourly_variable":           BillingDedicatedHourlyVariable,
	"per_token":                 BillingPerToken,
}

// ParseBillingMode maps catalog spellings onto a canonical billing mode
func ParseBillingMode(s string) (BillingMode, error) {
	if m, ok := billingAliases[normalizeKey(s)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown billing mode %q", s)
}

// IsDedicated reports whether the mode bills for every hour of the month
func (m BillingMode) IsDedicated() bool {
	switch m {
	case BillingDedicatedHourly, BillingDedicatedPerSecond, BillingDedicatedHourlyVariable:
		return true
	}
	return false
}

// IsGPUBacked reports whether cost depends on GPU count
func (m BillingMode) IsGPUBacked() bool {
	return m == BillingAutoscale || m.IsDedicated()
}

// PlannerConfig is one candidate offering, validated once at enumeration time
type PlannerConfig struct {
	OfferingID        string                  `json:"offering_id"`
	ProviderID        string                  `json:"provider_id"`
	ProviderName      string                  `json:"provider_name"`
	BillingMode       BillingMode             `json:"billing_mode"`
	GPUType           string                  `json:"gpu_type,omitempty"`
	MemoryGB          int                     `json:"memory_gb,omitempty"`
	HourlyRate        float64                 `json:"hourly_rate,omitempty"`
	PricePerMTokens   float64                 `json:"price_per_m_tokens,omitempty"`
	ThroughputByModel map[ModelBucket]float64 `json:"throughput_by_model,omitempty"`
	Region            string                  `json:"region,omitempty"`
	Confidence        string                  `json:"confidence"`
	Blended           bool                    `json:"blended,omitempty"` // Price derived from paired input/output SKUs
}

// Label is a short human-readable identity for logs and rationales
func (c PlannerConfig) Label() string {
	if c.GPUType == "" {
		return fmt.Sprintf("%s/%s", c.ProviderID, c.BillingMode)
	}
	return fmt.Sprintf("%s/%s/%s", c.ProviderID, strings.ToLower(c.GPUType), c.BillingMode)
}

// ModelRequirement describes the memory footprint of a model bucket
type ModelRequirement struct {
	DisplayName         string `json:"display_name" yaml:"display_name"`
	RecommendedMemoryGB int    `json:"recommended_memory_gb" yaml:"recommended_memory_gb"`
	ParameterCount      int64  `json:"parameter_count" yaml:"parameter_count"`
}

// GPUSpec is the default hardware profile for a GPU type
type GPUSpec struct {
	Name            string  `json:"name" yaml:"name"`
	MemoryGB        int     `json:"memory_gb" yaml:"memory_gb"`
	TokensPerSecond float64 `json:"tokens_per_second" yaml:"tokens_per_second"`
}
