// ABOUTME: Ranking request/response contracts and intermediate pipeline results
// ABOUTME: RankedPlan, diagnostics, capacity, cost, and risk breakdowns

package models

// RankRequest is the exposed ranking request. Pointer fields are optional;
// nil means "use the service default".
type RankRequest struct {
	TokensPerDay         int64    `json:"tokens_per_day"`
	ModelBucket          string   `json:"model_bucket"`
	TrafficPattern       string   `json:"traffic_pattern"`
	ProviderIDs          []string `json:"provider_ids,omitempty"`
	LatencyRequirementMs *int     `json:"latency_requirement_ms,omitempty"`
	UtilTarget           float64  `json:"util_target,omitempty"`
	Alpha                *float64 `json:"alpha,omitempty"`
	Beta                 *float64 `json:"beta,omitempty"`
	OutputTokenRatio     *float64 `json:"output_token_ratio,omitempty"`
	MonthlyBudgetMaxUSD  *float64 `json:"monthly_budget_max_usd,omitempty"`
	TopK                 int      `json:"top_k,omitempty"`
}

// RankOptions are the resolved numeric knobs for one ranking call
type RankOptions struct {
	ProviderIDs         []string
	Alpha               float64
	Beta                float64
	OutputTokenRatio    float64
	MonthlyBudgetMaxUSD *float64
	TopK                int
}

// Diagnostic records why an offering or provider was excluded
type Diagnostic struct {
	Provider   string `json:"provider"`
	OfferingID string `json:"offering_id,omitempty"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Reason     string `json:"reason"`
}

// Diagnostic statuses
const (
	StatusInsufficient         = "insufficient"
	StatusInsufficientCapacity = "insufficient_capacity"
	StatusInvalidCatalogEntry  = "invalid_catalog_entry"
	StatusOverBudget           = "over_budget"
	StatusUnknownProvider      = "unknown_provider"
	StatusModelUnavailable     = "model_unavailable"
)

// CapacityEstimate is the Capacity Resolver output for one GPU-backed config
type CapacityEstimate struct {
	Feasible         bool    `json:"feasible"`
	Reason           string  `json:"reason,omitempty"`
	RawTPS           float64 `json:"raw_tps"`
	EffectiveGPUTPS  float64 `json:"effective_gpu_tps"`
	UtilizationRatio float64 `json:"utilization_ratio"`
	GPUCount         int     `json:"gpu_count"`
	UtilizationAfter float64 `json:"utilization_after"`
}

// CostBreakdown is the Cost Calculator output for one config
type CostBreakdown struct {
	BillingMode         BillingMode `json:"billing_mode"`
	MonthlyCostUSD      float64     `json:"monthly_cost_usd"`
	ActiveHoursPerMonth float64     `json:"active_hours_per_month"`
	IdleWasteUSD        float64     `json:"idle_waste_usd"`
	IdleWastePct        float64     `json:"idle_waste_pct"`
	MonthlyTokens       float64     `json:"monthly_tokens"`
	CostPerMTokens      float64     `json:"cost_per_m_tokens"`
}

// RiskBand classifies post-scaling utilization
type RiskBand string

const (
	RiskLow    RiskBand = "low"
	RiskMedium RiskBand = "medium"
	RiskHigh   RiskBand = "high"
)

// RiskScore is the normalized [0,1] risk used by the multiplicative ranking step
type RiskScore struct {
	RiskOverload   float64 `json:"risk_overload"`
	RiskComplexity float64 `json:"risk_complexity"`
	TotalRisk      float64 `json:"total_risk"`
}

// Penalties are dollar-denominated surcharges; each is always >= 0
type Penalties struct {
	Overload float64 `json:"overload"`
	Scaling  float64 `json:"scaling"`
	Latency  float64 `json:"latency"`
	Total    float64 `json:"total"`
}

// RiskAssessment is the Risk & Penalty Scorer output
type RiskAssessment struct {
	Band      RiskBand  `json:"band"`
	Risk      RiskScore `json:"risk"`
	Penalties Penalties `json:"penalties"`
}

// RankedPlan is one ranked output entry. Never mutated after creation.
type RankedPlan struct {
	Rank                int                `json:"rank"`
	OfferingID          string             `json:"offering_id"`
	ProviderID          string             `json:"provider_id"`
	ProviderName        string             `json:"provider_name,omitempty"`
	BillingMode         BillingMode        `json:"billing_mode"`
	GPUType             string             `json:"gpu_type,omitempty"`
	GPUCount            int                `json:"gpu_count"`
	MonthlyCostUSD      float64            `json:"monthly_cost_usd"`
	EffectiveCostUSD    float64            `json:"effective_cost_usd"`
	Score               float64            `json:"score"`
	CostPerMTokens      float64            `json:"cost_per_m_tokens"`
	IdleWasteUSD        float64            `json:"idle_waste_usd"`
	IdleWastePct        float64            `json:"idle_waste_pct"`
	ActiveHoursPerMonth float64            `json:"active_hours_per_month"`
	UtilizationRatio    float64            `json:"utilization_ratio"`
	UtilizationAtPeak   float64            `json:"utilization_at_peak"`
	RiskBand            RiskBand           `json:"risk_band"`
	Risk                RiskScore          `json:"risk"`
	Penalties           Penalties          `json:"penalties"`
	Confidence          string             `json:"confidence"`
	Assumptions         map[string]float64 `json:"assumptions"`
	Why                 string             `json:"why"`
}

// CostSummary describes the spread of monthly cost across feasible candidates
type CostSummary struct {
	Candidates       int     `json:"candidates"`
	MinMonthlyUSD    float64 `json:"min_monthly_usd"`
	MedianMonthlyUSD float64 `json:"median_monthly_usd"`
	MeanMonthlyUSD   float64 `json:"mean_monthly_usd"`
	MaxMonthlyUSD    float64 `json:"max_monthly_usd"`
}

// RankResponse is the exposed ranking response
type RankResponse struct {
	RequestID           string             `json:"request_id,omitempty"`
	CatalogVersion      string             `json:"catalog_version,omitempty"`
	Workload            NormalizedWorkload `json:"workload"`
	Plans               []RankedPlan       `json:"plans"`
	ProviderDiagnostics []Diagnostic       `json:"provider_diagnostics"`
	Warnings            []string           `json:"warnings"`
	ExcludedCount       int                `json:"excluded_count"`
	Summary             CostSummary        `json:"summary"`
	Cached              bool               `json:"cached,omitempty"`
}

// Warning messages
const (
	WarningNoFeasible = "no feasible configuration for requested providers"
)
