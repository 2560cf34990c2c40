// ABOUTME: API response models for catalog listings, health, and errors
// ABOUTME: JSON-serializable structures shared by the HTTP service and CLI

package models

import "time"

// ProviderSummary describes one provider present in the catalog
type ProviderSummary struct {
	ProviderID   string        `json:"provider_id"`
	ProviderName string        `json:"provider_name"`
	Offerings    int           `json:"offerings"`
	BillingModes []BillingMode `json:"billing_modes"`
	GPUTypes     []string      `json:"gpu_types"`
}

// ModelInfo describes one model bucket and its memory requirement
type ModelInfo struct {
	ModelBucket         ModelBucket `json:"model_bucket"`
	DisplayName         string      `json:"display_name"`
	RecommendedMemoryGB int         `json:"recommended_memory_gb"`
	ParameterCount      int64       `json:"parameter_count,omitempty"`
}

// TrafficPatternInfo pairs a pattern name with its shaping factors
type TrafficPatternInfo struct {
	Pattern TrafficPattern `json:"traffic_pattern"`
	TrafficProfile
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status         string    `json:"status"`
	CatalogVersion string    `json:"catalog_version"`
	Offerings      int       `json:"offerings"`
	Providers      int       `json:"providers"`
	LoadedAt       time.Time `json:"loaded_at"`
	Source         string    `json:"source"`
}

// ReloadResponse is returned after a catalog reload
type ReloadResponse struct {
	CatalogVersion  string `json:"catalog_version"`
	PreviousVersion string `json:"previous_version"`
	Offerings       int    `json:"offerings"`
	Changed         bool   `json:"changed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
}
