// ABOUTME: Read-only catalog snapshot of provider offerings and static planning tables
// ABOUTME: Structural validation plus listing helpers for providers, models, and patterns

package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/markalston/inference-capacity-planner/models"
)

// ErrInvalidSnapshot is returned when a snapshot fails structural validation
var ErrInvalidSnapshot = errors.New("invalid catalog snapshot")

// Token directions for split per-token SKUs
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Offering is one raw provider row as published by the catalog
type Offering struct {
	OfferingID        string             `json:"offering_id" yaml:"offering_id"`
	ProviderID        string             `json:"provider_id" yaml:"provider_id"`
	ProviderName      string             `json:"provider_name,omitempty" yaml:"provider_name"`
	BillingMode       string             `json:"billing_mode" yaml:"billing_mode"`
	GPUType           string             `json:"gpu_type,omitempty" yaml:"gpu_type"`
	MemoryGB          int                `json:"memory_gb,omitempty" yaml:"memory_gb"`
	HourlyRate        float64            `json:"hourly_rate,omitempty" yaml:"hourly_rate"`
	PricePerMTokens   float64            `json:"price_per_m_tokens,omitempty" yaml:"price_per_m_tokens"`
	ModelBucket       string             `json:"model_bucket,omitempty" yaml:"model_bucket"`
	TokenDirection    string             `json:"token_direction,omitempty" yaml:"token_direction"`
	Region            string             `json:"region,omitempty" yaml:"region"`
	Confidence        string             `json:"confidence,omitempty" yaml:"confidence"`
	ThroughputByModel map[string]float64 `json:"throughput_by_model,omitempty" yaml:"throughput_by_model"`
}

// Snapshot is an immutable, versioned view of the catalog.
// Callers must not mutate a snapshot after it has been published to a Store.
type Snapshot struct {
	Version         string                                          `json:"version" yaml:"version"`
	Models          map[models.ModelBucket]models.ModelRequirement  `json:"models" yaml:"models"`
	GPUs            map[string]models.GPUSpec                       `json:"gpus" yaml:"gpus"`
	CapacityTable   map[string]map[models.ModelBucket]float64       `json:"capacity_table" yaml:"capacity_table"`
	TrafficProfiles map[models.TrafficPattern]models.TrafficProfile `json:"traffic_profiles" yaml:"traffic_profiles"`
	Offerings       []Offering                                      `json:"offerings" yaml:"offerings"`
	LoadedAt        time.Time                                       `json:"-" yaml:"-"`
	Source          string                                          `json:"-" yaml:"-"`
}

// Validate checks structure only. Rates are not checked here;
// a non-positive rate excludes a single offering at ranking time.
func (s *Snapshot) Validate() error {
	var errs []error

	if len(s.Models) == 0 {
		errs = append(errs, errors.New("models table is empty"))
	}
	for bucket, req := range s.Models {
		if !bucket.Valid() {
			errs = append(errs, fmt.Errorf("models: unknown model bucket %q", bucket))
		}
		if req.RecommendedMemoryGB <= 0 {
			errs = append(errs, fmt.Errorf("models: %s recommended_memory_gb must be positive", bucket))
		}
	}

	for _, p := range models.AllTrafficPatterns {
		prof, ok := s.TrafficProfiles[p]
		if !ok {
			errs = append(errs, fmt.Errorf("traffic_profiles: missing pattern %q", p))
			continue
		}
		if prof.ActiveRatio <= 0 || prof.ActiveRatio > 1 {
			errs = append(errs, fmt.Errorf("traffic_profiles: %s active_ratio must be in (0,1]", p))
		}
		if prof.Efficiency <= 0 || prof.BurstFactor <= 0 || prof.BatchMult <= 0 {
			errs = append(errs, fmt.Errorf("traffic_profiles: %s factors must be positive", p))
		}
	}

	for gpu, row := range s.CapacityTable {
		for bucket := range row {
			if !bucket.Valid() {
				errs = append(errs, fmt.Errorf("capacity_table: %s has unknown model bucket %q", gpu, bucket))
			}
		}
	}

	seen := make(map[string]bool, len(s.Offerings))
	for i, o := range s.Offerings {
		if err := o.validate(); err != nil {
			errs = append(errs, fmt.Errorf("offerings[%d]: %w", i, err))
			continue
		}
		if seen[o.OfferingID] {
			errs = append(errs, fmt.Errorf("offerings[%d]: duplicate offering_id %q", i, o.OfferingID))
		}
		seen[o.OfferingID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(errs...))
	}
	return nil
}

func (o Offering) validate() error {
	if o.OfferingID == "" {
		return errors.New("offering_id is required")
	}
	if o.ProviderID == "" {
		return fmt.Errorf("%s: provider_id is required", o.OfferingID)
	}
	mode, err := models.ParseBillingMode(o.BillingMode)
	if err != nil {
		return fmt.Errorf("%s: %w", o.OfferingID, err)
	}
	if mode.IsGPUBacked() && o.GPUType == "" {
		return fmt.Errorf("%s: gpu_type is required for %s billing", o.OfferingID, mode)
	}
	if mode == models.BillingPerToken {
		if _, err := models.ParseModelBucket(o.ModelBucket); err != nil {
			return fmt.Errorf("%s: per_token offering needs a model_bucket: %w", o.OfferingID, err)
		}
	}
	switch o.TokenDirection {
	case "", DirectionInput, DirectionOutput:
	default:
		return fmt.Errorf("%s: token_direction must be input or output, got %q", o.OfferingID, o.TokenDirection)
	}
	for key := range o.ThroughputByModel {
		if _, err := models.ParseModelBucket(key); err != nil {
			return fmt.Errorf("%s: throughput_by_model: %w", o.OfferingID, err)
		}
	}
	return nil
}

// ProviderIDs returns the sorted set of providers in the snapshot
func (s *Snapshot) ProviderIDs() []string {
	ids := lo.Uniq(lo.Map(s.Offerings, func(o Offering, _ int) string { return o.ProviderID }))
	sort.Strings(ids)
	return ids
}

// Providers summarizes offerings per provider
func (s *Snapshot) Providers() []models.ProviderSummary {
	grouped := lo.GroupBy(s.Offerings, func(o Offering) string { return o.ProviderID })

	summaries := make([]models.ProviderSummary, 0, len(grouped))
	for _, id := range s.ProviderIDs() {
		rows := grouped[id]
		modes := lo.Uniq(lo.FilterMap(rows, func(o Offering, _ int) (models.BillingMode, bool) {
			m, err := models.ParseBillingMode(o.BillingMode)
			return m, err == nil
		}))
		sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })

		gpus := lo.Uniq(lo.FilterMap(rows, func(o Offering, _ int) (string, bool) {
			return o.GPUType, o.GPUType != ""
		}))
		sort.Strings(gpus)

		name := lo.FindOrElse(rows, Offering{ProviderName: id}, func(o Offering) bool {
			return o.ProviderName != ""
		}).ProviderName

		summaries = append(summaries, models.ProviderSummary{
			ProviderID:   id,
			ProviderName: name,
			Offerings:    len(rows),
			BillingModes: modes,
			GPUTypes:     gpus,
		})
	}
	return summaries
}

// ModelInfos lists model buckets in canonical order
func (s *Snapshot) ModelInfos() []models.ModelInfo {
	infos := make([]models.ModelInfo, 0, len(s.Models))
	for _, b := range models.AllModelBuckets {
		req, ok := s.Models[b]
		if !ok {
			continue
		}
		infos = append(infos, models.ModelInfo{
			ModelBucket:         b,
			DisplayName:         req.DisplayName,
			RecommendedMemoryGB: req.RecommendedMemoryGB,
			ParameterCount:      req.ParameterCount,
		})
	}
	return infos
}

// TrafficPatternInfos lists traffic profiles in canonical order
func (s *Snapshot) TrafficPatternInfos() []models.TrafficPatternInfo {
	infos := make([]models.TrafficPatternInfo, 0, len(s.TrafficProfiles))
	for _, p := range models.AllTrafficPatterns {
		if prof, ok := s.TrafficProfiles[p]; ok {
			infos = append(infos, models.TrafficPatternInfo{Pattern: p, TrafficProfile: prof})
		}
	}
	return infos
}
