// ABOUTME: Config enumerator turning raw catalog rows into typed candidate configs
// ABOUTME: Blends split per-token SKUs, filters providers, and memory-gates GPUs

package services

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/models"
)

const defaultConfidence = "unknown"

// Enumeration is the Config Enumerator output
type Enumeration struct {
	Configs     []models.PlannerConfig
	Diagnostics []models.Diagnostic
	Warnings    []string
}

// BlendTokenPrice weights input and output prices by an output:input ratio
func BlendTokenPrice(inputPrice, outputPrice, outputRatio float64) float64 {
	r := decimal.NewFromFloat(outputRatio)
	denom := decimal.NewFromInt(1).Add(r)
	blended := decimal.NewFromFloat(inputPrice).Div(denom).
		Add(decimal.NewFromFloat(outputPrice).Mul(r).Div(denom))
	return blended.InexactFloat64()
}

// EnumerateConfigs builds the candidate set for one model bucket.
// An empty providerIDs means every provider in the snapshot.
func EnumerateConfigs(snap *catalog.Snapshot, bucket models.ModelBucket, providerIDs []string, outputRatio float64) Enumeration {
	var out Enumeration

	known := snap.ProviderIDs()
	allowed := lo.Uniq(providerIDs)
	if len(allowed) == 0 {
		allowed = known
	}
	for _, id := range allowed {
		if !lo.Contains(known, id) {
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Provider: id,
				Status:   models.StatusUnknownProvider,
				Reason:   "provider not present in catalog",
			})
			out.Warnings = append(out.Warnings, fmt.Sprintf("unknown provider %q ignored", sanitizeForLog(id)))
		}
	}

	rows := lo.Filter(snap.Offerings, func(o catalog.Offering, _ int) bool {
		return lo.Contains(allowed, o.ProviderID)
	})

	required := snap.Models[bucket].RecommendedMemoryGB
	tokenRows := make(map[string][]catalog.Offering)
	considered := make(map[string]bool)

	for _, o := range rows {
		mode, err := models.ParseBillingMode(o.BillingMode)
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Provider:   o.ProviderID,
				OfferingID: o.OfferingID,
				Status:     models.StatusInvalidCatalogEntry,
				Reason:     err.Error(),
			})
			considered[o.ProviderID] = true
			continue
		}

		if mode == models.BillingPerToken {
			rowBucket, err := models.ParseModelBucket(o.ModelBucket)
			if err != nil || rowBucket != bucket {
				continue
			}
			key := o.ProviderID + "|" + o.Region
			tokenRows[key] = append(tokenRows[key], o)
			considered[o.ProviderID] = true
			continue
		}

		considered[o.ProviderID] = true
		memory := o.MemoryGB
		if memory == 0 {
			memory = snap.GPUs[o.GPUType].MemoryGB
		}
		if memory <= 0 {
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Provider:   o.ProviderID,
				OfferingID: o.OfferingID,
				Status:     models.StatusInvalidCatalogEntry,
				Reason:     fmt.Sprintf("unknown memory for gpu %s", o.GPUType),
			})
			continue
		}
		if memory < required {
			slog.Debug("Offering excluded by memory gate",
				"offering", o.OfferingID, "required_gb", required, "memory_gb", memory)
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Provider:   o.ProviderID,
				OfferingID: o.OfferingID,
				Status:     models.StatusInsufficient,
				Reason:     fmt.Sprintf("requires %dgb, has %dgb", required, memory),
			})
			continue
		}

		out.Configs = append(out.Configs, models.PlannerConfig{
			OfferingID:        o.OfferingID,
			ProviderID:        o.ProviderID,
			ProviderName:      o.ProviderName,
			BillingMode:       mode,
			GPUType:           o.GPUType,
			MemoryGB:          memory,
			HourlyRate:        o.HourlyRate,
			ThroughputByModel: canonicalThroughput(o.ThroughputByModel),
			Region:            o.Region,
			Confidence:        lo.Ternary(o.Confidence != "", o.Confidence, defaultConfidence),
		})
	}

	keys := lo.Keys(tokenRows)
	sort.Strings(keys)
	for _, key := range keys {
		configs, dropped := pairTokenSKUs(tokenRows[key], outputRatio)
		out.Configs = append(out.Configs, configs...)
		out.Diagnostics = append(out.Diagnostics, dropped...)
	}

	for _, id := range allowed {
		if lo.Contains(known, id) && !considered[id] {
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Provider: id,
				Status:   models.StatusModelUnavailable,
				Reason:   fmt.Sprintf("no offering serves model %s", bucket),
			})
		}
	}

	sort.SliceStable(out.Configs, func(i, j int) bool {
		a, b := out.Configs[i], out.Configs[j]
		if a.ProviderID != b.ProviderID {
			return a.ProviderID < b.ProviderID
		}
		if a.GPUType != b.GPUType {
			return a.GPUType < b.GPUType
		}
		return a.OfferingID < b.OfferingID
	})

	return out
}

// pairTokenSKUs merges input/output SKUs of one provider and region into a
// single blended config. Rows without a direction stand alone. A second SKU
// for a direction already seen is dropped with a diagnostic.
func pairTokenSKUs(rows []catalog.Offering, outputRatio float64) ([]models.PlannerConfig, []models.Diagnostic) {
	var configs []models.PlannerConfig
	var dropped []models.Diagnostic
	var input, output *catalog.Offering

	duplicate := func(kept, o *catalog.Offering) {
		dropped = append(dropped, models.Diagnostic{
			Provider:   o.ProviderID,
			OfferingID: o.OfferingID,
			Status:     models.StatusInvalidCatalogEntry,
			Reason:     fmt.Sprintf("duplicate %s sku; %s already prices this direction", o.TokenDirection, kept.OfferingID),
		})
	}

	for i := range rows {
		o := rows[i]
		switch o.TokenDirection {
		case catalog.DirectionInput:
			if input != nil {
				duplicate(input, &rows[i])
				continue
			}
			input = &rows[i]
		case catalog.DirectionOutput:
			if output != nil {
				duplicate(output, &rows[i])
				continue
			}
			output = &rows[i]
		default:
			configs = append(configs, tokenConfig(o, o.OfferingID, o.PricePerMTokens, false))
		}
	}

	switch {
	case input != nil && output != nil:
		id := strings.TrimSuffix(input.OfferingID, "-"+catalog.DirectionInput)
		price := BlendTokenPrice(input.PricePerMTokens, output.PricePerMTokens, outputRatio)
		configs = append(configs, tokenConfig(*input, id, price, true))
	case input != nil:
		configs = append(configs, tokenConfig(*input, input.OfferingID, input.PricePerMTokens, false))
	case output != nil:
		configs = append(configs, tokenConfig(*output, output.OfferingID, output.PricePerMTokens, false))
	}

	return configs, dropped
}

func tokenConfig(o catalog.Offering, id string, price float64, blended bool) models.PlannerConfig {
	return models.PlannerConfig{
		OfferingID:      id,
		ProviderID:      o.ProviderID,
		ProviderName:    o.ProviderName,
		BillingMode:     models.BillingPerToken,
		PricePerMTokens: price,
		Region:          o.Region,
		Confidence:      lo.Ternary(o.Confidence != "", o.Confidence, defaultConfidence),
		Blended:         blended,
	}
}

func canonicalThroughput(raw map[string]float64) map[models.ModelBucket]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[models.ModelBucket]float64, len(raw))
	for key, tps := range raw {
		if b, err := models.ParseModelBucket(key); err == nil {
			out[b] = tps
		}
	}
	return out
}
