// ABOUTME: Billing-mode-aware monthly cost calculator
// ABOUTME: Money arithmetic uses decimal to keep idle waste within monthly cost

package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/markalston/inference-capacity-planner/models"
)

var (
	hoursPerMonth = decimal.NewFromInt(models.HoursPerMonth)
	daysPerMonth  = decimal.NewFromInt(models.DaysPerMonth)
	oneMillion    = decimal.NewFromInt(1_000_000)
	hundred       = decimal.NewFromInt(100)
)

// CalculateCost prices one config for a month. gpuCount is ignored for per-token billing.
// Non-positive rates fail with INVALID_CATALOG_ENTRY, which callers treat as a skip.
func CalculateCost(cfg models.PlannerConfig, gpuCount int, workload models.NormalizedWorkload, tokensPerDay int64) (models.CostBreakdown, error) {
	monthlyTokens := decimal.NewFromInt(tokensPerDay).Mul(daysPerMonth)
	activeHours := hoursPerMonth.Mul(decimal.NewFromFloat(workload.ActiveRatio))

	var monthly, idle decimal.Decimal

	switch {
	case cfg.BillingMode == models.BillingPerToken:
		if cfg.PricePerMTokens <= 0 {
			return models.CostBreakdown{}, models.NewInvalidCatalogEntryError(cfg.OfferingID,
				fmt.Sprintf("price_per_m_tokens must be positive, got %g", cfg.PricePerMTokens))
		}
		monthly = monthlyTokens.Div(oneMillion).Mul(decimal.NewFromFloat(cfg.PricePerMTokens))

	case cfg.BillingMode == models.BillingAutoscale || cfg.BillingMode.IsDedicated():
		if cfg.HourlyRate <= 0 {
			return models.CostBreakdown{}, models.NewInvalidCatalogEntryError(cfg.OfferingID,
				fmt.Sprintf("hourly_rate must be positive, got %g", cfg.HourlyRate))
		}
		if gpuCount < 1 {
			gpuCount = 1
		}
		perHour := decimal.NewFromFloat(cfg.HourlyRate).Mul(decimal.NewFromInt(int64(gpuCount)))

		if cfg.BillingMode == models.BillingAutoscale {
			monthly = activeHours.Mul(perHour)
		} else {
			monthly = hoursPerMonth.Mul(perHour)
			idleHours := decimal.Max(decimal.Zero, hoursPerMonth.Sub(activeHours))
			idle = idleHours.Mul(perHour)
		}

	default:
		return models.CostBreakdown{}, models.NewInvalidCatalogEntryError(cfg.OfferingID,
			fmt.Sprintf("unsupported billing mode %q", cfg.BillingMode))
	}

	idlePct := decimal.Zero
	if monthly.IsPositive() {
		idlePct = idle.Div(monthly).Mul(hundred)
	}

	return models.CostBreakdown{
		BillingMode:         cfg.BillingMode,
		MonthlyCostUSD:      monthly.Round(2).InexactFloat64(),
		ActiveHoursPerMonth: activeHours.Round(2).InexactFloat64(),
		IdleWasteUSD:        idle.Round(2).InexactFloat64(),
		IdleWastePct:        idlePct.Round(2).InexactFloat64(),
		MonthlyTokens:       monthlyTokens.InexactFloat64(),
		CostPerMTokens:      monthly.Div(monthlyTokens).Mul(oneMillion).Round(4).InexactFloat64(),
	}, nil
}
