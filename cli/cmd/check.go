// ABOUTME: Check command for the planner CLI
// ABOUTME: Fails CI/CD pipelines when the best plan exceeds cost or risk limits

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// checkOptions holds the check command's flags
type checkOptions struct {
	workloadFlags
	maxMonthlyUSD float64
	maxRisk       float64
}

func newCheckCmd(opts *checkOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the best plan against cost and risk limits",
		Long: `Rank the workload and exit non-zero if the best plan breaks a limit.

Exit codes:
  0 - Best plan within all limits
  1 - Best plan exceeds a limit, or no feasible plan exists
  2 - Error (connectivity, invalid input, catalog)`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			exitCode := runCheck(ctx, os.Stdout, opts, cmd.Flags())
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}

	opts.register(cmd)
	cmd.Flags().Float64Var(&opts.maxMonthlyUSD, "max-monthly-usd", 0, "Maximum acceptable monthly cost of the best plan (required)")
	cmd.Flags().Float64Var(&opts.maxRisk, "max-risk", 1, "Maximum acceptable total risk of the best plan in [0, 1]")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCheckCmd(&checkOptions{}))
}

// checkResult represents the result of a single threshold check
type checkResult struct {
	name      string
	value     float64
	threshold float64
	unit      string
	passed    bool
}

// runCheck executes the threshold checks and returns exit code
func runCheck(ctx context.Context, w io.Writer, opts *checkOptions, fs *pflag.FlagSet) int {
	if err := validateLimits(opts.maxMonthlyUSD, opts.maxRisk); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	p, err := newPlanner(ctx, opts.offline, opts.catalogRef)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	req := opts.request(fs)
	req.TopK = 1
	resp, err := p.Rank(ctx, &req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if len(resp.Plans) == 0 {
		if IsJSONOutput() {
			data, _ := json.MarshalIndent(map[string]any{
				"status":   "failed",
				"reason":   "no feasible plan",
				"warnings": resp.Warnings,
			}, "", "  ")
			fmt.Fprintln(w, string(data))
		} else {
			fmt.Fprintf(w, "✗ No feasible plan (%d offerings excluded)\n\nFAILED: no plan to check\n", resp.ExcludedCount)
		}
		return 1
	}

	best := resp.Plans[0]
	results := []checkResult{
		{
			name:      "Monthly cost of " + best.OfferingID,
			value:     best.MonthlyCostUSD,
			threshold: opts.maxMonthlyUSD,
			unit:      "USD",
			passed:    best.MonthlyCostUSD <= opts.maxMonthlyUSD,
		},
		{
			name:      "Total risk",
			value:     best.Risk.TotalRisk,
			threshold: opts.maxRisk,
			passed:    best.Risk.TotalRisk <= opts.maxRisk,
		},
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return 1
	}
	return 0
}

// validateLimits ensures limit values are valid
func validateLimits(maxMonthly, maxRisk float64) error {
	if maxMonthly <= 0 {
		return fmt.Errorf("--max-monthly-usd must be positive")
	}
	if maxRisk < 0 || maxRisk > 1 {
		return fmt.Errorf("--max-risk must be between 0 and 1")
	}
	return nil
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %s (threshold: %s)\n",
			symbol, r.name, formatValue(r.value, r.unit), formatValue(r.threshold, r.unit))
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) exceeded threshold", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) within thresholds", passed)
	}

	return output
}

func formatValue(v float64, unit string) string {
	if unit == "USD" {
		return money(v)
	}
	return fmt.Sprintf("%.2f", v)
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]any, len(results))
	for i, r := range results {
		checks[i] = map[string]any{
			"name":      r.name,
			"value":     r.value,
			"threshold": r.threshold,
			"unit":      r.unit,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	output := map[string]any{
		"status": status,
		"checks": checks,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
