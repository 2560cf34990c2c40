// ABOUTME: Rank command for the planner CLI
// ABOUTME: Ranks provider offerings for a workload and renders the plans

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/markalston/inference-capacity-planner/cli/internal/tui/results"
	"github.com/markalston/inference-capacity-planner/cli/internal/tui/styles"
	"github.com/markalston/inference-capacity-planner/cli/internal/tui/wizard"
	"github.com/markalston/inference-capacity-planner/models"
)

// rankOptions holds the rank command's flags
type rankOptions struct {
	workloadFlags
	interactive bool
	browse      bool
}

func newRankCmd(opts *rankOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank provider offerings for a workload",
		Long: `Estimate GPU capacity and monthly cost for a workload on every catalog offering
and print the best plans by cost/risk score.

Exit codes:
  0 - Ranking completed (possibly with no feasible plans)
  2 - Error (connectivity, invalid input, catalog)`,
		Example: `  planner rank --tokens-per-day 10000000 --model 70b --pattern bursty
  planner rank --tokens-per-day 5000000 --model 8b --provider runpod --provider modal --offline
  planner rank --interactive --browse`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			exitCode := runRank(ctx, os.Stdout, opts, cmd.Flags())
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Collect the workload with an interactive form")
	cmd.Flags().BoolVar(&opts.browse, "browse", false, "Browse the ranked plans in an interactive table")

	return cmd
}

func init() {
	rootCmd.AddCommand(newRankCmd(&rankOptions{}))
}

// runRank executes the ranking and returns exit code
func runRank(ctx context.Context, w io.Writer, opts *rankOptions, fs *pflag.FlagSet) int {
	p, err := newPlanner(ctx, opts.offline, opts.catalogRef)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	req := opts.request(fs)
	if opts.interactive {
		req, err = wizard.New(req, p.ProviderIDs(ctx)).Run()
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	resp, err := p.Rank(ctx, &req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	switch {
	case IsJSONOutput():
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(data))
	case opts.browse:
		if err := results.Run(resp); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	default:
		fmt.Fprintln(w, formatRankHuman(resp))
	}

	return 0
}

// formatRankHuman renders plans, cost spread, exclusions, and warnings
func formatRankHuman(resp *models.RankResponse) string {
	var b strings.Builder

	wl := resp.Workload
	b.WriteString(styles.Title.Render(fmt.Sprintf("%d plan(s) for %s traffic · catalog %s",
		len(resp.Plans), wl.Pattern, resp.CatalogVersion)))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("Average %.1f tok/s, required peak %.1f tok/s",
		wl.AvgTokS, wl.RequiredPeakTPS)))
	b.WriteString("\n\n")

	if len(resp.Plans) > 0 {
		rows := make([][]string, len(resp.Plans))
		for i, p := range resp.Plans {
			gpus := "-"
			if p.GPUType != "" {
				gpus = fmt.Sprintf("%dx %s", p.GPUCount, p.GPUType)
			}
			rows[i] = []string{
				strconv.Itoa(p.Rank),
				p.OfferingID,
				string(p.BillingMode),
				gpus,
				money(p.MonthlyCostUSD),
				money(p.EffectiveCostUSD),
				fmt.Sprintf("%.3f", p.CostPerMTokens),
				string(p.RiskBand),
				p.Confidence,
			}
		}

		b.WriteString(renderTable([]string{"#", "Offering", "Billing", "GPUs", "Monthly", "Effective", "$/M tok", "Risk", "Confidence"}, rows))
		b.WriteString("\n\n")

		for _, p := range resp.Plans {
			fmt.Fprintf(&b, "%s %s\n", styles.KeyStyle.Render(strconv.Itoa(p.Rank)+"."), p.Why)
		}
		b.WriteString("\n")

		s := resp.Summary
		fmt.Fprintf(&b, "Feasible candidates: %d  (min %s, median %s, mean %s, max %s)\n",
			s.Candidates, money(s.MinMonthlyUSD), money(s.MedianMonthlyUSD), money(s.MeanMonthlyUSD), money(s.MaxMonthlyUSD))
	}

	if resp.ExcludedCount > 0 {
		fmt.Fprintf(&b, "Excluded: %d\n", resp.ExcludedCount)
		for _, d := range resp.ProviderDiagnostics {
			target := d.Provider
			if d.OfferingID != "" {
				target = d.OfferingID
			}
			fmt.Fprintf(&b, "  - %s: %s (%s)\n", target, d.Status, d.Reason)
		}
	}

	for _, warning := range resp.Warnings {
		b.WriteString(styles.StatusWarning.Render("Warning: " + warning))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}
