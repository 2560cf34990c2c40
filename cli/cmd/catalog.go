// ABOUTME: Providers and models commands for the planner CLI
// ABOUTME: List what the backend's active catalog can rank

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/markalston/inference-capacity-planner/cli/internal/client"
	"github.com/markalston/inference-capacity-planner/cli/internal/tui/styles"
	"github.com/markalston/inference-capacity-planner/models"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List providers in the active catalog",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runProviders(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model buckets and their memory requirements",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runModels(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runProviders(ctx context.Context, w io.Writer) int {
	providers, err := client.New(GetAPIURL()).Providers(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(providers, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	rows := lo.Map(providers, func(p models.ProviderSummary, _ int) []string {
		modes := lo.Map(p.BillingModes, func(m models.BillingMode, _ int) string { return string(m) })
		return []string{p.ProviderID, p.ProviderName, fmt.Sprint(p.Offerings), strings.Join(modes, ", "), strings.Join(p.GPUTypes, ", ")}
	})
	fmt.Fprintln(w, renderTable([]string{"Provider", "Name", "Offerings", "Billing", "GPUs"}, rows))
	return 0
}

func runModels(ctx context.Context, w io.Writer) int {
	infos, err := client.New(GetAPIURL()).Models(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(infos, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	rows := lo.Map(infos, func(m models.ModelInfo, _ int) []string {
		return []string{string(m.ModelBucket), m.DisplayName, fmt.Sprintf("%d GB", m.RecommendedMemoryGB)}
	})
	fmt.Fprintln(w, renderTable([]string{"Bucket", "Model", "Min GPU memory"}, rows))
	return 0
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers(headers...).
		Rows(rows...).
		String()
}
