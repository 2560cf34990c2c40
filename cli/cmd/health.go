// ABOUTME: Health command for the planner CLI
// ABOUTME: Checks backend connectivity and the loaded catalog

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/inference-capacity-planner/cli/internal/client"
	"github.com/markalston/inference-capacity-planner/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the planner backend and report the loaded catalog.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *models.HealthResponse) string {
	loaded := "-"
	if !resp.LoadedAt.IsZero() {
		loaded = resp.LoadedAt.Format(time.RFC3339)
	}
	return fmt.Sprintf(`Backend:   %s
Status:    %s
Catalog:   %s (%s)
Offerings: %d across %d providers
Loaded:    %s`, url, resp.Status, resp.CatalogVersion, resp.Source, resp.Offerings, resp.Providers, loaded)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *models.HealthResponse) string {
	output := struct {
		Backend string `json:"backend"`
		*models.HealthResponse
	}{url, resp}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
