// ABOUTME: Root command for the planner CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/inference-capacity-planner/logger"
)

var (
	apiURL     string
	jsonOutput bool
	verbose    bool
)

const (
	defaultAPIURL = "http://localhost:8080"
	apiURLEnv     = "PLANNER_API_URL"
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "CLI for the Inference Capacity Planner",
	Long: `planner estimates GPU capacity and monthly cost for serving an LLM workload
and ranks hosting provider offerings by a cost/risk score.

Commands talk to the planner API unless --offline is given, in which case the
ranking runs locally against the embedded catalog or a catalog file.

Environment Variables:
  PLANNER_API_URL  Backend API URL (default: http://localhost:8080)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitCLI(verbose)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides PLANNER_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv(apiURLEnv); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
