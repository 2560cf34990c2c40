// ABOUTME: Entry point for the planner CLI
// ABOUTME: Ranks provider offerings against the API or an offline catalog

package main

import (
	"fmt"
	"os"

	"github.com/markalston/inference-capacity-planner/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
