// ABOUTME: Tests for the rank command
// ABOUTME: Covers flag mapping, offline ranking, remote ranking, and formatting

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/inference-capacity-planner/models"
)

func parseRankFlags(t *testing.T, args ...string) *rankOptions {
	t.Helper()
	opts := &rankOptions{}
	cmd := newRankCmd(opts)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return opts
}

func rankWith(t *testing.T, args ...string) (int, string) {
	t.Helper()
	opts := &rankOptions{}
	cmd := newRankCmd(opts)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	var buf bytes.Buffer
	code := runRank(context.Background(), &buf, opts, cmd.Flags())
	return code, buf.String()
}

func TestWorkloadFlags_OnlyChangedKnobsAreSent(t *testing.T) {
	opts := &rankOptions{}
	cmd := newRankCmd(opts)
	if err := cmd.ParseFlags([]string{
		"--tokens-per-day", "10000000", "--model", "70b", "--pattern", "bursty",
		"--provider", "runpod", "--provider", "modal", "--alpha", "0", "--budget", "5000",
	}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	req := opts.request(cmd.Flags())

	if req.TokensPerDay != 10_000_000 || req.ModelBucket != "70b" || req.TrafficPattern != "bursty" {
		t.Errorf("unexpected workload %+v", req)
	}
	if len(req.ProviderIDs) != 2 || req.ProviderIDs[1] != "modal" {
		t.Errorf("expected providers [runpod modal], got %v", req.ProviderIDs)
	}
	if req.Alpha == nil || *req.Alpha != 0 {
		t.Error("expected explicit alpha=0 to be sent")
	}
	if req.MonthlyBudgetMaxUSD == nil || *req.MonthlyBudgetMaxUSD != 5000 {
		t.Error("expected budget 5000")
	}
	if req.Beta != nil || req.OutputTokenRatio != nil || req.LatencyRequirementMs != nil {
		t.Error("expected unset knobs to stay nil")
	}
}

func TestRank_Offline(t *testing.T) {
	code, out := rankWith(t, "--offline", "--tokens-per-day", "10000000", "--model", "70b", "--pattern", "steady")

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	for _, want := range []string{"2025.06-default", "together-llama-70b", "Feasible candidates"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRank_OfflineJSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	code, out := rankWith(t, "--offline", "--tokens-per-day", "1000000", "--model", "8b", "--top-k", "2")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}

	var resp models.RankResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(resp.Plans) != 2 {
		t.Errorf("expected 2 plans, got %d", len(resp.Plans))
	}
}

func TestRank_OfflineInvalidInput(t *testing.T) {
	code, out := rankWith(t, "--offline", "--tokens-per-day", "0", "--model", "8b")

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out, "tokens_per_day") {
		t.Errorf("expected the invalid field in the error, got %s", out)
	}
}

func TestRank_OfflineMissingCatalog(t *testing.T) {
	code, out := rankWith(t, "--offline", "--catalog", "/nonexistent/catalog.yaml", "--tokens-per-day", "10", "--model", "8b")

	if code != 2 || !strings.Contains(out, "Error:") {
		t.Errorf("expected exit code 2 with error, got %d: %s", code, out)
	}
}

func TestRank_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RankRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ModelBucket != "405b" {
			t.Errorf("expected model 405b, got %s", req.ModelBucket)
		}
		json.NewEncoder(w).Encode(models.RankResponse{
			CatalogVersion:      "remote-v1",
			Plans:               []models.RankedPlan{},
			ProviderDiagnostics: []models.Diagnostic{{Provider: "nosuch", Status: models.StatusUnknownProvider, Reason: "not in catalog"}},
			ExcludedCount:       1,
			Warnings:            []string{models.WarningNoFeasible},
		})
	}))
	defer server.Close()

	apiURL = server.URL
	defer func() { apiURL = "" }()

	code, out := rankWith(t, "--tokens-per-day", "10", "--model", "405b", "--provider", "nosuch")

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	for _, want := range []string{"remote-v1", "nosuch: unknown_provider", models.WarningNoFeasible} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestMoney(t *testing.T) {
	if got := money(1234567.891); got != "$1,234,567.89" {
		t.Errorf("expected $1,234,567.89, got %s", got)
	}
}

func TestParseRankFlags_Defaults(t *testing.T) {
	opts := parseRankFlags(t)
	if opts.pattern != "steady" || opts.offline || opts.interactive || opts.browse {
		t.Errorf("unexpected defaults %+v", opts)
	}
}
