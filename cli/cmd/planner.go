// ABOUTME: Ranking backends for the CLI: the planner API or a local catalog
// ABOUTME: Shared workload flags used by the rank and check commands

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/cli/internal/client"
	"github.com/markalston/inference-capacity-planner/models"
	"github.com/markalston/inference-capacity-planner/services"
)

// planner ranks a request and lists the providers it knows about
type planner interface {
	Rank(ctx context.Context, req *models.RankRequest) (*models.RankResponse, error)
	ProviderIDs(ctx context.Context) []string
}

// remotePlanner delegates to the planner API
type remotePlanner struct {
	client *client.Client
}

func (p remotePlanner) Rank(ctx context.Context, req *models.RankRequest) (*models.RankResponse, error) {
	return p.client.Rank(ctx, req)
}

func (p remotePlanner) ProviderIDs(ctx context.Context) []string {
	providers, err := p.client.Providers(ctx)
	if err != nil {
		slog.Debug("Provider list unavailable", "error", err)
		return nil
	}
	return lo.Map(providers, func(p models.ProviderSummary, _ int) string { return p.ProviderID })
}

// offlinePlanner runs the ranking pipeline in-process
type offlinePlanner struct {
	snap   *catalog.Snapshot
	ranker *services.Ranker
}

func (p offlinePlanner) Rank(_ context.Context, req *models.RankRequest) (*models.RankResponse, error) {
	return p.ranker.RankRequest(p.snap, *req)
}

func (p offlinePlanner) ProviderIDs(_ context.Context) []string {
	return p.snap.ProviderIDs()
}

// newPlanner returns the API planner, or a local one when offline is set.
// catalogRef may be a file path or an http(s) URL; empty uses the embedded catalog.
func newPlanner(ctx context.Context, offline bool, catalogRef string) (planner, error) {
	if !offline {
		return remotePlanner{client: client.New(GetAPIURL())}, nil
	}

	var path, url string
	if strings.HasPrefix(catalogRef, "http://") || strings.HasPrefix(catalogRef, "https://") {
		url = catalogRef
	} else {
		path = catalogRef
	}

	source, err := catalog.NewSource(path, url, "")
	if err != nil {
		return nil, err
	}
	snap, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog from %s: %w", source, err)
	}
	slog.Debug("Loaded offline catalog", "source", source.String(), "version", snap.Version, "offerings", len(snap.Offerings))

	return offlinePlanner{snap: snap, ranker: services.NewRanker(services.DefaultRankDefaults)}, nil
}

// workloadFlags are the request flags shared by rank and check
type workloadFlags struct {
	tokensPerDay int64
	model        string
	pattern      string
	providers    []string
	latencyMs    int
	utilTarget   float64
	alpha        float64
	beta         float64
	outputRatio  float64
	budget       float64
	topK         int

	offline    bool
	catalogRef string
}

func (f *workloadFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int64Var(&f.tokensPerDay, "tokens-per-day", 0, "Total tokens served per day")
	fs.StringVar(&f.model, "model", "", "Model bucket (8b, 70b, 405b, mixtral_8x7b, mistral_7b)")
	fs.StringVar(&f.pattern, "pattern", "steady", "Traffic pattern (steady, business_hours, bursty)")
	fs.StringSliceVar(&f.providers, "provider", nil, "Restrict to provider IDs (repeatable)")
	fs.IntVar(&f.latencyMs, "latency-ms", 0, "Latency requirement in milliseconds")
	fs.Float64Var(&f.utilTarget, "util-target", 0, "Target GPU utilization in [0.05, 1] (default 0.75)")
	fs.Float64Var(&f.alpha, "alpha", 0, "Risk multiplier weight")
	fs.Float64Var(&f.beta, "beta", 0, "Per-extra-GPU complexity coefficient")
	fs.Float64Var(&f.outputRatio, "output-token-ratio", 0, "Output weight when blending split per-token prices")
	fs.Float64Var(&f.budget, "budget", 0, "Exclude plans above this monthly USD amount")
	fs.IntVar(&f.topK, "top-k", 0, "Number of plans to return (default 3)")
	fs.BoolVar(&f.offline, "offline", false, "Rank locally instead of calling the API")
	fs.StringVar(&f.catalogRef, "catalog", "", "Catalog file or URL for --offline (default: embedded catalog)")
}

// request builds a RankRequest. Optional knobs are only sent when their flag
// was given, so the service applies its own defaults otherwise.
func (f *workloadFlags) request(fs *pflag.FlagSet) models.RankRequest {
	req := models.RankRequest{
		TokensPerDay:   f.tokensPerDay,
		ModelBucket:    f.model,
		TrafficPattern: f.pattern,
		ProviderIDs:    f.providers,
		UtilTarget:     f.utilTarget,
		TopK:           f.topK,
	}
	if fs.Changed("latency-ms") {
		req.LatencyRequirementMs = lo.ToPtr(f.latencyMs)
	}
	if fs.Changed("alpha") {
		req.Alpha = lo.ToPtr(f.alpha)
	}
	if fs.Changed("beta") {
		req.Beta = lo.ToPtr(f.beta)
	}
	if fs.Changed("output-token-ratio") {
		req.OutputTokenRatio = lo.ToPtr(f.outputRatio)
	}
	if fs.Changed("budget") {
		req.MonthlyBudgetMaxUSD = lo.ToPtr(f.budget)
	}
	return req
}
