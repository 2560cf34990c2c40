package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/inference-capacity-planner/models"
)

const minimalYAML = `
version: test-1
models:
  70b:
    display_name: Llama 70B
    recommended_memory_gb: 80
traffic_profiles:
  steady: {active_ratio: 1.0, efficiency: 0.85, burst_factor: 1.0, batch_mult: 1.25}
  business_hours: {active_ratio: 0.238, efficiency: 0.80, burst_factor: 1.0, batch_mult: 1.10}
  bursty: {active_ratio: 0.40, efficiency: 0.70, burst_factor: 3.0, batch_mult: 1.35}
gpus:
  a100_80gb: {name: A100, memory_gb: 80, tokens_per_second: 8000}
offerings:
  - offering_id: runpod-a100
    provider_id: runpod
    billing_mode: hourly
    gpu_type: a100_80gb
    hourly_rate: 0
`

func TestDefault_IsValid(t *testing.T) {
	snap, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "2025.06-default", snap.Version)
	assert.Equal(t, "embedded", snap.Source)
	assert.Len(t, snap.Models, 5)
	assert.Equal(t, 400, snap.Models[models.Model405B].RecommendedMemoryGB)
	assert.InDelta(t, 0.238, snap.TrafficProfiles[models.PatternBusinessHours].ActiveRatio, 1e-9)
	assert.Equal(t,
		[]string{"baseten", "fireworks", "modal", "replicate", "runpod", "together", "vast_ai"},
		snap.ProviderIDs())
}

func TestProviders_Summaries(t *testing.T) {
	snap, err := Default()
	require.NoError(t, err)

	byID := make(map[string]models.ProviderSummary)
	for _, p := range snap.Providers() {
		byID[p.ProviderID] = p
	}

	fireworks := byID["fireworks"]
	assert.Equal(t, "Fireworks AI", fireworks.ProviderName)
	assert.Equal(t, 4, fireworks.Offerings)
	assert.Equal(t, []models.BillingMode{models.BillingAutoscale}, fireworks.BillingModes)
	assert.Contains(t, fireworks.GPUTypes, "h100_80gb")

	together := byID["together"]
	assert.Equal(t, []models.BillingMode{models.BillingPerToken}, together.BillingModes)
	assert.Empty(t, together.GPUTypes)
}

func TestModelAndPatternInfos_CanonicalOrder(t *testing.T) {
	snap, err := Default()
	require.NoError(t, err)

	infos := snap.ModelInfos()
	require.Len(t, infos, 5)
	assert.Equal(t, models.Model8B, infos[0].ModelBucket)
	assert.Equal(t, models.Model405B, infos[2].ModelBucket)

	patterns := snap.TrafficPatternInfos()
	require.Len(t, patterns, 3)
	assert.Equal(t, models.PatternBursty, patterns[2].Pattern)
	assert.InDelta(t, 3.0, patterns[2].BurstFactor, 1e-9)
}

func TestParse_DoesNotValidateRates(t *testing.T) {
	snap, err := Parse([]byte(minimalYAML), "inline.yaml")
	require.NoError(t, err)
	assert.Equal(t, "test-1", snap.Version)
	assert.Zero(t, snap.Offerings[0].HourlyRate)
}

func TestParse_StampsContentHashVersion(t *testing.T) {
	data := []byte(`{
		"models": {"8b": {"display_name": "8B", "recommended_memory_gb": 16}},
		"traffic_profiles": {
			"steady": {"active_ratio": 1, "efficiency": 0.85, "burst_factor": 1, "batch_mult": 1.25},
			"business_hours": {"active_ratio": 0.238, "efficiency": 0.8, "burst_factor": 1, "batch_mult": 1.1},
			"bursty": {"active_ratio": 0.4, "efficiency": 0.7, "burst_factor": 3, "batch_mult": 1.35}
		},
		"offerings": []
	}`)

	first, err := Parse(data, "a.json")
	require.NoError(t, err)
	second, err := Parse(data, "b.json")
	require.NoError(t, err)

	assert.Contains(t, first.Version, "sha256:")
	assert.Equal(t, first.Version, second.Version)
}

func TestValidate_RejectsMalformedSnapshots(t *testing.T) {
	base := func() *Snapshot {
		snap, err := Parse([]byte(minimalYAML), "inline.yaml")
		require.NoError(t, err)
		return snap
	}

	tests := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"unknown billing mode", func(s *Snapshot) { s.Offerings[0].BillingMode = "spot" }},
		{"missing gpu type", func(s *Snapshot) { s.Offerings[0].GPUType = "" }},
		{"missing provider", func(s *Snapshot) { s.Offerings[0].ProviderID = "" }},
		{"duplicate offering", func(s *Snapshot) { s.Offerings = append(s.Offerings, s.Offerings[0]) }},
		{"bad token direction", func(s *Snapshot) { s.Offerings[0].TokenDirection = "both" }},
		{"bad throughput key", func(s *Snapshot) {
			s.Offerings[0].ThroughputByModel = map[string]float64{"gpt-5": 100}
		}},
		{"per token without model", func(s *Snapshot) {
			s.Offerings[0].BillingMode = "per_token"
			s.Offerings[0].ModelBucket = ""
		}},
		{"missing traffic pattern", func(s *Snapshot) {
			delete(s.TrafficProfiles, models.PatternBursty)
		}},
		{"zero efficiency", func(s *Snapshot) {
			s.TrafficProfiles[models.PatternSteady] = models.TrafficProfile{ActiveRatio: 1, BurstFactor: 1, BatchMult: 1}
		}},
		{"empty models", func(s *Snapshot) { s.Models = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base()
			tt.mutate(snap)
			err := snap.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSnapshot))
		})
	}
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	src := FileSource{Path: path}
	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, snap.Source)
	assert.Equal(t, "file:"+path, src.String())

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load(context.Background())
	assert.Error(t, err)
}

func TestURLSource_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog.yaml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(minimalYAML))
	}))
	defer server.Close()

	src, err := NewURLSource(server.URL+"/catalog.yaml", "")
	require.NoError(t, err)

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-1", snap.Version)

	missing, err := NewURLSource(server.URL+"/nope", "")
	require.NoError(t, err)
	_, err = missing.Load(context.Background())
	assert.ErrorContains(t, err, "status 404")
}

func TestNewSource_Precedence(t *testing.T) {
	src, err := NewSource("", "", "")
	require.NoError(t, err)
	assert.Equal(t, "embedded", src.String())

	src, err = NewSource("/tmp/catalog.yaml", "", "")
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/catalog.yaml", src.String())

	src, err = NewSource("/tmp/catalog.yaml", "https://example.com/c.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, "url:https://example.com/c.yaml", src.String())
}

func TestParseProxyURL(t *testing.T) {
	cfg, err := parseProxyURL("ssh+socks5://jumpbox@10.0.0.5:22?private-key=/keys/jumpbox.pem")
	require.NoError(t, err)
	assert.Equal(t, "jumpbox", cfg.Username)
	assert.Equal(t, "10.0.0.5:22", cfg.Host)
	assert.Equal(t, "/keys/jumpbox.pem", cfg.KeyPath)

	_, err = parseProxyURL("ssh+socks5://jumpbox@10.0.0.5:22")
	assert.ErrorContains(t, err, "private-key")

	_, err = parseProxyURL("http://proxy:3128?private-key=/k")
	assert.ErrorContains(t, err, "ssh+socks5")
}

func TestNewURLSource_ProxyKeyMissing(t *testing.T) {
	_, err := NewURLSource("https://example.com/c.yaml",
		"ssh+socks5://u@host:22?private-key="+filepath.Join(t.TempDir(), "absent"))
	assert.ErrorContains(t, err, "failed to read SSH private key")
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	snaps []*Snapshot
	err   error
}

func (c *countingSource) Load(_ context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	snap := c.snaps[c.calls%len(c.snaps)]
	c.calls++
	return snap, nil
}

func (c *countingSource) String() string { return "counting" }

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	src := &countingSource{snaps: []*Snapshot{{Version: "v1"}, {Version: "v2"}}}
	store := NewStore(src)
	assert.Nil(t, store.Snapshot())

	snap, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Version)
	assert.Equal(t, "v1", store.Snapshot().Version)

	_, err = store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", store.Snapshot().Version)
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	src := &countingSource{snaps: []*Snapshot{{Version: "v1"}}}
	store := NewStore(src)
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("upstream down")
	src.mu.Unlock()

	_, err = store.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "v1", store.Snapshot().Version)
}

func TestNewStaticStore(t *testing.T) {
	snap := &Snapshot{Version: "static-1"}
	store := NewStaticStore(snap)
	assert.Same(t, snap, store.Snapshot())
	assert.Equal(t, "static", store.Source())

	reloaded, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, reloaded)
}
