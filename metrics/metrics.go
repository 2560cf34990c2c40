// ABOUTME: Prometheus collectors for ranking, catalog, cache, and HTTP traffic
// ABOUTME: Registered once per process via InitMetrics; recorders are no-ops until then

package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markalston/inference-capacity-planner/models"
)

// Rank outcomes
const (
	OutcomeOK           = "ok"
	OutcomeCached       = "cached"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

const (
	maxLabelLength = 128
	unknownLabel   = "unknown"
)

var (
	rankRequestsTotal   *prometheus.CounterVec
	rankDuration        prometheus.Histogram
	plansReturned       prometheus.Histogram
	excludedOfferings   *prometheus.CounterVec
	cacheLookupsTotal   *prometheus.CounterVec
	catalogInfo         *prometheus.GaugeVec
	catalogReloadsTotal *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	initOnce sync.Once
	initErr  error
)

func sanitizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return unknownLabel
	}
	if len(value) > maxLabelLength {
		return value[:maxLabelLength]
	}
	return value
}

// InitMetrics registers the planner collectors with registry. Only the first
// call registers; later calls return the first call's error.
func InitMetrics(registry prometheus.Registerer) error {
	initOnce.Do(func() {
		rankRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_rank_requests_total",
				Help: "Ranking requests by outcome",
			},
			[]string{"outcome"},
		)
		rankDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_rank_duration_seconds",
				Help:    "Time spent computing a ranking, excluding cache hits",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
		)
		plansReturned = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_rank_plans_returned",
				Help:    "Number of plans in each ranking response",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
			},
		)
		excludedOfferings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_excluded_offerings_total",
				Help: "Offerings excluded from rankings by diagnostic status",
			},
			[]string{"status"},
		)
		cacheLookupsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_cache_lookups_total",
				Help: "Rank response cache lookups by result",
			},
			[]string{"result"},
		)
		catalogInfo = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "planner_catalog_info",
				Help: "Active catalog snapshot (value is always 1)",
			},
			[]string{"version", "source"},
		)
		catalogReloadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_catalog_reloads_total",
				Help: "Catalog reload attempts by result",
			},
			[]string{"result"},
		)
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "code"},
		)
		httpRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		for name, c := range map[string]prometheus.Collector{
			"rankRequestsTotal":   rankRequestsTotal,
			"rankDuration":        rankDuration,
			"plansReturned":       plansReturned,
			"excludedOfferings":   excludedOfferings,
			"cacheLookupsTotal":   cacheLookupsTotal,
			"catalogInfo":         catalogInfo,
			"catalogReloadsTotal": catalogReloadsTotal,
			"httpRequestsTotal":   httpRequestsTotal,
			"httpRequestDuration": httpRequestDuration,
		} {
			if err := registry.Register(c); err != nil {
				initErr = fmt.Errorf("failed to register %s metric: %w", name, err)
				return
			}
		}
	})

	return initErr
}

// Handler serves the registry in the Prometheus exposition format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordRank counts one computed ranking and its exclusions
func RecordRank(elapsed time.Duration, resp *models.RankResponse) {
	if rankRequestsTotal == nil {
		return
	}
	rankRequestsTotal.WithLabelValues(OutcomeOK).Inc()
	rankDuration.Observe(elapsed.Seconds())
	if resp == nil {
		return
	}
	plansReturned.Observe(float64(len(resp.Plans)))
	for _, d := range resp.ProviderDiagnostics {
		excludedOfferings.WithLabelValues(sanitizeLabel(d.Status)).Inc()
	}
}

// RecordRankOutcome counts a ranking request that did not compute a new result
func RecordRankOutcome(outcome string) {
	if rankRequestsTotal == nil {
		return
	}
	rankRequestsTotal.WithLabelValues(sanitizeLabel(outcome)).Inc()
}

func RecordCacheLookup(hit bool) {
	if cacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetCatalog marks version as the only active snapshot
func SetCatalog(version, source string) {
	if catalogInfo == nil {
		return
	}
	catalogInfo.Reset()
	catalogInfo.WithLabelValues(sanitizeLabel(version), sanitizeLabel(source)).Set(1)
}

func RecordCatalogReload(err error) {
	if catalogReloadsTotal == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	catalogReloadsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTP records a served request. route should be the registered
// pattern, not the raw path, to bound label cardinality.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	method = sanitizeLabel(method)
	route = sanitizeLabel(route)
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
