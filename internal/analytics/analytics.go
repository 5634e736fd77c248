// Package analytics accumulates per-call performance samples and per-feature
// value samples into running statistics for a process run.
//
// Sample buffers are bounded by the configured max_samples (oldest dropped
// first) so long runs cannot grow memory without limit.
package analytics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
)

// trendFeatures are the audio features tracked for trend statistics.
var trendFeatures = []string{"danceability", "energy", "valence", "acousticness", "instrumentalness"}

// similarityFeatures is the fixed subset compared by [Collector.Similarity].
var similarityFeatures = []string{"danceability", "energy", "valence", "acousticness"}

// CallSample records one catalog call. Appended, never mutated.
type CallSample struct {
	Endpoint  string        `json:"endpoint"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
}

// FeatureStats summarizes one feature's observed values.
type FeatureStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// Summary is the exportable aggregate of a run's collected metrics.
type Summary struct {
	Calls           map[string]int          `json:"calls"`
	Successes       map[string]int          `json:"successes"`
	AverageDuration float64                 `json:"avg_response_time_seconds"`
	SuccessRate     float64                 `json:"success_rate"`
	Features        map[string]FeatureStats `json:"audio_feature_analysis"`
}

// Collector folds call and feature samples into running state.
// Safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	enabled    bool
	maxSamples int
	calls      map[string]int
	successes  map[string]int
	samples    []CallSample
	features   map[string][]float64

	now func() time.Time
}

// NewCollector creates a Collector with the given settings. When metrics are
// disabled every recording method is a no-op.
func NewCollector(cfg shared.AnalyticsConfig) *Collector {
	return &Collector{
		enabled:    cfg.EnableMetrics,
		maxSamples: cfg.MaxSamples,
		calls:      make(map[string]int),
		successes:  make(map[string]int),
		features:   make(map[string][]float64),
		now:        time.Now,
	}
}

// RecordCall appends a call sample and bumps the endpoint's counters.
func (c *Collector) RecordCall(endpoint string, duration time.Duration, success bool) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[endpoint]++
	if success {
		c.successes[endpoint]++
	}

	c.samples = append(c.samples, CallSample{
		Endpoint:  endpoint,
		Duration:  duration,
		Success:   success,
		Timestamp: c.now(),
	})
	if c.maxSamples > 0 && len(c.samples) > c.maxSamples {
		c.samples = c.samples[len(c.samples)-c.maxSamples:]
	}
}

// RecordFeatures appends each record's observed values for the tracked
// feature names.
func (c *Collector) RecordFeatures(records []*models.TrackRecord) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, record := range records {
		for _, name := range trendFeatures {
			value, present := record.AudioFeatures[name]
			if !present {
				continue
			}

			values := append(c.features[name], value)
			if c.maxSamples > 0 && len(values) > c.maxSamples {
				values = values[len(values)-c.maxSamples:]
			}
			c.features[name] = values
		}
	}
}

// Similarity compares two record sets on the fixed feature subset as the
// average of 1 - |mean(a) - mean(b)| per feature, over features observed on
// both sides. Returns 0 when either set is empty.
func (c *Collector) Similarity(a, b []*models.TrackRecord) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var scores []float64
	for _, name := range similarityFeatures {
		valuesA := featureValues(a, name)
		valuesB := featureValues(b, name)
		if len(valuesA) == 0 || len(valuesB) == 0 {
			continue
		}
		scores = append(scores, 1-math.Abs(mean(valuesA)-mean(valuesB)))
	}

	if len(scores) == 0 {
		return 0
	}
	return mean(scores)
}

// Summary computes the exportable aggregate. Empty state yields zero-valued
// rate and duration fields; features with no samples are omitted.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := Summary{
		Calls:     make(map[string]int, len(c.calls)),
		Successes: make(map[string]int, len(c.successes)),
		Features:  make(map[string]FeatureStats, len(c.features)),
	}
	for endpoint, n := range c.calls {
		summary.Calls[endpoint] = n
	}
	for endpoint, n := range c.successes {
		summary.Successes[endpoint] = n
	}

	if len(c.samples) > 0 {
		var total float64
		succeeded := 0
		for _, sample := range c.samples {
			total += sample.Duration.Seconds()
			if sample.Success {
				succeeded++
			}
		}
		summary.AverageDuration = total / float64(len(c.samples))
		summary.SuccessRate = float64(succeeded) / float64(len(c.samples))
	}

	for name, values := range c.features {
		if len(values) == 0 {
			continue
		}
		summary.Features[name] = FeatureStats{
			Mean:   mean(values),
			Median: median(values),
			StdDev: stddev(values),
		}
	}

	return summary
}

func featureValues(records []*models.TrackRecord, name string) []float64 {
	var values []float64
	for _, record := range records {
		if value, present := record.AudioFeatures[name]; present {
			values = append(values, value)
		}
	}
	return values
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stddev is the sample standard deviation; fewer than two samples yield 0.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
