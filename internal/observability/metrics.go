package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchCollector bundles Prometheus metrics for the transit search engine.
// All methods are safe on a nil receiver so callers can run unmetered.
type SearchCollector struct {
	gatherer prometheus.Gatherer

	Searches        *prometheus.CounterVec
	SearchDurations prometheus.Histogram
	PassWindows     prometheus.Counter
	Tasks           *prometheus.CounterVec
	TaskDurations   prometheus.Histogram
	Events          *prometheus.CounterVec
}

// NewSearchCollector registers the search metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSearchCollector(reg prometheus.Registerer) (*SearchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_searches_total",
		Help: "Total number of completed searches, labeled by outcome.",
	}, []string{"outcome"})
	searches, err := registerCounterVec(reg, searches, "transit_searches_total")
	if err != nil {
		return nil, err
	}

	searchDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transit_search_duration_seconds",
		Help:    "End-to-end search latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}), "transit_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	passWindows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transit_pass_windows_total",
		Help: "Total number of pass windows enumerated across all searches.",
	}), "transit_pass_windows_total")
	if err != nil {
		return nil, err
	}

	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_search_tasks_total",
		Help: "Total number of executed search tasks, labeled by status (event, empty, failed).",
	}, []string{"status"})
	tasks, err = registerCounterVec(reg, tasks, "transit_search_tasks_total")
	if err != nil {
		return nil, err
	}

	taskDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transit_task_duration_seconds",
		Help:    "Per-task coarse-to-fine search latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "transit_task_duration_seconds")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_events_total",
		Help: "Total number of emitted transit events, labeled by body and type.",
	}, []string{"body", "type"})
	events, err = registerCounterVec(reg, events, "transit_events_total")
	if err != nil {
		return nil, err
	}

	return &SearchCollector{
		gatherer:        gatherer,
		Searches:        searches,
		SearchDurations: searchDurations,
		PassWindows:     passWindows,
		Tasks:           tasks,
		TaskDurations:   taskDurations,
		Events:          events,
	}, nil
}

// ObserveSearch records one completed search.
func (c *SearchCollector) ObserveSearch(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Searches != nil {
		c.Searches.WithLabelValues(outcome).Inc()
	}
	if c.SearchDurations != nil {
		c.SearchDurations.Observe(elapsed.Seconds())
	}
}

// AddPassWindows counts enumerated pass windows.
func (c *SearchCollector) AddPassWindows(n int) {
	if c == nil || c.PassWindows == nil || n <= 0 {
		return
	}
	c.PassWindows.Add(float64(n))
}

// RecordTask records one executed task's status and duration.
func (c *SearchCollector) RecordTask(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Tasks != nil {
		c.Tasks.WithLabelValues(status).Inc()
	}
	if c.TaskDurations != nil {
		c.TaskDurations.Observe(elapsed.Seconds())
	}
}

// RecordEvent counts one emitted event.
func (c *SearchCollector) RecordEvent(body, eventType string) {
	if c == nil || c.Events == nil {
		return
	}
	c.Events.WithLabelValues(body, eventType).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SearchCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
