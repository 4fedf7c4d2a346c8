// Package core implements the transit search engine: pass-window task
// generation, the coarse-to-fine closest-approach search, parallel task
// execution, and deterministic result aggregation.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/transit-finder/internal/logging"
	"github.com/signalsfoundry/transit-finder/internal/observability"
	"github.com/signalsfoundry/transit-finder/model"
)

// Request is one transit search: an observer, an inclusive date range, and
// the satellites to check. An empty satellite list selects the default
// catalog.
type Request struct {
	Observer   model.Observer
	Start      time.Time
	End        time.Time
	Satellites []model.TrackedSatellite
}

// Result is the outcome of a search. Events is the ordered event list;
// Skipped and Failures surface partial coverage. An empty Events with no
// error is a valid result.
type Result struct {
	Events   []model.TransitEvent
	Skipped  []SkippedSatellite
	Failures []*TaskError
}

// Partial reports whether any satellite or task was dropped from the search.
func (r Result) Partial() bool {
	return len(r.Skipped) > 0 || len(r.Failures) > 0
}

// ServiceConfig wires the service's collaborators. Zero values select
// sensible defaults.
type ServiceConfig struct {
	Logger      logging.Logger
	Metrics     *observability.SearchCollector
	Workers     int           // worker pool size; <= 0 selects NumCPU-1
	TaskTimeout time.Duration // per-task deadline; <= 0 disables
	Clock       clockwork.Clock
	Tuning      Tuning
}

// Service is the search engine's front door.
type Service struct {
	eph      Ephemeris
	searcher *Searcher
	exec     *Executor
	log      logging.Logger
	metrics  *observability.SearchCollector
	tracer   trace.Tracer
	tuning   Tuning
}

// NewService builds a search service around an ephemeris capability.
func NewService(eph Ephemeris, cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Service{
		eph:      eph,
		searcher: NewSearcher(eph),
		exec:     NewExecutor(cfg.Workers, cfg.TaskTimeout, cfg.Clock, log),
		log:      log,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("transit-finder/core"),
		tuning:   cfg.Tuning.normalized(),
	}
}

// Search runs the full pipeline: validate, enumerate pass windows, fan the
// tasks out, aggregate. Input validation failures reject the request before
// any task is generated; per-satellite and per-task failures degrade the
// result instead of failing it.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	ctx, log := logging.WithRequestLogger(ctx, s.log)

	if err := req.Observer.Validate(); err != nil {
		return Result{}, err
	}
	if req.Start.IsZero() || req.End.IsZero() || req.Start.After(req.End) {
		return Result{}, &model.ValidationError{
			Field:  "date_range",
			Reason: "start must not be after end",
		}
	}

	sats := req.Satellites
	if len(sats) == 0 {
		sats = model.DefaultCatalog()
	}

	ctx, span := s.tracer.Start(ctx, "transit.search", trace.WithAttributes(
		attribute.Float64("observer.lat", req.Observer.LatDeg),
		attribute.Float64("observer.lon", req.Observer.LonDeg),
		attribute.Float64("observer.radius_km", req.Observer.RadiusKm),
		attribute.Int("satellites", len(sats)),
	))
	defer span.End()

	started := time.Now()

	// The search scans [start, end] as instants; callers with whole-day
	// semantics extend end to the end of its day before building the
	// request.
	enumCtx, enumSpan := s.tracer.Start(ctx, "transit.enumerate")
	tasks, skipped := GenerateTasks(enumCtx, s.eph, log, sats, req.Observer, req.Start, req.End, s.tuning)
	enumSpan.SetAttributes(
		attribute.Int("tasks", len(tasks)),
		attribute.Int("skipped_satellites", len(skipped)),
	)
	enumSpan.End()

	s.metrics.AddPassWindows(len(tasks) / len(model.Bodies()))

	execCtx, execSpan := s.tracer.Start(ctx, "transit.execute")
	results := s.exec.Run(execCtx, tasks, s.searcher)
	execSpan.End()

	_, aggSpan := s.tracer.Start(ctx, "transit.aggregate")
	events, failures, err := Aggregate(results)
	aggSpan.End()
	if err != nil {
		s.metrics.ObserveSearch("internal_error", time.Since(started))
		return Result{}, fmt.Errorf("aggregate results: %w", err)
	}

	s.recordTaskMetrics(results)
	for _, ev := range events {
		s.metrics.RecordEvent(ev.Body, string(ev.Type))
	}
	s.metrics.ObserveSearch("ok", time.Since(started))

	log.Info(ctx, "search complete",
		logging.Int("tasks", len(tasks)),
		logging.Int("events", len(events)),
		logging.Int("skipped_satellites", len(skipped)),
		logging.Int("failed_tasks", len(failures)),
		logging.Duration("elapsed", time.Since(started)),
	)

	return Result{Events: events, Skipped: skipped, Failures: failures}, nil
}

func (s *Service) recordTaskMetrics(results []TaskResult) {
	for _, res := range results {
		status := "empty"
		switch {
		case res.Err != nil:
			status = "failed"
		case res.Event != nil:
			status = "event"
		}
		s.metrics.RecordTask(status, res.Elapsed)
	}
}
