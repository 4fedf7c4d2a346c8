package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	flag "github.com/spf13/pflag"

	"github.com/signalsfoundry/transit-finder/core"
	"github.com/signalsfoundry/transit-finder/ephemeris"
	"github.com/signalsfoundry/transit-finder/internal/config"
	"github.com/signalsfoundry/transit-finder/internal/logging"
	"github.com/signalsfoundry/transit-finder/internal/observability"
	"github.com/signalsfoundry/transit-finder/model"
)

const dateLayout = "2006-01-02"

func main() {
	lat := flag.Float64("lat", 0, "observer latitude, degrees (-90..90)")
	lon := flag.Float64("lon", 0, "observer longitude, degrees (-180..180)")
	radius := flag.Float64("radius-km", 50, "search radius around the observer, km")
	startStr := flag.String("start", "", "first day of the search range (YYYY-MM-DD)")
	endStr := flag.String("end", "", "last day of the search range, inclusive (YYYY-MM-DD)")
	configPath := flag.String("config", "", "path to YAML config (catalog, tuning)")
	jsonOut := flag.Bool("json", false, "emit events as JSON instead of a table")
	flag.Parse()

	if err := run(*lat, *lon, *radius, *startStr, *endStr, *configPath, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "transit-finder: %v\n", err)
		os.Exit(1)
	}
}

func run(lat, lon, radius float64, startStr, endStr, configPath string, jsonOut bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	metrics, err := observability.NewSearchCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, metrics, log)
	}

	start, end, err := parseRange(startStr, endStr)
	if err != nil {
		return err
	}

	svc := core.NewService(ephemeris.NewProvider(), core.ServiceConfig{
		Logger:      log,
		Metrics:     metrics,
		Workers:     cfg.Workers,
		TaskTimeout: cfg.TaskTimeout.Std(),
		Tuning: core.Tuning{
			CoarseStep:     cfg.Search.CoarseStep.Std(),
			FineHalfWindow: cfg.Search.FineHalfWindow.Std(),
			FineStep:       cfg.Search.FineStep.Std(),
			PruneMarginKm:  cfg.Search.PruneMarginKm,
		},
	})

	result, err := svc.Search(ctx, core.Request{
		Observer:   model.Observer{LatDeg: lat, LonDeg: lon, RadiusKm: radius},
		Start:      start,
		End:        end,
		Satellites: cfg.Catalog(),
	})
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Events)
	}

	render(result)
	return nil
}

// parseRange converts the inclusive day range into search instants: start of
// the first day through the end of the last day, UTC.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both --start and --end are required (YYYY-MM-DD)")
	}
	start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse --end: %w", err)
	}
	return start, end.Add(24 * time.Hour), nil
}

func render(result core.Result) {
	for _, skipped := range result.Skipped {
		pterm.Warning.Printfln("satellite %s skipped: %v", skipped.ID, skipped.Err)
	}
	if len(result.Failures) > 0 {
		pterm.Warning.Printfln("%d search task(s) failed and were excluded", len(result.Failures))
	}

	if len(result.Events) == 0 {
		pterm.Info.Println("no transits found in the given range")
		return
	}

	rows := pterm.TableData{{
		"Time (UTC)", "Satellite", "Body", "Type", "Sep °", "Az °", "El °", "Swath km", "Dur s",
	}}
	for _, ev := range result.Events {
		rows = append(rows, []string{
			ev.Time.Format("2006-01-02 15:04:05.0"),
			ev.Satellite,
			ev.Body,
			string(ev.Type),
			fmt.Sprintf("%.3f", ev.SeparationDeg),
			fmt.Sprintf("%.1f", ev.AzimuthDeg),
			fmt.Sprintf("%.1f", ev.ElevationDeg),
			fmt.Sprintf("%.1f", ev.SwathWidthKm),
			fmt.Sprintf("%.1f", ev.DurationSec),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		fmt.Println(rows)
	}
}

func serveMetrics(ctx context.Context, addr string, metrics *observability.SearchCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info(ctx, "metrics listener starting", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn(ctx, "metrics listener stopped", logging.String("error", err.Error()))
	}
}
