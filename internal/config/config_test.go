package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %s/%s, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.TaskTimeout.Std() != 30*time.Second {
		t.Errorf("task timeout = %s, want 30s", cfg.TaskTimeout.Std())
	}
	if cfg.Workers != 0 {
		t.Errorf("workers = %d, want 0 (auto)", cfg.Workers)
	}
}

func TestLoad_FileAndCatalog(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
workers: 3
task_timeout: 45s
search:
  coarse_step: 4s
  prune_margin_km: 250
satellites:
  - id: ISS
    name: ISS (ZARYA)
    line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
    line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Workers != 3 || cfg.TaskTimeout.Std() != 45*time.Second {
		t.Errorf("file settings not applied: %+v", cfg)
	}
	if cfg.Search.CoarseStep.Std() != 4*time.Second || cfg.Search.PruneMarginKm != 250 {
		t.Errorf("search settings = %+v", cfg.Search)
	}

	sats := cfg.Catalog()
	if len(sats) != 1 || sats[0].ID != "ISS" || sats[0].Name != "ISS (ZARYA)" {
		t.Errorf("catalog = %+v", sats)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\nworkers: 3\n")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("TRANSIT_WORKERS", "8")
	t.Setenv("TRANSIT_TASK_TIMEOUT", "1m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %s, want env override warn", cfg.LogLevel)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want env override 8", cfg.Workers)
	}
	if cfg.TaskTimeout.Std() != time.Minute {
		t.Errorf("task timeout = %s, want 1m", cfg.TaskTimeout.Std())
	}
}

func TestLoad_RejectsBadEnv(t *testing.T) {
	t.Setenv("TRANSIT_WORKERS", "-2")
	if _, err := Load(""); err == nil {
		t.Error("negative TRANSIT_WORKERS accepted")
	}
	t.Setenv("TRANSIT_WORKERS", "")
	t.Setenv("TRANSIT_TASK_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Error("unparseable TRANSIT_TASK_TIMEOUT accepted")
	}
}

func TestLoad_RejectsInvalidSatellite(t *testing.T) {
	path := writeConfig(t, `
satellites:
  - id: BROKEN
    line1: "garbage"
    line2: "garbage"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("malformed TLE accepted")
	}
	if !strings.Contains(err.Error(), "satellites[0]") {
		t.Errorf("error %q should name the offending entry", err)
	}
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "task_timeout: soonish\n")
	if _, err := Load(path); err == nil {
		t.Error("unparseable task_timeout accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestCatalog_FallsBackToDefault(t *testing.T) {
	cfg := &Config{}
	sats := cfg.Catalog()
	if len(sats) == 0 {
		t.Fatal("expected the built-in catalog")
	}
}

func TestCatalog_NameDefaultsToID(t *testing.T) {
	cfg := &Config{Satellites: []SatelliteEntry{{
		ID:    "ISS",
		Line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
		Line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
	}}}
	sats := cfg.Catalog()
	if sats[0].Name != "ISS" {
		t.Errorf("name = %q, want the ID as fallback", sats[0].Name)
	}
}
