package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/signalsfoundry/transit-finder/ephemeris"
	"github.com/signalsfoundry/transit-finder/model"
)

func TestExecutorRun_PanicIsolation(t *testing.T) {
	eph := &fakeEphemeris{
		projectFn: func(at time.Time, sat model.TrackedSatellite, body model.CelestialBody) (ephemeris.Projection, error) {
			if sat.ID == "SAT-BOOM" {
				panic("synthetic numeric failure")
			}
			return sweepTrack(refTime, 40, 45)(at, sat, body)
		},
		lookFn: sunnyLook(0.1),
	}

	rise, set := refTime.Add(-30*time.Second), refTime.Add(30*time.Second)
	tasks := []SearchTask{
		sunTask("SAT-A", rise, set),
		sunTask("SAT-BOOM", rise, set),
		sunTask("SAT-C", rise, set),
	}

	exec := NewExecutor(2, 0, nil, nil)
	results := exec.Run(context.Background(), tasks, NewSearcher(eph))

	if len(results) != len(tasks) {
		t.Fatalf("got %d results for %d tasks", len(results), len(tasks))
	}
	for i, res := range results {
		if res.Task.Window.Satellite.ID != tasks[i].Window.Satellite.ID {
			t.Errorf("result %d out of task order: %s", i, res.Task.Window.Satellite.ID)
		}
	}

	if results[0].Err != nil || results[0].Event == nil {
		t.Errorf("healthy sibling SAT-A: err=%v event=%v", results[0].Err, results[0].Event)
	}
	if results[2].Err != nil || results[2].Event == nil {
		t.Errorf("healthy sibling SAT-C: err=%v event=%v", results[2].Err, results[2].Event)
	}

	var te *TaskError
	if !errors.As(results[1].Err, &te) {
		t.Fatalf("panicking task err = %v, want *TaskError", results[1].Err)
	}
	if te.Satellite != "SAT-BOOM" {
		t.Errorf("task error satellite = %q, want SAT-BOOM", te.Satellite)
	}
	if !strings.Contains(te.Error(), "task panic") {
		t.Errorf("task error %q should report the recovered panic", te.Error())
	}
}

func TestExecutorRun_TaskTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	eph := &fakeEphemeris{
		projectFn: func(time.Time, model.TrackedSatellite, model.CelestialBody) (ephemeris.Projection, error) {
			<-release
			return ephemeris.Projection{}, ephemeris.ErrNoProjection
		},
	}

	fc := clockwork.NewFakeClock()
	exec := NewExecutor(1, 30*time.Second, fc, nil)
	tasks := []SearchTask{sunTask("SAT-STUCK", refTime.Add(-30*time.Second), refTime.Add(30*time.Second))}

	done := make(chan []TaskResult, 1)
	go func() {
		done <- exec.Run(context.Background(), tasks, NewSearcher(eph))
	}()

	// Wait for the deadline timer, then expire it.
	fc.BlockUntil(1)
	fc.Advance(30 * time.Second)

	results := <-done
	if results[0].Err == nil {
		t.Fatal("expected a timeout error")
	}
	if !strings.Contains(results[0].Err.Error(), "timed out") {
		t.Errorf("err = %v, want a timeout", results[0].Err)
	}
}

func TestExecutorRun_NoTasks(t *testing.T) {
	exec := NewExecutor(4, 0, nil, nil)
	results := exec.Run(context.Background(), nil, NewSearcher(&fakeEphemeris{}))
	if len(results) != 0 {
		t.Fatalf("got %d results for zero tasks", len(results))
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("DefaultWorkers() = %d, want at least 1", n)
	}
}
