package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/signalsfoundry/transit-finder/internal/logging"
	"github.com/signalsfoundry/transit-finder/model"
)

// TaskResult is one task's outcome, tagged by the task itself. Exactly one
// of Event and Err is set for a non-empty outcome; both nil means the pass
// produced no event.
type TaskResult struct {
	Task    SearchTask
	Event   *model.TransitEvent
	Err     error
	Elapsed time.Duration
}

// Executor fans independent search tasks out over a bounded worker pool.
// Tasks read only their own immutable inputs, so the pool needs no locks;
// each worker writes its results into a distinct slot.
type Executor struct {
	workers int
	timeout time.Duration
	clock   clockwork.Clock
	log     logging.Logger
}

// DefaultWorkers leaves one core free for coordination.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// NewExecutor builds an executor. workers <= 0 selects DefaultWorkers();
// timeout <= 0 disables the per-task deadline; a nil clock selects the real
// one.
func NewExecutor(workers int, timeout time.Duration, clock clockwork.Clock, log logging.Logger) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Executor{workers: workers, timeout: timeout, clock: clock, log: log}
}

// Run executes every task and returns one result per task, in task order.
// A single task's failure (error, panic, or timeout) never aborts or
// reorders its siblings.
func (e *Executor) Run(ctx context.Context, tasks []SearchTask, searcher *Searcher) []TaskResult {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := e.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				task := tasks[idx]
				started := e.clock.Now()
				event, err := e.runOne(ctx, task, searcher)
				if err != nil {
					e.log.Warn(ctx, "search task failed",
						logging.String("task", task.ID()),
						logging.String("error", err.Error()),
					)
					err = &TaskError{
						Satellite: task.Window.Satellite.ID,
						Body:      task.Window.Body,
						Rise:      task.Window.Rise,
						Err:       err,
					}
				}
				// Distinct slot per task: no synchronization needed beyond
				// the final join.
				results[idx] = TaskResult{
					Task:    task,
					Event:   event,
					Err:     err,
					Elapsed: e.clock.Now().Sub(started),
				}
			}
		}()
	}

	for idx := range tasks {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			// Tasks from idx on were never dispatched; mark them cancelled.
			for rest := idx; rest < len(tasks); rest++ {
				results[rest] = TaskResult{Task: tasks[rest], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// runOne executes one task with panic isolation and, when configured, a
// bounded-time guard against a stuck ephemeris lookup.
func (e *Executor) runOne(ctx context.Context, task SearchTask, searcher *Searcher) (*model.TransitEvent, error) {
	if e.timeout <= 0 {
		return runGuarded(ctx, task, searcher)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		event *model.TransitEvent
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		event, err := runGuarded(taskCtx, task, searcher)
		done <- outcome{event: event, err: err}
	}()

	select {
	case out := <-done:
		return out.event, out.err
	case <-e.clock.After(e.timeout):
		cancel()
		return nil, fmt.Errorf("task timed out after %s", e.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runGuarded catches panics at the task boundary so one task's numeric
// failure cannot take down the pool.
func runGuarded(ctx context.Context, task SearchTask, searcher *Searcher) (event *model.TransitEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			event = nil
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return searcher.Run(ctx, task)
}
