package core

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalsfoundry/transit-finder/model"
)

// Aggregate merges per-task outcomes into the final ordered event list.
// Failures are separated out for the caller; non-events are dropped. Events
// are sorted ascending by timestamp with the satellite identifier as a
// stable secondary key, and deduplicated per (satellite, body, timestamp),
// so identical inputs always produce identical output regardless of worker
// scheduling.
func Aggregate(results []TaskResult) ([]model.TransitEvent, []*TaskError, error) {
	var events []model.TransitEvent
	var failures []*TaskError

	for _, res := range results {
		if res.Err != nil {
			var te *TaskError
			if errors.As(res.Err, &te) {
				failures = append(failures, te)
			} else {
				failures = append(failures, &TaskError{
					Satellite: res.Task.Window.Satellite.ID,
					Body:      res.Task.Window.Body,
					Rise:      res.Task.Window.Rise,
					Err:       res.Err,
				})
			}
			continue
		}
		if res.Event != nil {
			events = append(events, *res.Event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		if events[i].Satellite != events[j].Satellite {
			return events[i].Satellite < events[j].Satellite
		}
		return events[i].Body < events[j].Body
	})

	events = dedupe(events)

	// Order violations past this point are an internal defect, never a
	// user-reachable condition.
	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			return nil, failures, fmt.Errorf(
				"aggregation invariant violated: %s before %s at index %d",
				events[i].Time.Format("2006-01-02T15:04:05.000Z07:00"),
				events[i-1].Time.Format("2006-01-02T15:04:05.000Z07:00"),
				i,
			)
		}
	}

	return events, failures, nil
}

// dedupe removes events that duplicate an earlier (satellite, body,
// timestamp) triple. The input is already sorted, so duplicates are adjacent.
func dedupe(events []model.TransitEvent) []model.TransitEvent {
	if len(events) < 2 {
		return events
	}
	out := events[:1]
	for _, ev := range events[1:] {
		last := out[len(out)-1]
		if ev.Satellite == last.Satellite && ev.Body == last.Body && ev.Time.Equal(last.Time) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
