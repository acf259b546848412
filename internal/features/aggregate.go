package features

import (
	"context"
	"fmt"

	"github.com/khanglvm/forkfeat/internal/storage"
)

// Source is the part of the event store the aggregator reads.
type Source interface {
	CountInWindow(ctx context.Context, q storage.WindowQuery) (int, error)
	EventsInWindow(ctx context.Context, q storage.WindowQuery) ([]storage.InteractionEvent, error)
	CountFollowUps(ctx context.Context, q storage.FollowUpQuery) (int, error)
}

// Selector names the interaction events a feature counts.
type Selector struct {
	Field storage.Field `json:"field"`
	Names []string      `json:"names"`
}

// Commands selects events by command name.
func Commands(names ...string) Selector {
	return Selector{Field: storage.FieldCommand, Names: names}
}

// EclipseCommands selects events by IDE command identifier.
func EclipseCommands(names ...string) Selector {
	return Selector{Field: storage.FieldEclipseCommand, Names: names}
}

// Aggregator counts interaction events in windows around annotated events.
// It holds no state besides the source and is safe for concurrent use when
// the source is.
type Aggregator struct {
	src Source
}

// NewAggregator creates an aggregator over src.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Count returns how many events named name, for the event's participant,
// fall inside w.
func (a *Aggregator) Count(ctx context.Context, event storage.AnnotatedEvent, field storage.Field, name string, w Window) (int, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	return a.src.CountInWindow(ctx, storage.WindowQuery{
		Participant: event.Participant,
		Anchor:      event.VideoTime,
		Field:       field,
		Name:        name,
		Start:       w.Start,
		End:         w.End,
	})
}

// GroupCount sums Count over every name of sel.
func (a *Aggregator) GroupCount(ctx context.Context, event storage.AnnotatedEvent, sel Selector, w Window) (int, error) {
	total := 0
	for _, name := range sel.Names {
		n, err := a.Count(ctx, event, sel.Field, name, w)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Pair returns the before and after counts of sel for the given bounds.
func (a *Aggregator) Pair(ctx context.Context, event storage.AnnotatedEvent, sel Selector, b Bounds) (before, after int, err error) {
	before, err = a.GroupCount(ctx, event, sel, b.Window(PhaseBefore))
	if err != nil {
		return 0, 0, err
	}
	after, err = a.GroupCount(ctx, event, sel, b.Window(PhaseAfter))
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// FollowedBy counts (trigger, target) pairs: for every trigger event inside
// w, the target command events of the same participant that happen strictly
// after it and strictly less than w.End seconds after the annotated event.
// A target following several triggers is counted once per trigger.
func (a *Aggregator) FollowedBy(ctx context.Context, event storage.AnnotatedEvent, trigger Selector, target string, w Window) (int, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	total := 0
	for _, name := range trigger.Names {
		triggers, err := a.src.EventsInWindow(ctx, storage.WindowQuery{
			Participant: event.Participant,
			Anchor:      event.VideoTime,
			Field:       trigger.Field,
			Name:        name,
			Start:       w.Start,
			End:         w.End,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to find %q triggers: %w", name, err)
		}

		for _, t := range triggers {
			n, err := a.src.CountFollowUps(ctx, storage.FollowUpQuery{
				Participant: event.Participant,
				Anchor:      event.VideoTime,
				Trigger:     t.VideoTime,
				Target:      target,
				Bound:       w.End,
			})
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}
