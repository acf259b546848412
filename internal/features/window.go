/*
Package features computes time-windowed behavioral features around
annotated fork candidates and assembles them into feature vectors.

A feature is a count of interaction events of one or more names, for the
annotated event's participant, inside a window of signed second offsets
from the annotated event. Every feature is declared once in the catalog;
the header and every row are produced from that single ordered list.
*/
package features

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned for a window whose start is after its end.
var ErrInvalidWindow = errors.New("invalid window")

// Window is an interval of signed second offsets from an annotated event,
// both ends inclusive.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate rejects inverted windows, which would otherwise look like a
// legitimate zero count.
func (w Window) Validate() error {
	if w.Start > w.End {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d]", w.Start, w.End)
}

// Phase places a feature before or after the fork segment.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

func (p Phase) String() string {
	if p == PhaseAfter {
		return "after"
	}
	return "before"
}

// Bounds are the window boundaries of a run, in seconds relative to the
// annotated event.
type Bounds struct {
	Before    int `json:"before"`
	ForkStart int `json:"fork_start"`
	ForkEnd   int `json:"fork_end"`
	After     int `json:"after"`
}

// DefaultBounds looks one minute back and one minute ahead, with a
// thirty second fork segment.
func DefaultBounds() Bounds {
	return Bounds{Before: -60, ForkStart: 0, ForkEnd: 30, After: 60}
}

// Window returns [Before, ForkEnd] for PhaseBefore and [ForkEnd, After]
// for PhaseAfter.
func (b Bounds) Window(p Phase) Window {
	if p == PhaseAfter {
		return Window{Start: b.ForkEnd, End: b.After}
	}
	return Window{Start: b.Before, End: b.ForkEnd}
}

// Validate requires Before <= ForkStart <= ForkEnd <= After.
func (b Bounds) Validate() error {
	if b.Before > b.ForkStart || b.ForkStart > b.ForkEnd || b.ForkEnd > b.After {
		return fmt.Errorf("%w: boundaries must satisfy before <= fork_start <= fork_end <= after, got %d, %d, %d, %d",
			ErrInvalidWindow, b.Before, b.ForkStart, b.ForkEnd, b.After)
	}
	return nil
}
