package features

import (
	"fmt"

	"github.com/khanglvm/forkfeat/internal/storage"
)

// Label is the class of an annotated event.
type Label string

const (
	Fork    Label = "Fork"
	NotFork Label = "NotFork"
)

// Labels lists every class in declaration order.
func Labels() []Label {
	return []Label{Fork, NotFork}
}

// LabelError reports an annotated event whose signals cannot be reconciled.
type LabelError struct {
	Event  storage.AnnotatedEvent
	Reason string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("fork conditions appear incorrect (%s): %s", e.Reason, e.Event)
}

// Classify reconciles the coders' fork count with the participant's
// retrospective answer:
//
//	forks > 0, "y": Fork     (everyone agrees it is a fork)
//	forks = 0, "n": Fork     (hidden from the coders)
//	forks > 0, "n": NotFork  (the participant disagrees)
//	forks = 0, "y": NotFork
//
// Any other combination means corrupted input and is an error.
func Classify(event storage.AnnotatedEvent) (Label, error) {
	if event.Forks < 0 {
		return "", &LabelError{Event: event, Reason: "negative fork count"}
	}

	coded := event.Forks > 0
	switch event.Retrospective {
	case storage.RetrospectiveYes:
		if coded {
			return Fork, nil
		}
		return NotFork, nil
	case storage.RetrospectiveNo:
		if coded {
			return NotFork, nil
		}
		return Fork, nil
	default:
		return "", &LabelError{Event: event, Reason: fmt.Sprintf("retrospective %q is not y or n", event.Retrospective)}
	}
}
