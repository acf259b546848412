package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNegativeCount is returned when a count below zero reaches a converter.
	ErrNegativeCount = errors.New("negative count")

	// ErrNoThresholds is returned for an empty threshold set.
	ErrNoThresholds = errors.New("no thresholds")

	// ErrDuplicateLabel is returned when two thresholds share a label.
	ErrDuplicateLabel = errors.New("duplicate threshold label")
)

// Threshold maps counts up to and including Max to Label.
type Threshold struct {
	Max   int    `json:"max"`
	Label string `json:"label"`
}

// Thresholds is a threshold set sorted by ascending Max.
type Thresholds []Threshold

// DefaultThresholds returns {0: None, 1: Few, 5: Some, 9: Many, 12: Lots}.
func DefaultThresholds() Thresholds {
	return Thresholds{
		{Max: 0, Label: "None"},
		{Max: 1, Label: "Few"},
		{Max: 5, Label: "Some"},
		{Max: 9, Label: "Many"},
		{Max: 12, Label: "Lots"},
	}
}

// NewThresholds builds a threshold set from a key-to-label mapping.
// Keys must be non-negative and labels non-empty and unique, since the
// labels form a nominal attribute domain.
func NewThresholds(m map[int]string) (Thresholds, error) {
	if len(m) == 0 {
		return nil, ErrNoThresholds
	}

	t := make(Thresholds, 0, len(m))
	for key, label := range m {
		if key < 0 {
			return nil, fmt.Errorf("threshold key %d: %w", key, ErrNegativeCount)
		}
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("threshold key %d has an empty label", key)
		}
		t = append(t, Threshold{Max: key, Label: label})
	}
	sort.Slice(t, func(i, j int) bool { return t[i].Max < t[j].Max })

	for i := 1; i < len(t); i++ {
		for j := 0; j < i; j++ {
			if t[i].Label == t[j].Label {
				return nil, fmt.Errorf("%q at keys %d and %d: %w", t[i].Label, t[j].Max, t[i].Max, ErrDuplicateLabel)
			}
		}
	}
	return t, nil
}

// Bin returns the label of the first threshold, in ascending order, whose
// key is >= count. Counts above the largest key take the largest key's label.
func (t Thresholds) Bin(count int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("cannot bin %d: %w", count, ErrNegativeCount)
	}
	if len(t) == 0 {
		return "", ErrNoThresholds
	}

	for _, th := range t {
		if count <= th.Max {
			return th.Label, nil
		}
	}
	return t[len(t)-1].Label, nil
}

// Labels returns the labels in ascending key order.
func (t Thresholds) Labels() []string {
	labels := make([]string, len(t))
	for i, th := range t {
		labels[i] = th.Label
	}
	return labels
}

// Map returns the thresholds as a key-to-label mapping.
func (t Thresholds) Map() map[int]string {
	m := make(map[int]string, len(t))
	for _, th := range t {
		m[th.Max] = th.Label
	}
	return m
}

// Exists converts a count into presence or absence.
func Exists(count int) (bool, error) {
	if count < 0 {
		return false, fmt.Errorf("cannot convert %d to a boolean: %w", count, ErrNegativeCount)
	}
	return count > 0, nil
}
