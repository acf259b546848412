package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/forkfeat/internal/storage"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		forks         int
		retrospective string
		want          Label
	}{
		{"coded and confirmed", 2, "y", Fork},
		{"hidden from coders", 0, "n", Fork},
		{"coded but denied", 1, "n", NotFork},
		{"not coded and confirmed", 0, "y", NotFork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(storage.AnnotatedEvent{
				Participant:   "4",
				VideoTime:     "2013-05-14 10:00:00",
				Forks:         tt.forks,
				Retrospective: tt.retrospective,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name          string
		forks         int
		retrospective string
	}{
		{"empty retrospective", 1, ""},
		{"unknown retrospective", 0, "maybe"},
		{"upper case retrospective", 1, "Y"},
		{"negative forks", -1, "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := storage.AnnotatedEvent{
				Participant:   "7",
				VideoTime:     "2013-05-14 11:00:00",
				Forks:         tt.forks,
				Retrospective: tt.retrospective,
			}

			label, err := Classify(event)
			require.Error(t, err)
			assert.Empty(t, label)

			var labelErr *LabelError
			require.True(t, errors.As(err, &labelErr))
			assert.Equal(t, event, labelErr.Event)
			assert.Contains(t, err.Error(), "participant=7")
		})
	}
}
