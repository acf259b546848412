package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowValidate(t *testing.T) {
	assert.NoError(t, Window{Start: -60, End: 30}.Validate())
	assert.NoError(t, Window{Start: 30, End: 30}.Validate())
	assert.ErrorIs(t, Window{Start: 60, End: 30}.Validate(), ErrInvalidWindow)
}

func TestBoundsWindow(t *testing.T) {
	b := Bounds{Before: -60, ForkStart: 0, ForkEnd: 30, After: 60}

	assert.Equal(t, Window{Start: -60, End: 30}, b.Window(PhaseBefore))
	assert.Equal(t, Window{Start: 30, End: 60}, b.Window(PhaseAfter))
}

func TestBoundsValidate(t *testing.T) {
	assert.NoError(t, DefaultBounds().Validate())
	assert.NoError(t, Bounds{Before: -180, ForkStart: 0, ForkEnd: 30, After: 30}.Validate())

	assert.ErrorIs(t, Bounds{Before: 10, ForkStart: 0, ForkEnd: 30, After: 60}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, Bounds{Before: -60, ForkStart: 0, ForkEnd: 90, After: 60}.Validate(), ErrInvalidWindow)
}
