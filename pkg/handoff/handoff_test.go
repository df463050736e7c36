package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-drift/e2e/pkg/geometry"
)

func newCounting() (*Recognizer, *int) {
	count := 0
	return New(func() { count++ }), &count
}

func TestLongPressThenReleaseInsideTarget(t *testing.T) {
	r, count := newCounting()
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))

	r.LongPressRecognized()
	assert.Equal(t, StatePressEngaged, r.State())

	assert.True(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.Equal(t, 1, *count)
	assert.Equal(t, StateIdle, r.State())
}

func TestReleaseWithoutLongPress(t *testing.T) {
	r, count := newCounting()
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))

	assert.False(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.Zero(t, *count)
	assert.Equal(t, StateIdle, r.State())
}

func TestReleaseOutsideTargetResetsPress(t *testing.T) {
	r, count := newCounting()
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))

	r.LongPressRecognized()
	assert.False(t, r.DragEnded(geometry.Offset{X: 200, Y: 200}))
	assert.Zero(t, *count)
	assert.Equal(t, StateIdle, r.State())
}

func TestSecondReleaseNeedsNewLongPress(t *testing.T) {
	r, count := newCounting()
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))

	r.LongPressRecognized()
	assert.True(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.False(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.Equal(t, 1, *count)

	r.LongPressRecognized()
	assert.True(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.Equal(t, 2, *count)
}

func TestOutsideReleaseNeverSucceeds(t *testing.T) {
	target := geometry.RectFromLTWH(10, 20, 80, 40)
	points := []geometry.Offset{
		{X: 9.99, Y: 30},
		{X: 90, Y: 30},
		{X: 50, Y: 19},
		{X: 50, Y: 60},
		{X: -100, Y: -100},
	}
	for _, engaged := range []bool{false, true} {
		for _, p := range points {
			r, count := newCounting()
			r.TargetLayoutMeasured(target)
			if engaged {
				r.LongPressRecognized()
			}
			assert.False(t, r.DragEnded(p), "engaged=%v point=%v", engaged, p)
			assert.Zero(t, *count)
		}
	}
}

func TestInsideReleaseSucceedsExactlyOnce(t *testing.T) {
	target := geometry.RectFromLTWH(10, 20, 80, 40)
	for x := 10.0; x < 90; x += 7.5 {
		for y := 20.0; y < 60; y += 6.5 {
			r, count := newCounting()
			r.TargetLayoutMeasured(target)
			r.LongPressRecognized()
			p := geometry.Offset{X: x, Y: y}
			assert.True(t, r.DragEnded(p), "point=%v", p)
			assert.Equal(t, 1, *count)
		}
	}
}

func TestZeroTargetNeverMatches(t *testing.T) {
	r, count := newCounting()
	r.TargetLayoutMeasured(geometry.Rect{})
	r.LongPressRecognized()
	assert.False(t, r.DragEnded(geometry.Offset{}))
	assert.Zero(t, *count)
}

func TestTargetLayoutIsIdempotent(t *testing.T) {
	rect := geometry.RectFromLTWH(0, 0, 100, 100)
	r, count := newCounting()
	r.TargetLayoutMeasured(rect)
	r.TargetLayoutMeasured(rect)
	assert.Equal(t, rect, r.Target())

	r.LongPressRecognized()
	assert.True(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	assert.Equal(t, 1, *count)
}

func TestTargetLayoutOverwrites(t *testing.T) {
	r, _ := newCounting()
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))
	r.TargetLayoutMeasured(geometry.RectFromLTWH(300, 300, 50, 50))

	r.LongPressRecognized()
	assert.False(t, r.DragEnded(geometry.Offset{X: 50, Y: 50}))
	r.LongPressRecognized()
	assert.True(t, r.DragEnded(geometry.Offset{X: 320, Y: 320}))
}

func TestZeroValueRecognizer(t *testing.T) {
	var r Recognizer
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 10, 10))
	r.LongPressRecognized()
	assert.True(t, r.DragEnded(geometry.Offset{X: 5, Y: 5}))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "press-engaged", StatePressEngaged.String())
}

func TestCancelClearsPressWithoutNotifying(t *testing.T) {
	calls := 0
	r := New(func() { calls++ })
	r.TargetLayoutMeasured(geometry.RectFromLTWH(0, 0, 100, 100))
	r.LongPressRecognized()
	r.Cancel()

	assert.Equal(t, StateIdle, r.State())
	assert.False(t, r.DragEnded(geometry.Offset{X: 10, Y: 10}))
	assert.Equal(t, 0, calls)
}
