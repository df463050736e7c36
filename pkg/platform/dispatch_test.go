package platform

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/e2e/pkg/errors"
)

type capture struct {
	mu     sync.Mutex
	panics []*errors.PanicError
}

func (c *capture) HandleError(*errors.FixtureError) {}

func (c *capture) HandlePanic(err *errors.PanicError) {
	c.mu.Lock()
	c.panics = append(c.panics, err)
	c.mu.Unlock()
}

func TestDrainRunsInOrder(t *testing.T) {
	l := NewLoop()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.True(t, l.Dispatch(func() { order = append(order, i) }))
	}
	assert.Equal(t, 3, l.Pending())
	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 0, l.Pending())
}

func TestDrainIncludesNestedDispatch(t *testing.T) {
	l := NewLoop()
	var order []string
	l.Dispatch(func() {
		order = append(order, "outer")
		l.Dispatch(func() { order = append(order, "deferred") })
		order = append(order, "outer-end")
	})
	l.Drain()
	assert.Equal(t, []string{"outer", "outer-end", "deferred"}, order)
}

func TestDispatchRejectsNilAndClosed(t *testing.T) {
	l := NewLoop()
	assert.False(t, l.Dispatch(nil))
	l.Dispatch(func() {})
	l.Close()
	assert.False(t, l.Dispatch(func() {}))
	assert.Equal(t, 0, l.Pending())
}

func TestRunAndCall(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	value := 0
	err := l.Call(context.Background(), func() error {
		value = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	want := stderrors.New("boom")
	assert.ErrorIs(t, l.Call(context.Background(), func() error { return want }), want)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestCallRecoversPanic(t *testing.T) {
	c := &capture{}
	errors.SetHandler(c)
	defer errors.SetHandler(nil)

	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	err := l.Call(context.Background(), func() error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// The loop keeps serving after a panic.
	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.panics, 1)
}

func TestDrainSurvivesPanic(t *testing.T) {
	c := &capture{}
	errors.SetHandler(c)
	defer errors.SetHandler(nil)

	l := NewLoop()
	ran := false
	l.Dispatch(func() { panic("first") })
	l.Dispatch(func() { ran = true })
	l.Drain()
	assert.True(t, ran)
	assert.Len(t, c.panics, 1)
}

func TestCallContextCancelled(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing runs the loop, so only the context can end the wait.
	err := l.Call(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemClockDeliversOnLoop(t *testing.T) {
	l := NewLoop()
	clock := NewSystemClock(l)
	fired := make(chan struct{})
	clock.AfterFunc(5*time.Millisecond, func() { close(fired) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestSystemClockStop(t *testing.T) {
	l := NewLoop()
	clock := NewSystemClock(l)
	fired := false
	timer := clock.AfterFunc(time.Hour, func() { fired = true })
	assert.True(t, timer.Stop())
	l.Drain()
	assert.False(t, fired)
}

func TestDispatchFunc(t *testing.T) {
	called := false
	var d Dispatcher = DispatchFunc(func(cb func()) bool { cb(); return true })
	assert.True(t, d.Dispatch(func() { called = true }))
	assert.True(t, called)
}
