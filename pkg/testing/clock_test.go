package testing

import (
	"testing"
	"time"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestFakeClock_TimersFireInDeadlineOrder(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()
	var fired []time.Duration

	clk.AfterFunc(300*time.Millisecond, func() { fired = append(fired, clk.Now().Sub(start)) })
	clk.AfterFunc(100*time.Millisecond, func() { fired = append(fired, clk.Now().Sub(start)) })
	clk.AfterFunc(200*time.Millisecond, func() { fired = append(fired, clk.Now().Sub(start)) })

	clk.Advance(250 * time.Millisecond)
	if len(fired) != 2 {
		t.Fatalf("expected 2 timers to fire, got %d", len(fired))
	}
	if fired[0] != 100*time.Millisecond || fired[1] != 200*time.Millisecond {
		t.Errorf("timers saw wrong times: %v", fired)
	}
	if clk.Pending() != 1 {
		t.Errorf("expected 1 pending timer, got %d", clk.Pending())
	}

	clk.Advance(50 * time.Millisecond)
	if len(fired) != 3 || fired[2] != 300*time.Millisecond {
		t.Errorf("expected third timer at 300ms, got %v", fired)
	}
	if got := clk.Now().Sub(start); got != 300*time.Millisecond {
		t.Errorf("expected clock at 300ms, got %v", got)
	}
}

func TestFakeClock_Stop(t *testing.T) {
	clk := NewFakeClock()
	fired := false
	timer := clk.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("expected Stop to report a pending timer")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	clk.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeClock_TimerScheduledFromTimer(t *testing.T) {
	clk := NewFakeClock()
	count := 0
	clk.AfterFunc(100*time.Millisecond, func() {
		count++
		clk.AfterFunc(100*time.Millisecond, func() { count++ })
	})

	clk.Advance(250 * time.Millisecond)
	if count != 2 {
		t.Errorf("expected chained timer to fire within the same advance, got %d", count)
	}
}

func TestTester_AdvanceFiresLongPress(t *testing.T) {
	tester := NewTesterWithT(t)
	clk := tester.Clock()
	if clk == nil {
		t.Fatal("expected non-nil clock")
	}

	start := clk.Now()
	tester.Advance(500 * time.Millisecond)
	if clk.Now().Sub(start) != 500*time.Millisecond {
		t.Error("clock advancement not reflected")
	}
}
