package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestRealClock_NewTimer(t *testing.T) {
	timer := RealClock{}.NewTimer(5 * time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
	if timer.Stop() {
		t.Error("Stop() after firing should report inactive")
	}
}

func TestOrReal(t *testing.T) {
	if _, ok := OrReal(nil).(RealClock); !ok {
		t.Error("OrReal(nil) should be RealClock")
	}
	mock := NewMockClock(time.Unix(0, 0))
	if OrReal(mock) != Clock(mock) {
		t.Error("OrReal should pass a non-nil clock through")
	}
}

func TestMockClock_AdvanceFiresDueTimers(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewMockClock(start)
	short := clock.NewTimer(time.Second)
	long := clock.NewTimer(time.Minute)

	clock.Advance(999 * time.Millisecond)
	select {
	case <-short.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case got := <-short.C():
		if want := start.Add(time.Second); !got.Equal(want) {
			t.Errorf("fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	select {
	case <-long.C():
		t.Fatal("long timer fired early")
	default:
	}
	if got := clock.Since(start); got != time.Second {
		t.Errorf("Since = %v, want 1s", got)
	}
}

func TestMockTimer_StopAndReset(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop() on an active timer should report true")
	}
	clock.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}

	// Reset measures from the current mock time, not the original start.
	if timer.Reset(time.Second) {
		t.Error("Reset() of a stopped timer should report false")
	}
	clock.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("reset timer fired early")
	default:
	}
	clock.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("reset timer did not fire")
	}
}
