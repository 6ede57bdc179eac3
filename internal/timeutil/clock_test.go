package timeutil

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	d := clock.Since(time.Now().Add(-time.Second))
	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_Frozen(t *testing.T) {
	clock := NewMockClock(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Errorf("Now() = %v, want %v", got, epoch)
	}
	if got := clock.Now(); !got.Equal(epoch) {
		t.Errorf("second Now() = %v, want frozen %v", got, epoch)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.Advance(90 * time.Second)
	if got := clock.Since(epoch); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := epoch.Add(24 * time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_Step(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.SetStep(time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	if !first.Equal(epoch) {
		t.Errorf("first Now() = %v, want %v", first, epoch)
	}
	if got := second.Sub(first); got != time.Millisecond {
		t.Errorf("step = %v, want 1ms", got)
	}
	if got := clock.Since(epoch); got != 2*time.Millisecond {
		t.Errorf("Since() = %v, want 2ms", got)
	}
}

func TestMockClock_Concurrent(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.SetStep(time.Nanosecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	if got := clock.Since(epoch); got != 1000*time.Nanosecond {
		t.Errorf("Since() = %v after 1000 steps, want 1µs", got)
	}
}
