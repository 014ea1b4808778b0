package clock_test

import (
	"testing"
	"time"

	"github.com/fsg1/fmms/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	c := clock.NewFake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("second Now() = %v, want unchanged", got)
	}

	c.Advance(time.Hour)
	if got := c.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("after Advance Now() = %v", got)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("after Set Now() = %v", got)
	}
}

func TestTicking(t *testing.T) {
	start := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	c := clock.NewTicking(start, 5*time.Millisecond)

	first := c.Now()
	second := c.Now()
	if d := second.Sub(first); d != 5*time.Millisecond {
		t.Errorf("elapsed = %v, want 5ms", d)
	}
}
