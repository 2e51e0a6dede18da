package scoring

import (
	"testing"
	"time"
)

func TestRemainingNeverNegative(t *testing.T) {
	cases := []struct {
		duration time.Duration
		elapsed  time.Duration
		want     time.Duration
	}{
		{30 * time.Minute, 0, 30 * time.Minute},
		{30 * time.Minute, 10 * time.Minute, 20 * time.Minute},
		{30 * time.Minute, 30 * time.Minute, 0},
		{30 * time.Minute, 45 * time.Minute, 0},
		{30 * time.Minute, -1 * time.Minute, 31 * time.Minute}, // clock skew upstream
	}

	for _, tc := range cases {
		if got := Remaining(tc.duration, tc.elapsed); got != tc.want {
			t.Fatalf("Remaining(%v, %v) = %v, want %v", tc.duration, tc.elapsed, got, tc.want)
		}
	}
}

func TestRemainingAtMonotone(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	prev := RemainingAt(30, started, started)
	for i := 1; i <= 40; i++ {
		now := started.Add(time.Duration(i) * time.Minute)
		cur := RemainingAt(30, started, now)
		if cur > prev {
			t.Fatalf("remaining grew from %v to %v at +%dm", prev, cur, i)
		}
		prev = cur
	}
	if prev != 0 {
		t.Fatalf("remaining after expiry = %v, want 0", prev)
	}
}

func TestRemainingAtReconnectStable(t *testing.T) {
	// The deadline depends only on the recorded start, so reconnecting
	// at the same instant always sees the same remaining time.
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := started.Add(12 * time.Minute)

	first := RemainingAt(45, started, now)
	for i := 0; i < 5; i++ {
		if got := RemainingAt(45, started, now); got != first {
			t.Fatalf("remaining changed across reads: %v != %v", got, first)
		}
	}
	if first != 33*time.Minute {
		t.Fatalf("remaining = %v, want 33m", first)
	}
}

func TestDeadline(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	want := started.Add(90 * time.Minute)
	if got := Deadline(90, started); !got.Equal(want) {
		t.Fatalf("Deadline = %v, want %v", got, want)
	}
}
