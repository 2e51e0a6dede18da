package scoring

import "time"

// Remaining returns how much attempt time is left given the exam
// duration and the elapsed wall time since the attempt started. It
// never goes negative.
func Remaining(duration, elapsed time.Duration) time.Duration {
	r := duration - elapsed
	if r < 0 {
		return 0
	}
	return r
}

// RemainingAt computes remaining time from the authoritative start
// timestamp. The same startedAt always yields the same deadline, so
// reconnecting clients cannot stretch the clock.
func RemainingAt(durationMinutes int, startedAt, now time.Time) time.Duration {
	return Remaining(time.Duration(durationMinutes)*time.Minute, now.Sub(startedAt))
}

// Deadline returns the instant an attempt expires.
func Deadline(durationMinutes int, startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(durationMinutes) * time.Minute)
}
