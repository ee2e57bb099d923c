package client

import "time"

// Backoff decides how long to wait before reconnect attempt n (1-based).
type Backoff interface {
	Next(attempt int) time.Duration
}

// Fixed waits the same delay between every attempt. The zero value waits
// DefaultRetryDelay.
type Fixed struct {
	Delay time.Duration
}

// DefaultRetryDelay matches the reconnect cadence mobile clients use.
const DefaultRetryDelay = 2 * time.Second

func (f Fixed) Next(int) time.Duration {
	if f.Delay <= 0 {
		return DefaultRetryDelay
	}
	return f.Delay
}

// Exponential doubles the base delay per attempt up to Max.
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

func (e Exponential) Next(attempt int) time.Duration {
	base := e.Base
	if base <= 0 {
		base = DefaultRetryDelay
	}
	max := e.Max
	if max <= 0 {
		max = time.Minute
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
