package infra

import (
	"time"
)

// Backoff is an exponential reconnect schedule: Base * 2^retry, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff starts at 1s and caps at 60s.
var DefaultBackoff = Backoff{Base: time.Second, Max: 60 * time.Second}

// Delay returns the wait before attempt retry. Negative retries get Base.
func (b Backoff) Delay(retry int) time.Duration {
	if retry <= 0 {
		return b.Base
	}
	// past 2^30 every sane base overflows Max anyway
	if retry > 30 {
		return b.Max
	}
	d := b.Base * time.Duration(1<<retry)
	if d > b.Max || d <= 0 {
		return b.Max
	}
	return d
}

// CalculateBackoff applies DefaultBackoff.
func CalculateBackoff(retryCount int) time.Duration {
	return DefaultBackoff.Delay(retryCount)
}
