package infra

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func newFakeNow() *fakeNow {
	return &fakeNow{t: time.Date(2025, 4, 23, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func breakerWith(cfg CircuitBreakerConfig, clk *fakeNow) *CircuitBreaker {
	cb := NewCircuitBreaker(cfg)
	cb.now = clk.now
	return cb
}

func TestCircuitBreaker_AllowInClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	if !cb.Allow() {
		t.Error("Expected Allow() to return true in CLOSED state")
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected state CLOSED, got %s", cb.GetState())
	}
	if cb.Name() != "test" {
		t.Errorf("unexpected name %q", cb.Name())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := newFakeNow()
	cb := breakerWith(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	}, clk)

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Error("Should still be CLOSED after 2 failures")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Errorf("Expected OPEN after 3 failures, got %s", cb.GetState())
	}

	if cb.Allow() {
		t.Error("Expected Allow() to return false in OPEN state")
	}
	if cb.Rejected() != 1 {
		t.Errorf("expected 1 rejected call, got %d", cb.Rejected())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Second})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.GetState() != StateClosed {
		t.Error("failures separated by a success should not open the breaker")
	}
}

func TestCircuitBreaker_HalfOpenCycle(t *testing.T) {
	tests := []struct {
		name      string
		probe     func(cb *CircuitBreaker)
		wantState State
	}{
		{
			name:      "closes after enough successes",
			probe:     func(cb *CircuitBreaker) { cb.RecordSuccess(); cb.RecordSuccess() },
			wantState: StateClosed,
		},
		{
			name:      "stays half-open after one success",
			probe:     func(cb *CircuitBreaker) { cb.RecordSuccess() },
			wantState: StateHalfOpen,
		},
		{
			name:      "reopens on failure",
			probe:     func(cb *CircuitBreaker) { cb.RecordFailure() },
			wantState: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newFakeNow()
			cb := breakerWith(CircuitBreakerConfig{
				Name:             "test",
				FailureThreshold: 2,
				SuccessThreshold: 2,
				Timeout:          50 * time.Millisecond,
			}, clk)

			cb.RecordFailure()
			cb.RecordFailure()

			clk.advance(40 * time.Millisecond)
			if cb.Allow() {
				t.Fatal("should still reject before the timeout")
			}

			clk.advance(20 * time.Millisecond)
			if !cb.Allow() {
				t.Fatal("Expected Allow() after timeout (half-open)")
			}
			if cb.GetState() != StateHalfOpen {
				t.Fatalf("Expected HALF_OPEN, got %s", cb.GetState())
			}

			tt.probe(cb)
			if cb.GetState() != tt.wantState {
				t.Errorf("got %s, want %s", cb.GetState(), tt.wantState)
			}
		})
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateOpen {
		t.Fatal("Expected OPEN state")
	}

	cb.Reset()

	if cb.GetState() != StateClosed {
		t.Errorf("Expected CLOSED after Reset, got %s", cb.GetState())
	}
	if !cb.Allow() {
		t.Error("Expected Allow() to return true after Reset")
	}
}
