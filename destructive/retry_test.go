package destructive

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDoublesDelay(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		BaseDelay:   400 * time.Millisecond,
		MaxAttempts: 6,
		sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	attempts := 0
	err := policy.do(context.Background(), func(error) bool { return true }, func() error {
		attempts++
		if attempts < 4 {
			return errors.New("relation does not exist")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("Expected 4 attempts, got %d", attempts)
	}

	want := []time.Duration{400 * time.Millisecond, 800 * time.Millisecond, 1600 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("Expected sleeps %v, got %v", want, slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("Expected sleeps %v, got %v", want, slept)
		}
	}
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		BaseDelay:   time.Millisecond,
		MaxAttempts: 6,
		sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	permanent := errors.New("syntax error")
	attempts := 0
	err := policy.do(context.Background(), func(error) bool { return false }, func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Expected the permanent error back, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
	if len(slept) != 0 {
		t.Errorf("Expected no sleeps, got %v", slept)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:   time.Millisecond,
		MaxAttempts: 3,
		sleep:       func(time.Duration) {},
	}

	transient := errors.New("descriptor is being dropped")
	attempts := 0
	err := policy.do(context.Background(), func(error) bool { return true }, func() error {
		attempts++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("Expected the transient error after exhaustion, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{
		BaseDelay:   time.Millisecond,
		MaxAttempts: 6,
		sleep:       func(time.Duration) {},
	}

	attempts := 0
	err := policy.do(ctx, func(error) bool { return true }, func() error {
		attempts++
		cancel()
		return errors.New("is being backfilled")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected one attempt before cancellation, got %d", attempts)
	}
}
