package resolve

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Do_SucceedsFirstAttempt(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_Do_RetriesUntilSuccess(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_Do_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	lastErr := errors.New("still broken")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Errorf("Expected last error to surface, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("nope")
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_Do_CancelledBetweenAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- policy.Do(ctx, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}

	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}
