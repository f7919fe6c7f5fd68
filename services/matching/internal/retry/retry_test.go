package retry

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"skillmatch/services/matching/internal/retry/retrytest"
)

var errThrottled = errors.New("throttled")

func isThrottled(err error) bool { return errors.Is(err, errThrottled) }

func TestDoRetriesWithExponentialSchedule(t *testing.T) {
	timer := retrytest.NewTimer()
	calls := 0

	got, err := Do(context.Background(), DefaultPolicy(), func(context.Context) (string, error) {
		calls++
		if calls < 5 {
			return "", errThrottled
		}
		return "ok", nil
	}, WithRetryIf(isThrottled), WithTimer(timer))

	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if got != "ok" {
		t.Errorf("Do() = %q, want ok", got)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if delays := timer.Delays(); !reflect.DeepEqual(delays, want) {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	timer := retrytest.NewTimer()
	badRequest := errors.New("validation failed")
	calls := 0

	_, err := Do(context.Background(), DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, badRequest
	}, WithRetryIf(isThrottled), WithTimer(timer))

	if !errors.Is(err, badRequest) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("non-retryable failure must not report exhaustion")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(timer.Delays()) != 0 {
		t.Errorf("expected no waits, got %v", timer.Delays())
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	timer := retrytest.NewTimer()
	calls := 0
	var notified []int

	_, err := Do(context.Background(), DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, errThrottled
	}, WithRetryIf(isThrottled), WithTimer(timer), WithNotify(func(_ error, attempt int, _ time.Duration) {
		notified = append(notified, attempt)
	}))

	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, errThrottled) {
		t.Errorf("expected last error to be wrapped, got %v", err)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if !reflect.DeepEqual(notified, []int{1, 2, 3, 4}) {
		t.Errorf("notified attempts = %v", notified)
	}
}

func TestDoSingleAttemptPolicy(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 1, InitialDelay: time.Second, Multiplier: 2},
		func(context.Context) (int, error) {
			calls++
			return 0, errThrottled
		}, WithTimer(retrytest.NewTimer()))

	if !errors.Is(err, ErrExhausted) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errThrottled
	}, WithTimer(retrytest.NewTimer()))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicyDelays(t *testing.T) {
	p := Policy{MaxAttempts: 6, InitialDelay: time.Second, Multiplier: 2}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if got := p.Delays(); !reflect.DeepEqual(got, want) {
		t.Errorf("Delays() = %v, want %v", got, want)
	}
	if got := (Policy{MaxAttempts: 1}).Delays(); got != nil {
		t.Errorf("single attempt should have no delays, got %v", got)
	}
}
