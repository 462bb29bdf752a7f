package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1.0,
	}
}

func TestDoRetriesRetryable(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	attempts := 0
	permanent := errors.New("permanent")
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if attempts != 1 {
		t.Errorf("permanent errors must not retry, attempts = %d", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return Retryable(errors.New("still failing"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, Retryable(errors.New("transient"))
		}
		return 42, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error {
		return Retryable(errors.New("transient"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(Retryable(errors.New("wrapped"))) {
		t.Error("wrapped errors are retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
