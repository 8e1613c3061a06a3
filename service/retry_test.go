package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordedSleep struct {
	waits []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestWithRetryReturnsFirstValidOutput(t *testing.T) {
	calls := 0
	outputs := []string{"bad", "good", "also good"}
	text, err := WithRetry(context.Background(), RetryPolicy{Stage: "guide", MaxAttempts: 3},
		func(context.Context) (string, error) {
			out := outputs[calls]
			calls++
			return out, nil
		},
		func(s string) bool { return s == "good" || s == "also good" },
	)
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if text != "good" || calls != 2 {
		t.Fatalf("want=good after 2 calls got=%q after %d", text, calls)
	}
}

func TestWithRetryExhaustsExactlyMaxAttempts(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), RetryPolicy{Stage: "guide", MaxAttempts: 3},
		func(context.Context) (string, error) {
			calls++
			return "not json", nil
		},
		func(string) bool { return false },
	)
	var gf *GenerationFailed
	if !errors.As(err, &gf) {
		t.Fatalf("expected GenerationFailed, got %v", err)
	}
	if calls != 3 || gf.Attempts != 3 || gf.Stage != "guide" {
		t.Fatalf("attempts: want=3 got calls=%d err=%+v", calls, gf)
	}
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("last error should be validation failure, got %v", gf.Err)
	}
}

func TestWithRetrySkipsValidationOnCallError(t *testing.T) {
	upstream := errors.New("502")
	validated := 0
	_, err := WithRetry(context.Background(), RetryPolicy{Stage: "sentences", MaxAttempts: 3},
		func(context.Context) (string, error) { return "", upstream },
		func(string) bool { validated++; return true },
	)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if validated != 0 {
		t.Fatalf("validate called %d times after call errors", validated)
	}
}

func TestWithRetryBacksOffOnlyAfterCallErrors(t *testing.T) {
	rec := &recordedSleep{}
	calls := 0
	_, err := WithRetry(context.Background(),
		RetryPolicy{Stage: "sentences", MaxAttempts: 3, BackoffStep: 2 * time.Second, Sleep: rec.sleep},
		func(context.Context) (string, error) {
			calls++
			if calls == 2 {
				return "invalid", nil
			}
			return "", errors.New("timeout")
		},
		func(string) bool { return false },
	)
	if err == nil {
		t.Fatalf("expected error")
	}
	// 第 1 次调用出错等待 2s；第 2 次校验失败不等待；第 3 次为最后一次不等待
	if len(rec.waits) != 1 || rec.waits[0] != 2*time.Second {
		t.Fatalf("waits: want=[2s] got=%v", rec.waits)
	}

	rec = &recordedSleep{}
	_, _ = WithRetry(context.Background(),
		RetryPolicy{Stage: "sentences", MaxAttempts: 3, BackoffStep: 2 * time.Second, Sleep: rec.sleep},
		func(context.Context) (string, error) { return "", errors.New("timeout") },
		func(string) bool { return true },
	)
	if len(rec.waits) != 2 || rec.waits[0] != 2*time.Second || rec.waits[1] != 4*time.Second {
		t.Fatalf("waits: want=[2s 4s] got=%v", rec.waits)
	}
}

func TestWithRetryNoBackoffWithoutStep(t *testing.T) {
	rec := &recordedSleep{}
	_, _ = WithRetry(context.Background(), RetryPolicy{Stage: "guide", MaxAttempts: 3, Sleep: rec.sleep},
		func(context.Context) (string, error) { return "", errors.New("x") },
		func(string) bool { return true },
	)
	if len(rec.waits) != 0 {
		t.Fatalf("waits: want none got=%v", rec.waits)
	}
}

func TestWithRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := WithRetry(ctx, RetryPolicy{Stage: "guide", MaxAttempts: 3},
		func(context.Context) (string, error) { calls++; return "ok", nil },
		func(string) bool { return true },
	)
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any call: calls=%d err=%v", calls, err)
	}
}
