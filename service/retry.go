package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOutput 模型返回内容未通过结构校验
var ErrInvalidOutput = errors.New("output failed structural validation")

// GenerationFailed 必需阶段在重试次数用尽后仍未得到合格输出
type GenerationFailed struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *GenerationFailed) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed after %d attempts", e.Stage, e.Attempts)
	}
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *GenerationFailed) Unwrap() error {
	return e.Err
}

// RetryPolicy 单个生成阶段的重试策略。
// BackoffStep 为 0 时不等待；否则调用出错后等待 attempt*BackoffStep 再重试，校验失败立即重试。
type RetryPolicy struct {
	Stage       string
	MaxAttempts int
	BackoffStep time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// WithRetry 调用 fn 至多 MaxAttempts 次，返回第一次通过 validate 的结果
func WithRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (string, error), validate func(string) bool) (string, error) {
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &GenerationFailed{Stage: p.Stage, Attempts: attempt - 1, Err: err}
		}

		text, err := fn(ctx)
		if err != nil {
			lastErr = err
			if p.BackoffStep > 0 && attempt < max {
				if serr := sleep(ctx, time.Duration(attempt)*p.BackoffStep); serr != nil {
					return "", &GenerationFailed{Stage: p.Stage, Attempts: attempt, Err: serr}
				}
			}
			continue
		}
		if validate == nil || validate(text) {
			return text, nil
		}
		lastErr = ErrInvalidOutput
	}
	return "", &GenerationFailed{Stage: p.Stage, Attempts: max, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
