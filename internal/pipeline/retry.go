package pipeline

import (
	"context"
	"time"
)

// llmRetryDelays is the LLM call backoff schedule: 3 attempts with
// exponential backoff (5s, 15s, 45s), then warning and fallback.
// Table-driven instead of computed, since the exact sequence is pinned.
var llmRetryDelays = []time.Duration{5 * time.Second, 15 * time.Second, 45 * time.Second}

// withLLMRetry calls fn up to len(llmRetryDelays)+1 times, sleeping the
// matching backoff delay between attempts, stopping early on context
// cancellation. Returns the last error if every attempt fails.
func withLLMRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= len(llmRetryDelays); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == len(llmRetryDelays) {
			break
		}
		timer := time.NewTimer(llmRetryDelays[attempt])
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}
